package search

import (
	"sync"
	"time"
)

// DefaultDelay is the idle time before a debounced search runs.
const DefaultDelay = 300 * time.Millisecond

// Debouncer runs the most recently triggered function once input has been
// idle for the configured delay.
type Debouncer struct {
	delay time.Duration

	mu      sync.Mutex
	timer   *time.Timer
	gen     uint64
	pending bool
}

// NewDebouncer returns a Debouncer with delay. A non-positive delay uses
// DefaultDelay.
func NewDebouncer(delay time.Duration) *Debouncer {
	if delay <= 0 {
		delay = DefaultDelay
	}
	return &Debouncer{delay: delay}
}

// Trigger cancels any pending call and schedules fn after the delay.
func (d *Debouncer) Trigger(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.gen++
	gen := d.gen
	d.pending = true
	d.timer = time.AfterFunc(d.delay, func() {
		d.mu.Lock()
		if gen != d.gen {
			// superseded after the timer had already fired
			d.mu.Unlock()
			return
		}
		d.pending = false
		d.mu.Unlock()
		fn()
	})
}

// Pending reports whether a call is scheduled but has not run yet.
func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pending
}

// Stop cancels any pending call.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.gen++
	d.pending = false
}
