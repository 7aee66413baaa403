package ratelimit

import (
	"net/http"
	"sync"
	"time"
)

// Doer is the request seam shared by the upstream clients.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// MinInterval wraps a Doer and enforces a minimum time between requests.
// Concurrent requests wait until the interval has elapsed since the last one,
// or return early if the request context is canceled.
type MinInterval struct {
	D        Doer
	Interval time.Duration

	mu   sync.Mutex
	next time.Time
}

func (m *MinInterval) Do(req *http.Request) (*http.Response, error) {
	if m.Interval > 0 {
		// reserve a slot so concurrent callers queue up instead of firing together
		m.mu.Lock()
		now := time.Now()
		slot := m.next
		if slot.Before(now) {
			slot = now
		}
		m.next = slot.Add(m.Interval)
		m.mu.Unlock()

		if wait := time.Until(slot); wait > 0 {
			t := time.NewTimer(wait)
			defer t.Stop()
			select {
			case <-req.Context().Done():
				return nil, req.Context().Err()
			case <-t.C:
			}
		}
	}
	return m.D.Do(req)
}
