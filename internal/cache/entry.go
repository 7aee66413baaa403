package cache

import "time"

// Policy controls how long a value stays fresh and how often subscribed keys
// are refreshed in the background.
type Policy struct {
	StaleAfter time.Duration
	// PollEvery is the background refresh period for subscribed keys. Zero
	// falls back to StaleAfter.
	PollEvery time.Duration
}

func (p Policy) pollPeriod() time.Duration {
	if p.PollEvery > 0 {
		return p.PollEvery
	}
	return p.StaleAfter
}

// Entry is a typed snapshot of a cached value.
type Entry[T any] struct {
	Value      T
	Loaded     bool
	FetchedAt  time.Time
	StaleAfter time.Time
	// Refreshing is true while a fetch for the key is in flight.
	Refreshing bool
	// Err is the error of the most recent failed refresh. It is cleared by
	// the next successful one.
	Err          error
	RetryPending bool
}

// Stale reports whether the entry must be refetched on next access.
func (e Entry[T]) Stale(now time.Time) bool {
	return !e.Loaded || !now.Before(e.StaleAfter)
}

// record is the immutable value stored per key. A refresh swaps the pointer.
type record struct {
	value        any
	loaded       bool
	fetchedAt    time.Time
	staleAfter   time.Time
	err          error
	retryPending bool
}

func (r *record) fresh(now time.Time) bool {
	return r != nil && r.loaded && now.Before(r.staleAfter)
}

func entryOf[T any](r *record, refreshing bool) Entry[T] {
	e := Entry[T]{Refreshing: refreshing}
	if r == nil {
		return e
	}
	if v, ok := r.value.(T); ok {
		e.Value = v
	}
	e.Loaded = r.loaded
	e.FetchedAt = r.fetchedAt
	e.StaleAfter = r.staleAfter
	e.Err = r.err
	e.RetryPending = r.retryPending
	return e
}
