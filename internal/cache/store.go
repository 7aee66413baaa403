// Package cache is a keyed, staleness-aware store for normalized upstream
// data. Concurrent reads of one key share a single upstream call, failed
// refreshes keep the last good value, and subscribed keys are refreshed in
// the background until their last subscriber leaves.
package cache

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

// Fetcher loads the value for one key.
type Fetcher func(ctx context.Context) (any, error)

// errDiscarded is returned to callers that joined a fetch whose result was
// thrown away by the generation guard.
var errDiscarded = errors.New("cache: fetch result discarded")

// maxJoinAttempts bounds how often Get rejoins after a discarded fetch.
const maxJoinAttempts = 3

type slot struct {
	rec *record

	// issued counts fetches started for the key; applied is the generation
	// of the newest result written to rec. A result with gen <= applied is
	// older than what readers have already seen and is dropped.
	issued  uint64
	applied uint64

	fetching bool
	waiters  int

	policy  Policy
	fetcher Fetcher
	subs    map[uuid.UUID]chan struct{}
	stop    context.CancelFunc
}

func (sl *slot) attached() bool {
	return sl.waiters > 0 || len(sl.subs) > 0
}

// Store holds one slot per key.
type Store struct {
	sf singleflight.Group

	mu    sync.RWMutex
	slots map[string]*slot

	now          func() time.Time
	log          logrus.FieldLogger
	retry        RetryPolicy
	fetchTimeout time.Duration
	maxItems     int

	ctx   context.Context
	close context.CancelFunc
}

// Option configures a Store.
type Option func(*Store)

// WithClock replaces time.Now for staleness decisions.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithLogger sets the logger.
func WithLogger(log logrus.FieldLogger) Option {
	return func(s *Store) { s.log = log }
}

// WithRetry sets the retry policy applied inside every fetch.
func WithRetry(p RetryPolicy) Option {
	return func(s *Store) { s.retry = p }
}

// WithFetchTimeout bounds each upstream attempt.
func WithFetchTimeout(d time.Duration) Option {
	return func(s *Store) { s.fetchTimeout = d }
}

// WithMaxItems caps the number of keys. Unattached keys are evicted first,
// stale ones before fresh ones.
func WithMaxItems(n int) Option {
	return func(s *Store) { s.maxItems = n }
}

// New creates an empty store.
func New(options ...Option) *Store {
	s := &Store{
		slots: make(map[string]*slot),
		now:   time.Now,
		log:   logrus.StandardLogger(),
	}
	for _, option := range options {
		option(s)
	}
	s.log = s.log.WithField("component", "cache")
	s.ctx, s.close = context.WithCancel(context.Background())
	return s
}

// Close stops every background poller and aborts pending retries.
func (s *Store) Close() {
	s.close()
}

// Get returns the entry for key, fetching it when missing or stale. Callers
// that arrive while a fetch is in flight share its result. On failure the
// returned entry still carries the previous value, if any, alongside the
// error.
func Get[T any](ctx context.Context, s *Store, key string, policy Policy, fetch func(context.Context) (T, error)) (Entry[T], error) {
	wrapped := func(ctx context.Context) (any, error) {
		return fetch(ctx)
	}

	s.mu.RLock()
	if sl, ok := s.slots[key]; ok && sl.rec.fresh(s.now()) {
		e := entryOf[T](sl.rec, sl.fetching)
		s.mu.RUnlock()
		return e, nil
	}
	s.mu.RUnlock()

	for attempt := 0; ; attempt++ {
		s.mu.Lock()
		sl := s.slotLocked(key)
		if sl.rec.fresh(s.now()) {
			e := entryOf[T](sl.rec, sl.fetching)
			s.mu.Unlock()
			return e, nil
		}
		sl.waiters++
		if sl.fetcher == nil {
			sl.policy = policy
			sl.fetcher = wrapped
		}
		s.mu.Unlock()

		ch := s.sf.DoChan(key, s.flight(ctx, key, policy, wrapped))

		var res singleflight.Result
		select {
		case <-ctx.Done():
			s.mu.Lock()
			sl.waiters--
			e := entryOf[T](sl.rec, sl.fetching)
			s.mu.Unlock()
			return e, ctx.Err()
		case res = <-ch:
		}

		s.mu.Lock()
		sl.waiters--
		s.mu.Unlock()

		if errors.Is(res.Err, errDiscarded) && attempt+1 < maxJoinAttempts {
			continue
		}
		rec, _ := res.Val.(*record)
		return entryOf[T](rec, false), res.Err
	}
}

// flight returns the function run once per coalesced fetch. It stamps a
// generation, fetches with retries and applies the result only when it is
// newer than what is stored and someone is still attached to the key.
func (s *Store) flight(ctx context.Context, key string, policy Policy, fetch Fetcher) func() (any, error) {
	return func() (any, error) {
		s.mu.Lock()
		sl := s.slotLocked(key)
		sl.issued++
		gen := sl.issued
		sl.fetching = true
		s.mu.Unlock()

		fctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
		stop := context.AfterFunc(s.ctx, cancel)
		v, err := s.fetchWithRetry(fctx, key, fetch)
		stop()
		cancel()

		s.mu.Lock()
		defer s.mu.Unlock()
		sl.fetching = false

		log := s.log.WithField("key", key)
		if gen <= sl.applied || !sl.attached() {
			log.WithField("generation", gen).Debug("discarding fetch result")
			return sl.rec, errDiscarded
		}
		sl.applied = gen

		now := s.now()
		if err != nil {
			next := &record{err: err, retryPending: true}
			if sl.rec != nil {
				prev := *sl.rec
				next = &prev
				next.err = err
				next.retryPending = true
				if next.staleAfter.After(now) {
					next.staleAfter = now
				}
			}
			sl.rec = next
			log.WithError(err).Warn("refresh failed")
		} else {
			sl.rec = &record{
				value:      v,
				loaded:     true,
				fetchedAt:  now,
				staleAfter: now.Add(policy.StaleAfter),
			}
			log.Debug("refreshed")
		}
		for _, ch := range sl.subs {
			select {
			case ch <- struct{}{}:
			default:
			}
		}
		return sl.rec, err
	}
}

// slotLocked returns the slot for key, creating it if needed. s.mu must be
// held for writing.
func (s *Store) slotLocked(key string) *slot {
	if sl, ok := s.slots[key]; ok {
		return sl
	}
	sl := &slot{subs: make(map[uuid.UUID]chan struct{})}
	s.slots[key] = sl
	if s.maxItems > 0 && len(s.slots) > s.maxItems {
		s.evictLocked(key)
	}
	return sl
}

// evictLocked removes idle slots until the store fits maxItems. keep is
// never evicted.
func (s *Store) evictLocked(keep string) {
	now := s.now()
	type candidate struct {
		key       string
		stale     bool
		fetchedAt time.Time
	}
	var idle []candidate
	for k, sl := range s.slots {
		if k == keep || sl.attached() || sl.fetching {
			continue
		}
		c := candidate{key: k, stale: !sl.rec.fresh(now)}
		if sl.rec != nil {
			c.fetchedAt = sl.rec.fetchedAt
		}
		idle = append(idle, c)
	}
	slices.SortFunc(idle, func(a, b candidate) int {
		if a.stale != b.stale {
			if a.stale {
				return -1
			}
			return 1
		}
		return a.fetchedAt.Compare(b.fetchedAt)
	})
	for _, c := range idle {
		if len(s.slots) <= s.maxItems {
			break
		}
		delete(s.slots, c.key)
		s.sf.Forget(c.key)
	}
}

// Invalidate marks key stale and drops the result of any fetch already in
// flight for it.
func (s *Store) Invalidate(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sl, ok := s.slots[key]
	if !ok {
		return
	}
	sl.applied = sl.issued
	if sl.rec != nil {
		next := *sl.rec
		next.staleAfter = s.now()
		sl.rec = &next
	}
}

// Peek returns the current entry for key without fetching.
func Peek[T any](s *Store, key string) (Entry[T], bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sl, ok := s.slots[key]
	if !ok || sl.rec == nil {
		return Entry[T]{}, false
	}
	return entryOf[T](sl.rec, sl.fetching), true
}

// Stats is a point-in-time summary of the store.
type Stats struct {
	Keys        int `json:"keys"`
	Loaded      int `json:"loaded"`
	Stale       int `json:"stale"`
	InFlight    int `json:"in_flight"`
	Subscribers int `json:"subscribers"`
	Polled      int `json:"polled"`
}

// Stats reports the current store occupancy.
func (s *Store) Stats() Stats {
	now := s.now()
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := Stats{Keys: len(s.slots)}
	for _, sl := range s.slots {
		if sl.rec != nil && sl.rec.loaded {
			st.Loaded++
			if !sl.rec.fresh(now) {
				st.Stale++
			}
		}
		if sl.fetching {
			st.InFlight++
		}
		st.Subscribers += len(sl.subs)
		if sl.stop != nil {
			st.Polled++
		}
	}
	return st
}
