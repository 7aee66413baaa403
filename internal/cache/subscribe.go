package cache

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Subscription keeps a key polled while it is open. C receives a signal after
// every applied refresh, successful or not; read the value with Peek.
type Subscription struct {
	ID  uuid.UUID
	Key string
	C   <-chan struct{}

	store *Store
	once  sync.Once
}

// Close detaches the subscription. The last Close for a key stops its poller.
func (sub *Subscription) Close() {
	sub.once.Do(func() {
		sub.store.unsubscribe(sub.Key, sub.ID)
	})
}

// Subscribe attaches to key. The first subscriber starts a background poller
// that refreshes the key every policy.PollEvery, immediately if the entry is
// missing or stale.
func (s *Store) Subscribe(key string, policy Policy, fetch Fetcher) *Subscription {
	ch := make(chan struct{}, 1)
	sub := &Subscription{ID: uuid.New(), Key: key, C: ch, store: s}

	s.mu.Lock()
	defer s.mu.Unlock()
	sl := s.slotLocked(key)
	sl.subs[sub.ID] = ch
	sl.policy = policy
	sl.fetcher = fetch
	if sl.stop == nil {
		ctx, stop := context.WithCancel(s.ctx)
		sl.stop = stop
		go s.poll(ctx, key)
	}
	s.log.WithField("key", key).WithField("subscribers", len(sl.subs)).Debug("subscribed")
	return sub
}

// Watch is a typed Subscribe.
func Watch[T any](s *Store, key string, policy Policy, fetch func(context.Context) (T, error)) *Subscription {
	return s.Subscribe(key, policy, func(ctx context.Context) (any, error) {
		return fetch(ctx)
	})
}

func (s *Store) unsubscribe(key string, id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sl, ok := s.slots[key]
	if !ok {
		return
	}
	if ch, ok := sl.subs[id]; ok {
		delete(sl.subs, id)
		close(ch)
	}
	if len(sl.subs) == 0 && sl.stop != nil {
		sl.stop()
		sl.stop = nil
	}
}

func (s *Store) poll(ctx context.Context, key string) {
	log := s.log.WithField("key", key)

	s.mu.RLock()
	sl, ok := s.slots[key]
	if !ok {
		s.mu.RUnlock()
		return
	}
	period := sl.policy.pollPeriod()
	due := !sl.rec.fresh(s.now())
	s.mu.RUnlock()

	log.WithField("every", period).Info("poller started")
	defer log.Info("poller stopped")

	if due {
		s.refresh(ctx, key)
	}
	if period <= 0 {
		<-ctx.Done()
		return
	}

	t := time.NewTicker(period)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			s.refresh(ctx, key)
		}
	}
}

// refresh runs one coalesced fetch for key with the subscriber's fetcher.
func (s *Store) refresh(ctx context.Context, key string) {
	s.mu.RLock()
	sl, ok := s.slots[key]
	if !ok || sl.fetcher == nil {
		s.mu.RUnlock()
		return
	}
	policy, fetch := sl.policy, sl.fetcher
	s.mu.RUnlock()

	ch := s.sf.DoChan(key, s.flight(ctx, key, policy, fetch))
	select {
	case <-ctx.Done():
	case <-ch:
	}
}
