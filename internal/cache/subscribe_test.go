package cache_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"coinwatch/internal/cache"
)

func TestSubscribe_PollsUntilLastDetach(t *testing.T) {
	t.Parallel()

	// Arrange
	s := newStore(t)
	var calls atomic.Int32
	fetch := func(ctx context.Context) (int32, error) {
		return calls.Add(1), nil
	}
	policy := cache.Policy{StaleAfter: 10 * time.Millisecond, PollEvery: 10 * time.Millisecond}

	// Act: two consumers attach to the same key
	first := cache.Watch(s, "listings?page=1", policy, fetch)
	second := cache.Watch(s, "listings?page=1", policy, fetch)
	require.NotEqual(t, first.ID, second.ID)

	// Assert: the key is refreshed in the background by a single poller
	require.Eventually(t, func() bool { return calls.Load() >= 3 }, 2*time.Second, 5*time.Millisecond)
	st := s.Stats()
	require.Equal(t, 2, st.Subscribers)
	require.Equal(t, 1, st.Polled)

	select {
	case <-first.C:
	case <-time.After(time.Second):
		t.Fatal("expected a refresh notification")
	}
	e, ok := cache.Peek[int32](s, "listings?page=1")
	require.True(t, ok)
	require.Positive(t, e.Value)

	// Act: one consumer leaves, polling continues
	first.Close()
	first.Close()
	before := calls.Load()
	require.Eventually(t, func() bool { return calls.Load() > before }, 2*time.Second, 5*time.Millisecond)

	// Act: the last consumer leaves
	second.Close()
	require.Zero(t, s.Stats().Polled)
	require.Zero(t, s.Stats().Subscribers)

	// Assert: polling has stopped
	stopped := calls.Load()
	time.Sleep(50 * time.Millisecond)
	require.LessOrEqual(t, calls.Load(), stopped+1)

	// C is closed once drained
	for range second.C {
	}
}

func TestSubscribe_SkipsImmediateFetchWhenFresh(t *testing.T) {
	t.Parallel()

	s := newStore(t)
	var calls atomic.Int32
	fetch := func(ctx context.Context) (string, error) {
		calls.Add(1)
		return "fresh", nil
	}
	policy := cache.Policy{StaleAfter: time.Hour, PollEvery: time.Hour}

	_, err := cache.Get(t.Context(), s, "k", policy, fetch)
	require.NoError(t, err)

	sub := cache.Watch(s, "k", policy, fetch)
	defer sub.Close()

	time.Sleep(30 * time.Millisecond)
	require.Equal(t, int32(1), calls.Load())
}

func TestSubscribe_FailedPollKeepsValue(t *testing.T) {
	t.Parallel()

	s := newStore(t)
	var calls atomic.Int32
	boom := errors.New("rate limited")
	fetch := func(ctx context.Context) (string, error) {
		if calls.Add(1) == 1 {
			return "good", nil
		}
		return "", boom
	}
	policy := cache.Policy{StaleAfter: 5 * time.Millisecond, PollEvery: 5 * time.Millisecond}

	sub := cache.Watch(s, "k", policy, fetch)
	defer sub.Close()

	require.Eventually(t, func() bool {
		e, ok := cache.Peek[string](s, "k")
		return ok && errors.Is(e.Err, boom)
	}, 2*time.Second, 5*time.Millisecond)

	e, _ := cache.Peek[string](s, "k")
	require.Equal(t, "good", e.Value)
	require.True(t, e.RetryPending)
}

func TestSubscribe_FailedPollMarksFreshEntryStale(t *testing.T) {
	t.Parallel()

	s := newStore(t)
	var calls atomic.Int32
	boom := errors.New("upstream down")
	fetch := func(ctx context.Context) (string, error) {
		if calls.Add(1) == 1 {
			return "good", nil
		}
		return "", boom
	}
	policy := cache.Policy{StaleAfter: time.Hour, PollEvery: 10 * time.Millisecond}

	sub := cache.Watch(s, "k", policy, fetch)
	require.Eventually(t, func() bool {
		e, ok := cache.Peek[string](s, "k")
		return ok && errors.Is(e.Err, boom)
	}, 2*time.Second, 5*time.Millisecond)

	e, _ := cache.Peek[string](s, "k")
	require.Equal(t, "good", e.Value)
	require.True(t, e.Stale(time.Now()))

	sub.Close()
	require.Eventually(t, func() bool {
		st := s.Stats()
		return st.Polled == 0 && st.InFlight == 0
	}, 2*time.Second, 5*time.Millisecond)

	var gets atomic.Int32
	got, err := cache.Get(t.Context(), s, "k", policy, func(ctx context.Context) (string, error) {
		gets.Add(1)
		return "recovered", nil
	})
	require.NoError(t, err)
	require.Equal(t, int32(1), gets.Load())
	require.Equal(t, "recovered", got.Value)
	require.NoError(t, got.Err)
	require.False(t, got.Stale(time.Now()))
}

func TestSubscribe_LateResultDroppedAfterLastDetach(t *testing.T) {
	t.Parallel()

	s := newStore(t)
	started := make(chan struct{})
	release := make(chan struct{})
	returned := make(chan struct{})
	fetch := func(ctx context.Context) (string, error) {
		defer close(returned)
		close(started)
		<-release
		return "late", nil
	}

	sub := cache.Watch(s, "k", cache.Policy{StaleAfter: time.Hour, PollEvery: time.Hour}, fetch)
	select {
	case <-started:
	case <-time.After(time.Second):
		t.Fatal("poller never fetched")
	}

	sub.Close()
	require.Zero(t, s.Stats().Subscribers)
	close(release)
	<-returned

	require.Eventually(t, func() bool { return s.Stats().InFlight == 0 }, 2*time.Second, 5*time.Millisecond)
	_, ok := cache.Peek[string](s, "k")
	require.False(t, ok)
}

func TestStore_CloseStopsPollers(t *testing.T) {
	t.Parallel()

	s := cache.New(cache.WithLogger(quietLogger()))
	var calls atomic.Int32
	fetch := func(ctx context.Context) (int32, error) { return calls.Add(1), nil }

	sub := cache.Watch(s, "k", cache.Policy{StaleAfter: 5 * time.Millisecond}, fetch)
	defer sub.Close()
	require.Eventually(t, func() bool { return calls.Load() >= 2 }, 2*time.Second, 5*time.Millisecond)

	s.Close()
	time.Sleep(20 * time.Millisecond)
	stopped := calls.Load()
	time.Sleep(50 * time.Millisecond)
	require.Equal(t, stopped, calls.Load())
}
