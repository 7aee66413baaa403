package cache

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

// RetryPolicy bounds how often a failed fetch is retried before the error is
// surfaced.
type RetryPolicy struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
	// Retryable reports whether err is worth another attempt. Nil retries
	// every error.
	Retryable func(error) bool
}

func (p RetryPolicy) retryable(err error) bool {
	if p.Retryable == nil {
		return true
	}
	return p.Retryable(err)
}

// Backoff returns base doubled attempt times, capped at ceiling.
func Backoff(attempt int, base, ceiling time.Duration) time.Duration {
	if base <= 0 {
		return 0
	}
	d := base
	for i := 0; i < attempt; i++ {
		d *= 2
		if ceiling > 0 && d >= ceiling {
			return ceiling
		}
	}
	if ceiling > 0 && d > ceiling {
		return ceiling
	}
	return d
}

// fetchWithRetry runs fetch until it succeeds, fails with a non-retryable
// error, or exhausts the retry budget. Each attempt gets its own timeout.
func (s *Store) fetchWithRetry(ctx context.Context, key string, fetch Fetcher) (any, error) {
	log := s.log.WithField("key", key)
	for attempt := 0; ; attempt++ {
		actx, cancel := ctx, context.CancelFunc(func() {})
		if s.fetchTimeout > 0 {
			actx, cancel = context.WithTimeout(ctx, s.fetchTimeout)
		}
		v, err := fetch(actx)
		cancel()
		if err == nil {
			return v, nil
		}
		if attempt >= s.retry.MaxRetries || !s.retry.retryable(err) {
			return nil, err
		}

		delay := Backoff(attempt, s.retry.BaseDelay, s.retry.MaxDelay)
		log.WithFields(logrus.Fields{"attempt": attempt + 1, "delay": delay}).WithError(err).Debug("fetch failed, retrying")
		t := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			t.Stop()
			return nil, err
		case <-t.C:
		}
	}
}
