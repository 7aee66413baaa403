package ratelimit

import (
	"fmt"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// TokenBucket gates requests through a token bucket limiter.
type TokenBucket struct {
	D Doer
	L *rate.Limiter
}

// NewTokenBucket allows perMinute requests per minute with the given burst.
func NewTokenBucket(d Doer, perMinute, burst int) *TokenBucket {
	if burst <= 0 {
		burst = 1
	}
	limit := rate.Inf
	if perMinute > 0 {
		limit = rate.Limit(float64(perMinute) / 60.0)
	}
	return &TokenBucket{D: d, L: rate.NewLimiter(limit, burst)}
}

func (t *TokenBucket) Do(req *http.Request) (*http.Response, error) {
	if t.L != nil {
		if err := t.L.Wait(req.Context()); err != nil {
			return nil, fmt.Errorf("rate limiter wait: %w", err)
		}
	}
	return t.D.Do(req)
}

// Wrap prefers a token bucket when a per-minute budget is set, then a minimum
// interval, and otherwise returns d unchanged.
func Wrap(d Doer, perMinute, burst int, minInterval time.Duration) Doer {
	switch {
	case perMinute > 0:
		return NewTokenBucket(d, perMinute, burst)
	case minInterval > 0:
		return &MinInterval{D: d, Interval: minInterval}
	default:
		return d
	}
}
