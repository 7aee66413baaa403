package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"coinwatch/internal/cache"
	"coinwatch/internal/market"
)

// envelope is the body of every data response. A stale value served after a
// failed refresh carries both data and error.
type envelope struct {
	Data       any        `json:"data"`
	FetchedAt  *time.Time `json:"fetched_at,omitempty"`
	Stale      bool       `json:"stale"`
	Refreshing bool       `json:"refreshing"`
	Error      *apiError  `json:"error,omitempty"`
}

type apiError struct {
	Kind         string `json:"kind"`
	Provider     string `json:"provider,omitempty"`
	Message      string `json:"message"`
	RetryPending bool   `json:"retry_pending,omitempty"`
}

func newAPIError(err error, retryPending bool) *apiError {
	if err == nil {
		return nil
	}
	out := &apiError{Kind: "transient", Message: err.Error(), RetryPending: retryPending}
	var merr *market.Error
	if errors.As(err, &merr) {
		out.Kind = merr.Kind.String()
		out.Provider = merr.Provider
	} else if errors.Is(err, context.Canceled) {
		out.Kind = "canceled"
	}
	return out
}

// statusFor maps an error with no usable cached value to an HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, market.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, market.ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, market.ErrAuth), errors.Is(err, market.ErrMalformed):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusServiceUnavailable
	}
}

func entryEnvelope[T any](e cache.Entry[T], err error, now time.Time) envelope {
	env := envelope{Refreshing: e.Refreshing, Error: newAPIError(err, e.RetryPending)}
	if e.Loaded {
		fetched := e.FetchedAt
		env.Data = e.Value
		env.FetchedAt = &fetched
		env.Stale = e.Stale(now)
	}
	return env
}

// respond writes e. A cached value is always served with 200, even when the
// latest refresh failed.
func respond[T any](c *gin.Context, e cache.Entry[T], err error) {
	env := entryEnvelope(e, err, time.Now())
	if err != nil && !e.Loaded {
		c.JSON(statusFor(err), env)
		return
	}
	c.JSON(http.StatusOK, env)
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, envelope{Error: &apiError{Kind: "bad_request", Message: msg}})
}
