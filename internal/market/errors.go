package market

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"coinwatch/internal/provider/cmc"
	"coinwatch/internal/provider/coincap"
)

// Kind classifies upstream failures by how they should be handled.
type Kind int

const (
	KindTransient Kind = iota
	KindAuth
	KindRateLimited
	KindMalformed
	KindNotFound
)

func (k Kind) String() string {
	switch k {
	case KindAuth:
		return "auth"
	case KindRateLimited:
		return "rate limited"
	case KindMalformed:
		return "malformed response"
	case KindNotFound:
		return "not found"
	default:
		return "transient"
	}
}

// Provider names used in errors and logs.
const (
	ProviderCMC     = "cmc"
	ProviderCoinCap = "coincap"
)

// Error is a classified upstream failure. errors.Is matches it against the
// Err* sentinels by kind; errors.As still reaches the provider error.
type Error struct {
	Kind     Kind
	Provider string
	Err      error
}

var (
	ErrAuth        = &Error{Kind: KindAuth}
	ErrRateLimited = &Error{Kind: KindRateLimited}
	ErrTransient   = &Error{Kind: KindTransient}
	ErrMalformed   = &Error{Kind: KindMalformed}
	ErrNotFound    = &Error{Kind: KindNotFound}
)

func (e *Error) Error() string {
	if e.Err == nil {
		return "market: " + e.Kind.String()
	}
	if e.Provider == "" {
		return fmt.Sprintf("market: %s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("market: %s %s: %v", e.Provider, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is the sentinel for e's kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Err == nil && t.Kind == e.Kind
}

// Retryable reports whether err is worth retrying: rate limits and transient
// failures are, everything else is surfaced immediately. Context
// cancellation is never retried.
func Retryable(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	var e *Error
	if !errors.As(err, &e) {
		e = classify("", err)
	}
	return e.Kind == KindTransient || e.Kind == KindRateLimited
}

// Classify maps a raw client error onto the taxonomy. It returns nil for nil.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	return classify("", err)
}

func classifyFrom(provider string, err error) error {
	if err == nil {
		return nil
	}
	return classify(provider, err)
}

func classify(provider string, err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}

	var cmcErr *cmc.APIError
	if errors.As(err, &cmcErr) {
		return &Error{Kind: cmcKind(cmcErr), Provider: ProviderCMC, Err: err}
	}
	var capErr *coincap.APIError
	if errors.As(err, &capErr) {
		return &Error{Kind: statusKind(capErr.StatusCode), Provider: ProviderCoinCap, Err: err}
	}

	switch {
	case errors.Is(err, cmc.ErrMalformedResponse):
		return &Error{Kind: KindMalformed, Provider: ProviderCMC, Err: err}
	case errors.Is(err, coincap.ErrMalformedResponse):
		return &Error{Kind: KindMalformed, Provider: ProviderCoinCap, Err: err}
	}

	// timeouts, transport failures and anything unrecognized
	return &Error{Kind: KindTransient, Provider: provider, Err: err}
}

// cmcKind prefers the embedded error code and falls back to the HTTP status.
func cmcKind(e *cmc.APIError) Kind {
	switch code := e.Status.ErrorCode; {
	case code >= 1001 && code <= 1007:
		return KindAuth
	case code >= 1008 && code <= 1011:
		return KindRateLimited
	}
	return statusKind(e.HTTPStatus)
}

func statusKind(status int) Kind {
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden, http.StatusPaymentRequired:
		return KindAuth
	case http.StatusTooManyRequests:
		return KindRateLimited
	case http.StatusBadRequest, http.StatusNotFound:
		return KindNotFound
	}
	return KindTransient
}
