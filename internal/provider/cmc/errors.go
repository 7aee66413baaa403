package cmc

import (
	"errors"
	"fmt"
	"time"
)

// ErrMalformedResponse is wrapped by every error caused by a payload that
// does not match the expected envelope or data shape.
var ErrMalformedResponse = errors.New("cmc: malformed response")

// Status mirrors the status block of a CoinMarketCap envelope.
type Status struct {
	Timestamp    time.Time
	ErrorCode    int
	ErrorMessage string
	Elapsed      int // milliseconds
	CreditCount  int
}

// APIError is returned for non-2xx responses and for 2xx responses whose
// status block carries a non-zero error code.
type APIError struct {
	HTTPStatus int
	Status     Status
}

func (e *APIError) Error() string {
	msg := e.Status.ErrorMessage
	if msg == "" {
		msg = fmt.Sprintf("api error (code %d)", e.Status.ErrorCode)
	}
	return fmt.Sprintf("cmc: %s (http %d)", msg, e.HTTPStatus)
}

type rawStatus struct {
	Timestamp    string  `json:"timestamp"`
	ErrorCode    int     `json:"error_code"`
	ErrorMessage *string `json:"error_message"`
	Elapsed      int     `json:"elapsed"`
	CreditCount  int     `json:"credit_count"`
}

func (r *rawStatus) normalize() Status {
	s := Status{
		Timestamp:   parseTime(r.Timestamp),
		ErrorCode:   r.ErrorCode,
		Elapsed:     r.Elapsed,
		CreditCount: r.CreditCount,
	}
	if r.ErrorMessage != nil {
		s.ErrorMessage = *r.ErrorMessage
	}
	return s
}
