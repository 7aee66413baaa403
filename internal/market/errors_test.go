package market_test

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"coinwatch/internal/market"
	"coinwatch/internal/provider/cmc"
	"coinwatch/internal/provider/coincap"
)

func cmcErr(status, code int) error {
	return fmt.Errorf("listings: %w", &cmc.APIError{HTTPStatus: status, Status: cmc.Status{ErrorCode: code, ErrorMessage: "x"}})
}

func TestClassify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		err       error
		want      error
		retryable bool
	}{
		{name: "cmc invalid key code", err: cmcErr(http.StatusUnauthorized, 1001), want: market.ErrAuth},
		{name: "cmc plan code on 403", err: cmcErr(http.StatusForbidden, 1006), want: market.ErrAuth},
		{name: "cmc 401 without envelope", err: cmcErr(http.StatusUnauthorized, 0), want: market.ErrAuth},
		{name: "cmc minute limit code", err: cmcErr(http.StatusTooManyRequests, 1008), want: market.ErrRateLimited, retryable: true},
		{name: "cmc daily limit code on 200", err: cmcErr(http.StatusOK, 1010), want: market.ErrRateLimited, retryable: true},
		{name: "cmc bad id", err: cmcErr(http.StatusBadRequest, 400), want: market.ErrNotFound},
		{name: "cmc 500", err: cmcErr(http.StatusInternalServerError, 500), want: market.ErrTransient, retryable: true},
		{name: "cmc malformed", err: fmt.Errorf("map: %w: bad", cmc.ErrMalformedResponse), want: market.ErrMalformed},
		{name: "coincap 404", err: &coincap.APIError{StatusCode: http.StatusNotFound, Message: "coincap: not found"}, want: market.ErrNotFound},
		{name: "coincap 429", err: &coincap.APIError{StatusCode: http.StatusTooManyRequests}, want: market.ErrRateLimited, retryable: true},
		{name: "coincap 503", err: &coincap.APIError{StatusCode: http.StatusServiceUnavailable}, want: market.ErrTransient, retryable: true},
		{name: "coincap malformed", err: fmt.Errorf("history: %w", coincap.ErrMalformedResponse), want: market.ErrMalformed},
		{name: "timeout", err: fmt.Errorf("performing request: %w", context.DeadlineExceeded), want: market.ErrTransient, retryable: true},
		{name: "transport", err: &net.OpError{Op: "dial", Err: errors.New("connection refused")}, want: market.ErrTransient, retryable: true},
		{name: "unknown", err: errors.New("something odd"), want: market.ErrTransient, retryable: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := market.Classify(tt.err)
			require.ErrorIs(t, got, tt.want)
			require.ErrorIs(t, got, tt.err)
			require.Equal(t, tt.retryable, market.Retryable(got))
			require.Equal(t, tt.retryable, market.Retryable(tt.err))
		})
	}
}

func TestClassify_KeepsProviderError(t *testing.T) {
	t.Parallel()

	got := market.Classify(cmcErr(http.StatusUnauthorized, 1002))

	var apiErr *cmc.APIError
	require.ErrorAs(t, got, &apiErr)
	require.Equal(t, 1002, apiErr.Status.ErrorCode)

	var merr *market.Error
	require.ErrorAs(t, got, &merr)
	require.Equal(t, market.ProviderCMC, merr.Provider)
	require.Equal(t, market.KindAuth, merr.Kind)
	require.NotErrorIs(t, got, market.ErrRateLimited)
}

func TestClassify_Idempotent(t *testing.T) {
	t.Parallel()

	require.NoError(t, market.Classify(nil))
	first := market.Classify(&coincap.APIError{StatusCode: http.StatusTooManyRequests})
	require.Same(t, first, market.Classify(first))
}

func TestRetryable_Canceled(t *testing.T) {
	t.Parallel()

	require.False(t, market.Retryable(nil))
	require.False(t, market.Retryable(context.Canceled))
	require.False(t, market.Retryable(fmt.Errorf("fetch: %w", context.Canceled)))
}
