package cmc

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"coinwatch/internal/provider"
)

// GlobalMetrics retrieves aggregate market totals quoted in currency.
func (c *Client) GlobalMetrics(ctx context.Context, currency string) (provider.GlobalMetrics, error) {
	query := url.Values{}
	query.Set("convert", currency)

	var raw rawGlobal
	if err := c.get(ctx, "/v1/global-metrics/quotes/latest", query, &raw); err != nil {
		return provider.GlobalMetrics{}, fmt.Errorf("global metrics: %w", err)
	}
	q, ok := raw.Quote[currency]
	if !ok {
		return provider.GlobalMetrics{}, fmt.Errorf("global metrics: %w: no %s quote", ErrMalformedResponse, currency)
	}
	return normalizeGlobal(raw, currency, q), nil
}

// FiatMap retrieves the fiat currencies the API can convert to.
func (c *Client) FiatMap(ctx context.Context) ([]provider.Fiat, error) {
	var raw []rawFiat
	if err := c.get(ctx, "/v1/fiat/map", nil, &raw); err != nil {
		return nil, fmt.Errorf("fiat map: %w", err)
	}
	out := make([]provider.Fiat, 0, len(raw))
	for _, r := range raw {
		out = append(out, normalizeFiat(r))
	}
	return out, nil
}

// PriceConversion converts amount units of coin id into currency.
func (c *Client) PriceConversion(ctx context.Context, amount float64, id int, currency string) (provider.Conversion, error) {
	query := url.Values{}
	query.Set("amount", strconv.FormatFloat(amount, 'f', -1, 64))
	query.Set("id", strconv.Itoa(id))
	query.Set("convert", currency)

	var raw rawConversion
	if err := c.get(ctx, "/v1/tools/price-conversion", query, &raw); err != nil {
		return provider.Conversion{}, fmt.Errorf("price conversion: %w", err)
	}
	return normalizeConversion(raw), nil
}
