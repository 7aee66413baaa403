package cmc

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"coinwatch/internal/provider"
)

// Listings retrieves one page of the ranked listing. start is 1-based.
func (c *Client) Listings(ctx context.Context, currency string, start, limit int) ([]provider.CoinListing, error) {
	query := url.Values{}
	query.Set("start", strconv.Itoa(start))
	query.Set("limit", strconv.Itoa(limit))
	query.Set("convert", currency)

	var raw []rawListing
	if err := c.get(ctx, "/v1/cryptocurrency/listings/latest", query, &raw); err != nil {
		return nil, fmt.Errorf("listings: %w", err)
	}
	out := make([]provider.CoinListing, 0, len(raw))
	for _, r := range raw {
		out = append(out, normalizeListing(r))
	}
	return out, nil
}

// Quotes retrieves the latest quotes for ids, keyed by coin id.
func (c *Client) Quotes(ctx context.Context, ids []int, currency string) (map[int]provider.CoinListing, error) {
	query := url.Values{}
	query.Set("id", joinIDs(ids))
	query.Set("convert", currency)

	var raw map[string]rawListing
	if err := c.get(ctx, "/v2/cryptocurrency/quotes/latest", query, &raw); err != nil {
		return nil, fmt.Errorf("quotes: %w", err)
	}
	out := make(map[int]provider.CoinListing, len(raw))
	for _, r := range raw {
		out[r.ID] = normalizeListing(r)
	}
	return out, nil
}

// Map retrieves the identifier map of active coins ordered by rank.
func (c *Client) Map(ctx context.Context) ([]provider.CoinMapEntry, error) {
	query := url.Values{}
	query.Set("listing_status", "active")
	query.Set("sort", "cmc_rank")

	var raw []rawMapItem
	if err := c.get(ctx, "/v1/cryptocurrency/map", query, &raw); err != nil {
		return nil, fmt.Errorf("map: %w", err)
	}
	out := make([]provider.CoinMapEntry, 0, len(raw))
	for _, r := range raw {
		out = append(out, normalizeMapItem(r))
	}
	return out, nil
}

// Info retrieves static metadata for ids, keyed by coin id.
func (c *Client) Info(ctx context.Context, ids []int) (map[int]provider.CoinMetadata, error) {
	query := url.Values{}
	query.Set("id", joinIDs(ids))

	var raw map[string]rawInfo
	if err := c.get(ctx, "/v2/cryptocurrency/info", query, &raw); err != nil {
		return nil, fmt.Errorf("info: %w", err)
	}
	out := make(map[int]provider.CoinMetadata, len(raw))
	for _, r := range raw {
		out[r.ID] = normalizeInfo(r)
	}
	return out, nil
}
