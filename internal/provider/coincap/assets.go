package coincap

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"coinwatch/internal/provider"
)

type rawAsset struct {
	ID                string  `json:"id"`
	Rank              string  `json:"rank"`
	Symbol            string  `json:"symbol"`
	Name              string  `json:"name"`
	Supply            string  `json:"supply"`
	MaxSupply         *string `json:"maxSupply"`
	MarketCapUSD      string  `json:"marketCapUsd"`
	VolumeUSD24Hr     string  `json:"volumeUsd24Hr"`
	PriceUSD          string  `json:"priceUsd"`
	ChangePercent24Hr string  `json:"changePercent24Hr"`
	VWAP24Hr          string  `json:"vwap24Hr"`
}

type rawHistoryPoint struct {
	PriceUSD string `json:"priceUsd"`
	Time     int64  `json:"time"`
	Date     string `json:"date"`
}

// History retrieves price samples for assetID at interval (m1, m5, m15, m30,
// h1, h2, h6, h12, d1). A zero start or end leaves the bound to the API.
func (c *Client) History(ctx context.Context, assetID, interval string, start, end time.Time) ([]provider.HistoryPoint, error) {
	query := url.Values{}
	query.Set("interval", interval)
	if !start.IsZero() {
		query.Set("start", strconv.FormatInt(start.UnixMilli(), 10))
	}
	if !end.IsZero() {
		query.Set("end", strconv.FormatInt(end.UnixMilli(), 10))
	}

	var raw []rawHistoryPoint
	if err := c.get(ctx, "/assets/"+url.PathEscape(assetID)+"/history", query, &raw); err != nil {
		return nil, fmt.Errorf("history %s: %w", assetID, err)
	}
	out := make([]provider.HistoryPoint, 0, len(raw))
	for _, r := range raw {
		out = append(out, normalizePoint(r))
	}
	return out, nil
}

// Asset retrieves a single asset by its CoinCap id.
func (c *Client) Asset(ctx context.Context, id string) (provider.Asset, error) {
	var raw rawAsset
	if err := c.get(ctx, "/assets/"+url.PathEscape(id), nil, &raw); err != nil {
		return provider.Asset{}, fmt.Errorf("asset %s: %w", id, err)
	}
	return normalizeAsset(raw), nil
}

// Assets retrieves the top limit assets by rank. A non-positive limit uses
// the API default.
func (c *Client) Assets(ctx context.Context, limit int) ([]provider.Asset, error) {
	query := url.Values{}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}
	var raw []rawAsset
	if err := c.get(ctx, "/assets", query, &raw); err != nil {
		return nil, fmt.Errorf("assets: %w", err)
	}
	out := make([]provider.Asset, 0, len(raw))
	for _, r := range raw {
		out = append(out, normalizeAsset(r))
	}
	return out, nil
}

func normalizePoint(raw rawHistoryPoint) provider.HistoryPoint {
	return provider.HistoryPoint{
		Price: raw.PriceUSD,
		Time:  time.UnixMilli(raw.Time).UTC(),
	}
}

// normalizeAsset converts rank to an int; an unparsable rank becomes 0.
func normalizeAsset(raw rawAsset) provider.Asset {
	rank, err := strconv.Atoi(raw.Rank)
	if err != nil {
		rank = 0
	}
	return provider.Asset{
		ID:               raw.ID,
		Rank:             rank,
		Symbol:           raw.Symbol,
		Name:             raw.Name,
		Supply:           raw.Supply,
		MaxSupply:        raw.MaxSupply,
		MarketCapUSD:     raw.MarketCapUSD,
		VolumeUSD24h:     raw.VolumeUSD24Hr,
		PriceUSD:         raw.PriceUSD,
		ChangePercent24h: raw.ChangePercent24Hr,
		VWAP24h:          raw.VWAP24Hr,
	}
}
