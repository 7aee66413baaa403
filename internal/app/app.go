// Package app assembles the market service from configuration.
package app

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"coinwatch/internal/bridge"
	"coinwatch/internal/cache"
	"coinwatch/internal/config"
	"coinwatch/internal/httpx"
	"coinwatch/internal/market"
	"coinwatch/internal/provider/cmc"
	"coinwatch/internal/provider/coincap"
	"coinwatch/internal/provider/ratelimit"
)

// App owns the long-lived pieces behind the service.
type App struct {
	Service *market.Service
	Store   *cache.Store
}

// Close stops pollers and pending retries.
func (a *App) Close() {
	a.Store.Close()
}

// New builds both upstream clients behind their rate limits, the cache store
// and the market service.
func New(cfg config.Config, log logrus.FieldLogger) (*App, error) {
	httpClient := httpx.New(cfg.Server.RequestTimeout())

	if cfg.CMC.APIKey == "" {
		log.Warn("CMC_API_KEY not set; listings and metadata requests will be rejected upstream")
	}
	coins, err := cmc.NewClient(
		cfg.CMC.APIKey,
		cmc.WithBaseURL(cfg.CMC.BaseURL),
		cmc.WithHTTPClient(ratelimit.Wrap(httpClient,
			cfg.CMC.MaxRequestsPerMinute, cfg.CMC.Burst,
			time.Duration(cfg.CMC.MinRequestIntervalSec)*time.Second)),
	)
	if err != nil {
		return nil, fmt.Errorf("cmc client: %w", err)
	}

	assets, err := coincap.NewClient(
		coincap.WithBaseURL(cfg.CoinCap.BaseURL),
		coincap.WithHTTPClient(ratelimit.Wrap(httpClient,
			cfg.CoinCap.MaxRequestsPerMinute, cfg.CoinCap.Burst,
			time.Duration(cfg.CoinCap.MinRequestIntervalSec)*time.Second)),
	)
	if err != nil {
		return nil, fmt.Errorf("coincap client: %w", err)
	}

	store := cache.New(cfg.Cache.StoreOptions(log)...)
	svc := market.NewService(coins, assets, store,
		market.WithPolicies(cfg.Cache.Policies()),
		market.WithBridge(bridge.New(cfg.Bridge)),
		market.WithDefaultCurrency(cfg.Server.DefaultCurrency),
		market.WithSearchLimit(cfg.Search.MaxResults),
		market.WithLogger(log),
	)
	return &App{Service: svc, Store: store}, nil
}
