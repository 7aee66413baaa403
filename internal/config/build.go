package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"

	"coinwatch/internal/cache"
	"coinwatch/internal/market"
)

// Policies converts the cache section into per-category freshness policies.
// Listings and quotes are polled at PollSec while watched.
func (c Cache) Policies() market.Policies {
	poll := seconds(c.PollSec)
	return market.Policies{
		Listings:      cache.Policy{StaleAfter: seconds(c.ListingsSec), PollEvery: poll},
		Quotes:        cache.Policy{StaleAfter: seconds(c.QuotesSec), PollEvery: poll},
		Map:           cache.Policy{StaleAfter: seconds(c.MapSec)},
		Info:          cache.Policy{StaleAfter: seconds(c.InfoSec)},
		Global:        cache.Policy{StaleAfter: seconds(c.GlobalSec)},
		Fiat:          cache.Policy{StaleAfter: seconds(c.FiatSec)},
		HistoryFine:   cache.Policy{StaleAfter: seconds(c.HistoryFineSec)},
		HistoryCoarse: cache.Policy{StaleAfter: seconds(c.HistoryCoarseSec)},
		Asset:         cache.Policy{StaleAfter: seconds(c.AssetSec)},
	}
}

// StoreOptions returns the cache store options described by the cache section.
func (c Cache) StoreOptions(log logrus.FieldLogger) []cache.Option {
	return []cache.Option{
		cache.WithLogger(log),
		cache.WithFetchTimeout(c.FetchTimeout()),
		cache.WithMaxItems(c.MaxItems),
		cache.WithRetry(cache.RetryPolicy{
			MaxRetries: c.RetryCount,
			BaseDelay:  c.RetryBaseDelay(),
			MaxDelay:   c.RetryMaxDelay(),
			Retryable:  market.Retryable,
		}),
	}
}

// Logger builds the root logger.
func (l Log) Logger() (*logrus.Logger, error) {
	level, err := logrus.ParseLevel(l.Level)
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	log := logrus.New()
	log.SetOutput(os.Stderr)
	log.SetLevel(level)
	switch strings.ToLower(l.Format) {
	case "text":
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	default:
		log.SetFormatter(&logrus.JSONFormatter{})
	}
	return log, nil
}
