package market

import (
	"time"

	"coinwatch/internal/cache"
	"coinwatch/internal/timerange"
)

const (
	// DefaultPerPage is the listings page size when none is given.
	DefaultPerPage = 100
	// MaxPerPage is the largest page the listings endpoint accepts.
	MaxPerPage = 5000
	// DefaultCurrency is used when a query names no currency.
	DefaultCurrency = "USD"
)

// Policies holds the staleness policy of every query category.
type Policies struct {
	Listings      cache.Policy
	Quotes        cache.Policy
	Map           cache.Policy
	Info          cache.Policy
	Global        cache.Policy
	Fiat          cache.Policy
	HistoryFine   cache.Policy
	HistoryCoarse cache.Policy
	Asset         cache.Policy
}

// DefaultPolicies returns the stock freshness windows. Listings and quotes
// are polled while watched.
func DefaultPolicies() Policies {
	return Policies{
		Listings:      cache.Policy{StaleAfter: 90 * time.Second, PollEvery: 90 * time.Second},
		Quotes:        cache.Policy{StaleAfter: 90 * time.Second, PollEvery: 90 * time.Second},
		Map:           cache.Policy{StaleAfter: 24 * time.Hour},
		Info:          cache.Policy{StaleAfter: time.Hour},
		Global:        cache.Policy{StaleAfter: 5 * time.Minute},
		Fiat:          cache.Policy{StaleAfter: 24 * time.Hour},
		HistoryFine:   cache.Policy{StaleAfter: 2 * time.Minute},
		HistoryCoarse: cache.Policy{StaleAfter: 10 * time.Minute},
		Asset:         cache.Policy{StaleAfter: 5 * time.Minute},
	}
}

// History picks the fine or coarse policy by sampling interval.
func (p Policies) History(interval string) cache.Policy {
	if timerange.Fine(interval) {
		return p.HistoryFine
	}
	return p.HistoryCoarse
}
