package cmc

import (
	"time"

	"coinwatch/internal/provider"
)

func normalizeQuote(raw rawQuote) provider.Quote {
	return provider.Quote{
		Price:                 raw.Price,
		Volume24h:             raw.Volume24h,
		VolumeChange24h:       raw.VolumeChange24h,
		PercentChange1h:       raw.PercentChange1h,
		PercentChange24h:      raw.PercentChange24h,
		PercentChange7d:       raw.PercentChange7d,
		PercentChange30d:      raw.PercentChange30d,
		MarketCap:             raw.MarketCap,
		MarketCapDominance:    raw.MarketCapDominance,
		FullyDilutedMarketCap: raw.FullyDilutedMarketCap,
		LastUpdated:           parseTime(raw.LastUpdated),
	}
}

// normalizeListing keeps every currency the upstream returned; callers pick
// the one they need afterwards.
func normalizeListing(raw rawListing) provider.CoinListing {
	quotes := make(map[string]provider.Quote, len(raw.Quote))
	for currency, q := range raw.Quote {
		quotes[currency] = normalizeQuote(q)
	}
	return provider.CoinListing{
		ID:                raw.ID,
		Name:              raw.Name,
		Symbol:            raw.Symbol,
		Slug:              raw.Slug,
		Rank:              raw.CMCRank,
		CirculatingSupply: raw.CirculatingSupply,
		TotalSupply:       raw.TotalSupply,
		MaxSupply:         raw.MaxSupply,
		DateAdded:         raw.DateAdded,
		Tags:              orEmpty(raw.Tags),
		Quotes:            quotes,
	}
}

func normalizeMapItem(raw rawMapItem) provider.CoinMapEntry {
	entry := provider.CoinMapEntry{
		ID:                  raw.ID,
		Name:                raw.Name,
		Symbol:              raw.Symbol,
		Slug:                raw.Slug,
		Rank:                raw.Rank,
		Active:              raw.IsActive == 1,
		FirstHistoricalData: raw.FirstHistoricalData,
		LastHistoricalData:  raw.LastHistoricalData,
	}
	if raw.Platform != nil {
		entry.Platform = &provider.Platform{
			ID:           raw.Platform.ID,
			Name:         raw.Platform.Name,
			Symbol:       raw.Platform.Symbol,
			Slug:         raw.Platform.Slug,
			TokenAddress: raw.Platform.TokenAddress,
		}
	}
	return entry
}

func normalizeInfo(raw rawInfo) provider.CoinMetadata {
	return provider.CoinMetadata{
		ID:           raw.ID,
		Name:         raw.Name,
		Symbol:       raw.Symbol,
		Slug:         raw.Slug,
		Category:     raw.Category,
		Description:  raw.Description,
		DateAdded:    raw.DateAdded,
		DateLaunched: raw.DateLaunched,
		Tags:         orEmpty(raw.Tags),
		Logo:         raw.Logo,
		Links: provider.Links{
			Website:      orEmpty(raw.URLs.Website),
			TechnicalDoc: orEmpty(raw.URLs.TechnicalDoc),
			Twitter:      orEmpty(raw.URLs.Twitter),
			Reddit:       orEmpty(raw.URLs.Reddit),
			MessageBoard: orEmpty(raw.URLs.MessageBoard),
			Chat:         orEmpty(raw.URLs.Chat),
			Explorer:     orEmpty(raw.URLs.Explorer),
			SourceCode:   orEmpty(raw.URLs.SourceCode),
		},
	}
}

// normalizeGlobal expects q to be raw.Quote[currency]; the client checks presence.
func normalizeGlobal(raw rawGlobal, currency string, q rawGlobalQuote) provider.GlobalMetrics {
	return provider.GlobalMetrics{
		Currency:                      currency,
		ActiveCryptocurrencies:        raw.ActiveCryptocurrencies,
		TotalCryptocurrencies:         raw.TotalCryptocurrencies,
		ActiveMarketPairs:             raw.ActiveMarketPairs,
		ActiveExchanges:               raw.ActiveExchanges,
		BTCDominance:                  raw.BTCDominance,
		ETHDominance:                  raw.ETHDominance,
		TotalMarketCap:                q.TotalMarketCap,
		TotalVolume24h:                q.TotalVolume24h,
		TotalMarketCapChangeYesterday: q.TotalMarketCapYesterdayPercentageChange,
		TotalVolume24hChangeYesterday: q.TotalVolume24hYesterdayPercentageChange,
		LastUpdated:                   parseTime(q.LastUpdated),
	}
}

func normalizeFiat(raw rawFiat) provider.Fiat {
	return provider.Fiat{ID: raw.ID, Name: raw.Name, Sign: raw.Sign, Symbol: raw.Symbol}
}

func normalizeConversion(raw rawConversion) provider.Conversion {
	quotes := make(map[string]provider.ConversionQuote, len(raw.Quote))
	for currency, q := range raw.Quote {
		quotes[currency] = provider.ConversionQuote{Price: q.Price, LastUpdated: parseTime(q.LastUpdated)}
	}
	return provider.Conversion{
		ID:          raw.ID,
		Symbol:      raw.Symbol,
		Name:        raw.Name,
		Amount:      raw.Amount,
		LastUpdated: parseTime(raw.LastUpdated),
		Quotes:      quotes,
	}
}

// parseTime accepts the API's RFC3339 timestamps (with or without fractional
// seconds) and yields the zero time for anything else.
func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t.UTC()
}

func orEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
