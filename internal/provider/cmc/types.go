package cmc

// Wire shapes of the CoinMarketCap API. Only fields we normalize are declared.

type rawQuote struct {
	Price                 float64 `json:"price"`
	Volume24h             float64 `json:"volume_24h"`
	VolumeChange24h       float64 `json:"volume_change_24h"`
	PercentChange1h       float64 `json:"percent_change_1h"`
	PercentChange24h      float64 `json:"percent_change_24h"`
	PercentChange7d       float64 `json:"percent_change_7d"`
	PercentChange30d      float64 `json:"percent_change_30d"`
	MarketCap             float64 `json:"market_cap"`
	MarketCapDominance    float64 `json:"market_cap_dominance"`
	FullyDilutedMarketCap float64 `json:"fully_diluted_market_cap"`
	LastUpdated           string  `json:"last_updated"`
}

type rawListing struct {
	ID                int                 `json:"id"`
	Name              string              `json:"name"`
	Symbol            string              `json:"symbol"`
	Slug              string              `json:"slug"`
	CMCRank           int                 `json:"cmc_rank"`
	CirculatingSupply *float64            `json:"circulating_supply"`
	TotalSupply       *float64            `json:"total_supply"`
	MaxSupply         *float64            `json:"max_supply"`
	DateAdded         string              `json:"date_added"`
	Tags              []string            `json:"tags"`
	Quote             map[string]rawQuote `json:"quote"`
}

type rawPlatform struct {
	ID           int    `json:"id"`
	Name         string `json:"name"`
	Symbol       string `json:"symbol"`
	Slug         string `json:"slug"`
	TokenAddress string `json:"token_address"`
}

type rawMapItem struct {
	ID                  int          `json:"id"`
	Name                string       `json:"name"`
	Symbol              string       `json:"symbol"`
	Slug                string       `json:"slug"`
	Rank                int          `json:"rank"`
	IsActive            int          `json:"is_active"`
	FirstHistoricalData string       `json:"first_historical_data"`
	LastHistoricalData  string       `json:"last_historical_data"`
	Platform            *rawPlatform `json:"platform"`
}

type rawURLs struct {
	Website      []string `json:"website"`
	TechnicalDoc []string `json:"technical_doc"`
	Twitter      []string `json:"twitter"`
	Reddit       []string `json:"reddit"`
	MessageBoard []string `json:"message_board"`
	Chat         []string `json:"chat"`
	Explorer     []string `json:"explorer"`
	SourceCode   []string `json:"source_code"`
}

type rawInfo struct {
	ID           int      `json:"id"`
	Name         string   `json:"name"`
	Symbol       string   `json:"symbol"`
	Slug         string   `json:"slug"`
	Category     string   `json:"category"`
	Description  string   `json:"description"`
	DateAdded    string   `json:"date_added"`
	DateLaunched *string  `json:"date_launched"`
	Tags         []string `json:"tags"`
	Logo         string   `json:"logo"`
	URLs         rawURLs  `json:"urls"`
}

type rawGlobalQuote struct {
	TotalMarketCap                          float64 `json:"total_market_cap"`
	TotalVolume24h                          float64 `json:"total_volume_24h"`
	TotalMarketCapYesterdayPercentageChange float64 `json:"total_market_cap_yesterday_percentage_change"`
	TotalVolume24hYesterdayPercentageChange float64 `json:"total_volume_24h_yesterday_percentage_change"`
	LastUpdated                             string  `json:"last_updated"`
}

type rawGlobal struct {
	ActiveCryptocurrencies int                       `json:"active_cryptocurrencies"`
	TotalCryptocurrencies  int                       `json:"total_cryptocurrencies"`
	ActiveMarketPairs      int                       `json:"active_market_pairs"`
	ActiveExchanges        int                       `json:"active_exchanges"`
	BTCDominance           float64                   `json:"btc_dominance"`
	ETHDominance           float64                   `json:"eth_dominance"`
	Quote                  map[string]rawGlobalQuote `json:"quote"`
}

type rawFiat struct {
	ID     int    `json:"id"`
	Name   string `json:"name"`
	Sign   string `json:"sign"`
	Symbol string `json:"symbol"`
}

type rawConversionQuote struct {
	Price       float64 `json:"price"`
	LastUpdated string  `json:"last_updated"`
}

type rawConversion struct {
	ID          int                           `json:"id"`
	Symbol      string                        `json:"symbol"`
	Name        string                        `json:"name"`
	Amount      float64                       `json:"amount"`
	LastUpdated string                        `json:"last_updated"`
	Quote       map[string]rawConversionQuote `json:"quote"`
}
