package provider

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// CoinListing is the normalized shape of a ranked coin with its per-currency quotes.
// Supply fields are nil when the upstream reports them as absent.
type CoinListing struct {
	ID                int              `json:"id"`
	Name              string           `json:"name"`
	Symbol            string           `json:"symbol"`
	Slug              string           `json:"slug"`
	Rank              int              `json:"rank"`
	CirculatingSupply *float64         `json:"circulating_supply"`
	TotalSupply       *float64         `json:"total_supply"`
	MaxSupply         *float64         `json:"max_supply"`
	DateAdded         string           `json:"date_added,omitempty"`
	Tags              []string         `json:"tags"`
	Quotes            map[string]Quote `json:"quotes"` // key: currency code
}

// Quote returns the quote for currency, if the upstream returned one.
func (c CoinListing) Quote(currency string) (Quote, bool) {
	q, ok := c.Quotes[currency]
	return q, ok
}

type Quote struct {
	Price                 float64   `json:"price"`
	Volume24h             float64   `json:"volume_24h"`
	VolumeChange24h       float64   `json:"volume_change_24h"`
	PercentChange1h       float64   `json:"percent_change_1h"`
	PercentChange24h      float64   `json:"percent_change_24h"`
	PercentChange7d       float64   `json:"percent_change_7d"`
	PercentChange30d      float64   `json:"percent_change_30d"`
	MarketCap             float64   `json:"market_cap"`
	MarketCapDominance    float64   `json:"market_cap_dominance"`
	FullyDilutedMarketCap float64   `json:"fully_diluted_market_cap"`
	LastUpdated           time.Time `json:"last_updated"`
}

// CoinMapEntry is one row of the authoritative identifier space.
type CoinMapEntry struct {
	ID                  int       `json:"id"`
	Name                string    `json:"name"`
	Symbol              string    `json:"symbol"`
	Slug                string    `json:"slug"`
	Rank                int       `json:"rank"`
	Active              bool      `json:"active"`
	FirstHistoricalData string    `json:"first_historical_data,omitempty"`
	LastHistoricalData  string    `json:"last_historical_data,omitempty"`
	Platform            *Platform `json:"platform,omitempty"`
}

// Platform is the chain a token is issued on.
type Platform struct {
	ID           int    `json:"id"`
	Name         string `json:"name"`
	Symbol       string `json:"symbol"`
	Slug         string `json:"slug"`
	TokenAddress string `json:"token_address"`
}

type CoinMetadata struct {
	ID           int      `json:"id"`
	Name         string   `json:"name"`
	Symbol       string   `json:"symbol"`
	Slug         string   `json:"slug"`
	Category     string   `json:"category"`
	Description  string   `json:"description"`
	DateAdded    string   `json:"date_added,omitempty"`
	DateLaunched *string  `json:"date_launched"`
	Tags         []string `json:"tags"`
	Logo         string   `json:"logo"`
	Links        Links    `json:"links"`
}

// Links groups a coin's URLs by category. Every list is non-nil.
type Links struct {
	Website      []string `json:"website"`
	TechnicalDoc []string `json:"technical_doc"`
	Twitter      []string `json:"twitter"`
	Reddit       []string `json:"reddit"`
	MessageBoard []string `json:"message_board"`
	Chat         []string `json:"chat"`
	Explorer     []string `json:"explorer"`
	SourceCode   []string `json:"source_code"`
}

// GlobalMetrics are aggregate market totals for a single currency.
type GlobalMetrics struct {
	Currency                      string    `json:"currency"`
	ActiveCryptocurrencies        int       `json:"active_cryptocurrencies"`
	TotalCryptocurrencies         int       `json:"total_cryptocurrencies"`
	ActiveMarketPairs             int       `json:"active_market_pairs"`
	ActiveExchanges               int       `json:"active_exchanges"`
	BTCDominance                  float64   `json:"btc_dominance"`
	ETHDominance                  float64   `json:"eth_dominance"`
	TotalMarketCap                float64   `json:"total_market_cap"`
	TotalVolume24h                float64   `json:"total_volume_24h"`
	TotalMarketCapChangeYesterday float64   `json:"total_market_cap_yesterday_percentage_change"`
	TotalVolume24hChangeYesterday float64   `json:"total_volume_24h_yesterday_percentage_change"`
	LastUpdated                   time.Time `json:"last_updated"`
}

// HistoryPoint is a single price sample. Price is kept as the upstream decimal
// text and only converted on consumption.
type HistoryPoint struct {
	Price string    `json:"price"`
	Time  time.Time `json:"time"`
}

// Decimal parses Price without going through float64.
func (p HistoryPoint) Decimal() (decimal.Decimal, error) {
	d, err := decimal.NewFromString(p.Price)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parsing price %q: %w", p.Price, err)
	}
	return d, nil
}

// Float64 converts Price for charting.
func (p HistoryPoint) Float64() (float64, error) {
	d, err := p.Decimal()
	if err != nil {
		return 0, err
	}
	f, _ := d.Float64()
	return f, nil
}

// Asset is the second provider's view of a coin. Numeric fields are decimal text.
type Asset struct {
	ID               string  `json:"id"`
	Rank             int     `json:"rank"`
	Symbol           string  `json:"symbol"`
	Name             string  `json:"name"`
	Supply           string  `json:"supply"`
	MaxSupply        *string `json:"max_supply"`
	MarketCapUSD     string  `json:"market_cap_usd"`
	VolumeUSD24h     string  `json:"volume_usd_24h"`
	PriceUSD         string  `json:"price_usd"`
	ChangePercent24h string  `json:"change_percent_24h"`
	VWAP24h          string  `json:"vwap_24h"`
}

// PriceDecimal parses PriceUSD. An empty price yields zero.
func (a Asset) PriceDecimal() (decimal.Decimal, error) {
	return parseDecimal(a.PriceUSD)
}

// ChangeDecimal parses ChangePercent24h. An empty value yields zero.
func (a Asset) ChangeDecimal() (decimal.Decimal, error) {
	return parseDecimal(a.ChangePercent24h)
}

func parseDecimal(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(s)
}

// Fiat is a fiat currency known to the first provider.
type Fiat struct {
	ID     int    `json:"id"`
	Name   string `json:"name"`
	Sign   string `json:"sign"`
	Symbol string `json:"symbol"`
}

// Conversion is the result of converting an amount of one coin into other currencies.
type Conversion struct {
	ID          int                        `json:"id"`
	Symbol      string                     `json:"symbol"`
	Name        string                     `json:"name"`
	Amount      float64                    `json:"amount"`
	LastUpdated time.Time                  `json:"last_updated"`
	Quotes      map[string]ConversionQuote `json:"quotes"`
}

type ConversionQuote struct {
	Price       float64   `json:"price"`
	LastUpdated time.Time `json:"last_updated"`
}
