// Package apptest serves canned responses for both upstream providers.
package apptest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"

	"coinwatch/internal/config"
	"coinwatch/internal/provider/cmc"
)

// APIKey is the key the fake listings provider accepts.
const APIKey = "test-key"

// Upstreams is a pair of fake provider servers.
type Upstreams struct {
	CMC     *httptest.Server
	CoinCap *httptest.Server

	// Calls counts requests per path on both servers.
	calls map[string]*atomic.Int32
}

// NewUpstreams starts both servers; they are closed when t finishes.
func NewUpstreams(t testing.TB) *Upstreams {
	t.Helper()
	u := &Upstreams{calls: map[string]*atomic.Int32{}}
	for _, p := range []string{
		"/v1/cryptocurrency/listings/latest",
		"/v2/cryptocurrency/quotes/latest",
		"/v1/cryptocurrency/map",
		"/v2/cryptocurrency/info",
		"/v1/global-metrics/quotes/latest",
		"/v1/fiat/map",
		"/v1/tools/price-conversion",
		"/v2/assets",
		"/v2/assets/bitcoin",
		"/v2/assets/bitcoin/history",
	} {
		u.calls[p] = &atomic.Int32{}
	}
	u.CMC = httptest.NewServer(http.HandlerFunc(u.serveCMC))
	u.CoinCap = httptest.NewServer(http.HandlerFunc(u.serveCoinCap))
	t.Cleanup(u.CMC.Close)
	t.Cleanup(u.CoinCap.Close)
	return u
}

// Config returns a valid configuration pointing at the fake servers, with
// rate limits and retry delays removed.
func (u *Upstreams) Config() config.Config {
	cfg := config.Default()
	cfg.CMC.APIKey = APIKey
	cfg.CMC.BaseURL = u.CMC.URL
	cfg.CMC.MaxRequestsPerMinute = 0
	cfg.CoinCap.BaseURL = u.CoinCap.URL + "/v2"
	cfg.CoinCap.MaxRequestsPerMinute = 0
	cfg.Cache.RetryCount = 0
	cfg.Search.DebounceMs = 10
	cfg.Log.Level = "error"
	return cfg
}

// Calls returns how many requests reached path.
func (u *Upstreams) Calls(path string) int {
	if c, ok := u.calls[path]; ok {
		return int(c.Load())
	}
	return 0
}

func (u *Upstreams) count(path string) {
	if c, ok := u.calls[path]; ok {
		c.Add(1)
	}
}

func (u *Upstreams) serveCMC(w http.ResponseWriter, r *http.Request) {
	u.count(r.URL.Path)
	if r.Header.Get(cmc.APIKeyHeader) != APIKey {
		writeJSON(w, http.StatusUnauthorized, map[string]any{
			"status": map[string]any{"error_code": 1001, "error_message": "This API Key is invalid."},
		})
		return
	}
	q := r.URL.Query()
	var data any
	switch r.URL.Path {
	case "/v1/cryptocurrency/listings/latest":
		currency := q.Get("convert")
		start, _ := strconv.Atoi(q.Get("start"))
		data = []any{
			listing(1, "Bitcoin", "BTC", "bitcoin", start, currency, 64000),
			listing(1027, "Ethereum", "ETH", "ethereum", start+1, currency, 3200),
		}
	case "/v2/cryptocurrency/quotes/latest":
		data = map[string]any{
			"1": listing(1, "Bitcoin", "BTC", "bitcoin", 1, q.Get("convert"), 64000),
		}
	case "/v1/cryptocurrency/map":
		data = []any{
			mapItem(1, "Bitcoin", "BTC", "bitcoin", 1, 1),
			mapItem(1027, "Ethereum", "ETH", "ethereum", 2, 1),
			mapItem(1839, "BNB", "BNB", "bnb", 4, 1),
			mapItem(9999, "Bitcoin Vault", "BTCV", "bitcoin-vault", 2000, 0),
		}
	case "/v2/cryptocurrency/info":
		data = map[string]any{
			"1": map[string]any{
				"id": 1, "name": "Bitcoin", "symbol": "BTC", "slug": "bitcoin",
				"category": "coin", "logo": "https://s2.coinmarketcap.com/static/img/coins/64x64/1.png",
				"urls": map[string]any{"website": []string{"https://bitcoin.org/"}},
			},
		}
	case "/v1/global-metrics/quotes/latest":
		currency := q.Get("convert")
		data = map[string]any{
			"active_cryptocurrencies": 9800,
			"btc_dominance":           54.1,
			"quote": map[string]any{
				currency: map[string]any{"total_market_cap": 2.3e12, "total_volume_24h": 7.1e10},
			},
		}
	case "/v1/fiat/map":
		data = []any{map[string]any{"id": 2781, "name": "United States Dollar", "sign": "$", "symbol": "USD"}}
	case "/v1/tools/price-conversion":
		amount, _ := strconv.ParseFloat(q.Get("amount"), 64)
		data = map[string]any{
			"id": 1, "symbol": "BTC", "name": "Bitcoin", "amount": amount,
			"quote": map[string]any{q.Get("convert"): map[string]any{"price": amount * 64000}},
		}
	default:
		writeJSON(w, http.StatusNotFound, map[string]any{
			"status": map[string]any{"error_code": 404, "error_message": "not found"},
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status": map[string]any{"error_code": 0, "credit_count": 1},
		"data":   data,
	})
}

func (u *Upstreams) serveCoinCap(w http.ResponseWriter, r *http.Request) {
	u.count(r.URL.Path)
	switch r.URL.Path {
	case "/v2/assets":
		writeJSON(w, http.StatusOK, map[string]any{"data": []any{asset()}, "timestamp": 1722297600000})
	case "/v2/assets/bitcoin":
		writeJSON(w, http.StatusOK, map[string]any{"data": asset(), "timestamp": 1722297600000})
	case "/v2/assets/bitcoin/history":
		writeJSON(w, http.StatusOK, map[string]any{
			"data": []any{
				map[string]any{"priceUsd": "64000.1234567890", "time": 1722297000000},
				map[string]any{"priceUsd": "64010.5", "time": 1722297900000},
			},
			"timestamp": 1722297600000,
		})
	default:
		writeJSON(w, http.StatusNotFound, map[string]any{"error": r.URL.Path + " not found"})
	}
}

func listing(id int, name, symbol, slug string, rank int, currency string, price float64) map[string]any {
	return map[string]any{
		"id": id, "name": name, "symbol": symbol, "slug": slug, "cmc_rank": rank,
		"circulating_supply": 19700000, "tags": []string{},
		"quote": map[string]any{currency: map[string]any{"price": price}},
	}
}

func mapItem(id int, name, symbol, slug string, rank, active int) map[string]any {
	return map[string]any{"id": id, "name": name, "symbol": symbol, "slug": slug, "rank": rank, "is_active": active}
}

func asset() map[string]any {
	return map[string]any{
		"id": "bitcoin", "rank": "1", "symbol": "BTC", "name": "Bitcoin",
		"supply": "19700000.0000000000", "maxSupply": "21000000.0000000000",
		"priceUsd": "64000.1234567890", "changePercent24h": "-1.2500000000",
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
