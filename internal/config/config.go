package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

type Server struct {
	Port              string `json:"port" yaml:"port" validate:"required,numeric"`
	RequestTimeoutSec int    `json:"request_timeout_sec" yaml:"request_timeout_sec" validate:"gte=1,lte=300"`
	DefaultCurrency   string `json:"default_currency" yaml:"default_currency" validate:"required,alpha,min=3,max=5"`
	MaxBodyBytes      int64  `json:"max_body_bytes" yaml:"max_body_bytes" validate:"gte=0"`
}

// CMC configures the authenticated listings/metadata provider.
type CMC struct {
	APIKey                string `json:"api_key" yaml:"api_key"`
	BaseURL               string `json:"base_url" yaml:"base_url" validate:"required,url"`
	MaxRequestsPerMinute  int    `json:"max_requests_per_minute" yaml:"max_requests_per_minute" validate:"gte=0"`
	Burst                 int    `json:"burst" yaml:"burst" validate:"gte=0"`
	MinRequestIntervalSec int    `json:"min_request_interval_sec" yaml:"min_request_interval_sec" validate:"gte=0"`
}

// CoinCap configures the unauthenticated history/assets provider.
type CoinCap struct {
	BaseURL               string `json:"base_url" yaml:"base_url" validate:"required,url"`
	MaxRequestsPerMinute  int    `json:"max_requests_per_minute" yaml:"max_requests_per_minute" validate:"gte=0"`
	Burst                 int    `json:"burst" yaml:"burst" validate:"gte=0"`
	MinRequestIntervalSec int    `json:"min_request_interval_sec" yaml:"min_request_interval_sec" validate:"gte=0"`
}

// Cache holds staleness and polling periods in seconds, per query category.
type Cache struct {
	ListingsSec      int `json:"listings_sec" yaml:"listings_sec" validate:"gte=1"`
	QuotesSec        int `json:"quotes_sec" yaml:"quotes_sec" validate:"gte=1"`
	MapSec           int `json:"map_sec" yaml:"map_sec" validate:"gte=1"`
	InfoSec          int `json:"info_sec" yaml:"info_sec" validate:"gte=1"`
	GlobalSec        int `json:"global_sec" yaml:"global_sec" validate:"gte=1"`
	FiatSec          int `json:"fiat_sec" yaml:"fiat_sec" validate:"gte=1"`
	HistoryFineSec   int `json:"history_fine_sec" yaml:"history_fine_sec" validate:"gte=1"`
	HistoryCoarseSec int `json:"history_coarse_sec" yaml:"history_coarse_sec" validate:"gte=1"`
	AssetSec         int `json:"asset_sec" yaml:"asset_sec" validate:"gte=1"`
	PollSec          int `json:"poll_sec" yaml:"poll_sec" validate:"gte=0"`

	RetryCount       int `json:"retry_count" yaml:"retry_count" validate:"gte=0,lte=10"`
	RetryBaseDelayMs int `json:"retry_base_delay_ms" yaml:"retry_base_delay_ms" validate:"gte=0"`
	RetryMaxDelayMs  int `json:"retry_max_delay_ms" yaml:"retry_max_delay_ms" validate:"gte=0"`
	FetchTimeoutSec  int `json:"fetch_timeout_sec" yaml:"fetch_timeout_sec" validate:"gte=0"`
	MaxItems         int `json:"max_items" yaml:"max_items" validate:"gte=0"`
}

type Search struct {
	DebounceMs int `json:"debounce_ms" yaml:"debounce_ms" validate:"gte=0,lte=10000"`
	MaxResults int `json:"max_results" yaml:"max_results" validate:"gte=1,lte=100"`
}

type Log struct {
	Level  string `json:"level" yaml:"level" validate:"oneof=trace debug info warn warning error fatal panic"`
	Format string `json:"format" yaml:"format" validate:"oneof=json text"`
}

type Config struct {
	Server  Server  `json:"server" yaml:"server"`
	CMC     CMC     `json:"cmc" yaml:"cmc"`
	CoinCap CoinCap `json:"coincap" yaml:"coincap"`
	Cache   Cache   `json:"cache" yaml:"cache"`
	Search  Search  `json:"search" yaml:"search"`
	Log     Log     `json:"log" yaml:"log"`
	// Bridge maps canonical slugs to history-provider asset ids where the
	// two differ.
	Bridge map[string]string `json:"bridge" yaml:"bridge"`
}

func Default() Config {
	return Config{
		Server: Server{
			Port:              "8080",
			RequestTimeoutSec: 10,
			DefaultCurrency:   "USD",
			MaxBodyBytes:      1 << 20,
		},
		CMC: CMC{
			BaseURL:              "https://pro-api.coinmarketcap.com",
			MaxRequestsPerMinute: 30,
			Burst:                5,
		},
		CoinCap: CoinCap{
			BaseURL:              "https://api.coincap.io/v2",
			MaxRequestsPerMinute: 200,
			Burst:                10,
		},
		Cache: Cache{
			ListingsSec:      90,
			QuotesSec:        90,
			MapSec:           24 * 60 * 60,
			InfoSec:          60 * 60,
			GlobalSec:        5 * 60,
			FiatSec:          24 * 60 * 60,
			HistoryFineSec:   2 * 60,
			HistoryCoarseSec: 10 * 60,
			AssetSec:         5 * 60,
			PollSec:          90,
			RetryCount:       3,
			RetryBaseDelayMs: 1000,
			RetryMaxDelayMs:  30000,
			FetchTimeoutSec:  10,
			MaxItems:         5000,
		},
		Search: Search{DebounceMs: 300, MaxResults: 8},
		Log:    Log{Level: "info", Format: "json"},
	}
}

var defaultPaths = []string{"config.yaml", "config.yml", "config.json"}

// Load reads config from path, picking the decoder by extension. If path is
// empty the first existing default file is used; a missing file yields
// defaults. Environment variables are applied last.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		for _, p := range defaultPaths {
			if _, err := os.Stat(p); err == nil {
				path = p
				break
			}
		}
	}
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err == nil {
			if err := decode(path, b, &cfg); err != nil {
				return cfg, fmt.Errorf("parse config: %w", err)
			}
		}
	}
	applyEnv(&cfg)
	return cfg, nil
}

func decode(path string, b []byte, cfg *Config) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return yaml.Unmarshal(b, cfg)
	case ".json", "":
		return json.Unmarshal(b, cfg)
	default:
		return fmt.Errorf("unsupported config format %q", filepath.Ext(path))
	}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks field constraints. A missing CMC API key is not an error:
// the upstream rejects the call and the failure surfaces as an auth error.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s: failed %q", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func (s Server) RequestTimeout() time.Duration {
	return time.Duration(s.RequestTimeoutSec) * time.Second
}

func (c Cache) FetchTimeout() time.Duration {
	return time.Duration(c.FetchTimeoutSec) * time.Second
}

func (c Cache) RetryBaseDelay() time.Duration {
	return time.Duration(c.RetryBaseDelayMs) * time.Millisecond
}

func (c Cache) RetryMaxDelay() time.Duration {
	return time.Duration(c.RetryMaxDelayMs) * time.Millisecond
}

func (s Search) Debounce() time.Duration {
	return time.Duration(s.DebounceMs) * time.Millisecond
}

func seconds(n int) time.Duration { return time.Duration(n) * time.Second }

func applyEnv(cfg *Config) {
	if v := os.Getenv("PORT"); v != "" {
		cfg.Server.Port = v
	}
	envInt("REQUEST_TIMEOUT_SEC", &cfg.Server.RequestTimeoutSec, 1)
	if v := os.Getenv("DEFAULT_CURRENCY"); v != "" {
		cfg.Server.DefaultCurrency = strings.ToUpper(strings.TrimSpace(v))
	}

	if v := os.Getenv("CMC_API_KEY"); v != "" {
		cfg.CMC.APIKey = v
	}
	if v := os.Getenv("CMC_BASE_URL"); v != "" {
		cfg.CMC.BaseURL = v
	}
	envInt("CMC_MAX_RPM", &cfg.CMC.MaxRequestsPerMinute, 0)
	envInt("CMC_BURST", &cfg.CMC.Burst, 1)
	envInt("CMC_MIN_INTERVAL_SEC", &cfg.CMC.MinRequestIntervalSec, 0)

	if v := os.Getenv("COINCAP_BASE_URL"); v != "" {
		cfg.CoinCap.BaseURL = v
	}
	envInt("COINCAP_MAX_RPM", &cfg.CoinCap.MaxRequestsPerMinute, 0)
	envInt("COINCAP_BURST", &cfg.CoinCap.Burst, 1)
	envInt("COINCAP_MIN_INTERVAL_SEC", &cfg.CoinCap.MinRequestIntervalSec, 0)

	envInt("CACHE_LISTINGS_SEC", &cfg.Cache.ListingsSec, 1)
	envInt("CACHE_QUOTES_SEC", &cfg.Cache.QuotesSec, 1)
	envInt("CACHE_MAP_SEC", &cfg.Cache.MapSec, 1)
	envInt("CACHE_INFO_SEC", &cfg.Cache.InfoSec, 1)
	envInt("CACHE_GLOBAL_SEC", &cfg.Cache.GlobalSec, 1)
	envInt("CACHE_FIAT_SEC", &cfg.Cache.FiatSec, 1)
	envInt("CACHE_HISTORY_FINE_SEC", &cfg.Cache.HistoryFineSec, 1)
	envInt("CACHE_HISTORY_COARSE_SEC", &cfg.Cache.HistoryCoarseSec, 1)
	envInt("CACHE_ASSET_SEC", &cfg.Cache.AssetSec, 1)
	envInt("CACHE_POLL_SEC", &cfg.Cache.PollSec, 0)
	envInt("CACHE_MAX_ITEMS", &cfg.Cache.MaxItems, 0)
	envInt("FETCH_TIMEOUT_SEC", &cfg.Cache.FetchTimeoutSec, 0)
	envInt("RETRY_COUNT", &cfg.Cache.RetryCount, 0)
	envInt("RETRY_BASE_DELAY_MS", &cfg.Cache.RetryBaseDelayMs, 0)

	envInt("SEARCH_DEBOUNCE_MS", &cfg.Search.DebounceMs, 0)
	envInt("SEARCH_MAX_RESULTS", &cfg.Search.MaxResults, 1)

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = strings.ToLower(v)
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = strings.ToLower(v)
	}
}

// envInt overwrites *dst with the named variable when it parses and is >= floor.
func envInt(name string, dst *int, floor int) {
	v := os.Getenv(name)
	if v == "" {
		return
	}
	x, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || x < floor {
		return
	}
	*dst = x
}
