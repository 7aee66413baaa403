package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"coinwatch/internal/app"
	"coinwatch/internal/cache"
	"coinwatch/internal/config"
	"coinwatch/internal/market"
	"coinwatch/internal/timerange"
)

const usage = `usage: fetch [flags] <op>

ops:
  listings   ranked listings page (-currency, -page, -per-page)
  quotes     latest quotes (-ids, -currency)
  map        identifier map
  info       coin metadata (-ids)
  global     global metrics (-currency)
  history    price history by slug (-slug, -range)
  asset      history-provider asset (-asset)
  assets     history-provider assets (-limit)
  fiat       fiat currencies
  convert    price conversion (-amount, -id, -currency)
  search     identifier search (-q)
`

type options struct {
	configPath string
	currency   string
	page       int
	perPage    int
	ids        string
	slug       string
	rng        string
	asset      string
	limit      int
	amount     float64
	id         int
	query      string
	timeout    time.Duration
}

func main() {
	if err := godotenv.Load(); err != nil {
		logrus.Debug("no .env file found")
	}
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "fetch:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout io.Writer) error {
	var o options
	fs := flag.NewFlagSet("fetch", flag.ContinueOnError)
	fs.Usage = func() {
		fmt.Fprint(fs.Output(), usage)
		fs.PrintDefaults()
	}
	fs.StringVar(&o.configPath, "config", os.Getenv("CONFIG_FILE"), "path to config.json or config.yaml (optional)")
	fs.StringVar(&o.currency, "currency", "", "quote currency (defaults to server.default_currency)")
	fs.IntVar(&o.page, "page", 1, "listings page")
	fs.IntVar(&o.perPage, "per-page", market.DefaultPerPage, "listings page size")
	fs.StringVar(&o.ids, "ids", "", "comma-separated coin ids")
	fs.StringVar(&o.slug, "slug", "bitcoin", "canonical coin slug")
	fs.StringVar(&o.rng, "range", "7", "history range in days (1, 7, 30, 90, 365)")
	fs.StringVar(&o.asset, "asset", "bitcoin", "history-provider asset id")
	fs.IntVar(&o.limit, "limit", 10, "number of assets")
	fs.Float64Var(&o.amount, "amount", 1, "amount to convert")
	fs.IntVar(&o.id, "id", 1, "coin id to convert")
	fs.StringVar(&o.query, "q", "", "search text")
	fs.DurationVar(&o.timeout, "timeout", 15*time.Second, "overall timeout")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return errors.New("expected exactly one op")
	}

	cfg, err := config.Load(o.configPath)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	log, err := cfg.Log.Logger()
	if err != nil {
		return err
	}
	a, err := app.New(cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	v, err := query(ctx, a.Service, log, fs.Arg(0), o)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

// query runs op and returns the value to print. A cached value whose refresh
// failed is still printed; the error is only returned when nothing was cached.
func query(ctx context.Context, svc *market.Service, log logrus.FieldLogger, op string, o options) (any, error) {
	switch op {
	case "listings":
		e, err := svc.Listings(ctx, o.currency, o.page, o.perPage)
		return value(log, e, err)
	case "quotes":
		ids, err := parseIDs(o.ids)
		if err != nil {
			return nil, err
		}
		e, err := svc.Quotes(ctx, ids, o.currency)
		return value(log, e, err)
	case "map":
		e, err := svc.IdentifierMap(ctx)
		return value(log, e, err)
	case "info":
		ids, err := parseIDs(o.ids)
		if err != nil {
			return nil, err
		}
		e, err := svc.Metadata(ctx, ids)
		return value(log, e, err)
	case "global":
		e, err := svc.GlobalMetrics(ctx, o.currency)
		return value(log, e, err)
	case "history":
		r, err := timerange.Parse(o.rng)
		if err != nil {
			return nil, err
		}
		e, err := svc.HistoryForSlug(ctx, o.slug, r)
		return value(log, e, err)
	case "asset":
		e, err := svc.Asset(ctx, o.asset)
		return value(log, e, err)
	case "assets":
		e, err := svc.Assets(ctx, o.limit)
		return value(log, e, err)
	case "fiat":
		e, err := svc.FiatMap(ctx)
		return value(log, e, err)
	case "convert":
		e, err := svc.Convert(ctx, o.amount, o.id, o.currency)
		return value(log, e, err)
	case "search":
		results, err := svc.Search(ctx, o.query)
		if err != nil && len(results) == 0 {
			return nil, err
		}
		return results, nil
	default:
		return nil, fmt.Errorf("unknown op %q", op)
	}
}

func value[T any](log logrus.FieldLogger, e cache.Entry[T], err error) (any, error) {
	if err != nil && !e.Loaded {
		return nil, err
	}
	if err != nil {
		log.WithError(err).WithField("fetched_at", e.FetchedAt).Warn("refresh failed; printing cached value")
	}
	return e.Value, nil
}

func parseIDs(s string) ([]int, error) {
	if strings.TrimSpace(s) == "" {
		return nil, errors.New("-ids is required")
	}
	var ids []int
	for _, p := range strings.Split(s, ",") {
		id, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, fmt.Errorf("invalid id %q", p)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
