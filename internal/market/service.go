// Package market exposes the consumer-facing queries over both upstream
// providers. Every query goes through the cache and returns the entry with
// its freshness annotations.
package market

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"coinwatch/internal/bridge"
	"coinwatch/internal/cache"
	"coinwatch/internal/provider"
	"coinwatch/internal/search"
	"coinwatch/internal/timerange"
)

// CoinSource is the ranked-listing provider.
//
//go:generate mockgen -package=market_test -destination=mock_sources_test.go -source=service.go CoinSource,AssetSource
type CoinSource interface {
	Listings(ctx context.Context, currency string, start, limit int) ([]provider.CoinListing, error)
	Quotes(ctx context.Context, ids []int, currency string) (map[int]provider.CoinListing, error)
	Map(ctx context.Context) ([]provider.CoinMapEntry, error)
	Info(ctx context.Context, ids []int) (map[int]provider.CoinMetadata, error)
	GlobalMetrics(ctx context.Context, currency string) (provider.GlobalMetrics, error)
	FiatMap(ctx context.Context) ([]provider.Fiat, error)
	PriceConversion(ctx context.Context, amount float64, id int, currency string) (provider.Conversion, error)
}

// AssetSource is the history provider.
type AssetSource interface {
	History(ctx context.Context, assetID, interval string, start, end time.Time) ([]provider.HistoryPoint, error)
	Asset(ctx context.Context, id string) (provider.Asset, error)
	Assets(ctx context.Context, limit int) ([]provider.Asset, error)
}

type builtIndex struct {
	idx       *search.Index
	fetchedAt time.Time
}

// Service answers market queries from the cache, fetching from the sources
// on a miss.
type Service struct {
	coins  CoinSource
	assets AssetSource
	store  *cache.Store

	policies        Policies
	bridge          *bridge.Bridge
	defaultCurrency string
	searchLimit     int
	now             func() time.Time
	log             logrus.FieldLogger

	index atomic.Pointer[builtIndex]
}

// Option configures a Service.
type Option func(*Service)

// WithPolicies overrides the per-category freshness policies.
func WithPolicies(p Policies) Option {
	return func(s *Service) { s.policies = p }
}

// WithBridge sets the identifier bridge used for cross-provider history.
func WithBridge(b *bridge.Bridge) Option {
	return func(s *Service) { s.bridge = b }
}

// WithDefaultCurrency sets the currency used when a query names none.
func WithDefaultCurrency(c string) Option {
	return func(s *Service) { s.defaultCurrency = strings.ToUpper(strings.TrimSpace(c)) }
}

// WithSearchLimit sets the number of search results.
func WithSearchLimit(n int) Option {
	return func(s *Service) { s.searchLimit = n }
}

// WithClock replaces time.Now for history windows.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithLogger sets the logger.
func WithLogger(log logrus.FieldLogger) Option {
	return func(s *Service) { s.log = log }
}

// NewService wires the sources to store.
func NewService(coins CoinSource, assets AssetSource, store *cache.Store, options ...Option) *Service {
	s := &Service{
		coins:           coins,
		assets:          assets,
		store:           store,
		policies:        DefaultPolicies(),
		bridge:          bridge.New(nil),
		defaultCurrency: DefaultCurrency,
		searchLimit:     search.DefaultLimit,
		now:             time.Now,
		log:             logrus.StandardLogger(),
	}
	for _, option := range options {
		option(s)
	}
	if s.defaultCurrency == "" {
		s.defaultCurrency = DefaultCurrency
	}
	s.log = s.log.WithField("component", "market")
	return s
}

// Policies returns the freshness policies in effect.
func (s *Service) Policies() Policies { return s.policies }

// Stats reports cache occupancy.
func (s *Service) Stats() cache.Stats { return s.store.Stats() }

// Currency normalizes a currency code, substituting the default for blanks.
func (s *Service) Currency(c string) string {
	c = strings.ToUpper(strings.TrimSpace(c))
	if c == "" {
		return s.defaultCurrency
	}
	return c
}

// Page clamps paging parameters to what the listings endpoint accepts.
func Page(page, perPage int) (int, int) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = DefaultPerPage
	}
	if perPage > MaxPerPage {
		perPage = MaxPerPage
	}
	return page, perPage
}

// Listings returns one page of the ranked listing.
func (s *Service) Listings(ctx context.Context, currency string, page, perPage int) (cache.Entry[[]provider.CoinListing], error) {
	currency = s.Currency(currency)
	page, perPage = Page(page, perPage)
	return cache.Get(ctx, s.store, ListingsKey(currency, page, perPage), s.policies.Listings, s.listingsFetcher(currency, page, perPage))
}

func (s *Service) listingsFetcher(currency string, page, perPage int) func(context.Context) ([]provider.CoinListing, error) {
	return func(ctx context.Context) ([]provider.CoinListing, error) {
		v, err := s.coins.Listings(ctx, currency, (page-1)*perPage+1, perPage)
		return v, classifyFrom(ProviderCMC, err)
	}
}

// Quotes returns the latest quotes for ids. An empty id set yields an empty
// map without I/O.
func (s *Service) Quotes(ctx context.Context, ids []int, currency string) (cache.Entry[map[int]provider.CoinListing], error) {
	currency = s.Currency(currency)
	if len(ids) == 0 {
		now := s.now()
		return cache.Entry[map[int]provider.CoinListing]{Value: map[int]provider.CoinListing{}, Loaded: true, FetchedAt: now, StaleAfter: now}, nil
	}
	return cache.Get(ctx, s.store, QuotesKey(ids, currency), s.policies.Quotes, s.quotesFetcher(ids, currency))
}

func (s *Service) quotesFetcher(ids []int, currency string) func(context.Context) (map[int]provider.CoinListing, error) {
	canonical := canonicalIDs(ids)
	return func(ctx context.Context) (map[int]provider.CoinListing, error) {
		v, err := s.coins.Quotes(ctx, canonical, currency)
		return v, classifyFrom(ProviderCMC, err)
	}
}

// IdentifierMap returns the full map of active coins.
func (s *Service) IdentifierMap(ctx context.Context) (cache.Entry[[]provider.CoinMapEntry], error) {
	return cache.Get(ctx, s.store, MapKey(), s.policies.Map, func(ctx context.Context) ([]provider.CoinMapEntry, error) {
		v, err := s.coins.Map(ctx)
		return v, classifyFrom(ProviderCMC, err)
	})
}

// Metadata returns static coin metadata for ids. An empty id set yields an
// empty map without I/O.
func (s *Service) Metadata(ctx context.Context, ids []int) (cache.Entry[map[int]provider.CoinMetadata], error) {
	if len(ids) == 0 {
		now := s.now()
		return cache.Entry[map[int]provider.CoinMetadata]{Value: map[int]provider.CoinMetadata{}, Loaded: true, FetchedAt: now, StaleAfter: now}, nil
	}
	canonical := canonicalIDs(ids)
	return cache.Get(ctx, s.store, InfoKey(ids), s.policies.Info, func(ctx context.Context) (map[int]provider.CoinMetadata, error) {
		v, err := s.coins.Info(ctx, canonical)
		return v, classifyFrom(ProviderCMC, err)
	})
}

// GlobalMetrics returns market totals in currency.
func (s *Service) GlobalMetrics(ctx context.Context, currency string) (cache.Entry[provider.GlobalMetrics], error) {
	currency = s.Currency(currency)
	return cache.Get(ctx, s.store, GlobalKey(currency), s.policies.Global, func(ctx context.Context) (provider.GlobalMetrics, error) {
		v, err := s.coins.GlobalMetrics(ctx, currency)
		return v, classifyFrom(ProviderCMC, err)
	})
}

// FiatMap returns the fiat currencies quotes can be converted to.
func (s *Service) FiatMap(ctx context.Context) (cache.Entry[[]provider.Fiat], error) {
	return cache.Get(ctx, s.store, FiatKey(), s.policies.Fiat, func(ctx context.Context) ([]provider.Fiat, error) {
		v, err := s.coins.FiatMap(ctx)
		return v, classifyFrom(ProviderCMC, err)
	})
}

// Convert converts amount of coin id into currency.
func (s *Service) Convert(ctx context.Context, amount float64, id int, currency string) (cache.Entry[provider.Conversion], error) {
	currency = s.Currency(currency)
	policy := s.policies.Quotes
	policy.PollEvery = 0
	return cache.Get(ctx, s.store, ConvertKey(amount, id, currency), policy, func(ctx context.Context) (provider.Conversion, error) {
		v, err := s.coins.PriceConversion(ctx, amount, id, currency)
		return v, classifyFrom(ProviderCMC, err)
	})
}

// History returns price samples for a history-provider asset id.
func (s *Service) History(ctx context.Context, assetID, interval string, start, end time.Time) (cache.Entry[[]provider.HistoryPoint], error) {
	policy := s.policies.History(interval)
	key := HistoryKey(assetID, interval, start, end, policy.StaleAfter)
	return cache.Get(ctx, s.store, key, policy, func(ctx context.Context) ([]provider.HistoryPoint, error) {
		v, err := s.assets.History(ctx, assetID, interval, start, end)
		return v, classifyFrom(ProviderCoinCap, err)
	})
}

// HistoryForSlug resolves a canonical slug and a chart range into a history
// query.
func (s *Service) HistoryForSlug(ctx context.Context, slug string, r timerange.Range) (cache.Entry[[]provider.HistoryPoint], error) {
	w, ok := timerange.Resolve(r, s.now())
	if !ok {
		return cache.Entry[[]provider.HistoryPoint]{}, &Error{Kind: KindNotFound, Err: errors.New("unsupported range " + r.String())}
	}
	return s.History(ctx, s.bridge.Resolve(slug), w.Interval, w.Start, w.End)
}

// Asset returns a single history-provider asset.
func (s *Service) Asset(ctx context.Context, id string) (cache.Entry[provider.Asset], error) {
	return cache.Get(ctx, s.store, AssetKey(id), s.policies.Asset, func(ctx context.Context) (provider.Asset, error) {
		v, err := s.assets.Asset(ctx, id)
		return v, classifyFrom(ProviderCoinCap, err)
	})
}

// Assets returns the top limit history-provider assets.
func (s *Service) Assets(ctx context.Context, limit int) (cache.Entry[[]provider.Asset], error) {
	if limit < 1 {
		limit = DefaultPerPage
	}
	return cache.Get(ctx, s.store, AssetsKey(limit), s.policies.Asset, func(ctx context.Context) ([]provider.Asset, error) {
		v, err := s.assets.Assets(ctx, limit)
		return v, classifyFrom(ProviderCoinCap, err)
	})
}

// Index returns the search index for the current identifier map. It is
// rebuilt only when the map has been refreshed. A stale map still yields an
// index.
func (s *Service) Index(ctx context.Context) (*search.Index, error) {
	e, err := s.IdentifierMap(ctx)
	if !e.Loaded {
		return nil, err
	}
	if err != nil {
		s.log.WithError(err).Warn("searching a stale identifier map")
	}
	if cur := s.index.Load(); cur != nil && cur.fetchedAt.Equal(e.FetchedAt) {
		return cur.idx, nil
	}
	idx := search.NewIndex(e.Value)
	s.index.Store(&builtIndex{idx: idx, fetchedAt: e.FetchedAt})
	s.log.WithField("entries", idx.Len()).Info("search index rebuilt")
	return idx, nil
}

// Search returns the best matches for text. A blank query matches nothing
// and does not load the index.
func (s *Service) Search(ctx context.Context, text string) ([]provider.CoinMapEntry, error) {
	if strings.TrimSpace(text) == "" {
		return []provider.CoinMapEntry{}, nil
	}
	idx, err := s.Index(ctx)
	if idx == nil {
		return []provider.CoinMapEntry{}, err
	}
	return idx.Search(text, s.searchLimit), nil
}

// Warmup preloads the identifier map and builds the search index.
func (s *Service) Warmup(ctx context.Context) error {
	start := time.Now()
	idx, err := s.Index(ctx)
	if idx == nil {
		return err
	}
	s.log.WithFields(logrus.Fields{"entries": idx.Len(), "took": time.Since(start)}).Info("warmup complete")
	return nil
}

// ReloadIndex forces a refetch of the identifier map.
func (s *Service) ReloadIndex(ctx context.Context) error {
	s.store.Invalidate(MapKey())
	_, err := s.Index(ctx)
	return err
}

// Watch is a typed subscription to a polled query.
type Watch[T any] struct {
	*cache.Subscription
	store *cache.Store
}

// Current returns the latest entry for the watched key.
func (w *Watch[T]) Current() (cache.Entry[T], bool) {
	return cache.Peek[T](w.store, w.Key)
}

// WatchListings keeps a listings page polled until the watch is closed.
func (s *Service) WatchListings(currency string, page, perPage int) *Watch[[]provider.CoinListing] {
	currency = s.Currency(currency)
	page, perPage = Page(page, perPage)
	sub := cache.Watch(s.store, ListingsKey(currency, page, perPage), s.policies.Listings, s.listingsFetcher(currency, page, perPage))
	return &Watch[[]provider.CoinListing]{Subscription: sub, store: s.store}
}

// WatchQuotes keeps quotes for ids polled until the watch is closed.
func (s *Service) WatchQuotes(ids []int, currency string) *Watch[map[int]provider.CoinListing] {
	currency = s.Currency(currency)
	sub := cache.Watch(s.store, QuotesKey(ids, currency), s.policies.Quotes, s.quotesFetcher(ids, currency))
	return &Watch[map[int]provider.CoinListing]{Subscription: sub, store: s.store}
}

// canonicalIDs sorts and de-duplicates ids so the upstream request matches
// the cache key.
func canonicalIDs(ids []int) []int {
	out := make([]int, 0, len(ids))
	seen := make(map[int]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}
