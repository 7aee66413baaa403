package market

import (
	"net/url"
	"strconv"
	"time"

	"coinwatch/internal/cache"
)

// Cache key categories.
const (
	categoryListings = "listings"
	categoryQuotes   = "quotes"
	categoryMap      = "map"
	categoryInfo     = "info"
	categoryGlobal   = "global"
	categoryHistory  = "history"
	categoryAsset    = "asset"
	categoryAssets   = "assets"
	categoryFiat     = "fiat"
	categoryConvert  = "convert"
)

func ListingsKey(currency string, page, perPage int) string {
	return cache.Key(categoryListings, url.Values{
		"convert":  {currency},
		"page":     {strconv.Itoa(page)},
		"per_page": {strconv.Itoa(perPage)},
	})
}

// QuotesKey is independent of the order and multiplicity of ids.
func QuotesKey(ids []int, currency string) string {
	return cache.Key(categoryQuotes, url.Values{
		"convert": {currency},
		"ids":     {cache.IDs(ids)},
	})
}

func MapKey() string { return categoryMap }

func InfoKey(ids []int) string {
	return cache.Key(categoryInfo, url.Values{"ids": {cache.IDs(ids)}})
}

func GlobalKey(currency string) string {
	return cache.Key(categoryGlobal, url.Values{"convert": {currency}})
}

// HistoryKey buckets the window bounds to granularity so that windows
// computed from a moving "now" share a key for as long as they would be
// served fresh anyway.
func HistoryKey(assetID, interval string, start, end time.Time, granularity time.Duration) string {
	v := url.Values{
		"asset":    {assetID},
		"interval": {interval},
	}
	if !start.IsZero() {
		v.Set("start", strconv.FormatInt(bucket(start, granularity), 10))
	}
	if !end.IsZero() {
		v.Set("end", strconv.FormatInt(bucket(end, granularity), 10))
	}
	return cache.Key(categoryHistory, v)
}

func bucket(t time.Time, granularity time.Duration) int64 {
	if granularity > 0 {
		t = t.Truncate(granularity)
	}
	return t.UnixMilli()
}

func AssetKey(id string) string {
	return cache.Key(categoryAsset, url.Values{"id": {id}})
}

func AssetsKey(limit int) string {
	return cache.Key(categoryAssets, url.Values{"limit": {strconv.Itoa(limit)}})
}

func FiatKey() string { return categoryFiat }

func ConvertKey(amount float64, id int, currency string) string {
	return cache.Key(categoryConvert, url.Values{
		"amount":  {strconv.FormatFloat(amount, 'f', -1, 64)},
		"id":      {strconv.Itoa(id)},
		"convert": {currency},
	})
}
