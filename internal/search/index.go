// Package search provides ranked autocomplete over the coin identifier map.
package search

import (
	"cmp"
	"slices"
	"strings"

	"coinwatch/internal/provider"
)

// DefaultLimit is the number of results returned for a query.
const DefaultLimit = 8

type item struct {
	entry  provider.CoinMapEntry
	name   string
	symbol string
}

// Index is an immutable lookup over a snapshot of the identifier map. It is
// safe for concurrent use.
type Index struct {
	items []item
}

// NewIndex builds an index over entries. Inactive entries are dropped; the
// rest are ordered by ascending rank.
func NewIndex(entries []provider.CoinMapEntry) *Index {
	items := make([]item, 0, len(entries))
	for _, e := range entries {
		if !e.Active {
			continue
		}
		items = append(items, item{
			entry:  e,
			name:   strings.ToLower(e.Name),
			symbol: strings.ToLower(e.Symbol),
		})
	}
	slices.SortStableFunc(items, func(a, b item) int {
		if c := cmp.Compare(a.entry.Rank, b.entry.Rank); c != 0 {
			return c
		}
		return cmp.Compare(a.entry.ID, b.entry.ID)
	})
	return &Index{items: items}
}

// Len returns the number of searchable entries.
func (x *Index) Len() int {
	if x == nil {
		return 0
	}
	return len(x.items)
}

// Search returns up to limit entries whose name or symbol contains text,
// case-insensitively, best rank first. A blank query matches nothing.
func (x *Index) Search(text string, limit int) []provider.CoinMapEntry {
	q := strings.ToLower(strings.TrimSpace(text))
	if q == "" || x == nil {
		return []provider.CoinMapEntry{}
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	out := make([]provider.CoinMapEntry, 0, limit)
	for _, it := range x.items {
		if strings.Contains(it.name, q) || strings.Contains(it.symbol, q) {
			out = append(out, it.entry)
			if len(out) == limit {
				break
			}
		}
	}
	return out
}
