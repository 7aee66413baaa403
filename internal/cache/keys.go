package cache

import (
	"net/url"
	"slices"
	"strconv"
	"strings"
)

// Key builds a canonical key for category from params. Parameter names are
// sorted so equivalent parameter sets produce the same key.
func Key(category string, params url.Values) string {
	if len(params) == 0 {
		return category
	}
	return category + "?" + params.Encode()
}

// IDs renders a set of ids in canonical form: sorted, de-duplicated and comma
// joined.
func IDs(ids []int) string {
	sorted := slices.Clone(ids)
	slices.Sort(sorted)
	sorted = slices.Compact(sorted)
	parts := make([]string, len(sorted))
	for i, id := range sorted {
		parts[i] = strconv.Itoa(id)
	}
	return strings.Join(parts, ",")
}
