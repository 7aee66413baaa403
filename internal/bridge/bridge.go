// Package bridge maps canonical coin slugs onto the asset identifiers used by
// the history provider.
package bridge

import "strings"

// overrides holds slugs whose history-provider id differs from the canonical
// slug. Keys are lower-case.
var overrides = map[string]string{}

// Bridge resolves identifiers with an optional extra override table layered
// over the built-in one.
type Bridge struct {
	extra map[string]string
}

// New returns a Bridge that consults extra before the built-in overrides.
// Keys of extra are matched case-insensitively.
func New(extra map[string]string) *Bridge {
	m := make(map[string]string, len(extra))
	for k, v := range extra {
		k = strings.ToLower(strings.TrimSpace(k))
		v = strings.TrimSpace(v)
		if k == "" || v == "" {
			continue
		}
		m[k] = v
	}
	return &Bridge{extra: m}
}

// Resolve returns the history-provider id for slug, or slug itself when no
// override applies.
func (b *Bridge) Resolve(slug string) string {
	key := strings.ToLower(strings.TrimSpace(slug))
	if b != nil {
		if id, ok := b.extra[key]; ok {
			return id
		}
	}
	if id, ok := overrides[key]; ok {
		return id
	}
	return slug
}

// ResolveCrossProviderID resolves slug using only the built-in overrides.
func ResolveCrossProviderID(slug string) string {
	return (*Bridge)(nil).Resolve(slug)
}
