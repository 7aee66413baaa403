package search_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"coinwatch/internal/search"
)

func TestNavigate(t *testing.T) {
	t.Parallel()

	open := func(h int) search.Nav { return search.Nav{Open: true, Highlight: h} }

	tests := []struct {
		name       string
		state      search.Nav
		key        search.Key
		n          int
		want       search.Nav
		wantCommit int
	}{
		{name: "down from nothing", state: open(-1), key: search.ArrowDown, n: 3, want: open(0), wantCommit: -1},
		{name: "down moves", state: open(0), key: search.ArrowDown, n: 3, want: open(1), wantCommit: -1},
		{name: "down wraps", state: open(2), key: search.ArrowDown, n: 3, want: open(0), wantCommit: -1},
		{name: "up wraps", state: open(0), key: search.ArrowUp, n: 3, want: open(2), wantCommit: -1},
		{name: "up from nothing", state: open(-1), key: search.ArrowUp, n: 3, want: open(2), wantCommit: -1},
		{name: "up moves", state: open(2), key: search.ArrowUp, n: 3, want: open(1), wantCommit: -1},
		{name: "arrows without results", state: open(-1), key: search.ArrowDown, n: 0, want: open(-1), wantCommit: -1},
		{name: "enter commits", state: open(1), key: search.Enter, n: 3, want: search.Closed, wantCommit: 1},
		{name: "enter without highlight", state: open(-1), key: search.Enter, n: 3, want: open(-1), wantCommit: -1},
		{name: "enter out of range", state: open(5), key: search.Enter, n: 3, want: open(5), wantCommit: -1},
		{name: "escape closes", state: open(1), key: search.Escape, n: 3, want: search.Closed, wantCommit: -1},
		{name: "down while closed", state: search.Closed, key: search.ArrowDown, n: 3, want: search.Closed, wantCommit: -1},
		{name: "enter while closed", state: search.Nav{Highlight: 1}, key: search.Enter, n: 3, want: search.Nav{Highlight: 1}, wantCommit: -1},
		{name: "unknown key", state: open(1), key: search.Key("Tab"), n: 3, want: open(1), wantCommit: -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, commit := search.Navigate(tt.state, tt.key, tt.n)
			require.Equal(t, tt.want, got)
			require.Equal(t, tt.wantCommit, commit)
		})
	}
}
