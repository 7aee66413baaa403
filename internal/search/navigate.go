package search

// Key is a navigation key sent by the search input.
type Key string

const (
	ArrowDown Key = "ArrowDown"
	ArrowUp   Key = "ArrowUp"
	Enter     Key = "Enter"
	Escape    Key = "Escape"
)

// Nav is the dropdown state. Highlight is -1 when nothing is highlighted.
type Nav struct {
	Open      bool
	Highlight int
}

// Closed is the initial dropdown state.
var Closed = Nav{Open: false, Highlight: -1}

// Navigate applies key to state over a list of n results. commit is the index
// to select, or -1 when the key selects nothing. Keys are ignored while the
// dropdown is closed. Arrows wrap around; with no results they do nothing.
func Navigate(state Nav, key Key, n int) (next Nav, commit int) {
	next, commit = state, -1
	if !state.Open {
		return next, -1
	}
	switch key {
	case ArrowDown:
		if n == 0 {
			return next, -1
		}
		if state.Highlight < n-1 {
			next.Highlight = state.Highlight + 1
		} else {
			next.Highlight = 0
		}
	case ArrowUp:
		if n == 0 {
			return next, -1
		}
		if state.Highlight > 0 {
			next.Highlight = state.Highlight - 1
		} else {
			next.Highlight = n - 1
		}
	case Enter:
		if state.Highlight >= 0 && state.Highlight < n {
			return Closed, state.Highlight
		}
	case Escape:
		return Closed, -1
	}
	return next, commit
}
