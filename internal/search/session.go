package search

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"coinwatch/internal/provider"
)

// Source supplies the current index, loading it if necessary.
type Source interface {
	Index(ctx context.Context) (*Index, error)
}

// State is a snapshot of one search box.
type State struct {
	Query string `json:"query"`
	// Debounced is the query the results belong to.
	Debounced string `json:"debounced"`
	// Debouncing is true while Query has not been searched yet.
	Debouncing bool `json:"debouncing"`
	// Loading is true while the index is being loaded.
	Loading   bool                    `json:"loading"`
	Open      bool                    `json:"open"`
	Highlight int                     `json:"highlight"`
	Results   []provider.CoinMapEntry `json:"results"`
	Selected  *provider.CoinMapEntry  `json:"selected,omitempty"`
	Error     string                  `json:"error,omitempty"`
}

// Session drives a single search box: input is debounced, results come from
// Source, and keys move the highlight.
type Session struct {
	src      Source
	deb      *Debouncer
	limit    int
	onChange func(State)
	log      logrus.FieldLogger

	ctx    context.Context
	cancel context.CancelFunc

	mu    sync.Mutex
	state State
	loads int
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithDelay sets the debounce delay.
func WithDelay(d time.Duration) SessionOption {
	return func(s *Session) { s.deb = NewDebouncer(d) }
}

// WithLimit sets the maximum number of results.
func WithLimit(n int) SessionOption {
	return func(s *Session) { s.limit = n }
}

// WithOnChange registers a callback invoked with every new state. It is
// called without the session lock held.
func WithOnChange(fn func(State)) SessionOption {
	return func(s *Session) { s.onChange = fn }
}

// WithLogger sets the logger.
func WithLogger(log logrus.FieldLogger) SessionOption {
	return func(s *Session) { s.log = log }
}

// NewSession starts a session bound to ctx.
func NewSession(ctx context.Context, src Source, options ...SessionOption) *Session {
	s := &Session{
		src:   src,
		deb:   NewDebouncer(DefaultDelay),
		limit: DefaultLimit,
		log:   logrus.StandardLogger(),
		state: State{Highlight: -1, Results: []provider.CoinMapEntry{}},
	}
	for _, option := range options {
		option(s)
	}
	s.ctx, s.cancel = context.WithCancel(ctx)
	return s
}

// Close stops pending searches.
func (s *Session) Close() {
	s.deb.Stop()
	s.cancel()
}

// State returns the current snapshot.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Input records new text and schedules a search for it.
func (s *Session) Input(text string) {
	s.update(func(st *State) {
		st.Query = text
		st.Open = true
		st.Highlight = -1
		st.Selected = nil
		st.Debouncing = st.Query != st.Debounced
	})
	s.deb.Trigger(s.run)
}

// Focus reopens the dropdown when there is something to show.
func (s *Session) Focus() {
	s.update(func(st *State) {
		st.Open = st.Query != ""
	})
}

// Blur closes the dropdown, as a click outside the control does.
func (s *Session) Blur() {
	s.update(func(st *State) {
		st.Open = false
		st.Highlight = -1
	})
}

// Key applies a navigation key. Enter on a highlighted result selects it and
// clears the box.
func (s *Session) Key(k Key) {
	committed := false
	s.update(func(st *State) {
		next, commit := Navigate(Nav{Open: st.Open, Highlight: st.Highlight}, k, len(st.Results))
		st.Open, st.Highlight = next.Open, next.Highlight
		if commit < 0 {
			return
		}
		selected := st.Results[commit]
		st.Selected = &selected
		st.Query, st.Debounced = "", ""
		st.Debouncing = false
		st.Results = []provider.CoinMapEntry{}
		committed = true
	})
	if committed {
		s.deb.Stop()
	}
}

// run executes the search for the current query once input is idle.
func (s *Session) run() {
	var query string
	s.update(func(st *State) {
		query = st.Query
		st.Debounced = query
		st.Debouncing = false
		s.loads++
		st.Loading = true
	})

	idx, err := s.src.Index(s.ctx)
	results := idx.Search(query, s.limit)
	if err != nil {
		s.log.WithError(err).Warn("search index unavailable")
	}

	s.update(func(st *State) {
		s.loads--
		st.Loading = s.loads > 0
		if st.Debounced != query {
			// a newer search has started
			return
		}
		st.Results = results
		st.Error = ""
		if err != nil {
			st.Error = err.Error()
		}
		if st.Highlight >= len(results) {
			st.Highlight = -1
		}
	})
}

func (s *Session) update(fn func(*State)) {
	s.mu.Lock()
	fn(&s.state)
	snap := s.snapshotLocked()
	s.mu.Unlock()
	if s.onChange != nil {
		s.onChange(snap)
	}
}

func (s *Session) snapshotLocked() State {
	snap := s.state
	snap.Results = append([]provider.CoinMapEntry(nil), s.state.Results...)
	if snap.Results == nil {
		snap.Results = []provider.CoinMapEntry{}
	}
	return snap
}
