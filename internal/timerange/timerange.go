// Package timerange turns a user-facing chart range into a history sampling
// interval and a concrete time window.
package timerange

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Range is a chart range measured in whole days.
type Range int

const (
	Day     Range = 1
	Week    Range = 7
	Month   Range = 30
	Quarter Range = 90
	Year    Range = 365
)

// Sampling intervals understood by the history provider.
const (
	M5  = "m5"
	M15 = "m15"
	H1  = "h1"
	H6  = "h6"
	D1  = "d1"
)

var intervals = map[Range]string{
	Day:     M5,
	Week:    M15,
	Month:   H1,
	Quarter: H6,
	Year:    D1,
}

// All returns every supported range in ascending order.
func All() []Range {
	return []Range{Day, Week, Month, Quarter, Year}
}

// Parse accepts a day count such as "7" or "7d".
func Parse(s string) (Range, error) {
	s = strings.TrimSuffix(strings.ToLower(strings.TrimSpace(s)), "d")
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("parsing range %q: %w", s, err)
	}
	r := Range(n)
	if !r.Valid() {
		return 0, fmt.Errorf("unsupported range %d", n)
	}
	return r, nil
}

// Valid reports whether r is one of the supported ranges.
func (r Range) Valid() bool {
	_, ok := intervals[r]
	return ok
}

// Days returns the window length.
func (r Range) Days() int { return int(r) }

// Duration returns the window length as a time.Duration.
func (r Range) Duration() time.Duration {
	return time.Duration(r) * 24 * time.Hour
}

// Interval returns the sampling interval for r.
func (r Range) Interval() (string, bool) {
	iv, ok := intervals[r]
	return iv, ok
}

func (r Range) String() string { return strconv.Itoa(int(r)) }

// Window is a resolved history request.
type Window struct {
	Interval string
	Start    time.Time
	End      time.Time
}

// Resolve computes the window ending at now. ok is false for unsupported ranges.
func Resolve(r Range, now time.Time) (Window, bool) {
	iv, ok := r.Interval()
	if !ok {
		return Window{}, false
	}
	return Window{
		Interval: iv,
		Start:    now.Add(-r.Duration()),
		End:      now,
	}, true
}

// Fine reports whether interval is minute-grained.
func Fine(interval string) bool {
	return strings.HasPrefix(interval, "m")
}
