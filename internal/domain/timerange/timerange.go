// Package timerange defines the ephemeral time filter a query is bounded by.
// Ranges are produced per query and never persisted.
package timerange

import (
	"fmt"
	"time"
)

// Range is a closed [start, end] interval in epoch seconds.
type Range struct {
	start int64
	end   int64
}

// New validates and creates a Range.
func New(start, end int64) (Range, error) {
	if end < start {
		return Range{}, fmt.Errorf("range end %d before start %d", end, start)
	}
	return Range{start: start, end: end}, nil
}

// FromDays expands two calendar days into [start-of-day(from), end-of-day(to)]
// in the given location.
func FromDays(from, to time.Time, loc *time.Location) (Range, error) {
	start := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, loc)
	end := time.Date(to.Year(), to.Month(), to.Day(), 23, 59, 59, 0, loc)
	return New(start.Unix(), end.Unix())
}

// Trailing returns the window of the last d ending at now.
func Trailing(now time.Time, d time.Duration) Range {
	return Range{start: now.Add(-d).Unix(), end: now.Unix()}
}

// Start returns the inclusive lower bound in epoch seconds.
func (r Range) Start() int64 { return r.start }

// End returns the inclusive upper bound in epoch seconds.
func (r Range) End() int64 { return r.end }

// IsZero reports whether the range is unset.
func (r Range) IsZero() bool { return r.start == 0 && r.end == 0 }

// Contains reports whether ts falls inside the range.
func (r Range) Contains(ts int64) bool { return ts >= r.start && ts <= r.end }

// String formats the range for logging.
func (r Range) String() string {
	return fmt.Sprintf("[%s, %s]",
		time.Unix(r.start, 0).UTC().Format(time.RFC3339),
		time.Unix(r.end, 0).UTC().Format(time.RFC3339),
	)
}
