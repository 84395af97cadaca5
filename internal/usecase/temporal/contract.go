package temporal

import (
	"context"
	"time"
)

// DateExtractor asks a language model whether a query carries a time filter
// and which calendar days bound it. ok is false for queries without one.
type DateExtractor interface {
	ExtractDates(ctx context.Context, query string, now time.Time) (start, end time.Time, ok bool, err error)
}
