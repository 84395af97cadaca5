// Package temporal turns a natural-language query into the time window
// retrieval is bounded by. Interpretation never fails a search: anything the
// extractor cannot answer falls back to the default trailing window.
package temporal

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/nickhighforce/highforce/internal/domain/timerange"
)

// DefaultWindow is the trailing window applied when no explicit period is
// found in the query.
const DefaultWindow = 30 * 24 * time.Hour

// Interpreter resolves the retrieval time window for a query.
type Interpreter struct {
	extractor DateExtractor
	window    time.Duration
	timeout   time.Duration
	logger    *zap.Logger
	now       func() time.Time
}

// New creates an interpreter. window <= 0 uses DefaultWindow; timeout bounds
// each extractor call (zero means no extra bound beyond the caller's context).
func New(extractor DateExtractor, window, timeout time.Duration, logger *zap.Logger) *Interpreter {
	if window <= 0 {
		window = DefaultWindow
	}
	return &Interpreter{
		extractor: extractor,
		window:    window,
		timeout:   timeout,
		logger:    logger,
		now:       time.Now,
	}
}

// WithNow overrides the clock. Test seam.
func (i *Interpreter) WithNow(now func() time.Time) *Interpreter {
	i.now = now
	return i
}

// Interpret resolves the time window for a query. An explicit override wins
// and skips extraction entirely. Extraction failures and filterless queries
// both yield the default trailing window; neither is an error.
func (i *Interpreter) Interpret(ctx context.Context, query string, override *timerange.Range) timerange.Range {
	if override != nil {
		return *override
	}

	now := i.now().UTC()

	extractCtx := ctx
	if i.timeout > 0 {
		var cancel context.CancelFunc
		extractCtx, cancel = context.WithTimeout(ctx, i.timeout)
		defer cancel()
	}

	start, end, ok, err := i.extractor.ExtractDates(extractCtx, query, now)
	if err != nil {
		i.logger.Info("date extraction failed, using default window", zap.Error(err))
		return timerange.Trailing(now, i.window)
	}
	if !ok {
		i.logger.Debug("no time filter in query, using default window")
		return timerange.Trailing(now, i.window)
	}

	window, err := timerange.FromDays(start, end, time.UTC)
	if err != nil {
		i.logger.Info("date extraction produced invalid range, using default window", zap.Error(err))
		return timerange.Trailing(now, i.window)
	}

	return window
}
