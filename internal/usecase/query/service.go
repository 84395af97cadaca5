// Package query answers tenant-scoped searches: resolve the time window,
// embed the query, retrieve a widened candidate set and rank it by
// recency-decayed similarity.
package query

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/nickhighforce/highforce/internal/domain"
	"github.com/nickhighforce/highforce/internal/domain/search/candidate"
	"github.com/nickhighforce/highforce/internal/domain/timerange"
	"github.com/nickhighforce/highforce/internal/metrics"
	"github.com/nickhighforce/highforce/internal/retry"
)

const (
	// DefaultTopK is the result count when the caller does not ask for one.
	DefaultTopK = 10

	// Candidate width bounds: decay can only demote, so retrieval fetches a
	// multiple of top_k and never widens beyond these.
	minCandidateMultiplier     = 2
	maxCandidateMultiplier     = 4
	defaultCandidateMultiplier = 3
)

// Input is one search request.
type Input struct {
	TenantID string
	Query    string
	// TopK <= 0 uses DefaultTopK.
	TopK int
	// Window, when set, bypasses temporal interpretation.
	Window *timerange.Range
}

// Output is the ranked answer plus the window that was actually applied.
type Output struct {
	Candidates []candidate.Candidate
	Window     timerange.Range
}

// Service is the search entrypoint.
type Service struct {
	embedder    Embedder
	searcher    ChunkSearcher
	windows     WindowResolver
	decay       DecayTable
	multiplier  int
	defaultTopK int
	policy      retry.Policy
	logger      *zap.Logger
	now         func() time.Time
}

// New creates a query service. A multiplier outside [2, 4] is clamped.
func New(
	embedder Embedder,
	searcher ChunkSearcher,
	windows WindowResolver,
	decay DecayTable,
	multiplier int,
	policy retry.Policy,
	logger *zap.Logger,
) *Service {
	if multiplier == 0 {
		multiplier = defaultCandidateMultiplier
	}
	if multiplier < minCandidateMultiplier {
		multiplier = minCandidateMultiplier
	}
	if multiplier > maxCandidateMultiplier {
		multiplier = maxCandidateMultiplier
	}
	return &Service{
		embedder:    embedder,
		searcher:    searcher,
		windows:     windows,
		decay:       decay,
		multiplier:  multiplier,
		defaultTopK: DefaultTopK,
		policy:      policy,
		logger:      logger,
		now:         time.Now,
	}
}

// WithDefaultTopK overrides the result count used when the caller omits one.
func (s *Service) WithDefaultTopK(k int) *Service {
	if k > 0 {
		s.defaultTopK = k
	}
	return s
}

// WithNow overrides the clock. Test seam.
func (s *Service) WithNow(now func() time.Time) *Service {
	s.now = now
	return s
}

// Search runs one query. Fails loudly without a tenant; an empty window match
// returns empty results rather than widening the window.
func (s *Service) Search(ctx context.Context, in Input) (Output, error) {
	if in.TenantID == "" {
		return Output{}, domain.ErrTenantRequired
	}
	if in.Query == "" {
		return Output{}, fmt.Errorf("query text is required")
	}

	topK := in.TopK
	if topK <= 0 {
		topK = s.defaultTopK
	}

	start := time.Now()
	defer func() {
		metrics.SearchDuration.Observe(time.Since(start).Seconds())
	}()

	window := s.windows.Interpret(ctx, in.Query, in.Window)

	var embedded domain.EmbeddingResult
	err := retry.Do(ctx, s.policy, s.logger, "embed query", func(ctx context.Context) error {
		var embedErr error
		embedded, embedErr = s.embedder.Embed(ctx, in.Query)
		return embedErr
	})
	if err != nil {
		return Output{}, fmt.Errorf("embed query: %w", err)
	}

	cands, err := s.searcher.SearchKNN(ctx, in.TenantID, window, embedded.Embedding, topK*s.multiplier)
	if err != nil {
		return Output{}, fmt.Errorf("retrieve candidates: %w", err)
	}

	ranked := rerank(cands, s.decay, s.now().UTC())
	if len(ranked) > topK {
		ranked = ranked[:topK]
	}

	s.logger.Debug("search completed",
		zap.String("tenant_id", in.TenantID),
		zap.Int("candidates", len(cands)),
		zap.Int("results", len(ranked)),
		zap.Stringer("window", window),
	)

	return Output{Candidates: ranked, Window: window}, nil
}
