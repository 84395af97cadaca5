package query

import (
	"context"

	"github.com/nickhighforce/highforce/internal/domain"
	"github.com/nickhighforce/highforce/internal/domain/search/candidate"
	"github.com/nickhighforce/highforce/internal/domain/timerange"
)

// Embedder vectorizes the query text.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

// ChunkSearcher retrieves nearest chunks under a mandatory tenant predicate
// and an optional time window.
type ChunkSearcher interface {
	SearchKNN(ctx context.Context, tenantID string, window timerange.Range, vector []float32, k int) (
		[]candidate.Candidate, error,
	)
}

// WindowResolver turns the query text (or an explicit override) into the
// retrieval time window.
type WindowResolver interface {
	Interpret(ctx context.Context, query string, override *timerange.Range) timerange.Range
}
