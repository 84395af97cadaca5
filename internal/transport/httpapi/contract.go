package httpapi

import (
	"context"

	"github.com/nickhighforce/highforce/internal/usecase/health"
	"github.com/nickhighforce/highforce/internal/usecase/ingest"
	"github.com/nickhighforce/highforce/internal/usecase/query"
)

// Ingestor writes documents into the index.
type Ingestor interface {
	Ingest(ctx context.Context, in ingest.Input) (ingest.Result, error)
	IngestBatch(ctx context.Context, items []ingest.Input) []ingest.Result
}

// Searcher answers ranked queries.
type Searcher interface {
	Search(ctx context.Context, in query.Input) (query.Output, error)
}

// HealthChecker reports component health.
type HealthChecker interface {
	Check(ctx context.Context) health.Report
}
