// Package ingest is the write entrypoint: fingerprint gate, chunking,
// embedding, persistence and thread supersession, in that order.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/nickhighforce/highforce/internal/domain"
	domchunk "github.com/nickhighforce/highforce/internal/domain/chunk"
	"github.com/nickhighforce/highforce/internal/domain/doctype"
	domdoc "github.com/nickhighforce/highforce/internal/domain/document"
	"github.com/nickhighforce/highforce/internal/metrics"
	"github.com/nickhighforce/highforce/internal/retry"
)

// Status of one ingestion attempt.
type Status string

const (
	// StatusIngested means the document and its chunks were written.
	StatusIngested Status = "ingested"
	// StatusDuplicate means matching live content already existed; nothing
	// was written. A duplicate is a normal outcome, not an error.
	StatusDuplicate Status = "duplicate"
	// StatusError marks a failed item in a batch result.
	StatusError Status = "error"
)

// Input is one document to ingest.
type Input struct {
	TenantID string
	Source   string
	SourceID string
	ThreadID string
	Type     string
	// CreatedAt is the origin timestamp; zero means unknown.
	CreatedAt time.Time
	Text      string
	// Extra is source-specific metadata stored with every chunk.
	Extra map[string]string
}

// Result is the outcome of one ingestion.
type Result struct {
	Status      Status
	DocumentID  string
	ContentHash string
	Chunks      int
	// Superseded is the number of older thread chunks retired by this write.
	Superseded int64
	// Err carries the failure for batch items with StatusError.
	Err error
}

// Service handles document ingestion.
type Service struct {
	gate     Gate
	splitter Splitter
	embedder Embedder
	docs     DocumentStore
	chunks   ChunkStore
	threads  Superseder
	policy   retry.Policy
	logger   *zap.Logger
}

// New creates an ingest service.
func New(
	gate Gate,
	splitter Splitter,
	embedder Embedder,
	docs DocumentStore,
	chunks ChunkStore,
	threads Superseder,
	policy retry.Policy,
	logger *zap.Logger,
) *Service {
	return &Service{
		gate:     gate,
		splitter: splitter,
		embedder: embedder,
		docs:     docs,
		chunks:   chunks,
		threads:  threads,
		policy:   policy,
		logger:   logger,
	}
}

// Ingest writes one document. The gate check precedes any write; supersession
// runs only after the new content is fully persisted, and its failure never
// fails the ingestion.
func (s *Service) Ingest(ctx context.Context, in Input) (Result, error) {
	docType, err := doctype.Parse(in.Type)
	if err != nil {
		return Result{}, fmt.Errorf("parse document type: %w", err)
	}
	if in.Text == "" {
		return Result{}, domain.ErrEmptyContent
	}

	verdict := s.gate.Check(ctx, in.TenantID, in.Source, in.Text)
	if verdict.Duplicate {
		metrics.IngestTotal.WithLabelValues(in.Source, string(StatusDuplicate)).Inc()
		s.logger.Debug("duplicate content skipped",
			zap.String("tenant_id", in.TenantID),
			zap.String("content_hash", verdict.Hash),
			zap.String("existing_document_id", verdict.DuplicateOf),
		)
		return Result{
			Status:      StatusDuplicate,
			DocumentID:  verdict.DuplicateOf,
			ContentHash: verdict.Hash,
		}, nil
	}

	// An origin identity is unique: re-ingesting an edited record replaces
	// its earlier version instead of accumulating one row per edit.
	var prior domdoc.Document
	var hasPrior bool
	if in.SourceID != "" {
		prior, err = s.docs.FindByIdentity(ctx, in.TenantID, in.Source, in.SourceID)
		switch {
		case err == nil:
			hasPrior = true
		case errors.Is(err, domain.ErrDocumentNotFound):
		default:
			metrics.IngestTotal.WithLabelValues(in.Source, string(StatusError)).Inc()
			return Result{}, fmt.Errorf("resolve origin identity: %w", err)
		}
	}

	doc, err := domdoc.New(
		uuid.NewString(), in.TenantID, in.Source, in.SourceID, in.ThreadID,
		docType, verdict.Hash, in.CreatedAt, in.Text,
	)
	if err != nil {
		metrics.IngestTotal.WithLabelValues(in.Source, string(StatusError)).Inc()
		return Result{}, fmt.Errorf("build document: %w", err)
	}

	chunks, err := s.buildChunks(ctx, &doc, in.Extra)
	if err != nil {
		metrics.IngestTotal.WithLabelValues(in.Source, string(StatusError)).Inc()
		return Result{}, err
	}

	// The new content must be fully persisted before anything older is
	// retired, so a mid-flight crash can only leave extra content behind.
	if err := s.docs.Insert(ctx, &doc); err != nil {
		metrics.IngestTotal.WithLabelValues(in.Source, string(StatusError)).Inc()
		return Result{}, fmt.Errorf("write document: %w", err)
	}
	if err := s.chunks.InsertMulti(ctx, chunks); err != nil {
		metrics.IngestTotal.WithLabelValues(in.Source, string(StatusError)).Inc()
		return Result{}, fmt.Errorf("write chunks: %w", err)
	}

	if hasPrior {
		s.removePrior(ctx, &prior)
	}

	var superseded int64
	if doc.InThread() && !doc.CreatedAt().IsZero() {
		superseded, err = s.threads.Supersede(ctx, doc.TenantID(), doc.ThreadID(), doc.CreatedAt().Unix())
		if err != nil {
			// Already-degraded failures return nil; anything else here is a
			// cancellation and the write itself still stands.
			s.logger.Warn("supersession interrupted",
				zap.String("tenant_id", doc.TenantID()),
				zap.String("thread_id", doc.ThreadID()),
				zap.Error(err),
			)
		}
	}

	metrics.IngestTotal.WithLabelValues(in.Source, string(StatusIngested)).Inc()
	metrics.ChunksIndexedTotal.Add(float64(len(chunks)))

	return Result{
		Status:      StatusIngested,
		DocumentID:  doc.ID(),
		ContentHash: doc.ContentHash(),
		Chunks:      len(chunks),
		Superseded:  superseded,
	}, nil
}

// IngestBatch runs the single-document path per item. One failed item does
// not stop the batch; its Result carries the error.
func (s *Service) IngestBatch(ctx context.Context, items []Input) []Result {
	results := make([]Result, 0, len(items))
	for i := range items {
		r, err := s.Ingest(ctx, items[i])
		if err != nil {
			r = Result{Status: StatusError, Err: err}
		}
		results = append(results, r)
	}
	return results
}

// removePrior retires the earlier version of a re-ingested origin record,
// chunks first, then the row. Cleanup failure is logged and left to the next
// re-ingestion; the new version is already live.
func (s *Service) removePrior(ctx context.Context, prior *domdoc.Document) {
	if _, err := s.chunks.DeleteByDocument(ctx, prior.ID()); err != nil {
		s.logger.Warn("stale version cleanup failed",
			zap.String("tenant_id", prior.TenantID()),
			zap.String("document_id", prior.ID()),
			zap.Error(err),
		)
		return
	}
	if err := s.docs.Delete(ctx, prior.ID()); err != nil {
		s.logger.Warn("stale version cleanup failed",
			zap.String("tenant_id", prior.TenantID()),
			zap.String("document_id", prior.ID()),
			zap.Error(err),
		)
	}
}

func (s *Service) buildChunks(ctx context.Context, doc *domdoc.Document, extra map[string]string) (
	[]domchunk.Chunk, error,
) {
	pieces := s.splitter.Split(doc.Text())
	if len(pieces) == 0 {
		return nil, domain.ErrEmptyContent
	}

	var createdAt int64
	if !doc.CreatedAt().IsZero() {
		createdAt = doc.CreatedAt().Unix()
	}

	payload := domchunk.Payload{
		TenantID:   doc.TenantID(),
		DocumentID: doc.ID(),
		ThreadID:   doc.ThreadID(),
		Type:       doc.Type(),
		CreatedAt:  createdAt,
		Extra:      extra,
	}

	chunks := make([]domchunk.Chunk, 0, len(pieces))
	for _, piece := range pieces {
		var embedded domain.EmbeddingResult
		err := retry.Do(ctx, s.policy, s.logger, "embed chunk", func(ctx context.Context) error {
			var embedErr error
			embedded, embedErr = s.embedder.Embed(ctx, piece)
			return embedErr
		})
		if err != nil {
			return nil, fmt.Errorf("embed chunk: %w", err)
		}

		c, err := domchunk.New(uuid.NewString(), piece, embedded.Embedding, payload)
		if err != nil {
			return nil, fmt.Errorf("build chunk: %w", err)
		}
		chunks = append(chunks, c)
	}

	return chunks, nil
}
