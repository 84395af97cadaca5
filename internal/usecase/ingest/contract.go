package ingest

import (
	"context"

	"github.com/nickhighforce/highforce/internal/domain"
	domchunk "github.com/nickhighforce/highforce/internal/domain/chunk"
	domdoc "github.com/nickhighforce/highforce/internal/domain/document"
	"github.com/nickhighforce/highforce/internal/usecase/dedupe"
)

// Gate decides whether content already lives in the index.
type Gate interface {
	Check(ctx context.Context, tenantID, source, text string) dedupe.Result
}

// Splitter breaks document text into chunk-sized pieces.
type Splitter interface {
	Split(text string) []string
}

// Embedder vectorizes chunk text.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

// DocumentStore persists document rows and resolves origin identities.
type DocumentStore interface {
	Insert(ctx context.Context, doc *domdoc.Document) error
	FindByIdentity(ctx context.Context, tenantID, source, sourceID string) (domdoc.Document, error)
	Delete(ctx context.Context, id string) error
}

// ChunkStore persists and removes chunk rows.
type ChunkStore interface {
	InsertMulti(ctx context.Context, chunks []domchunk.Chunk) error
	DeleteByDocument(ctx context.Context, documentID string) (int64, error)
}

// Superseder converges a thread on its newest message after a write lands.
type Superseder interface {
	Supersede(ctx context.Context, tenantID, threadID string, ts int64) (int64, error)
}
