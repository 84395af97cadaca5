package supersede

import (
	"context"

	domdoc "github.com/nickhighforce/highforce/internal/domain/document"
)

// DocumentStore lists and removes document rows of a thread.
type DocumentStore interface {
	ListThread(ctx context.Context, tenantID, threadID string) ([]domdoc.Document, error)
	CreatedAtOf(ctx context.Context, id string) (int64, error)
	Delete(ctx context.Context, id string) error
}

// ChunkStore removes the chunks of a document.
type ChunkStore interface {
	DeleteByDocument(ctx context.Context, documentID string) (int64, error)
}
