package dedupe

import (
	"context"

	domdoc "github.com/nickhighforce/highforce/internal/domain/document"
)

// DocumentFinder looks up live documents by their content fingerprint.
type DocumentFinder interface {
	FindByContentHash(ctx context.Context, tenantID, hash, source string) (domdoc.Document, error)
}
