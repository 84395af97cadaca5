// Package dedupe is the content fingerprint gate: it decides, before any
// write, whether incoming text already lives in the index.
package dedupe

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/nickhighforce/highforce/internal/domain"
	"github.com/nickhighforce/highforce/internal/fingerprint"
)

// Scope controls how widely a fingerprint collides.
type Scope string

const (
	// ScopeTenant treats identical content as duplicate across all sources
	// of a tenant.
	ScopeTenant Scope = "tenant"
	// ScopePerSource only deduplicates within the same origin system.
	ScopePerSource Scope = "per_source"
)

// Result is the gate's verdict on one piece of content.
type Result struct {
	// Hash is the content fingerprint, computed regardless of the verdict.
	Hash string
	// Duplicate reports whether matching live content already exists.
	Duplicate bool
	// DuplicateOf is the existing document's id when Duplicate is true.
	DuplicateOf string
}

// Gate checks content fingerprints against the live index.
// Lookups fail open: if the index cannot answer, content is ingested rather
// than silently dropped.
type Gate struct {
	docs   DocumentFinder
	scope  Scope
	logger *zap.Logger
}

// New creates a fingerprint gate. An unknown scope falls back to ScopeTenant.
func New(docs DocumentFinder, scope Scope, logger *zap.Logger) *Gate {
	if scope != ScopePerSource {
		scope = ScopeTenant
	}
	return &Gate{docs: docs, scope: scope, logger: logger}
}

// Check fingerprints text and reports whether a live duplicate exists.
func (g *Gate) Check(ctx context.Context, tenantID, source, text string) Result {
	hash := fingerprint.Hash(text)

	lookupSource := ""
	if g.scope == ScopePerSource {
		lookupSource = source
	}

	existing, err := g.docs.FindByContentHash(ctx, tenantID, hash, lookupSource)
	if err != nil {
		if !errors.Is(err, domain.ErrDocumentNotFound) {
			g.logger.Warn("dedup lookup failed, ingesting anyway",
				zap.String("tenant_id", tenantID),
				zap.String("content_hash", hash),
				zap.Error(err),
			)
		}
		return Result{Hash: hash}
	}

	return Result{Hash: hash, Duplicate: true, DuplicateOf: existing.ID()}
}
