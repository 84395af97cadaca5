// Package chunk defines the indexed fragment: a span of document text with its
// embedding and the denormalized metadata retrieval filters on.
package chunk

import (
	"fmt"

	"github.com/nickhighforce/highforce/internal/domain/doctype"
)

// Payload is the typed metadata stored alongside every chunk. These are the
// fields filtering and ranking depend on; source-specific extras go into Extra.
type Payload struct {
	TenantID   string
	DocumentID string
	ThreadID   string
	Type       doctype.Type
	// CreatedAt is the origin timestamp in epoch seconds; 0 means unknown.
	CreatedAt int64
	// Extra holds source-specific metadata this core stores but never interprets.
	Extra map[string]string
}

// Chunk is an immutable indexed fragment. Chunks are created with their parent
// Document and only ever deleted, never mutated.
type Chunk struct {
	id      string
	text    string
	vector  []float32
	payload Payload
}

// New validates and creates a Chunk.
func New(id, text string, vector []float32, p Payload) (Chunk, error) {
	if id == "" {
		return Chunk{}, fmt.Errorf("chunk id is required")
	}
	if text == "" {
		return Chunk{}, fmt.Errorf("chunk text is required")
	}
	if p.TenantID == "" {
		return Chunk{}, fmt.Errorf("tenant id is required")
	}
	if p.DocumentID == "" {
		return Chunk{}, fmt.Errorf("document id is required")
	}
	return Chunk{id: id, text: text, vector: vector, payload: clonePayload(p)}, nil
}

// Reconstruct creates a Chunk without validation (storage hydration).
func Reconstruct(id, text string, vector []float32, p Payload) Chunk {
	return Chunk{id: id, text: text, vector: vector, payload: p}
}

// ID returns the chunk identifier.
func (c *Chunk) ID() string { return c.id }

// Text returns the fragment text.
func (c *Chunk) Text() string { return c.text }

// Vector returns the embedding vector.
func (c *Chunk) Vector() []float32 { return c.vector }

// Payload returns the typed metadata.
func (c *Chunk) Payload() Payload { return c.payload }

// TenantID returns the owning tenant.
func (c *Chunk) TenantID() string { return c.payload.TenantID }

// DocumentID returns the parent document.
func (c *Chunk) DocumentID() string { return c.payload.DocumentID }

// CreatedAt returns the origin timestamp in epoch seconds; 0 means unknown.
func (c *Chunk) CreatedAt() int64 { return c.payload.CreatedAt }

func clonePayload(p Payload) Payload {
	if p.Extra == nil {
		return p
	}
	extra := make(map[string]string, len(p.Extra))
	for k, v := range p.Extra {
		extra[k] = v
	}
	p.Extra = extra
	return p
}
