package document

import (
	"fmt"
	"time"

	"github.com/nickhighforce/highforce/internal/domain/doctype"
)

// MaxTextSize is the maximum document text size in bytes.
const MaxTextSize = 1 << 20 // 1MB

// Document is the canonical ingested unit (immutable value object).
// (tenantID, source, sourceID) identifies the document in its origin system;
// contentHash is unique among live documents of one tenant.
type Document struct {
	id          string
	tenantID    string
	source      string
	sourceID    string
	threadID    string
	docType     doctype.Type
	contentHash string
	createdAt   time.Time
	text        string
}

// New validates and creates a Document.
func New(
	id, tenantID, source, sourceID, threadID string,
	docType doctype.Type, contentHash string,
	createdAt time.Time, text string,
) (Document, error) {
	if id == "" {
		return Document{}, fmt.Errorf("document id is required")
	}
	if tenantID == "" {
		return Document{}, fmt.Errorf("tenant id is required")
	}
	if source == "" {
		return Document{}, fmt.Errorf("source is required")
	}
	if sourceID == "" {
		return Document{}, fmt.Errorf("source id is required")
	}
	if text == "" {
		return Document{}, fmt.Errorf("text is required")
	}
	if len(text) > MaxTextSize {
		return Document{}, fmt.Errorf("text too large (max %d bytes)", MaxTextSize)
	}
	if contentHash == "" {
		return Document{}, fmt.Errorf("content hash is required")
	}

	return Document{
		id:          id,
		tenantID:    tenantID,
		source:      source,
		sourceID:    sourceID,
		threadID:    threadID,
		docType:     docType,
		contentHash: contentHash,
		createdAt:   createdAt,
		text:        text,
	}, nil
}

// Reconstruct creates a Document without validation (storage hydration).
func Reconstruct(
	id, tenantID, source, sourceID, threadID string,
	docType doctype.Type, contentHash string,
	createdAt time.Time, text string,
) Document {
	return Document{
		id: id, tenantID: tenantID, source: source, sourceID: sourceID,
		threadID: threadID, docType: docType, contentHash: contentHash,
		createdAt: createdAt, text: text,
	}
}

// ID returns the document identifier.
func (d *Document) ID() string { return d.id }

// TenantID returns the owning tenant.
func (d *Document) TenantID() string { return d.tenantID }

// Source returns the origin system tag.
func (d *Document) Source() string { return d.source }

// SourceID returns the origin-native identifier.
func (d *Document) SourceID() string { return d.sourceID }

// ThreadID returns the conversation identifier; empty for standalone documents.
func (d *Document) ThreadID() string { return d.threadID }

// Type returns the document type.
func (d *Document) Type() doctype.Type { return d.docType }

// ContentHash returns the normalized-content fingerprint.
func (d *Document) ContentHash() string { return d.contentHash }

// CreatedAt returns the origin timestamp. May be zero for legacy content.
func (d *Document) CreatedAt() time.Time { return d.createdAt }

// Text returns the full document text.
func (d *Document) Text() string { return d.text }

// InThread reports whether the document belongs to a conversation and is
// therefore subject to thread supersession.
func (d *Document) InThread() bool {
	return d.docType.IsConversational() && d.threadID != ""
}
