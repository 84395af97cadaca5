package document

import (
	"strconv"
	"time"

	"github.com/nickhighforce/highforce/internal/domain/doctype"
	domdoc "github.com/nickhighforce/highforce/internal/domain/document"
)

// Hash field names; the TAG/NUMERIC fields mirror the documents FT index schema.
const (
	fieldTenantID    = "tenant_id"
	fieldSource      = "source"
	fieldSourceID    = "source_id"
	fieldThreadID    = "thread_id"
	fieldDocType     = "document_type"
	fieldContentHash = "content_hash"
	fieldCreatedAt   = "created_at_timestamp"
	fieldText        = "text"
)

// buildHashFields converts a domain Document into a flat map[string]string for HSET.
// A zero createdAt is stored as 0 (timestamp unknown).
func buildHashFields(doc *domdoc.Document) map[string]string {
	var ts int64
	if !doc.CreatedAt().IsZero() {
		ts = doc.CreatedAt().Unix()
	}
	return map[string]string{
		fieldTenantID:    doc.TenantID(),
		fieldSource:      doc.Source(),
		fieldSourceID:    doc.SourceID(),
		fieldThreadID:    doc.ThreadID(),
		fieldDocType:     string(doc.Type()),
		fieldContentHash: doc.ContentHash(),
		fieldCreatedAt:   strconv.FormatInt(ts, 10),
		fieldText:        doc.Text(),
	}
}

// parseHashFields converts a flat hash map back into a domain Document.
func parseHashFields(id string, m map[string]string) domdoc.Document {
	dt, err := doctype.Parse(m[fieldDocType])
	if err != nil {
		dt = doctype.Other
	}

	var createdAt time.Time
	if ts, err := strconv.ParseInt(m[fieldCreatedAt], 10, 64); err == nil && ts > 0 {
		createdAt = time.Unix(ts, 0).UTC()
	}

	return domdoc.Reconstruct(
		id,
		m[fieldTenantID],
		m[fieldSource],
		m[fieldSourceID],
		m[fieldThreadID],
		dt,
		m[fieldContentHash],
		createdAt,
		m[fieldText],
	)
}
