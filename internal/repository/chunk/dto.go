package chunk

import (
	"encoding/binary"
	"encoding/json"
	"math"
	"strconv"

	domchunk "github.com/nickhighforce/highforce/internal/domain/chunk"
	"github.com/nickhighforce/highforce/internal/domain/doctype"
)

// Hash field names; the TAG/NUMERIC/VECTOR fields mirror the chunks FT index schema.
const (
	fieldTenantID   = "tenant_id"
	fieldDocumentID = "document_id"
	fieldThreadID   = "thread_id"
	fieldDocType    = "document_type"
	fieldCreatedAt  = "created_at_timestamp"
	fieldText       = "text"
	fieldVector     = "vector"
	fieldExtra      = "extra"

	fieldVectorScore = "__vector_score"
)

// buildHashFields converts a domain Chunk into a flat map[string]string for HSET.
func buildHashFields(c *domchunk.Chunk) map[string]string {
	p := c.Payload()
	m := map[string]string{
		fieldTenantID:   p.TenantID,
		fieldDocumentID: p.DocumentID,
		fieldThreadID:   p.ThreadID,
		fieldDocType:    string(p.Type),
		fieldCreatedAt:  strconv.FormatInt(p.CreatedAt, 10),
		fieldText:       c.Text(),
		fieldVector:     vectorToBytes(c.Vector()),
	}
	if len(p.Extra) > 0 {
		if data, err := json.Marshal(p.Extra); err == nil {
			m[fieldExtra] = string(data)
		}
	}
	return m
}

// parseHashFields converts a flat hash map back into a domain Chunk.
// The vector is omitted from search results and left nil.
func parseHashFields(id string, m map[string]string) domchunk.Chunk {
	dt, err := doctype.Parse(m[fieldDocType])
	if err != nil {
		dt = doctype.Other
	}

	var createdAt int64
	if ts, err := strconv.ParseInt(m[fieldCreatedAt], 10, 64); err == nil {
		createdAt = ts
	}

	var extra map[string]string
	if raw := m[fieldExtra]; raw != "" {
		_ = json.Unmarshal([]byte(raw), &extra)
	}

	return domchunk.Reconstruct(id, m[fieldText], nil, domchunk.Payload{
		TenantID:   m[fieldTenantID],
		DocumentID: m[fieldDocumentID],
		ThreadID:   m[fieldThreadID],
		Type:       dt,
		CreatedAt:  createdAt,
		Extra:      extra,
	})
}

// vectorToBytes serializes []float32 to a binary string (4 bytes per float, little-endian).
func vectorToBytes(v []float32) string {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return string(buf)
}
