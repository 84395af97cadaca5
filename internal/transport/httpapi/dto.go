package httpapi

import (
	"time"

	"github.com/nickhighforce/highforce/internal/domain/search/candidate"
	"github.com/nickhighforce/highforce/internal/domain/timerange"
	"github.com/nickhighforce/highforce/internal/usecase/ingest"
	"github.com/nickhighforce/highforce/internal/usecase/query"
)

// ErrorCode is the machine-readable error discriminator in error responses.
type ErrorCode string

const (
	codeBadRequest             ErrorCode = "bad_request"
	codeValidationFailed       ErrorCode = "validation_failed"
	codeDocumentNotFound       ErrorCode = "document_not_found"
	codeEmbeddingProviderError ErrorCode = "embedding_provider_error"
	codeUnavailable            ErrorCode = "unavailable"
	codeInternalError          ErrorCode = "internal_error"
)

// ErrorResponse is the JSON body of every non-2xx answer.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// IngestRequest is the body of POST /v1/ingest.
type IngestRequest struct {
	TenantID     string `json:"tenant_id"`
	Source       string `json:"source"`
	SourceID     string `json:"source_id,omitempty"`
	ThreadID     string `json:"thread_id,omitempty"`
	DocumentType string `json:"document_type,omitempty"`
	// CreatedAt is the origin timestamp in RFC 3339; omitted means unknown.
	CreatedAt string            `json:"created_at,omitempty"`
	Text      string            `json:"text"`
	Extra     map[string]string `json:"extra,omitempty"`
}

// IngestResponse is the outcome of one ingestion.
type IngestResponse struct {
	Status      string `json:"status"`
	DocumentID  string `json:"document_id,omitempty"`
	ContentHash string `json:"content_hash,omitempty"`
	Chunks      int    `json:"chunks,omitempty"`
	Superseded  int64  `json:"superseded_chunks,omitempty"`
	Error       string `json:"error,omitempty"`
}

// BatchIngestRequest is the body of POST /v1/ingest/batch.
type BatchIngestRequest struct {
	Items []IngestRequest `json:"items"`
}

// BatchIngestResponse carries one result per submitted item, in order.
type BatchIngestResponse struct {
	Results []IngestResponse `json:"results"`
}

// TimeRange bounds a search to [start, end] epoch seconds, inclusive.
type TimeRange struct {
	Start int64 `json:"start"`
	End   int64 `json:"end"`
}

// SearchRequest is the body of POST /v1/search.
type SearchRequest struct {
	TenantID string `json:"tenant_id"`
	Query    string `json:"query"`
	TopK     int    `json:"top_k,omitempty"`
	// TimeRange, when set, overrides temporal interpretation of the query.
	TimeRange *TimeRange `json:"time_range,omitempty"`
}

// SearchHit is one ranked result.
type SearchHit struct {
	ChunkID      string            `json:"chunk_id"`
	DocumentID   string            `json:"document_id"`
	ThreadID     string            `json:"thread_id,omitempty"`
	DocumentType string            `json:"document_type"`
	Text         string            `json:"text"`
	CreatedAt    string            `json:"created_at,omitempty"`
	Similarity   float64           `json:"similarity"`
	Score        float64           `json:"score"`
	Extra        map[string]string `json:"extra,omitempty"`
}

// SearchResponse is the ranked answer plus the window that was applied.
type SearchResponse struct {
	Results       []SearchHit `json:"results"`
	TimeRangeUsed TimeRange   `json:"time_range_used"`
}

// HealthResponse reports component health.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

func ingestInputFromRequest(req IngestRequest) (ingest.Input, error) {
	var createdAt time.Time
	if req.CreatedAt != "" {
		ts, err := time.Parse(time.RFC3339, req.CreatedAt)
		if err != nil {
			return ingest.Input{}, err
		}
		createdAt = ts
	}
	return ingest.Input{
		TenantID:  req.TenantID,
		Source:    req.Source,
		SourceID:  req.SourceID,
		ThreadID:  req.ThreadID,
		Type:      req.DocumentType,
		CreatedAt: createdAt,
		Text:      req.Text,
		Extra:     req.Extra,
	}, nil
}

func ingestResultToResponse(r ingest.Result) IngestResponse {
	resp := IngestResponse{
		Status:      string(r.Status),
		DocumentID:  r.DocumentID,
		ContentHash: r.ContentHash,
		Chunks:      r.Chunks,
		Superseded:  r.Superseded,
	}
	if r.Err != nil {
		resp.Error = r.Err.Error()
	}
	return resp
}

func queryInput(req SearchRequest) query.Input {
	return query.Input{
		TenantID: req.TenantID,
		Query:    req.Query,
		TopK:     req.TopK,
	}
}

func candidateToHit(c candidate.Candidate) SearchHit {
	ch := c.Chunk()
	p := ch.Payload()

	var createdAt string
	if p.CreatedAt > 0 {
		createdAt = time.Unix(p.CreatedAt, 0).UTC().Format(time.RFC3339)
	}

	return SearchHit{
		ChunkID:      ch.ID(),
		DocumentID:   p.DocumentID,
		ThreadID:     p.ThreadID,
		DocumentType: p.Type.String(),
		Text:         ch.Text(),
		CreatedAt:    createdAt,
		Similarity:   c.Similarity(),
		Score:        c.Decayed(),
		Extra:        p.Extra,
	}
}

func timeRangeUsed(r timerange.Range) TimeRange {
	return TimeRange{Start: r.Start(), End: r.End()}
}
