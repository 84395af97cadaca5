// Package httpapi exposes the ingestion and search pipeline over a chi HTTP
// API.
package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/nickhighforce/highforce/internal/domain"
	"github.com/nickhighforce/highforce/internal/domain/doctype"
	"github.com/nickhighforce/highforce/internal/domain/timerange"
	healthuc "github.com/nickhighforce/highforce/internal/usecase/health"
	"github.com/nickhighforce/highforce/internal/usecase/ingest"
)

const maxBatchSize = 100

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server holds the HTTP handlers for the pipeline.
type Server struct {
	ingest        Ingestor
	search        Searcher
	health        HealthChecker
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(ingestor Ingestor, searcher Searcher, health HealthChecker, logger *zap.Logger) *Server {
	s := &Server{
		ingest: ingestor,
		search: searcher,
		health: health,
		logger: logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrTenantRequired, http.StatusBadRequest, codeValidationFailed),
		sentinelHandler(domain.ErrEmptyContent, http.StatusBadRequest, codeValidationFailed),
		sentinelHandler(domain.ErrDocumentNotFound, http.StatusNotFound, codeDocumentNotFound),
		sentinelHandler(domain.ErrEmbeddingProviderError, http.StatusBadGateway, codeEmbeddingProviderError),
		sentinelHandler(domain.ErrUnavailable, http.StatusServiceUnavailable, codeUnavailable),
	}
	return s
}

// Register mounts all routes on the router.
func (s *Server) Register(r chi.Router) {
	r.Post("/v1/ingest", s.IngestDocument)
	r.Post("/v1/ingest/batch", s.IngestBatch)
	r.Post("/v1/search", s.Search)
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
}

// IngestDocument handles POST /v1/ingest.
func (s *Server) IngestDocument(w http.ResponseWriter, r *http.Request) {
	var req IngestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	in, err := s.validateIngest(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeValidationFailed, err.Error())
		return
	}

	result, err := s.ingest.Ingest(r.Context(), in)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	status := http.StatusCreated
	if result.Status == ingest.StatusDuplicate {
		status = http.StatusOK
	}
	writeJSON(w, status, ingestResultToResponse(result))
}

// IngestBatch handles POST /v1/ingest/batch. Items fail independently;
// each result reports its own status.
func (s *Server) IngestBatch(w http.ResponseWriter, r *http.Request) {
	var req BatchIngestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	if len(req.Items) == 0 {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "Batch must contain at least one item")
		return
	}
	if len(req.Items) > maxBatchSize {
		writeError(w, http.StatusBadRequest, codeValidationFailed,
			fmt.Sprintf("Batch size %d exceeds maximum %d", len(req.Items), maxBatchSize))
		return
	}

	inputs := make([]ingest.Input, len(req.Items))
	for i, item := range req.Items {
		in, err := s.validateIngest(item)
		if err != nil {
			writeError(w, http.StatusBadRequest, codeValidationFailed,
				fmt.Sprintf("Item %d: %s", i, err.Error()))
			return
		}
		inputs[i] = in
	}

	results := s.ingest.IngestBatch(r.Context(), inputs)

	resp := BatchIngestResponse{Results: make([]IngestResponse, len(results))}
	for i, res := range results {
		resp.Results[i] = ingestResultToResponse(res)
	}
	writeJSON(w, http.StatusOK, resp)
}

// Search handles POST /v1/search.
func (s *Server) Search(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	if req.TenantID == "" {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "tenant_id is required")
		return
	}
	if req.Query == "" {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "query is required")
		return
	}

	in := queryInput(req)
	if req.TimeRange != nil {
		window, err := timerange.New(req.TimeRange.Start, req.TimeRange.End)
		if err != nil {
			writeError(w, http.StatusBadRequest, codeValidationFailed, err.Error())
			return
		}
		in.Window = &window
	}

	out, err := s.search.Search(r.Context(), in)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	hits := make([]SearchHit, len(out.Candidates))
	for i, c := range out.Candidates {
		hits[i] = candidateToHit(c)
	}
	writeJSON(w, http.StatusOK, SearchResponse{
		Results:       hits,
		TimeRangeUsed: timeRangeUsed(out.Window),
	})
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, HealthResponse{
		Status: string(report.Status),
		Checks: checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// validateIngest rejects malformed items before they reach the pipeline.
func (s *Server) validateIngest(req IngestRequest) (ingest.Input, error) {
	if req.TenantID == "" {
		return ingest.Input{}, fmt.Errorf("tenant_id is required")
	}
	if req.Source == "" {
		return ingest.Input{}, fmt.Errorf("source is required")
	}
	if req.Text == "" {
		return ingest.Input{}, fmt.Errorf("text is required")
	}
	if _, err := doctype.Parse(req.DocumentType); err != nil {
		return ingest.Input{}, err
	}
	in, err := ingestInputFromRequest(req)
	if err != nil {
		return ingest.Input{}, fmt.Errorf("created_at must be RFC 3339: %w", err)
	}
	return in, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrTenantRequired,
		domain.ErrEmptyContent,
		domain.ErrDocumentNotFound,
		domain.ErrEmbeddingProviderError,
		domain.ErrUnavailable,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code ErrorCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
}
