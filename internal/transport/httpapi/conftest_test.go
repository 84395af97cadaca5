package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	domchunk "github.com/nickhighforce/highforce/internal/domain/chunk"
	"github.com/nickhighforce/highforce/internal/domain/doctype"
	"github.com/nickhighforce/highforce/internal/domain/search/candidate"
	"github.com/nickhighforce/highforce/internal/usecase/health"
	"github.com/nickhighforce/highforce/internal/usecase/ingest"
	"github.com/nickhighforce/highforce/internal/usecase/query"
)

type mockIngestor struct {
	ingestFn func(ctx context.Context, in ingest.Input) (ingest.Result, error)
	batchFn  func(ctx context.Context, items []ingest.Input) []ingest.Result
}

func (m *mockIngestor) Ingest(ctx context.Context, in ingest.Input) (ingest.Result, error) {
	return m.ingestFn(ctx, in)
}

func (m *mockIngestor) IngestBatch(ctx context.Context, items []ingest.Input) []ingest.Result {
	return m.batchFn(ctx, items)
}

type mockSearcher struct {
	searchFn func(ctx context.Context, in query.Input) (query.Output, error)
}

func (m *mockSearcher) Search(ctx context.Context, in query.Input) (query.Output, error) {
	return m.searchFn(ctx, in)
}

type mockHealth struct {
	report health.Report
}

func (m *mockHealth) Check(context.Context) health.Report { return m.report }

func newTestServer(t *testing.T, ing Ingestor, search Searcher, hc HealthChecker) http.Handler {
	t.Helper()
	if hc == nil {
		hc = &mockHealth{report: health.Report{Status: health.Healthy}}
	}
	srv := NewServer(ing, search, hc, zap.NewNop())
	r := chi.NewRouter()
	srv.Register(r)
	return r
}

func doJSON(t *testing.T, handler http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode request: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr
}

func decodeBody[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rr.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return v
}

func testCandidate(t *testing.T, id string, sim, decayed float64, createdAt int64) candidate.Candidate {
	t.Helper()
	ch := domchunk.Reconstruct(id, "text of "+id, nil, domchunk.Payload{
		TenantID:   "tenant-a",
		DocumentID: "doc-" + id,
		ThreadID:   "thr-1",
		Type:       doctype.Conversational,
		CreatedAt:  createdAt,
		Extra:      map[string]string{"channel": "email"},
	})
	return candidate.New(ch, sim).WithDecayed(decayed)
}
