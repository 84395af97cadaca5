package ingest

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/nickhighforce/highforce/internal/domain"
	domchunk "github.com/nickhighforce/highforce/internal/domain/chunk"
	"github.com/nickhighforce/highforce/internal/domain/doctype"
	domdoc "github.com/nickhighforce/highforce/internal/domain/document"
	"github.com/nickhighforce/highforce/internal/retry"
	"github.com/nickhighforce/highforce/internal/usecase/dedupe"
)

// --- Mocks ---

type mockGate struct {
	result dedupe.Result
	calls  int
}

func (m *mockGate) Check(_ context.Context, _, _, text string) dedupe.Result {
	m.calls++
	if m.result.Hash == "" {
		m.result.Hash = "hash-of-" + text[:min(4, len(text))]
	}
	return m.result
}

type mockSplitter struct {
	pieces []string
}

func (m *mockSplitter) Split(text string) []string {
	if m.pieces != nil {
		return m.pieces
	}
	return []string{text}
}

type mockEmbedder struct {
	err   error
	calls int
}

func (m *mockEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	m.calls++
	if m.err != nil {
		return domain.EmbeddingResult{}, m.err
	}
	return domain.EmbeddingResult{Embedding: []float32{0.1, 0.2}}, nil
}

type mockDocWriter struct {
	inserted []*domdoc.Document
	err      error

	findFn    func(ctx context.Context, tenantID, source, sourceID string) (domdoc.Document, error)
	findCalls int
	deleted   []string
}

func (m *mockDocWriter) Insert(_ context.Context, doc *domdoc.Document) error {
	if m.err != nil {
		return m.err
	}
	m.inserted = append(m.inserted, doc)
	return nil
}

func (m *mockDocWriter) FindByIdentity(ctx context.Context, tenantID, source, sourceID string) (domdoc.Document, error) {
	m.findCalls++
	if m.findFn != nil {
		return m.findFn(ctx, tenantID, source, sourceID)
	}
	return domdoc.Document{}, domain.ErrDocumentNotFound
}

func (m *mockDocWriter) Delete(_ context.Context, id string) error {
	m.deleted = append(m.deleted, id)
	return nil
}

type mockChunkWriter struct {
	inserted [][]domchunk.Chunk
	err      error

	deleted   []string
	deleteErr error
}

func (m *mockChunkWriter) InsertMulti(_ context.Context, chunks []domchunk.Chunk) error {
	if m.err != nil {
		return m.err
	}
	m.inserted = append(m.inserted, chunks)
	return nil
}

func (m *mockChunkWriter) DeleteByDocument(_ context.Context, documentID string) (int64, error) {
	if m.deleteErr != nil {
		return 0, m.deleteErr
	}
	m.deleted = append(m.deleted, documentID)
	return 1, nil
}

type mockSuperseder struct {
	removed   int64
	err       error
	calls     int
	gotTenant string
	gotThread string
	gotTS     int64
}

func (m *mockSuperseder) Supersede(_ context.Context, tenantID, threadID string, ts int64) (int64, error) {
	m.calls++
	m.gotTenant = tenantID
	m.gotThread = threadID
	m.gotTS = ts
	return m.removed, m.err
}

type fixture struct {
	gate     *mockGate
	splitter *mockSplitter
	embedder *mockEmbedder
	docs     *mockDocWriter
	chunks   *mockChunkWriter
	threads  *mockSuperseder
	svc      *Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		gate:     &mockGate{},
		splitter: &mockSplitter{},
		embedder: &mockEmbedder{},
		docs:     &mockDocWriter{},
		chunks:   &mockChunkWriter{},
		threads:  &mockSuperseder{},
	}
	policy := retry.Policy{MaxAttempts: 2, BaseDelay: time.Millisecond}
	f.svc = New(f.gate, f.splitter, f.embedder, f.docs, f.chunks, f.threads, policy, zap.NewNop())
	return f
}

func threadInput() Input {
	return Input{
		TenantID:  "tenant-a",
		Source:    "slack",
		SourceID:  "msg-42",
		ThreadID:  "thread-7",
		Type:      "conversational",
		CreatedAt: time.Unix(1700000000, 0).UTC(),
		Text:      "We decided to ship on Friday.",
		Extra:     map[string]string{"channel": "general"},
	}
}

// --- Tests ---

func TestIngest_WritesDocumentAndChunks(t *testing.T) {
	f := newFixture(t)
	f.splitter.pieces = []string{"piece one.", "piece two."}

	r, err := f.svc.Ingest(context.Background(), threadInput())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if r.Status != StatusIngested {
		t.Errorf("expected %q, got %q", StatusIngested, r.Status)
	}
	if r.DocumentID == "" || r.ContentHash == "" {
		t.Errorf("result must carry ids: %+v", r)
	}
	if r.Chunks != 2 {
		t.Errorf("expected 2 chunks, got %d", r.Chunks)
	}

	if len(f.docs.inserted) != 1 {
		t.Fatalf("expected 1 document write, got %d", len(f.docs.inserted))
	}
	doc := f.docs.inserted[0]
	if doc.ContentHash() != r.ContentHash {
		t.Errorf("document hash mismatch")
	}

	if len(f.chunks.inserted) != 1 || len(f.chunks.inserted[0]) != 2 {
		t.Fatalf("expected one batch of 2 chunks, got %+v", f.chunks.inserted)
	}
	c := f.chunks.inserted[0][0]
	if c.DocumentID() != doc.ID() || c.TenantID() != "tenant-a" {
		t.Errorf("chunk payload not derived from document: %+v", c.Payload())
	}
	if c.Payload().Extra["channel"] != "general" {
		t.Errorf("extra metadata lost: %+v", c.Payload().Extra)
	}
}

func TestIngest_ReingestReplacesPriorVersion(t *testing.T) {
	f := newFixture(t)
	f.docs.findFn = func(_ context.Context, tenantID, source, sourceID string) (domdoc.Document, error) {
		if tenantID != "tenant-a" || source != "slack" || sourceID != "msg-42" {
			t.Errorf("unexpected identity lookup: %s %s %s", tenantID, source, sourceID)
		}
		return domdoc.Reconstruct("prior-doc", tenantID, source, sourceID, "thread-7",
			doctype.Conversational, "old-hash", time.Unix(1690000000, 0).UTC(), "old text"), nil
	}

	r, err := f.svc.Ingest(context.Background(), threadInput())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Status != StatusIngested {
		t.Fatalf("expected %q, got %q", StatusIngested, r.Status)
	}

	// Exactly one live version per origin identity: the edited record wins.
	if len(f.docs.inserted) != 1 || f.docs.inserted[0].ID() == "prior-doc" {
		t.Fatalf("expected a fresh row, got %+v", f.docs.inserted)
	}
	if len(f.chunks.deleted) != 1 || f.chunks.deleted[0] != "prior-doc" {
		t.Errorf("expected prior chunks removed, got %v", f.chunks.deleted)
	}
	if len(f.docs.deleted) != 1 || f.docs.deleted[0] != "prior-doc" {
		t.Errorf("expected prior row removed, got %v", f.docs.deleted)
	}
}

func TestIngest_NoSourceIDSkipsIdentityLookup(t *testing.T) {
	f := newFixture(t)
	in := threadInput()
	in.SourceID = ""

	if _, err := f.svc.Ingest(context.Background(), in); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.docs.findCalls != 0 {
		t.Error("no identity lookup expected without a source id")
	}
}

func TestIngest_IdentityLookupFailureWritesNothing(t *testing.T) {
	f := newFixture(t)
	f.docs.findFn = func(context.Context, string, string, string) (domdoc.Document, error) {
		return domdoc.Document{}, errors.New("connection refused")
	}

	_, err := f.svc.Ingest(context.Background(), threadInput())
	if err == nil {
		t.Fatal("expected error")
	}
	if len(f.docs.inserted) != 0 || len(f.chunks.inserted) != 0 {
		t.Error("failed ingestion must not leave partial writes")
	}
}

func TestIngest_PriorCleanupFailureDegrades(t *testing.T) {
	f := newFixture(t)
	f.docs.findFn = func(_ context.Context, tenantID, source, sourceID string) (domdoc.Document, error) {
		return domdoc.Reconstruct("prior-doc", tenantID, source, sourceID, "thread-7",
			doctype.Conversational, "old-hash", time.Unix(1690000000, 0).UTC(), "old text"), nil
	}
	f.chunks.deleteErr = errors.New("connection refused")

	r, err := f.svc.Ingest(context.Background(), threadInput())
	if err != nil {
		t.Fatalf("cleanup failure must not fail ingestion: %v", err)
	}
	if r.Status != StatusIngested {
		t.Errorf("expected %q, got %q", StatusIngested, r.Status)
	}
	if len(f.docs.deleted) != 0 {
		t.Error("prior row must survive when its chunk cleanup fails")
	}
}

func TestIngest_DuplicateShortCircuits(t *testing.T) {
	f := newFixture(t)
	f.gate.result = dedupe.Result{Hash: "h1", Duplicate: true, DuplicateOf: "existing-doc"}

	r, err := f.svc.Ingest(context.Background(), threadInput())
	if err != nil {
		t.Fatalf("duplicate must not be an error: %v", err)
	}
	if r.Status != StatusDuplicate {
		t.Errorf("expected %q, got %q", StatusDuplicate, r.Status)
	}
	if r.DocumentID != "existing-doc" || r.ContentHash != "h1" {
		t.Errorf("unexpected result: %+v", r)
	}

	if f.embedder.calls != 0 {
		t.Error("duplicate must not be embedded")
	}
	if len(f.docs.inserted) != 0 || len(f.chunks.inserted) != 0 {
		t.Error("duplicate must not be written")
	}
	if f.threads.calls != 0 {
		t.Error("duplicate must not trigger supersession")
	}
}

func TestIngest_SupersedesAfterWrite(t *testing.T) {
	f := newFixture(t)
	f.threads.removed = 5

	r, err := f.svc.Ingest(context.Background(), threadInput())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if f.threads.calls != 1 {
		t.Fatalf("expected supersession call, got %d", f.threads.calls)
	}
	if f.threads.gotTenant != "tenant-a" || f.threads.gotThread != "thread-7" {
		t.Errorf("unexpected supersession scope: %s %s", f.threads.gotTenant, f.threads.gotThread)
	}
	if f.threads.gotTS != 1700000000 {
		t.Errorf("unexpected supersession cutoff: %d", f.threads.gotTS)
	}
	if r.Superseded != 5 {
		t.Errorf("expected 5 superseded, got %d", r.Superseded)
	}
}

func TestIngest_NoThreadNoSupersession(t *testing.T) {
	f := newFixture(t)
	in := threadInput()
	in.ThreadID = ""

	if _, err := f.svc.Ingest(context.Background(), in); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.threads.calls != 0 {
		t.Error("standalone document must not trigger supersession")
	}
}

func TestIngest_ReferenceTypeNoSupersession(t *testing.T) {
	f := newFixture(t)
	in := threadInput()
	in.Type = "reference"

	if _, err := f.svc.Ingest(context.Background(), in); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.threads.calls != 0 {
		t.Error("non-conversational document must not trigger supersession")
	}
}

func TestIngest_SupersessionFailureDegrades(t *testing.T) {
	f := newFixture(t)
	f.threads.err = context.Canceled

	r, err := f.svc.Ingest(context.Background(), threadInput())
	if err != nil {
		t.Fatalf("supersession failure must not fail ingestion: %v", err)
	}
	if r.Status != StatusIngested {
		t.Errorf("expected %q, got %q", StatusIngested, r.Status)
	}
}

func TestIngest_EmbedFailureWritesNothing(t *testing.T) {
	f := newFixture(t)
	f.embedder.err = errors.New("provider down")

	_, err := f.svc.Ingest(context.Background(), threadInput())
	if err == nil {
		t.Fatal("expected error")
	}
	if len(f.docs.inserted) != 0 || len(f.chunks.inserted) != 0 {
		t.Error("failed ingestion must not leave partial writes")
	}
	if f.embedder.calls != 2 {
		t.Errorf("expected retry before giving up, got %d calls", f.embedder.calls)
	}
}

func TestIngest_UnknownType(t *testing.T) {
	f := newFixture(t)
	in := threadInput()
	in.Type = "banana"

	_, err := f.svc.Ingest(context.Background(), in)
	if err == nil {
		t.Fatal("expected error for unknown document type")
	}
}

func TestIngest_EmptyText(t *testing.T) {
	f := newFixture(t)
	in := threadInput()
	in.Text = ""

	_, err := f.svc.Ingest(context.Background(), in)
	if !errors.Is(err, domain.ErrEmptyContent) {
		t.Fatalf("expected ErrEmptyContent, got %v", err)
	}
}

func TestIngest_DocWriteError(t *testing.T) {
	f := newFixture(t)
	f.docs.err = errors.New("OOM")

	_, err := f.svc.Ingest(context.Background(), threadInput())
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "write document") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestIngestBatch_PerItemStatus(t *testing.T) {
	f := newFixture(t)

	good := threadInput()
	bad := threadInput()
	bad.Type = "banana"

	results := f.svc.IngestBatch(context.Background(), []Input{good, bad})
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Status != StatusIngested {
		t.Errorf("expected first %q, got %q", StatusIngested, results[0].Status)
	}
	if results[1].Status != StatusError || results[1].Err == nil {
		t.Errorf("expected second to carry the error, got %+v", results[1])
	}
}
