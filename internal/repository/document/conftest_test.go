package document

import (
	"context"
	"testing"
	"time"

	"github.com/nickhighforce/highforce/internal/db"
	"github.com/nickhighforce/highforce/internal/domain/doctype"
	domdoc "github.com/nickhighforce/highforce/internal/domain/document"
)

// mockStore implements the consumer interface for tests.
type mockStore struct {
	hsetFn       func(ctx context.Context, key string, fields map[string]string) error
	hgetAllFn    func(ctx context.Context, key string) (map[string]string, error)
	delFn        func(ctx context.Context, key string) error
	searchListFn func(
		ctx context.Context, index, query string, offset, limit int, fields []string,
	) (*db.SearchResult, error)
	createIndexFn func(ctx context.Context, def *db.IndexDefinition) error
}

func (m *mockStore) HSet(ctx context.Context, key string, fields map[string]string) error {
	if m.hsetFn != nil {
		return m.hsetFn(ctx, key, fields)
	}
	return nil
}

func (m *mockStore) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	if m.hgetAllFn != nil {
		return m.hgetAllFn(ctx, key)
	}
	return map[string]string{}, nil
}

func (m *mockStore) Del(ctx context.Context, key string) error {
	if m.delFn != nil {
		return m.delFn(ctx, key)
	}
	return nil
}

func (m *mockStore) SearchList(
	ctx context.Context, index, query string, offset, limit int, fields []string,
) (*db.SearchResult, error) {
	if m.searchListFn != nil {
		return m.searchListFn(ctx, index, query, offset, limit, fields)
	}
	return &db.SearchResult{}, nil
}

func (m *mockStore) CreateIndex(ctx context.Context, def *db.IndexDefinition) error {
	if m.createIndexFn != nil {
		return m.createIndexFn(ctx, def)
	}
	return nil
}

func newTestRepo(t *testing.T) (*Repo, *mockStore) {
	t.Helper()
	ms := &mockStore{}
	repo := New(ms)
	return repo, ms
}

func testDocument(t *testing.T) domdoc.Document {
	t.Helper()
	return domdoc.Reconstruct(
		"doc-1", "tenant-a", "slack", "msg-42", "thread-7",
		doctype.Conversational, "a3f1c2",
		time.Unix(1700000000, 0).UTC(),
		"hello world",
	)
}

func testHashFields() map[string]string {
	return map[string]string{
		fieldTenantID:    "tenant-a",
		fieldSource:      "slack",
		fieldSourceID:    "msg-42",
		fieldThreadID:    "thread-7",
		fieldDocType:     "conversational",
		fieldContentHash: "a3f1c2",
		fieldCreatedAt:   "1700000000",
		fieldText:        "hello world",
	}
}
