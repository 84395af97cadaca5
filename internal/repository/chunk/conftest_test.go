package chunk

import (
	"context"
	"testing"

	"github.com/nickhighforce/highforce/internal/db"
	domchunk "github.com/nickhighforce/highforce/internal/domain/chunk"
	"github.com/nickhighforce/highforce/internal/domain/doctype"
)

// mockStore implements the consumer interface for tests.
type mockStore struct {
	hsetMultiFn func(ctx context.Context, items []db.HashSetItem) error
	delMultiFn  func(ctx context.Context, keys []string) (int64, error)
	searchKNNFn func(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
	searchListFn func(
		ctx context.Context, index, query string, offset, limit int, fields []string,
	) (*db.SearchResult, error)
	searchCountFn func(ctx context.Context, index, query string) (int, error)
	createIndexFn func(ctx context.Context, def *db.IndexDefinition) error
}

func (m *mockStore) HSetMulti(ctx context.Context, items []db.HashSetItem) error {
	if m.hsetMultiFn != nil {
		return m.hsetMultiFn(ctx, items)
	}
	return nil
}

func (m *mockStore) DelMulti(ctx context.Context, keys []string) (int64, error) {
	if m.delMultiFn != nil {
		return m.delMultiFn(ctx, keys)
	}
	return int64(len(keys)), nil
}

func (m *mockStore) SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error) {
	if m.searchKNNFn != nil {
		return m.searchKNNFn(ctx, q)
	}
	return &db.SearchResult{}, nil
}

func (m *mockStore) SearchList(
	ctx context.Context, index, query string, offset, limit int, fields []string,
) (*db.SearchResult, error) {
	if m.searchListFn != nil {
		return m.searchListFn(ctx, index, query, offset, limit, fields)
	}
	return &db.SearchResult{}, nil
}

func (m *mockStore) SearchCount(ctx context.Context, index, query string) (int, error) {
	if m.searchCountFn != nil {
		return m.searchCountFn(ctx, index, query)
	}
	return 0, nil
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
	repo := New(ms, 4)
	return repo, ms
}

func testChunk(t *testing.T, id string) domchunk.Chunk {
	t.Helper()
	return domchunk.Reconstruct(id, "hello world", []float32{0.1, 0.2, 0.3, 0.4},
		domchunk.Payload{
			TenantID:   "tenant-a",
			DocumentID: "doc-1",
			ThreadID:   "thread-7",
			Type:       doctype.Conversational,
			CreatedAt:  1700000000,
			Extra:      map[string]string{"channel": "general"},
		})
}

func testHashFields() map[string]string {
	return map[string]string{
		fieldTenantID:   "tenant-a",
		fieldDocumentID: "doc-1",
		fieldThreadID:   "thread-7",
		fieldDocType:    "conversational",
		fieldCreatedAt:  "1700000000",
		fieldText:       "hello world",
		fieldExtra:      `{"channel":"general"}`,
	}
}
