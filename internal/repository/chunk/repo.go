// Package chunk persists indexed fragments as Redis hashes with an FT index
// serving KNN retrieval and thread cleanup.
package chunk

import (
	"context"
	"errors"
	"fmt"

	"github.com/nickhighforce/highforce/internal/db"
	"github.com/nickhighforce/highforce/internal/domain"
	domchunk "github.com/nickhighforce/highforce/internal/domain/chunk"
	"github.com/nickhighforce/highforce/internal/domain/search/candidate"
	"github.com/nickhighforce/highforce/internal/domain/search/filter"
	"github.com/nickhighforce/highforce/internal/domain/timerange"
)

const (
	// IndexName is the FT index over chunk rows.
	IndexName = domain.KeyPrefix + "chunk:idx"

	keyPrefix = domain.KeyPrefix + "chunk:"

	deletePageSize = 100

	hnswM           = 16
	hnswEFConstruct = 200
)

// store is the consumer interface for chunk rows (ISP).
type store interface {
	HSetMulti(ctx context.Context, items []db.HashSetItem) error
	DelMulti(ctx context.Context, keys []string) (int64, error)
	SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
	SearchList(ctx context.Context, index, query string, offset, limit int, fields []string) (*db.SearchResult, error)
	SearchCount(ctx context.Context, index, query string) (int, error)
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
}

// Repo implements the chunk persistence consumed by the ingest, query and
// supersession services.
type Repo struct {
	store store
	dim   int
}

// New creates a chunk repository. dim is the embedding dimensionality the
// vector field is created with.
func New(s store, dim int) *Repo {
	return &Repo{store: s, dim: dim}
}

// EnsureIndex creates the chunks FT index if it does not exist yet.
func (r *Repo) EnsureIndex(ctx context.Context) error {
	def, err := db.NewIndex(IndexName).
		Prefix(keyPrefix).
		Tag(fieldTenantID).
		Tag(fieldDocumentID).
		Tag(fieldThreadID).
		Tag(fieldDocType).
		Numeric(fieldCreatedAt).
		VectorHNSW(fieldVector, r.dim, db.DistanceCosine, hnswM, hnswEFConstruct).
		Build()
	if err != nil {
		return fmt.Errorf("build index %s: %w", IndexName, err)
	}

	if err := r.store.CreateIndex(ctx, def); err != nil {
		if errors.Is(err, db.ErrIndexExists) {
			return nil
		}
		return fmt.Errorf("create index %s: %w", IndexName, err)
	}
	return nil
}

// InsertMulti writes chunk rows in one pipelined round trip.
func (r *Repo) InsertMulti(ctx context.Context, chunks []domchunk.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	items := make([]db.HashSetItem, 0, len(chunks))
	for i := range chunks {
		items = append(items, db.HashSetItem{
			Key:    chunkKey(chunks[i].ID()),
			Fields: buildHashFields(&chunks[i]),
		})
	}

	if err := r.store.HSetMulti(ctx, items); err != nil {
		return fmt.Errorf("hset %d chunks: %w", len(items), err)
	}
	return nil
}

// SearchKNN retrieves the k nearest chunks of a tenant, optionally bounded by
// a time window on the origin timestamp. Result vectors are not hydrated.
func (r *Repo) SearchKNN(
	ctx context.Context, tenantID string, window timerange.Range, vector []float32, k int,
) ([]candidate.Candidate, error) {
	if tenantID == "" {
		return nil, domain.ErrTenantRequired
	}

	tenantCond, err := filter.NewMatch(fieldTenantID, tenantID)
	if err != nil {
		return nil, err
	}
	conds := []filter.Condition{tenantCond}

	if !window.IsZero() {
		rangeCond, err := filter.NewRange(fieldCreatedAt,
			filter.Between(float64(window.Start()), float64(window.End())))
		if err != nil {
			return nil, err
		}
		conds = append(conds, rangeCond)
	}

	expr, err := filter.NewExpression(conds...)
	if err != nil {
		return nil, err
	}

	result, err := r.store.SearchKNN(ctx, &db.KNNQuery{
		IndexName: IndexName,
		Filters:   expr,
		Vector:    vector,
		K:         k,
		ReturnFields: []string{
			fieldTenantID, fieldDocumentID, fieldThreadID, fieldDocType,
			fieldCreatedAt, fieldText, fieldExtra, fieldVectorScore,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("knn search %s: %w", IndexName, err)
	}

	candidates := make([]candidate.Candidate, 0, len(result.Entries))
	for _, entry := range result.Entries {
		c := parseHashFields(chunkID(entry.Key), entry.Fields)
		candidates = append(candidates, candidate.New(c, entry.Score))
	}

	return candidates, nil
}

// CountByDocument returns the number of live chunks of a document.
func (r *Repo) CountByDocument(ctx context.Context, documentID string) (int, error) {
	expr, err := docExpr(documentID)
	if err != nil {
		return 0, err
	}
	n, err := r.store.SearchCount(ctx, IndexName, db.FilterQuery(expr))
	if err != nil {
		return 0, fmt.Errorf("count chunks of %s: %w", documentID, err)
	}
	return n, nil
}

// DeleteByDocument removes all chunks of a document and returns the removed
// count. Each pass re-queries from offset zero since deletion shrinks the set.
func (r *Repo) DeleteByDocument(ctx context.Context, documentID string) (int64, error) {
	expr, err := docExpr(documentID)
	if err != nil {
		return 0, err
	}
	query := db.FilterQuery(expr)

	var removed int64
	for {
		result, err := r.store.SearchList(ctx, IndexName, query, 0, deletePageSize,
			[]string{fieldDocumentID})
		if err != nil {
			return removed, fmt.Errorf("list chunks of %s: %w", documentID, err)
		}
		if result == nil || len(result.Entries) == 0 {
			return removed, nil
		}

		keys := make([]string, 0, len(result.Entries))
		for _, entry := range result.Entries {
			keys = append(keys, entry.Key)
		}

		n, err := r.store.DelMulti(ctx, keys)
		removed += n
		if err != nil {
			return removed, fmt.Errorf("delete chunks of %s: %w", documentID, err)
		}
		if len(result.Entries) < deletePageSize {
			return removed, nil
		}
	}
}

func docExpr(documentID string) (filter.Expression, error) {
	cond, err := filter.NewMatch(fieldDocumentID, documentID)
	if err != nil {
		return filter.Expression{}, err
	}
	return filter.NewExpression(cond)
}

func chunkKey(id string) string {
	return keyPrefix + id
}

func chunkID(key string) string {
	if len(key) > len(keyPrefix) && key[:len(keyPrefix)] == keyPrefix {
		return key[len(keyPrefix):]
	}
	return key
}
