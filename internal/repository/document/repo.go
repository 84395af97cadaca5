// Package document persists document rows as Redis hashes with an FT index
// over the identity and fingerprint fields.
package document

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/nickhighforce/highforce/internal/db"
	"github.com/nickhighforce/highforce/internal/domain"
	"github.com/nickhighforce/highforce/internal/domain/doctype"
	domdoc "github.com/nickhighforce/highforce/internal/domain/document"
	"github.com/nickhighforce/highforce/internal/domain/search/filter"
)

const (
	// IndexName is the FT index over document rows.
	IndexName = domain.KeyPrefix + "doc:idx"

	keyPrefix = domain.KeyPrefix + "doc:"

	threadPageSize = 100
)

// store is the consumer interface for document rows (ISP).
type store interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	Del(ctx context.Context, key string) error
	SearchList(ctx context.Context, index, query string, offset, limit int, fields []string) (*db.SearchResult, error)
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
}

// Repo implements the document persistence consumed by the ingest and
// supersession services.
type Repo struct {
	store store
}

// New creates a document repository.
func New(s store) *Repo {
	return &Repo{store: s}
}

// EnsureIndex creates the documents FT index if it does not exist yet.
func (r *Repo) EnsureIndex(ctx context.Context) error {
	def := db.NewIndex(IndexName).
		Prefix(keyPrefix).
		Tag(fieldTenantID).
		Tag(fieldSource).
		Tag(fieldSourceID).
		Tag(fieldThreadID).
		Tag(fieldDocType).
		Tag(fieldContentHash).
		Numeric(fieldCreatedAt).
		MustBuild()

	if err := r.store.CreateIndex(ctx, def); err != nil {
		if errors.Is(err, db.ErrIndexExists) {
			return nil
		}
		return fmt.Errorf("create index %s: %w", IndexName, err)
	}
	return nil
}

// Insert writes a document row.
func (r *Repo) Insert(ctx context.Context, doc *domdoc.Document) error {
	key := docKey(doc.ID())
	if err := r.store.HSet(ctx, key, buildHashFields(doc)); err != nil {
		return fmt.Errorf("hset %s: %w", key, err)
	}
	return nil
}

// Get returns a document row by ID.
func (r *Repo) Get(ctx context.Context, id string) (domdoc.Document, error) {
	key := docKey(id)
	m, err := r.store.HGetAll(ctx, key)
	if err != nil {
		return domdoc.Document{}, fmt.Errorf("hgetall %s: %w", key, err)
	}
	if len(m) == 0 {
		return domdoc.Document{}, domain.ErrDocumentNotFound
	}
	return parseHashFields(id, m), nil
}

// FindByContentHash looks up a live document by its content fingerprint within
// a tenant. A non-empty source narrows the lookup to that origin system.
// Returns domain.ErrDocumentNotFound when nothing matches.
func (r *Repo) FindByContentHash(ctx context.Context, tenantID, hash, source string) (domdoc.Document, error) {
	conds := make([]filter.Condition, 0, 3)

	c, err := filter.NewMatch(fieldTenantID, tenantID)
	if err != nil {
		return domdoc.Document{}, err
	}
	conds = append(conds, c)

	c, err = filter.NewMatch(fieldContentHash, hash)
	if err != nil {
		return domdoc.Document{}, err
	}
	conds = append(conds, c)

	if source != "" {
		c, err = filter.NewMatch(fieldSource, source)
		if err != nil {
			return domdoc.Document{}, err
		}
		conds = append(conds, c)
	}

	expr, err := filter.NewExpression(conds...)
	if err != nil {
		return domdoc.Document{}, err
	}

	result, err := r.store.SearchList(ctx, IndexName, db.FilterQuery(expr), 0, 1, nil)
	if err != nil {
		return domdoc.Document{}, fmt.Errorf("search %s: %w", IndexName, err)
	}
	if result == nil || len(result.Entries) == 0 {
		return domdoc.Document{}, domain.ErrDocumentNotFound
	}

	entry := result.Entries[0]
	return parseHashFields(docID(entry.Key), entry.Fields), nil
}

// FindByIdentity looks up the live document carrying an origin identity.
// Returns domain.ErrDocumentNotFound when nothing matches.
func (r *Repo) FindByIdentity(ctx context.Context, tenantID, source, sourceID string) (domdoc.Document, error) {
	tenantCond, err := filter.NewMatch(fieldTenantID, tenantID)
	if err != nil {
		return domdoc.Document{}, err
	}
	sourceCond, err := filter.NewMatch(fieldSource, source)
	if err != nil {
		return domdoc.Document{}, err
	}
	sourceIDCond, err := filter.NewMatch(fieldSourceID, sourceID)
	if err != nil {
		return domdoc.Document{}, err
	}

	expr, err := filter.NewExpression(tenantCond, sourceCond, sourceIDCond)
	if err != nil {
		return domdoc.Document{}, err
	}

	result, err := r.store.SearchList(ctx, IndexName, db.FilterQuery(expr), 0, 1, nil)
	if err != nil {
		return domdoc.Document{}, fmt.Errorf("search %s: %w", IndexName, err)
	}
	if result == nil || len(result.Entries) == 0 {
		return domdoc.Document{}, domain.ErrDocumentNotFound
	}

	entry := result.Entries[0]
	return parseHashFields(docID(entry.Key), entry.Fields), nil
}

// ListThread returns all live conversational documents of a thread,
// scrolling the index page by page.
func (r *Repo) ListThread(ctx context.Context, tenantID, threadID string) ([]domdoc.Document, error) {
	tenantCond, err := filter.NewMatch(fieldTenantID, tenantID)
	if err != nil {
		return nil, err
	}
	threadCond, err := filter.NewMatch(fieldThreadID, threadID)
	if err != nil {
		return nil, err
	}
	typeCond, err := filter.NewMatch(fieldDocType, string(doctype.Conversational))
	if err != nil {
		return nil, err
	}

	expr, err := filter.NewExpression(tenantCond, threadCond, typeCond)
	if err != nil {
		return nil, err
	}
	query := db.FilterQuery(expr)

	var docs []domdoc.Document
	for offset := 0; ; offset += threadPageSize {
		result, err := r.store.SearchList(ctx, IndexName, query, offset, threadPageSize, nil)
		if err != nil {
			return nil, fmt.Errorf("search %s: %w", IndexName, err)
		}
		if result == nil || len(result.Entries) == 0 {
			break
		}
		for _, entry := range result.Entries {
			docs = append(docs, parseHashFields(docID(entry.Key), entry.Fields))
		}
		if len(result.Entries) < threadPageSize {
			break
		}
	}

	return docs, nil
}

// CreatedAtOf re-reads a document row and returns its stored timestamp.
// Returns domain.ErrDocumentNotFound if the row is already gone.
func (r *Repo) CreatedAtOf(ctx context.Context, id string) (int64, error) {
	key := docKey(id)
	m, err := r.store.HGetAll(ctx, key)
	if err != nil {
		return 0, fmt.Errorf("hgetall %s: %w", key, err)
	}
	if len(m) == 0 {
		return 0, domain.ErrDocumentNotFound
	}
	ts, err := strconv.ParseInt(m[fieldCreatedAt], 10, 64)
	if err != nil {
		// A corrupt timestamp must not read as "very old"; the caller keeps
		// the row when the re-check fails.
		return 0, fmt.Errorf("parse %s of %s: %w", fieldCreatedAt, id, err)
	}
	return ts, nil
}

// Delete removes a document row. Deleting an absent row is not an error.
func (r *Repo) Delete(ctx context.Context, id string) error {
	key := docKey(id)
	if err := r.store.Del(ctx, key); err != nil {
		return fmt.Errorf("del %s: %w", key, err)
	}
	return nil
}

func docKey(id string) string {
	return keyPrefix + id
}

func docID(key string) string {
	if len(key) > len(keyPrefix) && key[:len(keyPrefix)] == keyPrefix {
		return key[len(keyPrefix):]
	}
	return key
}
