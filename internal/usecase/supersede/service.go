// Package supersede retires older conversational content when a newer message
// of the same thread arrives. The newest ingested state of a thread wins.
package supersede

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/nickhighforce/highforce/internal/domain"
	"github.com/nickhighforce/highforce/internal/metrics"
)

// Manager removes superseded thread content. Supersession is best-effort
// cleanup: failures are logged and reported but never fail the ingestion that
// triggered them.
type Manager struct {
	docs   DocumentStore
	chunks ChunkStore
	logger *zap.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// New creates a supersession manager.
func New(docs DocumentStore, chunks ChunkStore, logger *zap.Logger) *Manager {
	return &Manager{
		docs:   docs,
		chunks: chunks,
		logger: logger,
		locks:  make(map[string]*sync.Mutex),
	}
}

// Supersede removes every conversational document of a thread created
// strictly before the thread's newest live timestamp, chunks first, then the
// document rows. Returns the number of chunks removed.
//
// The cutoff is the maximum of ts and the timestamps currently stored in the
// thread, so the thread converges on its single newest message regardless of
// arrival order: a late-arriving older message is cleaned up by its own
// ingestion.
//
// Empty threadID is a no-op. Every stored timestamp is re-checked right
// before deletion so a concurrent newer write is never removed. Any storage
// failure degrades: the error is logged, metrics record the failure and the
// count removed so far is returned with a nil error.
func (m *Manager) Supersede(ctx context.Context, tenantID, threadID string, ts int64) (int64, error) {
	if threadID == "" {
		return 0, nil
	}
	if tenantID == "" {
		return 0, domain.ErrTenantRequired
	}

	lock := m.threadLock(tenantID + "\x00" + threadID)
	lock.Lock()
	defer lock.Unlock()

	live, err := m.docs.ListThread(ctx, tenantID, threadID)
	if err != nil {
		m.degrade(tenantID, threadID, "list thread documents", err)
		return 0, nil
	}

	cutoff := ts
	for i := range live {
		if created := live[i].CreatedAt().Unix(); created > cutoff {
			cutoff = created
		}
	}

	var removed int64
	for i := range live {
		if err := ctx.Err(); err != nil {
			return removed, err
		}

		id := live[i].ID()

		// Re-check against the stored row: the listing may be stale and the
		// thread may have been rewritten since.
		stored, err := m.docs.CreatedAtOf(ctx, id)
		if errors.Is(err, domain.ErrDocumentNotFound) {
			continue
		}
		if err != nil {
			m.degrade(tenantID, threadID, "re-check superseded document", err)
			return removed, nil
		}
		if stored >= cutoff {
			continue
		}

		n, err := m.chunks.DeleteByDocument(ctx, id)
		removed += n
		if err != nil {
			m.degrade(tenantID, threadID, "delete superseded chunks", err)
			return removed, nil
		}

		if err := m.docs.Delete(ctx, id); err != nil {
			m.degrade(tenantID, threadID, "delete superseded document", err)
			return removed, nil
		}
	}

	if removed > 0 {
		metrics.SupersededChunksTotal.Add(float64(removed))
	}
	return removed, nil
}

func (m *Manager) degrade(tenantID, threadID, op string, err error) {
	metrics.SupersessionFailuresTotal.Inc()
	m.logger.Warn("supersession degraded, keeping existing content",
		zap.String("tenant_id", tenantID),
		zap.String("thread_id", threadID),
		zap.String("op", op),
		zap.Error(err),
	)
}

func (m *Manager) threadLock(key string) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()
	lock, ok := m.locks[key]
	if !ok {
		lock = &sync.Mutex{}
		m.locks[key] = lock
	}
	return lock
}
