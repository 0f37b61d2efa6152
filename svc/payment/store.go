package payment

import (
	"context"
	"slices"
	"sync"
)

// Store persists payment records. History is the tenant-facing read,
// newest first.
type Store interface {
	// Insert appends a new record. Duplicate (tenant, tx) pairs are
	// rejected with ErrRecordExists so a replayed verification cannot
	// double-count.
	Insert(ctx context.Context, rec *Record) error

	// GetByTx returns the tenant's record for a transaction.
	GetByTx(ctx context.Context, tenantID, txID string) (*Record, error)

	// History returns the tenant's records, newest first.
	History(ctx context.Context, tenantID string) ([]Record, error)

	// MarkRefunded flips a confirmed record to refunded.
	MarkRefunded(ctx context.Context, tenantID, txID string) error

	// Count returns the total number of stored records, for operator metrics.
	Count(ctx context.Context) (int64, error)
}

// MemoryStore implements Store with an in-process slice. Suitable for tests
// and single-process development; production uses PGStore.
type MemoryStore struct {
	mu      sync.RWMutex
	records []Record
}

// NewMemoryStore creates an empty in-memory payment store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (ms *MemoryStore) Insert(ctx context.Context, rec *Record) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	for _, existing := range ms.records {
		if existing.TenantID == rec.TenantID && existing.TxID == rec.TxID {
			return ErrRecordExists
		}
	}
	ms.records = append(ms.records, *rec)
	return nil
}

func (ms *MemoryStore) GetByTx(ctx context.Context, tenantID, txID string) (*Record, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	for _, rec := range ms.records {
		if rec.TenantID == tenantID && rec.TxID == txID {
			out := rec
			return &out, nil
		}
	}
	return nil, ErrRecordNotFound
}

func (ms *MemoryStore) History(ctx context.Context, tenantID string) ([]Record, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	var out []Record
	for _, rec := range ms.records {
		if rec.TenantID == tenantID {
			out = append(out, rec)
		}
	}
	slices.SortFunc(out, func(a, b Record) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return out, nil
}

func (ms *MemoryStore) MarkRefunded(ctx context.Context, tenantID, txID string) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	for i, rec := range ms.records {
		if rec.TenantID != tenantID || rec.TxID != txID {
			continue
		}
		if rec.Status == StatusRefunded {
			return ErrAlreadyRefunded
		}
		ms.records[i].Status = StatusRefunded
		return nil
	}
	return ErrRecordNotFound
}

func (ms *MemoryStore) Count(ctx context.Context) (int64, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()
	return int64(len(ms.records)), nil
}
