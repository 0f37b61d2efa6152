package subscription

import (
	"context"
	"sync"
)

// Store persists subscriptions and the credential reverse index.
// Save must refresh the index entry for every credential currently attached
// to the record, so issuance, rotation, and renewal keep the index in step
// without a separate write. Revocations go through UnlinkCredential.
type Store interface {
	// Get retrieves a subscription by tenant id.
	// Returns ErrNotFound if no record exists.
	Get(ctx context.Context, tenantID string) (*Subscription, error)

	// Save upserts the subscription and refreshes its credential index entries.
	Save(ctx context.Context, sub *Subscription) error

	// List returns every stored subscription. Order is unspecified.
	List(ctx context.Context) ([]*Subscription, error)

	// ResolveCredential maps an issued key back to its tenant id.
	// Returns ErrCredentialNotFound for unknown keys.
	ResolveCredential(ctx context.Context, key string) (string, error)

	// UnlinkCredential removes a key from the reverse index. Unknown keys
	// are a no-op so revocation stays idempotent.
	UnlinkCredential(ctx context.Context, key string) error
}

// MemoryStore implements Store with in-process maps. Suitable for tests and
// single-process development; production uses RedisStore.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]*Subscription
	index   map[string]string // credential key -> tenant id
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[string]*Subscription),
		index:   make(map[string]string),
	}
}

func (ms *MemoryStore) Get(ctx context.Context, tenantID string) (*Subscription, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	sub, ok := ms.records[tenantID]
	if !ok {
		return nil, ErrNotFound
	}
	return sub.Clone(), nil
}

func (ms *MemoryStore) Save(ctx context.Context, sub *Subscription) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	ms.records[sub.TenantID] = sub.Clone()
	for _, cred := range sub.Credentials {
		ms.index[cred.Key] = sub.TenantID
	}
	return nil
}

func (ms *MemoryStore) List(ctx context.Context) ([]*Subscription, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	subs := make([]*Subscription, 0, len(ms.records))
	for _, sub := range ms.records {
		subs = append(subs, sub.Clone())
	}
	return subs, nil
}

func (ms *MemoryStore) ResolveCredential(ctx context.Context, key string) (string, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	tenantID, ok := ms.index[key]
	if !ok {
		return "", ErrCredentialNotFound
	}
	return tenantID, nil
}

func (ms *MemoryStore) UnlinkCredential(ctx context.Context, key string) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	delete(ms.index, key)
	return nil
}
