package subscription

import (
	"context"
	"time"

	"github.com/bankvoiceai/platform/pkg/cache"
)

const (
	defaultCacheTTL      = 30 * time.Second
	defaultCacheCapacity = 4096
)

// CachedStore layers a short-TTL read cache over a Store. The hot path is
// the per-call credential check in the tenant gate: every conversational
// turn resolves an API key and loads the subscription, which otherwise
// costs two Redis round trips per request. Writes through this store drop
// the affected entries immediately; on other instances staleness is
// bounded by the TTL.
type CachedStore struct {
	store Store
	ttl   time.Duration
	now   func() time.Time

	subs  *cache.LRU[string, cachedRecord]
	creds *cache.LRU[string, cachedCredential]
}

type cachedRecord struct {
	sub      *Subscription
	cachedAt time.Time
}

type cachedCredential struct {
	tenantID string
	cachedAt time.Time
}

// CachedStoreOption configures optional CachedStore settings.
type CachedStoreOption func(*CachedStore)

// WithCacheClock replaces the time source used for entry expiry. Used in tests.
func WithCacheClock(now func() time.Time) CachedStoreOption {
	return func(cs *CachedStore) {
		if now != nil {
			cs.now = now
		}
	}
}

// NewCachedStore wraps store with a read-through cache. A ttl <= 0 selects
// the 30-second default.
func NewCachedStore(store Store, ttl time.Duration, opts ...CachedStoreOption) *CachedStore {
	if store == nil {
		panic("subscription: store cannot be nil")
	}
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}

	cs := &CachedStore{
		store: store,
		ttl:   ttl,
		now:   func() time.Time { return time.Now().UTC() },
		subs:  cache.NewLRU[string, cachedRecord](defaultCacheCapacity),
		creds: cache.NewLRU[string, cachedCredential](defaultCacheCapacity),
	}
	for _, opt := range opts {
		opt(cs)
	}
	return cs
}

// Get returns the cached record when fresh, otherwise reads through.
// Callers receive a clone either way, so a cached record can never be
// mutated through a returned pointer.
func (cs *CachedStore) Get(ctx context.Context, tenantID string) (*Subscription, error) {
	if entry, ok := cs.subs.Get(tenantID); ok && cs.fresh(entry.cachedAt) {
		return entry.sub.Clone(), nil
	}

	sub, err := cs.store.Get(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	cs.subs.Put(tenantID, cachedRecord{sub: sub.Clone(), cachedAt: cs.now()})
	return sub, nil
}

// Save writes through and drops the tenant's cached record. Credential
// entries stay: new keys miss into the store, and revoked keys are dropped
// by UnlinkCredential.
func (cs *CachedStore) Save(ctx context.Context, sub *Subscription) error {
	if err := cs.store.Save(ctx, sub); err != nil {
		return err
	}
	cs.subs.Remove(sub.TenantID)
	return nil
}

// List always reads through. It serves the operator overview, which is rare
// and must not see a mix of cached and live records.
func (cs *CachedStore) List(ctx context.Context) ([]*Subscription, error) {
	return cs.store.List(ctx)
}

// ResolveCredential caches successful lookups only. Misses are not cached:
// a key issued moments ago must authenticate on its first use.
func (cs *CachedStore) ResolveCredential(ctx context.Context, key string) (string, error) {
	if entry, ok := cs.creds.Get(key); ok && cs.fresh(entry.cachedAt) {
		return entry.tenantID, nil
	}

	tenantID, err := cs.store.ResolveCredential(ctx, key)
	if err != nil {
		return "", err
	}

	cs.creds.Put(key, cachedCredential{tenantID: tenantID, cachedAt: cs.now()})
	return tenantID, nil
}

// UnlinkCredential writes through and drops the key's cache entry so a
// revoked key stops authenticating on this instance immediately.
func (cs *CachedStore) UnlinkCredential(ctx context.Context, key string) error {
	if err := cs.store.UnlinkCredential(ctx, key); err != nil {
		return err
	}
	cs.creds.Remove(key)
	return nil
}

func (cs *CachedStore) fresh(cachedAt time.Time) bool {
	return cs.now().Sub(cachedAt) < cs.ttl
}
