// Package cache provides a generic in-process LRU cache.
//
// LRU is safe for concurrent use and evicts the least recently used entry
// once its fixed capacity is exceeded, which keeps hot-path caches bounded
// regardless of key cardinality. The subscription layer uses it to
// short-circuit per-request credential and plan lookups:
//
//	subs := cache.NewLRU[string, *subscription.Subscription](4096)
//
//	if sub, ok := subs.Get(tenantID); ok {
//		return sub, nil
//	}
//	sub, err := store.Get(ctx, tenantID)
//	if err != nil {
//		return nil, err
//	}
//	subs.Put(tenantID, sub)
//
// Entries carry no TTL; callers that need expiry store a timestamp next to
// the value and treat stale hits as misses.
package cache
