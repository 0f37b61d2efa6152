package ratelimit

import (
	"context"
	"sync"
	"time"
)

// counter is a single fixed-window counter.
type counter struct {
	count     int64
	expiresAt time.Time // zero means no expiry
}

func (c *counter) expired(now time.Time) bool {
	return !c.expiresAt.IsZero() && now.After(c.expiresAt)
}

// MemoryStore implements Store using in-memory counters. Suitable for tests
// and single-process deployments; multi-instance setups need RedisStore.
type MemoryStore struct {
	mu       sync.RWMutex
	counters map[string]*counter

	cleanupInterval time.Duration
	stopCleanup     chan struct{}
	stopOnce        sync.Once
}

// MemoryStoreOption configures a MemoryStore.
type MemoryStoreOption func(*MemoryStore)

// WithCleanupInterval sets how often expired counters are purged.
// Set to 0 to disable background cleanup.
func WithCleanupInterval(interval time.Duration) MemoryStoreOption {
	return func(ms *MemoryStore) {
		ms.cleanupInterval = interval
	}
}

// NewMemoryStore creates an in-memory store with optional background cleanup.
func NewMemoryStore(opts ...MemoryStoreOption) *MemoryStore {
	ms := &MemoryStore{
		counters:        make(map[string]*counter),
		cleanupInterval: 5 * time.Minute,
		stopCleanup:     make(chan struct{}),
	}

	for _, opt := range opts {
		opt(ms)
	}

	if ms.cleanupInterval > 0 {
		go ms.cleanup()
	}

	return ms
}

func (ms *MemoryStore) IncrementAndGet(ctx context.Context, key string, incr int, window time.Duration) (int64, time.Duration, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	now := time.Now()
	c, exists := ms.counters[key]
	if !exists || c.expired(now) {
		c = &counter{}
		if window > 0 {
			c.expiresAt = now.Add(window)
		}
		ms.counters[key] = c
	}

	c.count += int64(incr)
	return c.count, ttlUntil(c.expiresAt, now), nil
}

func (ms *MemoryStore) Get(ctx context.Context, key string) (int64, time.Duration, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	now := time.Now()
	c, exists := ms.counters[key]
	if !exists || c.expired(now) {
		return 0, 0, nil
	}
	return c.count, ttlUntil(c.expiresAt, now), nil
}

func (ms *MemoryStore) Delete(ctx context.Context, key string) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	delete(ms.counters, key)
	return nil
}

func ttlUntil(expiresAt, now time.Time) time.Duration {
	if expiresAt.IsZero() {
		return 0
	}
	return expiresAt.Sub(now)
}

// cleanup runs periodically to purge expired counters.
func (ms *MemoryStore) cleanup() {
	ticker := time.NewTicker(ms.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ms.removeExpired()
		case <-ms.stopCleanup:
			return
		}
	}
}

func (ms *MemoryStore) removeExpired() {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	now := time.Now()
	for key, c := range ms.counters {
		if c.expired(now) {
			delete(ms.counters, key)
		}
	}
}

// Close stops the cleanup goroutine. Safe to call multiple times.
func (ms *MemoryStore) Close() {
	ms.stopOnce.Do(func() { close(ms.stopCleanup) })
}
