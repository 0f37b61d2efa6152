package ratelimit

import (
	"context"
	"time"
)

// Unlimited marks a quota without a ceiling.
const Unlimited = -1

// Result contains the result of a rate limit check.
type Result struct {
	// Allowed indicates whether the checked request was admitted.
	Allowed bool

	// Limit is the maximum number of requests allowed in the window,
	// Unlimited when no ceiling applies.
	Limit int

	// Used is the number of requests counted in the current window,
	// including the one just checked.
	Used int64

	// Remaining is the number of requests left in the current window,
	// Unlimited when no ceiling applies.
	Remaining int

	// ResetAt is the time when the window resets.
	ResetAt time.Time
}

// RetryAfter returns how long to wait before the next request is allowed.
// Returns 0 if the current request was allowed.
func (r *Result) RetryAfter() time.Duration {
	if r.Allowed {
		return 0
	}
	return time.Until(r.ResetAt)
}

// Limiter is a rate limiter with a fixed per-instance ceiling.
type Limiter interface {
	// Allow checks if a single request is allowed for the given key.
	// If allowed, it consumes one slot.
	Allow(ctx context.Context, key string) (*Result, error)

	// AllowN checks if n requests are allowed for the given key.
	// If allowed, it consumes n slots.
	AllowN(ctx context.Context, key string, n int) (*Result, error)

	// Status returns the current state for the given key without
	// consuming a slot.
	Status(ctx context.Context, key string) (*Result, error)

	// Reset clears the counter for the given key.
	Reset(ctx context.Context, key string) error
}

// Store defines the interface for rate limit storage backends.
type Store interface {
	// IncrementAndGet atomically adds incr to the counter for the given key
	// and returns the new value along with the remaining TTL. The window TTL
	// is armed when the key is first created.
	IncrementAndGet(ctx context.Context, key string, incr int, window time.Duration) (current int64, ttl time.Duration, err error)

	// Get returns the current counter value and remaining TTL for the key.
	// A missing key reads as zero.
	Get(ctx context.Context, key string) (current int64, ttl time.Duration, err error)

	// Delete removes the given key from the store.
	Delete(ctx context.Context, key string) error
}
