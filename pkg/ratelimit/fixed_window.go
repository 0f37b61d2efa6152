package ratelimit

import (
	"context"
	"time"
)

// FixedWindow implements Limiter with a fixed ceiling per window. The window
// starts at the first request for a key and resets when its TTL lapses.
// Used for abuse protection on public endpoints where every caller shares
// the same ceiling.
type FixedWindow struct {
	store  Store
	limit  int
	window time.Duration
}

// NewFixedWindow creates a fixed-window limiter admitting limit requests
// per window per key.
func NewFixedWindow(store Store, limit int, window time.Duration) (*FixedWindow, error) {
	if store == nil {
		return nil, ErrStoreRequired
	}
	if limit <= 0 {
		return nil, ErrInvalidLimit
	}
	if window <= 0 {
		return nil, ErrInvalidWindow
	}

	return &FixedWindow{
		store:  store,
		limit:  limit,
		window: window,
	}, nil
}

// Allow checks if a single request is allowed for the given key.
func (fw *FixedWindow) Allow(ctx context.Context, key string) (*Result, error) {
	return fw.AllowN(ctx, key, 1)
}

// AllowN checks if n requests are allowed for the given key.
func (fw *FixedWindow) AllowN(ctx context.Context, key string, n int) (*Result, error) {
	if key == "" {
		return nil, ErrKeyRequired
	}
	if n <= 0 {
		n = 1
	}

	used, ttl, err := fw.store.IncrementAndGet(ctx, key, n, fw.window)
	if err != nil {
		return nil, err
	}

	return fw.result(used, ttl), nil
}

// Status returns the current state without consuming a slot.
func (fw *FixedWindow) Status(ctx context.Context, key string) (*Result, error) {
	if key == "" {
		return nil, ErrKeyRequired
	}

	used, ttl, err := fw.store.Get(ctx, key)
	if err != nil {
		return nil, err
	}

	res := fw.result(used, ttl)
	// Status reports admissibility of the NEXT request.
	res.Allowed = used < int64(fw.limit)
	return res, nil
}

// Reset clears the counter for the given key.
func (fw *FixedWindow) Reset(ctx context.Context, key string) error {
	if key == "" {
		return ErrKeyRequired
	}
	return fw.store.Delete(ctx, key)
}

func (fw *FixedWindow) result(used int64, ttl time.Duration) *Result {
	if ttl <= 0 {
		ttl = fw.window
	}
	return &Result{
		Allowed:   used <= int64(fw.limit),
		Limit:     fw.limit,
		Used:      used,
		Remaining: int(max(0, int64(fw.limit)-used)),
		ResetAt:   time.Now().Add(ttl),
	}
}
