package ratelimit

import (
	"context"
	"time"
)

const (
	defaultQuotaPrefix    = "ratelimit:"
	defaultQuotaRetention = 24 * time.Hour
	dayFormat             = "20060102"
)

// Quota counts calls against a per-key daily ceiling. Unlike Limiter, the
// ceiling is supplied per call because it depends on the caller's plan.
// Counters live in UTC-dated keys, so the quota resets at midnight UTC
// regardless of the counter TTL; the TTL only garbage-collects old days.
type Quota struct {
	store     Store
	prefix    string
	retention time.Duration
}

// QuotaOption configures a Quota.
type QuotaOption func(*Quota)

// WithKeyPrefix overrides the storage key prefix.
func WithKeyPrefix(prefix string) QuotaOption {
	return func(q *Quota) {
		if prefix != "" {
			q.prefix = prefix
		}
	}
}

// WithRetention sets how long day counters stay readable after their first
// increment. Longer retention lets usage reports look back across days; the
// daily reset itself is derived from the dated key and is unaffected.
func WithRetention(d time.Duration) QuotaOption {
	return func(q *Quota) {
		if d > 0 {
			q.retention = d
		}
	}
}

// NewQuota creates a daily quota on top of a counter store.
func NewQuota(store Store, opts ...QuotaOption) (*Quota, error) {
	if store == nil {
		return nil, ErrStoreRequired
	}

	q := &Quota{
		store:     store,
		prefix:    defaultQuotaPrefix,
		retention: defaultQuotaRetention,
	}
	for _, opt := range opts {
		opt(q)
	}
	return q, nil
}

// Allow counts one call for key against limit and reports whether it was
// admitted. A limit of Unlimited always admits but still counts the call so
// usage reports stay complete. Exactly limit calls are admitted per UTC day:
// the counter is incremented first, so concurrent calls cannot slip past the
// ceiling.
func (q *Quota) Allow(ctx context.Context, key string, limit int) (*Result, error) {
	if key == "" {
		return nil, ErrKeyRequired
	}

	now := time.Now().UTC()
	used, _, err := q.store.IncrementAndGet(ctx, q.DayKey(key, now), 1, q.retention)
	if err != nil {
		return nil, err
	}

	res := &Result{
		Limit:   limit,
		Used:    used,
		ResetAt: nextUTCDay(now),
	}
	if limit < 0 {
		res.Allowed = true
		res.Remaining = Unlimited
		return res, nil
	}

	res.Allowed = used <= int64(limit)
	res.Remaining = int(max(0, int64(limit)-used))
	return res, nil
}

// Usage returns the number of calls recorded for key on the given day
// without counting one.
func (q *Quota) Usage(ctx context.Context, key string, day time.Time) (int64, error) {
	if key == "" {
		return 0, ErrKeyRequired
	}
	count, _, err := q.store.Get(ctx, q.DayKey(key, day))
	return count, err
}

// UsageWindow sums the recorded calls over the trailing days, today included.
// Days beyond the configured retention read as zero.
func (q *Quota) UsageWindow(ctx context.Context, key string, days int) (int64, error) {
	if key == "" {
		return 0, ErrKeyRequired
	}
	if days < 1 {
		return 0, ErrInvalidWindow
	}

	today := time.Now().UTC()
	var total int64
	for i := 0; i < days; i++ {
		count, _, err := q.store.Get(ctx, q.DayKey(key, today.AddDate(0, 0, -i)))
		if err != nil {
			return 0, err
		}
		total += count
	}
	return total, nil
}

// ResetDay clears today's counter for key.
func (q *Quota) ResetDay(ctx context.Context, key string) error {
	if key == "" {
		return ErrKeyRequired
	}
	return q.store.Delete(ctx, q.DayKey(key, time.Now().UTC()))
}

// DayKey returns the storage key holding the counter for key on the given
// day, e.g. "ratelimit:acme-bank:20250601".
func (q *Quota) DayKey(key string, day time.Time) string {
	return q.prefix + key + ":" + day.UTC().Format(dayFormat)
}

func nextUTCDay(now time.Time) time.Time {
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, 1)
}
