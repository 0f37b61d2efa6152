package webhook

import (
	"math"
	"math/rand"
	"time"
)

// BackoffStrategy yields the delay before a retry attempt. Implementations
// must be safe for concurrent use.
type BackoffStrategy interface {
	// NextInterval returns the delay before retry number attempt,
	// starting at 1 for the first retry.
	NextInterval(attempt int) time.Duration
}

// ExponentialBackoff grows the delay by Multiplier each attempt, capped at
// MaxInterval, with up to JitterFactor of random spread so endpoints that
// fail for many tenants at once do not see retries in lockstep.
type ExponentialBackoff struct {
	InitialInterval time.Duration // zero means 1s
	MaxInterval     time.Duration // zero means 30s
	Multiplier      float64       // zero means 2
	JitterFactor    float64       // zero disables jitter
}

func (e ExponentialBackoff) NextInterval(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}

	initial := e.InitialInterval
	if initial == 0 {
		initial = time.Second
	}
	limit := e.MaxInterval
	if limit == 0 {
		limit = 30 * time.Second
	}
	multiplier := e.Multiplier
	if multiplier == 0 {
		multiplier = 2
	}

	interval := float64(initial) * math.Pow(multiplier, float64(attempt-1))
	if e.JitterFactor > 0 {
		spread := (rand.Float64()*2 - 1) * e.JitterFactor
		interval *= 1 + spread
	}
	if interval > float64(limit) {
		interval = float64(limit)
	}
	return time.Duration(interval)
}

// FixedBackoff waits the same interval before every retry.
type FixedBackoff struct {
	Interval time.Duration
}

func (f FixedBackoff) NextInterval(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}
	return f.Interval
}

// DefaultBackoffStrategy is the retry schedule used when a Send call does
// not override it: 1s doubling to a 30s cap with 10% jitter.
func DefaultBackoffStrategy() BackoffStrategy {
	return ExponentialBackoff{
		InitialInterval: time.Second,
		MaxInterval:     30 * time.Second,
		Multiplier:      2,
		JitterFactor:    0.1,
	}
}
