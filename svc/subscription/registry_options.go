package subscription

import (
	"log/slog"
	"time"
)

// RegistryOption configures optional Registry settings.
type RegistryOption func(*Registry)

// WithClock overrides the time source. Used by tests that need a fixed
// or stepping clock.
func WithClock(now func() time.Time) RegistryOption {
	return func(r *Registry) {
		if now != nil {
			r.now = now
		}
	}
}

// WithLogger sets the registry logger.
func WithLogger(log *slog.Logger) RegistryOption {
	return func(r *Registry) {
		if log != nil {
			r.log = log
		}
	}
}
