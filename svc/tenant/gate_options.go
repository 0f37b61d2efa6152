package tenant

import (
	"log/slog"
	"time"
)

// GateOption configures optional Gate settings.
type GateOption func(*Gate)

// WithClock overrides the time source. Used by tests that need a fixed
// clock for expiry checks.
func WithClock(now func() time.Time) GateOption {
	return func(g *Gate) {
		if now != nil {
			g.now = now
		}
	}
}

// WithLogger sets the gate logger.
func WithLogger(log *slog.Logger) GateOption {
	return func(g *Gate) {
		if log != nil {
			g.log = log
		}
	}
}
