package pg

import "context"

// logger is the slice of slog.Logger that Migrate needs. Declared here so
// the package does not force a concrete logger on callers.
type logger interface {
	InfoContext(ctx context.Context, msg string, args ...any)
	ErrorContext(ctx context.Context, msg string, args ...any)
}
