package audit

import (
	"log/slog"
	"time"
)

// Option configures Logger behavior during initialization.
type Option func(*Logger)

// WithExtractors registers context extractors. They run in order on every
// event before EventOptions are applied.
func WithExtractors(extractors ...Extractor) Option {
	return func(l *Logger) {
		for _, extract := range extractors {
			if extract != nil {
				l.extractors = append(l.extractors, extract)
			}
		}
	}
}

// WithMetadataFilter replaces the default PII filter. Passing nil disables
// metadata filtering entirely.
func WithMetadataFilter(filter *MetadataFilter) Option {
	return func(l *Logger) {
		l.filter = filter
	}
}

// WithClock replaces the time source. Used in tests.
func WithClock(now func() time.Time) Option {
	return func(l *Logger) {
		if now != nil {
			l.now = now
		}
	}
}

// WithLogger sets the operational logger for dropped-event reporting.
func WithLogger(log *slog.Logger) Option {
	return func(l *Logger) {
		if log != nil {
			l.log = log
		}
	}
}
