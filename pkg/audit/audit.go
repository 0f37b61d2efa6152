package audit

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Storage persists audit events. Implementations must be safe for
// concurrent use.
type Storage interface {
	Store(ctx context.Context, event Event) error
}

// BatchWriter is the bulk path implemented by every storage in this package.
// The async writer requires it so a flush maps to one storage round trip.
type BatchWriter interface {
	StoreBatch(ctx context.Context, events []Event) error
}

// BatchStorage combines the single-event and bulk write paths. Fanout
// returns one so its result can sit behind an AsyncWriter or be used as a
// plain Storage.
type BatchStorage interface {
	Storage
	BatchWriter
}

// Reader queries persisted audit events. Write-only sinks such as the S3
// archiver do not implement it.
type Reader interface {
	Query(ctx context.Context, criteria Criteria) ([]Event, error)
	Count(ctx context.Context, criteria Criteria) (int64, error)
}

// Criteria narrows Query and Count results. Zero-value fields match
// everything. Results are ordered newest first.
type Criteria struct {
	TenantID string
	Actor    string
	Action   string
	Resource string
	Result   Result
	Since    time.Time // inclusive
	Until    time.Time // exclusive
	Limit    int
	Offset   int
}

const (
	defaultQueryLimit = 100
	maxQueryLimit     = 1000
)

// limit returns the effective page size.
func (c Criteria) limit() int {
	if c.Limit <= 0 {
		return defaultQueryLimit
	}
	if c.Limit > maxQueryLimit {
		return maxQueryLimit
	}
	return c.Limit
}

// matches reports whether the event satisfies every set criteria field.
// Used by storages that filter in memory.
func (c Criteria) matches(e Event) bool {
	if c.TenantID != "" && e.TenantID != c.TenantID {
		return false
	}
	if c.Actor != "" && e.Actor != c.Actor {
		return false
	}
	if c.Action != "" && e.Action != c.Action {
		return false
	}
	if c.Resource != "" && e.Resource != c.Resource {
		return false
	}
	if c.Result != "" && e.Result != c.Result {
		return false
	}
	if !c.Since.IsZero() && e.CreatedAt.Before(c.Since) {
		return false
	}
	if !c.Until.IsZero() && !e.CreatedAt.Before(c.Until) {
		return false
	}
	return true
}

// Extractor fills event fields from the request context. Extractors run
// before EventOptions, so explicit options win over extracted values.
type Extractor func(ctx context.Context, event *Event)

// TenantExtractor returns an Extractor that fills TenantID from the given
// context lookup and attributes the event to that tenant unless an actor
// was already set.
func TenantExtractor(lookup func(context.Context) (string, bool)) Extractor {
	return func(ctx context.Context, event *Event) {
		id, ok := lookup(ctx)
		if !ok || id == "" {
			return
		}
		event.TenantID = id
		if event.Actor == "" || event.Actor == ActorSystem {
			event.Actor = TenantActor(id)
		}
	}
}

// RequestIDExtractor returns an Extractor that fills RequestID from the
// given context lookup.
func RequestIDExtractor(lookup func(context.Context) string) Extractor {
	return func(ctx context.Context, event *Event) {
		if id := lookup(ctx); id != "" {
			event.RequestID = id
		}
	}
}

// ClientIPExtractor returns an Extractor that fills IP from the given
// context lookup.
func ClientIPExtractor(lookup func(context.Context) string) Extractor {
	return func(ctx context.Context, event *Event) {
		if ip := lookup(ctx); ip != "" {
			event.IP = ip
		}
	}
}

// Logger builds audit events and hands them to storage. Metadata passes
// through the PII filter and every event gets an integrity checksum before
// the write.
type Logger struct {
	storage    Storage
	filter     *MetadataFilter
	extractors []Extractor
	now        func() time.Time
	log        *slog.Logger
}

// NewLogger creates an audit logger writing to the given storage.
func NewLogger(storage Storage, opts ...Option) *Logger {
	if storage == nil {
		panic("audit: storage cannot be nil")
	}

	l := &Logger{
		storage: storage,
		filter:  NewMetadataFilter(),
		now:     time.Now,
		log:     slog.New(slog.NewTextHandler(io.Discard, nil)), // noop logger by default
	}
	for _, opt := range opts {
		if opt != nil {
			opt(l)
		}
	}
	return l
}

// Log records an action. The actor defaults to "system" until an extractor
// or WithActor attributes it.
func (l *Logger) Log(ctx context.Context, action string, opts ...EventOption) error {
	event := Event{
		ID:        uuid.New(),
		Actor:     ActorSystem,
		Action:    action,
		Result:    ResultSuccess,
		CreatedAt: l.now().UTC(),
	}
	for _, extract := range l.extractors {
		extract(ctx, &event)
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&event)
		}
	}

	if err := event.Validate(); err != nil {
		return err
	}
	if l.filter != nil {
		event.Metadata = l.filter.Filter(event.Metadata)
	}
	event.Checksum = Checksum(event)

	if err := l.storage.Store(ctx, event); err != nil {
		l.log.ErrorContext(ctx, "audit event not persisted",
			slog.String("action", action),
			slog.Any("error", err))
		return errors.Join(ErrStorageUnavailable, err)
	}
	return nil
}

// LogError records a failed action. Explicit options still win, so a
// handler can downgrade the result to denied.
func (l *Logger) LogError(ctx context.Context, action string, cause error, opts ...EventOption) error {
	combined := make([]EventOption, 0, len(opts)+2)
	combined = append(combined, WithResult(ResultFailure), WithError(cause))
	combined = append(combined, opts...)
	return l.Log(ctx, action, combined...)
}
