// Package conversation exposes the inbound webhooks the voice and chat
// providers call for every conversational turn, plus the session-end
// callback. Turn endpoints charge the tenant's daily quota through the
// access gate; ending a session does not.
package conversation

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/bankvoiceai/platform/core"
	"github.com/bankvoiceai/platform/pkg/audit"
	convo "github.com/bankvoiceai/platform/svc/conversation"
	"github.com/bankvoiceai/platform/svc/tenant"
)

// Service wires the conversation router behind the tenant access gate.
type Service struct {
	router  *convo.Router
	gate    *tenant.Gate
	auditor *audit.Logger
	log     *slog.Logger
}

// Option configures optional Service settings.
type Option func(*Service)

// WithAuditLogger records escalations and session ends on the audit trail.
func WithAuditLogger(auditor *audit.Logger) Option {
	return func(s *Service) {
		s.auditor = auditor
	}
}

// WithLogger sets the service logger.
func WithLogger(log *slog.Logger) Option {
	return func(s *Service) {
		if log != nil {
			s.log = log
		}
	}
}

// NewService creates the conversation HTTP service. Panics if router or
// gate is nil.
func NewService(router *convo.Router, gate *tenant.Gate, opts ...Option) *Service {
	if router == nil {
		panic("conversation: router cannot be nil")
	}
	if gate == nil {
		panic("conversation: gate cannot be nil")
	}

	s := &Service{
		router: router,
		gate:   gate,
		log:    slog.New(slog.NewTextHandler(io.Discard, nil)), // noop logger by default
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Handle mounts the conversation routes on a fresh router.
func (s *Service) Handle() http.Handler {
	r := chi.NewRouter()
	s.Register(r)
	return r
}

// Register attaches the conversation routes to an existing router. Inbound
// turns pass the charging gate middleware; the session-end callback only
// authenticates.
func (s *Service) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(s.gate.Middleware())
		r.Post("/voice/inbound", s.voiceInbound)
		r.Post("/chat/inbound", s.chatInbound)
	})

	r.Group(func(r chi.Router) {
		r.Use(s.gate.AuthMiddleware())
		r.Post("/sessions/{id}/end", s.endSession)
	})
}

func (s *Service) fail(w http.ResponseWriter, r *http.Request, err error) {
	core.Render(w, r, core.JSONError(s.mapError(r.Context(), err)))
}

// mapError translates conversation domain errors into API responses.
func (s *Service) mapError(ctx context.Context, err error) error {
	var verr *core.ValidationError
	if errors.As(err, &verr) {
		return err
	}

	switch {
	case errors.Is(err, convo.ErrEmptyInput):
		return fieldError("input", "required")
	case errors.Is(err, convo.ErrEmptySessionID):
		return fieldError("session_id", "required")
	case errors.Is(err, convo.ErrSessionNotFound):
		return core.ErrNotFound.WithMessage("session not found")
	case errors.Is(err, convo.ErrSessionEnded):
		return core.ErrConflict.WithMessage("session already ended")
	case errors.Is(err, convo.ErrStoreUnavailable), errors.Is(err, convo.ErrFailedToSave):
		s.log.ErrorContext(ctx, "session store unavailable", "error", err)
		return core.ErrServiceUnavailable.WithMessage("session store is temporarily unavailable, retry shortly")
	default:
		s.log.ErrorContext(ctx, "conversation request failed", "error", err)
		return err
	}
}

func fieldError(field, msg string) error {
	verr := core.NewValidationError()
	verr.Add(field, msg)
	return verr
}

// record writes an audit event; audit failures are logged, never surfaced.
func (s *Service) record(ctx context.Context, action string, opts ...audit.EventOption) {
	if s.auditor == nil {
		return
	}
	if err := s.auditor.Log(ctx, action, opts...); err != nil {
		s.log.ErrorContext(ctx, "audit write failed", "action", action, "error", err)
	}
}
