// Package admin exposes the operator surface: platform counters, the
// tenant overview, and administrative suspension. Configuration carries
// only the bcrypt hash of the operator secret, never the plaintext.
package admin

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/bankvoiceai/platform/core"
	"github.com/bankvoiceai/platform/pkg/audit"
	convo "github.com/bankvoiceai/platform/svc/conversation"
	"github.com/bankvoiceai/platform/svc/payment"
	"github.com/bankvoiceai/platform/svc/subscription"
)

// SecretHeader carries the operator secret on every admin request.
const SecretHeader = "X-Operator-Secret"

type Service struct {
	registry *subscription.Registry
	payments *payment.Service
	sessions *convo.Manager

	secretHash []byte
	auditor    *audit.Logger
	log        *slog.Logger
}

type Option func(*Service)

// WithAuditLogger records administrative actions on the audit trail.
func WithAuditLogger(l *audit.Logger) Option {
	return func(s *Service) { s.auditor = l }
}

func WithLogger(log *slog.Logger) Option {
	return func(s *Service) {
		if log != nil {
			s.log = log
		}
	}
}

// NewService creates the admin module. Panics if a collaborator is nil or
// secretHash is not a bcrypt hash, so a misconfigured operator secret is
// caught at startup instead of locking every admin request out at runtime.
func NewService(registry *subscription.Registry, payments *payment.Service, sessions *convo.Manager, secretHash string, opts ...Option) *Service {
	if registry == nil {
		panic("admin: subscription registry is required")
	}
	if payments == nil {
		panic("admin: payment service is required")
	}
	if sessions == nil {
		panic("admin: session manager is required")
	}
	if _, err := bcrypt.Cost([]byte(secretHash)); err != nil {
		panic("admin: operator secret hash is not a bcrypt hash")
	}

	s := &Service{
		registry:   registry,
		payments:   payments,
		sessions:   sessions,
		secretHash: []byte(secretHash),
		log:        slog.New(slog.NewTextHandler(io.Discard, nil)), // noop logger by default
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handle returns the admin router, meant to be mounted under /admin.
func (s *Service) Handle() http.Handler {
	r := chi.NewRouter()
	r.Use(s.requireOperator)

	r.Get("/metrics", s.metrics)
	r.Get("/tenants", s.tenants)
	r.Post("/tenants/{id}/suspend", s.suspend)
	r.Post("/tenants/{id}/resume", s.resume)

	return r
}

// requireOperator rejects requests whose secret does not match the stored
// bcrypt hash. Comparison cost also slows brute-forcing of the header.
func (s *Service) requireOperator(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		secret := r.Header.Get(SecretHeader)
		if secret == "" {
			core.Render(w, r, core.JSONError(core.ErrUnauthorized.WithMessage("operator secret required")))
			return
		}
		if err := bcrypt.CompareHashAndPassword(s.secretHash, []byte(secret)); err != nil {
			core.Render(w, r, core.JSONError(core.ErrUnauthorized.WithMessage("invalid operator secret")))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Service) fail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, subscription.ErrNotFound):
		err = core.ErrNotFound.WithMessage("subscription not found")
	case errors.Is(err, subscription.ErrInvalidStatus):
		err = core.ErrConflict.WithMessage("subscription status does not allow this transition")
	default:
		s.log.ErrorContext(r.Context(), "admin request failed", "error", err)
	}
	core.Render(w, r, core.JSONError(err))
}

// record writes an audit event; audit failures are logged, never surfaced.
func (s *Service) record(r *http.Request, action, tenantID string) {
	if s.auditor == nil {
		return
	}
	err := s.auditor.Log(r.Context(), action,
		audit.WithTenant(tenantID),
		audit.WithActor("operator"))
	if err != nil {
		s.log.ErrorContext(r.Context(), "audit write failed", "action", action, "error", err)
	}
}
