// Package billing exposes the tenant-facing HTTP surface for subscription
// purchase, on-chain payment verification, plan management, and account
// insight. Payment initiation and verification are unauthenticated because
// they mint the tenant's first credential; every other route sits behind
// the access gate.
package billing

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/bankvoiceai/platform/core"
	"github.com/bankvoiceai/platform/pkg/audit"
	"github.com/bankvoiceai/platform/pkg/clientip"
	"github.com/bankvoiceai/platform/pkg/ratelimit"
	"github.com/bankvoiceai/platform/svc/payment"
	"github.com/bankvoiceai/platform/svc/subscription"
	"github.com/bankvoiceai/platform/svc/tenant"
)

type Service struct {
	payments *payment.Service
	registry *subscription.Registry
	gate     *tenant.Gate

	auditor     *audit.Logger
	auditReader audit.Reader
	throttle    *ratelimit.FixedWindow

	log *slog.Logger
}

type Option func(*Service)

// WithAuditLogger records billing actions on the audit trail.
func WithAuditLogger(l *audit.Logger) Option {
	return func(s *Service) { s.auditor = l }
}

// WithAuditReader backs GET /audit-log. Without it the route answers 503.
func WithAuditReader(r audit.Reader) Option {
	return func(s *Service) { s.auditReader = r }
}

// WithPublicThrottle limits the unauthenticated payment endpoints per
// client IP. Without it they are open, which is acceptable only in tests.
func WithPublicThrottle(fw *ratelimit.FixedWindow) Option {
	return func(s *Service) { s.throttle = fw }
}

func WithLogger(log *slog.Logger) Option {
	return func(s *Service) {
		if log != nil {
			s.log = log
		}
	}
}

// NewService creates the billing module. Panics if any required
// collaborator is nil to fail fast during initialization.
func NewService(payments *payment.Service, registry *subscription.Registry, gate *tenant.Gate, opts ...Option) *Service {
	if payments == nil {
		panic("billing: payment service is required")
	}
	if registry == nil {
		panic("billing: subscription registry is required")
	}
	if gate == nil {
		panic("billing: tenant gate is required")
	}

	s := &Service{
		payments: payments,
		registry: registry,
		gate:     gate,
		log:      slog.New(slog.NewTextHandler(io.Discard, nil)), // noop logger by default
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handle mounts the billing routes on a fresh router.
func (s *Service) Handle() http.Handler {
	r := chi.NewRouter()
	s.Register(r)
	return r
}

// Register attaches the billing routes to an existing router so the
// platform can compose modules on one mux.
func (s *Service) Register(r chi.Router) {
	// Credential-minting endpoints stay open; the IP throttle is the only
	// brake against ledger-probing abuse.
	r.Group(func(pub chi.Router) {
		pub.Use(s.throttleMiddleware)
		pub.Post("/payments/initiate", s.initiate)
		pub.Post("/payments/verify", s.verify)
	})

	// Management routes authenticate without charging the daily quota; the
	// quota meters conversational turns.
	r.Group(func(priv chi.Router) {
		priv.Use(s.gate.AuthMiddleware())

		priv.Post("/payments/verify-upgrade", s.verifyUpgrade)
		priv.Get("/payments/history", s.history)
		priv.Post("/payments/refund", s.refund)

		priv.Get("/subscription", s.subscription)
		priv.Get("/plans", s.plans)
		priv.Post("/subscription/upgrade", s.upgrade)
		priv.Post("/api-keys/rotate", s.rotateCredential)

		priv.Get("/capabilities", s.capabilities)
		priv.Post("/capabilities/{name}/toggle", s.toggleCapability)

		priv.Get("/usage", s.usage)
		priv.Get("/analytics", s.analytics)
		priv.Get("/audit-log", s.auditLog)

		priv.Post("/compliance/mode", s.complianceMode)
		priv.Put("/webhooks", s.webhooks)
		priv.Put("/escalation-policy", s.escalationPolicy)
	})
}

// throttleMiddleware charges one attempt per request against the caller's
// IP. Store errors fail open: an outage in the counter must not block
// legitimate payments.
func (s *Service) throttleMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.throttle == nil {
			next.ServeHTTP(w, r)
			return
		}

		ip := clientip.FromContext(r.Context())
		if ip == "" {
			ip = clientip.FromRequest(r)
		}

		res, err := s.throttle.Allow(r.Context(), "billing:public:"+ip)
		if err != nil {
			s.log.ErrorContext(r.Context(), "public throttle unavailable, admitting request", "error", err)
			next.ServeHTTP(w, r)
			return
		}
		if !res.Allowed {
			retryAfter := int(res.RetryAfter().Seconds())
			if retryAfter < 1 {
				retryAfter = 1
			}
			w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
			core.Render(w, r, core.Error(http.StatusTooManyRequests, "too many payment attempts, slow down"))
			return
		}

		next.ServeHTTP(w, r)
	})
}

// fail maps domain errors onto the JSON error envelope. Unrecognized errors
// are logged and surface as a generic 500.
func (s *Service) fail(w http.ResponseWriter, r *http.Request, err error) {
	core.Render(w, r, core.JSONError(s.mapError(r.Context(), err)))
}

func (s *Service) mapError(ctx context.Context, err error) error {
	var verr core.ValidationError
	if errors.As(err, &verr) {
		return err
	}

	switch {
	case errors.Is(err, subscription.ErrNotFound):
		return core.ErrNotFound.WithMessage("subscription not found")
	case errors.Is(err, subscription.ErrAlreadyExists):
		return core.ErrConflict.WithMessage("tenant is already registered")
	case errors.Is(err, subscription.ErrInvalidTenantID):
		return fieldError("tenant_id", "must be 3-64 characters: lowercase letters, digits, hyphen, underscore")
	case errors.Is(err, subscription.ErrPlanNotFound):
		return fieldError("plan", "unknown plan")
	case errors.Is(err, subscription.ErrUnknownCapability):
		return fieldError("capability", "unknown capability")
	case errors.Is(err, subscription.ErrCapabilityNotInPlan):
		return core.ErrForbidden.WithMessage("capability is not included in the current plan")
	case errors.Is(err, subscription.ErrInvalidComplianceMode):
		return fieldError("mode", "must be strict or assistive")
	case errors.Is(err, subscription.ErrInvalidWebhookURL):
		return fieldError("url", "must be an https URL")
	case errors.Is(err, subscription.ErrInvalidStatus):
		return core.ErrConflict.WithMessage("subscription status does not allow this operation")
	case errors.Is(err, payment.ErrEmptyTxID):
		return fieldError("tx_id", "required")
	case errors.Is(err, payment.ErrMalformedMemo):
		return fieldError("memo", "malformed payment memo")
	case errors.Is(err, payment.ErrRecordNotFound):
		return core.ErrNotFound.WithMessage("payment record not found")
	case errors.Is(err, payment.ErrRecordExists):
		return core.ErrConflict.WithMessage("transaction has already been redeemed")
	case errors.Is(err, payment.ErrAlreadyRefunded):
		return core.ErrConflict.WithMessage("payment has already been refunded")
	case errors.Is(err, payment.ErrNoPaymentRequired):
		return core.ErrBadRequest.WithMessage("no payment is required for this plan")
	case errors.Is(err, payment.ErrLedgerUnreachable):
		s.log.ErrorContext(ctx, "ledger verification unavailable", "error", err)
		return core.ErrBadGateway.WithMessage("ledger verification is temporarily unavailable, retry shortly")
	default:
		s.log.ErrorContext(ctx, "billing request failed", "error", err)
		return err
	}
}

func fieldError(field, message string) error {
	verr := core.NewValidationError()
	verr.Add(field, message)
	return verr
}

// record writes an audit event, degrading to a log line when the trail
// itself is down. Billing must not fail because auditing did.
func (s *Service) record(ctx context.Context, action string, opts ...audit.EventOption) {
	if s.auditor == nil {
		return
	}
	if err := s.auditor.Log(ctx, action, opts...); err != nil {
		s.log.ErrorContext(ctx, "audit write failed", "action", action, "error", err)
	}
}

func (s *Service) recordError(ctx context.Context, action string, cause error, opts ...audit.EventOption) {
	if s.auditor == nil {
		return
	}
	if err := s.auditor.LogError(ctx, action, cause, opts...); err != nil {
		s.log.ErrorContext(ctx, "audit write failed", "action", action, "error", err)
	}
}
