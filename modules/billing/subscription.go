package billing

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/bankvoiceai/platform/binder"
	"github.com/bankvoiceai/platform/core"
	"github.com/bankvoiceai/platform/pkg/apikey"
	"github.com/bankvoiceai/platform/pkg/audit"
	"github.com/bankvoiceai/platform/svc/payment"
	"github.com/bankvoiceai/platform/svc/subscription"
	"github.com/bankvoiceai/platform/svc/tenant"
)

// subscription returns the authenticated tenant's subscription with
// credentials masked.
func (s *Service) subscription(w http.ResponseWriter, r *http.Request) {
	sub := tenant.MustFromContext(r.Context())
	core.Render(w, r, core.JSON(newSubscriptionView(sub)))
}

// plans lists the catalog.
func (s *Service) plans(w http.ResponseWriter, r *http.Request) {
	catalog := s.registry.Plans()
	views := make([]PlanView, 0, len(catalog))
	for _, p := range catalog {
		views = append(views, newPlanView(p))
	}
	core.Render(w, r, core.JSON(views))
}

type upgradeRequest struct {
	Plan string `json:"plan"`
}

type upgradeResponse struct {
	PaymentRequired    bool                 `json:"payment_required"`
	PaymentInstruction *payment.Instruction `json:"payment_instruction,omitempty"`
	Subscription       *SubscriptionView    `json:"subscription,omitempty"`
}

// upgrade starts a plan change. Moves that owe FET return the transfer
// instruction for /payments/verify-upgrade; downgrades and lateral moves
// owe nothing and apply on the spot.
func (s *Service) upgrade(w http.ResponseWriter, r *http.Request) {
	sub := tenant.MustFromContext(r.Context())

	var req upgradeRequest
	if err := binder.JSON(r, &req); err != nil {
		core.Render(w, r, core.JSONError(core.ErrBadRequest.WithMessage(err.Error())))
		return
	}
	if req.Plan == "" {
		core.Render(w, r, core.JSONError(fieldError("plan", "required")))
		return
	}

	target := subscription.PlanID(req.Plan)
	res, err := s.payments.InitiateUpgrade(r.Context(), sub.TenantID, target)
	if err == nil {
		s.record(r.Context(), "subscription.upgrade_initiated",
			audit.WithTenant(sub.TenantID),
			audit.WithResource("subscription", sub.TenantID),
			audit.WithMetadata("target_plan", req.Plan),
			audit.WithMetadata("amount_fet", res.Instruction.AmountFET))

		core.Render(w, r, core.JSON(upgradeResponse{
			PaymentRequired:    true,
			PaymentInstruction: res.Instruction,
		}))
		return
	}

	if !errors.Is(err, payment.ErrNoPaymentRequired) {
		s.fail(w, r, err)
		return
	}

	// Nothing owed: apply the change immediately.
	applied, err := s.payments.VerifyUpgrade(r.Context(), "", sub.TenantID, target)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	s.record(r.Context(), "subscription.plan_changed",
		audit.WithTenant(sub.TenantID),
		audit.WithResource("subscription", sub.TenantID),
		audit.WithMetadata("from_plan", string(sub.Plan)),
		audit.WithMetadata("to_plan", req.Plan))

	view := newSubscriptionView(applied.Subscription)
	core.Render(w, r, core.JSON(upgradeResponse{
		PaymentRequired: false,
		Subscription:    &view,
	}))
}

type rotateResponse struct {
	APIKey  string           `json:"api_key"`
	APIKeys []CredentialView `json:"api_keys"`
}

// rotateCredential mints a fresh credential, trimming the oldest keys past
// the plan ceiling. The new key appears unmasked exactly once, here.
func (s *Service) rotateCredential(w http.ResponseWriter, r *http.Request) {
	sub := tenant.MustFromContext(r.Context())

	key, err := s.registry.RotateCredential(r.Context(), sub.TenantID)
	if err != nil {
		s.recordError(r.Context(), "credential.rotated", err,
			audit.WithTenant(sub.TenantID),
			audit.WithResource("credential", ""))
		s.fail(w, r, err)
		return
	}

	s.record(r.Context(), "credential.rotated",
		audit.WithTenant(sub.TenantID),
		audit.WithResource("credential", apikey.Mask(key)))

	resp := rotateResponse{APIKey: key}
	if updated, err := s.registry.Get(r.Context(), sub.TenantID); err == nil {
		resp.APIKeys = newSubscriptionView(updated).APIKeys
	}
	core.Render(w, r, core.JSON(resp))
}

// capabilities reports every routable specialist with its availability on
// the tenant's plan and its current switch state.
func (s *Service) capabilities(w http.ResponseWriter, r *http.Request) {
	sub := tenant.MustFromContext(r.Context())

	plan, ok := s.registry.PlanByID(sub.Plan)
	if !ok {
		s.fail(w, r, subscription.ErrPlanNotFound)
		return
	}
	core.Render(w, r, core.JSON(newCapabilityViews(sub, plan)))
}

type toggleRequest struct {
	Enabled bool `json:"enabled"`
}

// toggleCapability switches one specialist on or off within the plan
// ceiling.
func (s *Service) toggleCapability(w http.ResponseWriter, r *http.Request) {
	sub := tenant.MustFromContext(r.Context())
	name := chi.URLParam(r, "name")

	var req toggleRequest
	if err := binder.JSON(r, &req); err != nil {
		core.Render(w, r, core.JSONError(core.ErrBadRequest.WithMessage(err.Error())))
		return
	}

	updated, err := s.registry.ToggleCapability(r.Context(), sub.TenantID, subscription.Capability(name), req.Enabled)
	if err != nil {
		s.recordError(r.Context(), "capability.toggled", err,
			audit.WithTenant(sub.TenantID),
			audit.WithResource("capability", name))
		s.fail(w, r, err)
		return
	}

	s.record(r.Context(), "capability.toggled",
		audit.WithTenant(sub.TenantID),
		audit.WithResource("capability", name),
		audit.WithMetadata("enabled", req.Enabled))

	plan, ok := s.registry.PlanByID(updated.Plan)
	if !ok {
		s.fail(w, r, subscription.ErrPlanNotFound)
		return
	}
	core.Render(w, r, core.JSON(newCapabilityViews(updated, plan)))
}

type complianceModeRequest struct {
	Mode string `json:"mode"`
}

// complianceMode switches disclosure injection between strict and
// assistive.
func (s *Service) complianceMode(w http.ResponseWriter, r *http.Request) {
	sub := tenant.MustFromContext(r.Context())

	var req complianceModeRequest
	if err := binder.JSON(r, &req); err != nil {
		core.Render(w, r, core.JSONError(core.ErrBadRequest.WithMessage(err.Error())))
		return
	}

	updated, err := s.registry.SetComplianceMode(r.Context(), sub.TenantID, subscription.ComplianceMode(req.Mode))
	if err != nil {
		s.fail(w, r, err)
		return
	}

	s.record(r.Context(), "compliance.mode_changed",
		audit.WithTenant(sub.TenantID),
		audit.WithResource("subscription", sub.TenantID),
		audit.WithMetadata("mode", req.Mode))

	core.Render(w, r, core.JSON(newSubscriptionView(updated)))
}

type webhookRequest struct {
	URL string `json:"url"`
}

// webhooks points tenant event delivery at an https endpoint. An empty URL
// clears it.
func (s *Service) webhooks(w http.ResponseWriter, r *http.Request) {
	sub := tenant.MustFromContext(r.Context())

	var req webhookRequest
	if err := binder.JSON(r, &req); err != nil {
		core.Render(w, r, core.JSONError(core.ErrBadRequest.WithMessage(err.Error())))
		return
	}

	updated, err := s.registry.SetWebhookURL(r.Context(), sub.TenantID, req.URL)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	s.record(r.Context(), "webhook.updated",
		audit.WithTenant(sub.TenantID),
		audit.WithResource("subscription", sub.TenantID),
		audit.WithMetadata("url", req.URL))

	core.Render(w, r, core.JSON(newSubscriptionView(updated)))
}

type escalationPolicyRequest struct {
	TriggerKeywords    []string `json:"trigger_keywords"`
	SentimentThreshold float64  `json:"sentiment_threshold"`
	MaxWaitSeconds     int      `json:"max_wait_seconds"`
}

// escalationPolicy replaces the tenant's human-handoff policy.
func (s *Service) escalationPolicy(w http.ResponseWriter, r *http.Request) {
	sub := tenant.MustFromContext(r.Context())

	var req escalationPolicyRequest
	if err := binder.JSON(r, &req); err != nil {
		core.Render(w, r, core.JSONError(core.ErrBadRequest.WithMessage(err.Error())))
		return
	}

	verr := core.NewValidationError()
	if req.SentimentThreshold < -1 || req.SentimentThreshold > 0 {
		verr.Add("sentiment_threshold", "must be between -1 and 0")
	}
	if req.MaxWaitSeconds < 0 {
		verr.Add("max_wait_seconds", "must not be negative")
	}
	if err := verr.Err(); err != nil {
		core.Render(w, r, core.JSONError(err))
		return
	}

	updated, err := s.registry.SetEscalationPolicy(r.Context(), sub.TenantID, subscription.EscalationPolicy{
		TriggerKeywords:    req.TriggerKeywords,
		SentimentThreshold: req.SentimentThreshold,
		MaxWaitSeconds:     req.MaxWaitSeconds,
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}

	s.record(r.Context(), "escalation_policy.updated",
		audit.WithTenant(sub.TenantID),
		audit.WithResource("subscription", sub.TenantID),
		audit.WithMetadata("trigger_keywords", len(req.TriggerKeywords)))

	core.Render(w, r, core.JSON(newSubscriptionView(updated)))
}
