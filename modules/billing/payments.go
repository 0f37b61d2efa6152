package billing

import (
	"net/http"

	"github.com/bankvoiceai/platform/binder"
	"github.com/bankvoiceai/platform/core"
	"github.com/bankvoiceai/platform/pkg/audit"
	"github.com/bankvoiceai/platform/svc/payment"
	"github.com/bankvoiceai/platform/svc/subscription"
	"github.com/bankvoiceai/platform/svc/tenant"
)

type initiateRequest struct {
	TenantID    string `json:"tenant_id"`
	DisplayName string `json:"display_name"`
	Plan        string `json:"plan"`
}

type initiateResponse struct {
	Activated          bool                 `json:"activated"`
	APIKey             string               `json:"api_key,omitempty"`
	Subscription       *SubscriptionView    `json:"subscription,omitempty"`
	PaymentInstruction *payment.Instruction `json:"payment_instruction,omitempty"`
}

// initiate starts a subscription purchase. The free tier activates
// immediately and returns the only unmasked look at the minted credential;
// paid plans get the transfer instruction and no state changes.
func (s *Service) initiate(w http.ResponseWriter, r *http.Request) {
	var req initiateRequest
	if err := binder.JSON(r, &req); err != nil {
		core.Render(w, r, core.JSONError(core.ErrBadRequest.WithMessage(err.Error())))
		return
	}

	verr := core.NewValidationError()
	if req.TenantID == "" {
		verr.Add("tenant_id", "required")
	} else if !subscription.ValidTenantID(req.TenantID) {
		verr.Add("tenant_id", "must be 3-64 characters: lowercase letters, digits, hyphen, underscore")
	}
	if req.DisplayName == "" {
		verr.Add("display_name", "required")
	}
	if req.Plan == "" {
		verr.Add("plan", "required")
	}
	if err := verr.Err(); err != nil {
		core.Render(w, r, core.JSONError(err))
		return
	}

	res, err := s.payments.Initiate(r.Context(), req.TenantID, req.DisplayName, subscription.PlanID(req.Plan))
	if err != nil {
		s.fail(w, r, err)
		return
	}

	if res.Activated {
		s.record(r.Context(), "subscription.activated",
			audit.WithTenant(req.TenantID),
			audit.WithResource("subscription", req.TenantID),
			audit.WithMetadata("plan", req.Plan))

		view := newSubscriptionView(res.Subscription)
		core.Render(w, r, core.JSONStatus(http.StatusCreated, initiateResponse{
			Activated:    true,
			APIKey:       res.Credential,
			Subscription: &view,
		}))
		return
	}

	s.record(r.Context(), "payment.initiated",
		audit.WithTenant(req.TenantID),
		audit.WithResource("subscription", req.TenantID),
		audit.WithMetadata("plan", req.Plan),
		audit.WithMetadata("amount_fet", res.Instruction.AmountFET))

	core.Render(w, r, core.JSON(initiateResponse{
		Activated:          false,
		PaymentInstruction: res.Instruction,
	}))
}

type verifyRequest struct {
	TxID        string `json:"tx_id"`
	TenantID    string `json:"tenant_id"`
	DisplayName string `json:"display_name"`
	Plan        string `json:"plan"`
}

type verifyResponse struct {
	Verified     bool              `json:"verified"`
	Reason       string            `json:"reason,omitempty"`
	APIKey       string            `json:"api_key,omitempty"`
	Subscription *SubscriptionView `json:"subscription,omitempty"`
	Payment      *payment.Record   `json:"payment,omitempty"`
	ExplorerURL  string            `json:"explorer_url,omitempty"`
}

// verify checks a submitted transaction on chain and, when it holds up,
// activates the subscription and mints the credential in the same response.
func (s *Service) verify(w http.ResponseWriter, r *http.Request) {
	var req verifyRequest
	if err := binder.JSON(r, &req); err != nil {
		core.Render(w, r, core.JSONError(core.ErrBadRequest.WithMessage(err.Error())))
		return
	}

	verr := core.NewValidationError()
	if req.TxID == "" {
		verr.Add("tx_id", "required")
	}
	if req.TenantID == "" {
		verr.Add("tenant_id", "required")
	} else if !subscription.ValidTenantID(req.TenantID) {
		verr.Add("tenant_id", "must be 3-64 characters: lowercase letters, digits, hyphen, underscore")
	}
	if req.Plan == "" {
		verr.Add("plan", "required")
	}
	if err := verr.Err(); err != nil {
		core.Render(w, r, core.JSONError(err))
		return
	}

	res, err := s.payments.Verify(r.Context(), req.TxID, req.TenantID, req.DisplayName, subscription.PlanID(req.Plan))
	if err != nil {
		s.recordError(r.Context(), "payment.verified", err,
			audit.WithTenant(req.TenantID),
			audit.WithResource("payment", req.TxID))
		s.fail(w, r, err)
		return
	}

	if !res.Verified {
		s.record(r.Context(), "payment.verified",
			audit.WithResult(audit.ResultDenied),
			audit.WithTenant(req.TenantID),
			audit.WithResource("payment", req.TxID),
			audit.WithMetadata("reason", res.Reason))

		core.Render(w, r, core.JSON(verifyResponse{Verified: false, Reason: res.Reason}))
		return
	}

	s.record(r.Context(), "payment.verified",
		audit.WithTenant(req.TenantID),
		audit.WithResource("payment", req.TxID),
		audit.WithMetadata("plan", req.Plan),
		audit.WithMetadata("amount_fet", res.Record.AmountFET))

	view := newSubscriptionView(res.Subscription)
	core.Render(w, r, core.JSON(verifyResponse{
		Verified:     true,
		APIKey:       res.Credential,
		Subscription: &view,
		Payment:      res.Record,
		ExplorerURL:  res.ExplorerURL,
	}))
}

type verifyUpgradeRequest struct {
	TxID string `json:"tx_id"`
	Plan string `json:"plan"`
}

// verifyUpgrade applies a plan change for the authenticated tenant.
// Downgrades carry no transaction and apply immediately; upgrades verify a
// transfer of the price difference under the upgrade memo.
func (s *Service) verifyUpgrade(w http.ResponseWriter, r *http.Request) {
	sub := tenant.MustFromContext(r.Context())

	var req verifyUpgradeRequest
	if err := binder.JSON(r, &req); err != nil {
		core.Render(w, r, core.JSONError(core.ErrBadRequest.WithMessage(err.Error())))
		return
	}
	if req.Plan == "" {
		core.Render(w, r, core.JSONError(fieldError("plan", "required")))
		return
	}

	res, err := s.payments.VerifyUpgrade(r.Context(), req.TxID, sub.TenantID, subscription.PlanID(req.Plan))
	if err != nil {
		s.recordError(r.Context(), "subscription.plan_changed", err,
			audit.WithTenant(sub.TenantID),
			audit.WithResource("subscription", sub.TenantID),
			audit.WithMetadata("target_plan", req.Plan))
		s.fail(w, r, err)
		return
	}

	if !res.Verified {
		s.record(r.Context(), "subscription.plan_changed",
			audit.WithResult(audit.ResultDenied),
			audit.WithTenant(sub.TenantID),
			audit.WithResource("payment", req.TxID),
			audit.WithMetadata("reason", res.Reason))

		core.Render(w, r, core.JSON(verifyResponse{Verified: false, Reason: res.Reason}))
		return
	}

	s.record(r.Context(), "subscription.plan_changed",
		audit.WithTenant(sub.TenantID),
		audit.WithResource("subscription", sub.TenantID),
		audit.WithMetadata("from_plan", string(sub.Plan)),
		audit.WithMetadata("to_plan", req.Plan))

	view := newSubscriptionView(res.Subscription)
	core.Render(w, r, core.JSON(verifyResponse{
		Verified:     true,
		Subscription: &view,
		Payment:      res.Record,
		ExplorerURL:  res.ExplorerURL,
	}))
}

// history lists the tenant's verified payments, newest first.
func (s *Service) history(w http.ResponseWriter, r *http.Request) {
	sub := tenant.MustFromContext(r.Context())

	recs, err := s.payments.History(r.Context(), sub.TenantID)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	core.Render(w, r, core.JSONMeta(recs, map[string]any{"total": len(recs)}))
}

type refundRequest struct {
	TxID   string `json:"tx_id"`
	Reason string `json:"reason"`
}

type refundResponse struct {
	TxID         string            `json:"tx_id"`
	Status       payment.Status    `json:"status"`
	Subscription *SubscriptionView `json:"subscription,omitempty"`
}

// refund records the refund intent and cancels the subscription. The FET
// payout itself is settled out of band by the operator.
func (s *Service) refund(w http.ResponseWriter, r *http.Request) {
	sub := tenant.MustFromContext(r.Context())

	var req refundRequest
	if err := binder.JSON(r, &req); err != nil {
		core.Render(w, r, core.JSONError(core.ErrBadRequest.WithMessage(err.Error())))
		return
	}
	if req.TxID == "" {
		core.Render(w, r, core.JSONError(fieldError("tx_id", "required")))
		return
	}

	if err := s.payments.Refund(r.Context(), sub.TenantID, req.TxID, req.Reason); err != nil {
		s.recordError(r.Context(), "payment.refunded", err,
			audit.WithTenant(sub.TenantID),
			audit.WithResource("payment", req.TxID))
		s.fail(w, r, err)
		return
	}

	s.record(r.Context(), "payment.refunded",
		audit.WithTenant(sub.TenantID),
		audit.WithResource("payment", req.TxID),
		audit.WithMetadata("reason", req.Reason))

	resp := refundResponse{TxID: req.TxID, Status: payment.StatusRefunded}
	if updated, err := s.registry.Get(r.Context(), sub.TenantID); err == nil {
		view := newSubscriptionView(updated)
		resp.Subscription = &view
	}
	core.Render(w, r, core.JSON(resp))
}
