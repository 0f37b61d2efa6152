package billing

import (
	"time"

	"github.com/bankvoiceai/platform/pkg/apikey"
	"github.com/bankvoiceai/platform/svc/subscription"
)

// SubscriptionView is the tenant-facing shape of a subscription. Credentials
// are masked: the full key is shown exactly once, on the response that
// minted it.
type SubscriptionView struct {
	TenantID            string                        `json:"tenant_id"`
	DisplayName         string                        `json:"display_name"`
	Plan                subscription.PlanID           `json:"plan"`
	Status              subscription.Status           `json:"status"`
	Active              bool                          `json:"active"`
	StartedAt           time.Time                     `json:"started_at"`
	ExpiresAt           time.Time                     `json:"expires_at"`
	EnabledCapabilities []subscription.Capability     `json:"enabled_capabilities"`
	APIKeys             []CredentialView              `json:"api_keys"`
	ComplianceMode      subscription.ComplianceMode   `json:"compliance_mode"`
	WebhookURL          string                        `json:"webhook_url,omitempty"`
	EscalationPolicy    subscription.EscalationPolicy `json:"escalation_policy"`
	ContactEmail        string                        `json:"contact_email,omitempty"`
	CreatedAt           time.Time                     `json:"created_at"`
	UpdatedAt           time.Time                     `json:"updated_at"`
}

type CredentialView struct {
	Key      string    `json:"key"` // masked
	IssuedAt time.Time `json:"issued_at"`
}

func newSubscriptionView(sub *subscription.Subscription) SubscriptionView {
	keys := make([]CredentialView, 0, len(sub.Credentials))
	for _, c := range sub.Credentials {
		keys = append(keys, CredentialView{Key: apikey.Mask(c.Key), IssuedAt: c.IssuedAt})
	}

	return SubscriptionView{
		TenantID:            sub.TenantID,
		DisplayName:         sub.DisplayName,
		Plan:                sub.Plan,
		Status:              sub.Status,
		Active:              sub.IsActive(),
		StartedAt:           sub.StartedAt,
		ExpiresAt:           sub.ExpiresAt,
		EnabledCapabilities: sub.EnabledCapabilities,
		APIKeys:             keys,
		ComplianceMode:      sub.ComplianceMode,
		WebhookURL:          sub.WebhookURL,
		EscalationPolicy:    sub.EscalationPolicy,
		ContactEmail:        sub.ContactEmail,
		CreatedAt:           sub.CreatedAt,
		UpdatedAt:           sub.UpdatedAt,
	}
}

// PlanView mirrors the catalog entry in JSON. Unlimited ceilings serialize
// as -1.
type PlanView struct {
	ID              subscription.PlanID       `json:"id"`
	Name            string                    `json:"name"`
	PriceFET        int64                     `json:"price_fet"`
	CallsPerDay     int64                     `json:"calls_per_day"`
	Capabilities    []subscription.Capability `json:"capabilities"`
	MaxAPIKeys      int64                     `json:"max_api_keys"`
	AnalyticsDays   int                       `json:"analytics_days"`
	SupportSLAHours int                       `json:"support_sla_hours"`
	TrialDays       int                       `json:"trial_days,omitempty"`
}

func newPlanView(p subscription.Plan) PlanView {
	return PlanView{
		ID:              p.ID,
		Name:            p.Name,
		PriceFET:        p.PriceFET,
		CallsPerDay:     p.CallsPerDay,
		Capabilities:    p.Capabilities,
		MaxAPIKeys:      p.MaxAPIKeys,
		AnalyticsDays:   p.AnalyticsDays,
		SupportSLAHours: p.SupportSLAHours,
		TrialDays:       p.TrialDays,
	}
}

// CapabilityView reports one specialist from the tenant's perspective:
// whether the plan allows it at all and whether it is currently switched on.
type CapabilityView struct {
	Name      subscription.Capability `json:"name"`
	Available bool                    `json:"available"`
	Enabled   bool                    `json:"enabled"`
}

func newCapabilityViews(sub *subscription.Subscription, plan subscription.Plan) []CapabilityView {
	views := make([]CapabilityView, 0, len(subscription.KnownCapabilities()))
	for _, c := range subscription.KnownCapabilities() {
		views = append(views, CapabilityView{
			Name:      c,
			Available: plan.AllowsCapability(c),
			Enabled:   sub.HasCapability(c),
		})
	}
	return views
}
