package subscription

import (
	"maps"
	"slices"
	"time"
)

// Subscription is a tenant's live record. TenantID is the primary key;
// each tenant holds exactly one subscription.
type Subscription struct {
	TenantID            string            `json:"tenant_id"`
	DisplayName         string            `json:"display_name"`
	Plan                PlanID            `json:"plan"`
	Status              Status            `json:"status"`
	StartedAt           time.Time         `json:"started_at"`
	ExpiresAt           time.Time         `json:"expires_at"`
	EnabledCapabilities []Capability      `json:"enabled_capabilities"`
	Credentials         []Credential      `json:"credentials"`
	ComplianceMode      ComplianceMode    `json:"compliance_mode"`
	WebhookURL          string            `json:"webhook_url,omitempty"`
	EscalationPolicy    EscalationPolicy  `json:"escalation_policy"`
	ContactEmail        string            `json:"contact_email,omitempty"`
	Metadata            map[string]string `json:"metadata,omitempty"`
	CreatedAt           time.Time         `json:"created_at"`
	UpdatedAt           time.Time         `json:"updated_at"`
}

// Credential is one issued API key. Keys stay valid until revoked or
// trimmed by a rotation past the plan ceiling.
type Credential struct {
	Key      string    `json:"key"`
	IssuedAt time.Time `json:"issued_at"`
}

// EscalationPolicy tunes when a conversation hands off to a human.
type EscalationPolicy struct {
	TriggerKeywords    []string `json:"trigger_keywords"`
	SentimentThreshold float64  `json:"sentiment_threshold"`
	MaxWaitSeconds     int      `json:"max_wait_seconds"`
}

// DefaultEscalationPolicy returns the policy applied to new subscriptions.
func DefaultEscalationPolicy() EscalationPolicy {
	return EscalationPolicy{
		TriggerKeywords:    []string{"agent", "human", "manager"},
		SentimentThreshold: -0.7,
		MaxWaitSeconds:     10,
	}
}

// IsActive is the sole activity predicate: status trial or active AND
// strictly before the expiry instant. All gating derives from it.
func (s *Subscription) IsActive() bool {
	return s.IsActiveAt(time.Now().UTC())
}

// IsActiveAt evaluates the activity predicate at a fixed instant.
func (s *Subscription) IsActiveAt(now time.Time) bool {
	if s.Status != StatusActive && s.Status != StatusTrial {
		return false
	}
	return now.Before(s.ExpiresAt)
}

// HasCapability reports whether the capability is currently enabled.
func (s *Subscription) HasCapability(c Capability) bool {
	return slices.Contains(s.EnabledCapabilities, c)
}

// CredentialKeys returns the issued keys oldest first.
func (s *Subscription) CredentialKeys() []string {
	keys := make([]string, len(s.Credentials))
	for i, cred := range s.Credentials {
		keys[i] = cred.Key
	}
	return keys
}

// LatestCredential returns the most recently issued key, or empty when
// none remain.
func (s *Subscription) LatestCredential() string {
	if len(s.Credentials) == 0 {
		return ""
	}
	return s.Credentials[len(s.Credentials)-1].Key
}

// Clone returns a deep copy so stores can hand out records without
// sharing mutable slices.
func (s *Subscription) Clone() *Subscription {
	if s == nil {
		return nil
	}
	clone := *s
	clone.EnabledCapabilities = slices.Clone(s.EnabledCapabilities)
	clone.Credentials = slices.Clone(s.Credentials)
	clone.EscalationPolicy.TriggerKeywords = slices.Clone(s.EscalationPolicy.TriggerKeywords)
	clone.Metadata = maps.Clone(s.Metadata)
	return &clone
}
