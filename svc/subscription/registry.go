package subscription

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/url"
	"regexp"
	"slices"
	"time"

	"github.com/bankvoiceai/platform/pkg/apikey"
)

// tenantIDPattern constrains tenant ids to lowercase slugs so they embed
// cleanly in payment memos, store keys, and URLs.
var tenantIDPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]{1,63}$`)

// ValidTenantID reports whether the id is a usable tenant slug.
func ValidTenantID(id string) bool {
	return tenantIDPattern.MatchString(id)
}

// Registry manages the subscription lifecycle for every tenant: creation,
// plan changes, renewals, credential issuance, and the administrative
// switches the billing API exposes. Every mutation writes through to the
// injected store before it is acknowledged.
type Registry struct {
	store   Store
	catalog Catalog
	secret  string
	now     func() time.Time
	log     *slog.Logger
}

// NewRegistry creates a Registry bound to a store and a validated catalog.
// Panics if the store is nil, the catalog is empty, or the credential
// derivation secret is missing, to fail fast during initialization.
func NewRegistry(store Store, catalog Catalog, secret string, opts ...RegistryOption) *Registry {
	if store == nil {
		panic("subscription: store is required")
	}
	if len(catalog.plans) == 0 {
		panic("subscription: catalog is empty")
	}
	if secret == "" {
		panic("subscription: credential secret is required")
	}

	r := &Registry{
		store:   store,
		catalog: catalog,
		secret:  secret,
		now:     func() time.Time { return time.Now().UTC() },
		log:     slog.New(slog.NewTextHandler(io.Discard, nil)), // noop logger by default
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Create provisions a tenant on the given plan. Free tiers start in trial
// status, paid tiers active; either way one fresh credential is issued and
// the validity window opens now. Duplicate tenant ids are rejected.
func (r *Registry) Create(ctx context.Context, tenantID string, planID PlanID, displayName string) (*Subscription, error) {
	if !tenantIDPattern.MatchString(tenantID) {
		return nil, ErrInvalidTenantID
	}
	plan, ok := r.catalog.Plan(planID)
	if !ok {
		return nil, ErrPlanNotFound
	}

	if _, err := r.store.Get(ctx, tenantID); err == nil {
		return nil, ErrAlreadyExists
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	now := r.now()
	status := StatusActive
	if plan.IsFree() {
		status = StatusTrial
	}

	key, err := apikey.Generate(tenantID, now, r.secret)
	if err != nil {
		return nil, err
	}

	sub := &Subscription{
		TenantID:            tenantID,
		DisplayName:         displayName,
		Plan:                plan.ID,
		Status:              status,
		StartedAt:           now,
		ExpiresAt:           now.AddDate(0, 0, plan.ValidityDays()),
		EnabledCapabilities: slices.Clone(plan.Capabilities),
		Credentials:         []Credential{{Key: key, IssuedAt: now}},
		ComplianceMode:      ComplianceStrict,
		EscalationPolicy:    DefaultEscalationPolicy(),
		Metadata:            map[string]string{},
		CreatedAt:           now,
		UpdatedAt:           now,
	}

	if err := r.store.Save(ctx, sub); err != nil {
		return nil, err
	}

	r.log.InfoContext(ctx, "subscription created",
		slog.String("tenant_id", tenantID),
		slog.String("plan", string(planID)),
		slog.String("status", string(status)))

	return sub, nil
}

// Get retrieves a tenant's subscription. Expired records are returned as-is;
// callers gate on IsActive.
func (r *Registry) Get(ctx context.Context, tenantID string) (*Subscription, error) {
	return r.store.Get(ctx, tenantID)
}

// List returns every stored subscription, for operator overviews.
func (r *Registry) List(ctx context.Context) ([]*Subscription, error) {
	return r.store.List(ctx)
}

// Plans returns the catalog ordered by price.
func (r *Registry) Plans() []Plan {
	return r.catalog.Plans()
}

// PlanByID looks up a catalog plan.
func (r *Registry) PlanByID(id PlanID) (Plan, bool) {
	return r.catalog.Plan(id)
}

// ChangePlan moves the tenant to a new plan. The capability set resets to
// exactly the new ceiling: a downgrade must not carry over roles the new
// plan does not sell. The expiry date is untouched.
func (r *Registry) ChangePlan(ctx context.Context, tenantID string, planID PlanID) (*Subscription, error) {
	plan, ok := r.catalog.Plan(planID)
	if !ok {
		return nil, ErrPlanNotFound
	}

	sub, err := r.mutate(ctx, tenantID, func(sub *Subscription) error {
		sub.Plan = plan.ID
		sub.EnabledCapabilities = slices.Clone(plan.Capabilities)
		return nil
	})
	if err != nil {
		return nil, err
	}

	r.log.InfoContext(ctx, "subscription plan changed",
		slog.String("tenant_id", tenantID),
		slog.String("plan", string(planID)))

	return sub, nil
}

// ToggleCapability enables or disables a single capability. Enabling
// anything outside the plan ceiling is a permission error; disabling is
// always allowed.
func (r *Registry) ToggleCapability(ctx context.Context, tenantID string, capability Capability, enable bool) (*Subscription, error) {
	if !slices.Contains(KnownCapabilities(), capability) {
		return nil, ErrUnknownCapability
	}

	return r.mutate(ctx, tenantID, func(sub *Subscription) error {
		if enable {
			plan, ok := r.catalog.Plan(sub.Plan)
			if !ok {
				return ErrPlanNotFound
			}
			if !plan.AllowsCapability(capability) {
				return ErrCapabilityNotInPlan
			}
			if !sub.HasCapability(capability) {
				sub.EnabledCapabilities = append(sub.EnabledCapabilities, capability)
			}
			return nil
		}

		sub.EnabledCapabilities = slices.DeleteFunc(sub.EnabledCapabilities, func(c Capability) bool {
			return c == capability
		})
		return nil
	})
}

// Renew extends the validity window by the given number of days, counted
// from whichever is later: now or the current expiry. A lapsed subscription
// therefore restarts from now instead of backfilling dead time. Status
// resets to active.
func (r *Registry) Renew(ctx context.Context, tenantID string, days int) (*Subscription, error) {
	if days <= 0 {
		days = defaultValidityDays
	}

	sub, err := r.mutate(ctx, tenantID, func(sub *Subscription) error {
		base := r.now()
		if sub.ExpiresAt.After(base) {
			base = sub.ExpiresAt
		}
		sub.ExpiresAt = base.AddDate(0, 0, days)
		sub.Status = StatusActive
		return nil
	})
	if err != nil {
		return nil, err
	}

	r.log.InfoContext(ctx, "subscription renewed",
		slog.String("tenant_id", tenantID),
		slog.Time("expires_at", sub.ExpiresAt))

	return sub, nil
}

// Activate applies a verified payment: the plan is set, status becomes
// active, the validity window restarts from now, the capability set resets
// to the plan ceiling, and a fresh credential is issued. Unknown tenants
// are created on the spot, so a first payment needs no prior trial.
func (r *Registry) Activate(ctx context.Context, tenantID string, planID PlanID, displayName string) (*Subscription, string, error) {
	plan, ok := r.catalog.Plan(planID)
	if !ok {
		return nil, "", ErrPlanNotFound
	}

	now := r.now()
	sub, err := r.store.Get(ctx, tenantID)
	switch {
	case errors.Is(err, ErrNotFound):
		if !tenantIDPattern.MatchString(tenantID) {
			return nil, "", ErrInvalidTenantID
		}
		sub = &Subscription{
			TenantID:         tenantID,
			DisplayName:      displayName,
			StartedAt:        now,
			ComplianceMode:   ComplianceStrict,
			EscalationPolicy: DefaultEscalationPolicy(),
			Metadata:         map[string]string{},
			CreatedAt:        now,
		}
	case err != nil:
		return nil, "", err
	}

	if displayName != "" {
		sub.DisplayName = displayName
	}
	sub.Plan = plan.ID
	sub.Status = StatusActive
	sub.ExpiresAt = now.AddDate(0, 0, defaultValidityDays)
	sub.EnabledCapabilities = slices.Clone(plan.Capabilities)

	key, removed, err := r.issueCredential(sub, plan, now)
	if err != nil {
		return nil, "", err
	}
	sub.UpdatedAt = now

	if err := r.store.Save(ctx, sub); err != nil {
		return nil, "", err
	}
	r.unlinkKeys(ctx, removed)

	r.log.InfoContext(ctx, "subscription activated",
		slog.String("tenant_id", tenantID),
		slog.String("plan", string(planID)),
		slog.Time("expires_at", sub.ExpiresAt))

	return sub, key, nil
}

// Cancel marks the subscription cancelled and annotates the metadata trail.
// The record stays readable; access simply gates off.
func (r *Registry) Cancel(ctx context.Context, tenantID, reason string) (*Subscription, error) {
	sub, err := r.mutate(ctx, tenantID, func(sub *Subscription) error {
		sub.Status = StatusCancelled
		if sub.Metadata == nil {
			sub.Metadata = map[string]string{}
		}
		sub.Metadata["cancelled_at"] = r.now().Format(time.RFC3339)
		if reason != "" {
			sub.Metadata["cancel_reason"] = reason
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	r.log.InfoContext(ctx, "subscription cancelled",
		slog.String("tenant_id", tenantID),
		slog.String("reason", reason))

	return sub, nil
}

// Suspend is the administrative kill switch. Only live subscriptions can
// be suspended.
func (r *Registry) Suspend(ctx context.Context, tenantID string) (*Subscription, error) {
	return r.mutate(ctx, tenantID, func(sub *Subscription) error {
		if sub.Status != StatusActive && sub.Status != StatusTrial {
			return ErrInvalidStatus
		}
		sub.Status = StatusSuspended
		return nil
	})
}

// Resume lifts a suspension. The expiry clock kept running while suspended.
func (r *Registry) Resume(ctx context.Context, tenantID string) (*Subscription, error) {
	return r.mutate(ctx, tenantID, func(sub *Subscription) error {
		if sub.Status != StatusSuspended {
			return ErrInvalidStatus
		}
		sub.Status = StatusActive
		return nil
	})
}

// RotateCredential appends a fresh key. Existing keys stay valid until the
// plan's ceiling pushes the oldest out; trimmed keys leave the reverse
// index in the same call.
func (r *Registry) RotateCredential(ctx context.Context, tenantID string) (string, error) {
	sub, err := r.store.Get(ctx, tenantID)
	if err != nil {
		return "", err
	}
	plan, ok := r.catalog.Plan(sub.Plan)
	if !ok {
		return "", ErrPlanNotFound
	}

	now := r.now()
	key, removed, err := r.issueCredential(sub, plan, now)
	if err != nil {
		return "", err
	}
	sub.UpdatedAt = now

	if err := r.store.Save(ctx, sub); err != nil {
		return "", err
	}
	r.unlinkKeys(ctx, removed)

	r.log.InfoContext(ctx, "credential rotated",
		slog.String("tenant_id", tenantID),
		slog.String("key", apikey.Mask(key)),
		slog.Int("revoked", len(removed)))

	return key, nil
}

// RevokeCredential removes a single key from the record and the reverse
// index. Unknown keys return ErrCredentialNotFound.
func (r *Registry) RevokeCredential(ctx context.Context, tenantID, key string) error {
	_, err := r.mutate(ctx, tenantID, func(sub *Subscription) error {
		idx := slices.IndexFunc(sub.Credentials, func(c Credential) bool { return c.Key == key })
		if idx < 0 {
			return ErrCredentialNotFound
		}
		sub.Credentials = slices.Delete(sub.Credentials, idx, idx+1)
		return nil
	})
	if err != nil {
		return err
	}
	return r.store.UnlinkCredential(ctx, key)
}

// SetComplianceMode switches disclosure injection between strict and
// assistive.
func (r *Registry) SetComplianceMode(ctx context.Context, tenantID string, mode ComplianceMode) (*Subscription, error) {
	if !mode.Valid() {
		return nil, ErrInvalidComplianceMode
	}
	return r.mutate(ctx, tenantID, func(sub *Subscription) error {
		sub.ComplianceMode = mode
		return nil
	})
}

// SetWebhookURL points tenant event delivery at an https endpoint.
// An empty URL clears it.
func (r *Registry) SetWebhookURL(ctx context.Context, tenantID, rawURL string) (*Subscription, error) {
	if rawURL != "" {
		u, err := url.Parse(rawURL)
		if err != nil || u.Scheme != "https" || u.Host == "" {
			return nil, ErrInvalidWebhookURL
		}
	}
	return r.mutate(ctx, tenantID, func(sub *Subscription) error {
		sub.WebhookURL = rawURL
		return nil
	})
}

// SetEscalationPolicy replaces the human-handoff policy.
func (r *Registry) SetEscalationPolicy(ctx context.Context, tenantID string, policy EscalationPolicy) (*Subscription, error) {
	return r.mutate(ctx, tenantID, func(sub *Subscription) error {
		sub.EscalationPolicy = policy
		return nil
	})
}

// SetContactEmail sets the receipt and notification destination.
func (r *Registry) SetContactEmail(ctx context.Context, tenantID, email string) (*Subscription, error) {
	return r.mutate(ctx, tenantID, func(sub *Subscription) error {
		sub.ContactEmail = email
		return nil
	})
}

// Annotate merges key/value pairs into the metadata trail. Used by flows
// that need an audit breadcrumb on the record itself, like refunds.
func (r *Registry) Annotate(ctx context.Context, tenantID string, kv map[string]string) (*Subscription, error) {
	return r.mutate(ctx, tenantID, func(sub *Subscription) error {
		if sub.Metadata == nil {
			sub.Metadata = map[string]string{}
		}
		for k, v := range kv {
			sub.Metadata[k] = v
		}
		return nil
	})
}

// mutate loads, applies fn, stamps UpdatedAt, and writes through.
func (r *Registry) mutate(ctx context.Context, tenantID string, fn func(*Subscription) error) (*Subscription, error) {
	sub, err := r.store.Get(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if err := fn(sub); err != nil {
		return nil, err
	}
	sub.UpdatedAt = r.now()
	if err := r.store.Save(ctx, sub); err != nil {
		return nil, err
	}
	return sub, nil
}

// issueCredential appends a fresh key and trims past the plan ceiling,
// oldest first. Derivation is deterministic per second, so the issue time
// advances until the key differs from every live one.
func (r *Registry) issueCredential(sub *Subscription, plan Plan, now time.Time) (key string, removed []string, err error) {
	issuedAt := now
	live := sub.CredentialKeys()
	for {
		key, err = apikey.Generate(sub.TenantID, issuedAt, r.secret)
		if err != nil {
			return "", nil, err
		}
		if !slices.Contains(live, key) {
			break
		}
		issuedAt = issuedAt.Add(time.Second)
	}
	sub.Credentials = append(sub.Credentials, Credential{Key: key, IssuedAt: issuedAt})

	if plan.MaxAPIKeys != Unlimited && int64(len(sub.Credentials)) > plan.MaxAPIKeys {
		cut := len(sub.Credentials) - int(plan.MaxAPIKeys)
		removed = make([]string, cut)
		for i, cred := range sub.Credentials[:cut] {
			removed[i] = cred.Key
		}
		sub.Credentials = slices.Clone(sub.Credentials[cut:])
	}

	return key, removed, nil
}

// unlinkKeys drops trimmed keys from the reverse index after the record
// write lands. A failed unlink leaves a stale entry the authenticator
// rejects on membership check, so it is logged and not retried.
func (r *Registry) unlinkKeys(ctx context.Context, keys []string) {
	for _, key := range keys {
		if err := r.store.UnlinkCredential(ctx, key); err != nil {
			r.log.WarnContext(ctx, "failed to unlink revoked credential",
				slog.String("key", apikey.Mask(key)),
				slog.Any("error", err))
		}
	}
}
