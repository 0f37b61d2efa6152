package tenant

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"time"

	"github.com/bankvoiceai/platform/pkg/apikey"
	"github.com/bankvoiceai/platform/pkg/ratelimit"
	"github.com/bankvoiceai/platform/svc/subscription"
)

// SubscriptionSource is the slice of the subscription store the gate reads.
// The full subscription.Store satisfies it.
type SubscriptionSource interface {
	// Get retrieves a subscription by tenant id.
	Get(ctx context.Context, tenantID string) (*subscription.Subscription, error)

	// ResolveCredential maps an issued key back to its tenant id.
	ResolveCredential(ctx context.Context, key string) (string, error)
}

// Gate authenticates tenant credentials and enforces plan ceilings on every
// conversational call. It sits between the HTTP layer and the services: the
// middleware authenticates once per request, then handlers consult the gate
// for capability and quota decisions.
type Gate struct {
	subs    SubscriptionSource
	quota   *ratelimit.Quota
	catalog subscription.Catalog
	now     func() time.Time
	log     *slog.Logger
}

// NewGate creates a Gate. Panics if the subscription source, the quota, or
// the catalog is missing, to fail fast during initialization.
func NewGate(subs SubscriptionSource, quota *ratelimit.Quota, catalog subscription.Catalog, opts ...GateOption) *Gate {
	if subs == nil {
		panic("tenant: subscription source is required")
	}
	if quota == nil {
		panic("tenant: quota is required")
	}
	if len(catalog.Plans()) == 0 {
		panic("tenant: catalog is empty")
	}

	g := &Gate{
		subs:    subs,
		quota:   quota,
		catalog: catalog,
		now:     func() time.Time { return time.Now().UTC() },
		log:     slog.New(slog.NewTextHandler(io.Discard, nil)), // noop logger by default
	}

	for _, opt := range opts {
		opt(g)
	}

	return g
}

// Authenticate resolves a credential to its live subscription. The key must
// be structurally valid, present in the reverse index, listed on the resolved
// record, and the subscription must pass the activity predicate. Lookup
// failures all collapse to ErrInvalidCredential so a probing caller cannot
// distinguish revoked keys from never-issued ones.
func (g *Gate) Authenticate(ctx context.Context, credential string) (*subscription.Subscription, error) {
	if credential == "" {
		return nil, ErrMissingCredential
	}
	if err := apikey.Validate(credential); err != nil {
		return nil, errors.Join(ErrInvalidCredential, err)
	}

	tenantID, err := g.subs.ResolveCredential(ctx, credential)
	if err != nil {
		if errors.Is(err, subscription.ErrCredentialNotFound) {
			return nil, ErrInvalidCredential
		}
		return nil, err
	}

	sub, err := g.subs.Get(ctx, tenantID)
	if err != nil {
		if errors.Is(err, subscription.ErrNotFound) {
			return nil, ErrInvalidCredential
		}
		return nil, err
	}

	// The reverse index can briefly outlive a revocation; the subscription
	// record is authoritative.
	if !slices.Contains(sub.CredentialKeys(), credential) {
		return nil, ErrInvalidCredential
	}

	if !sub.IsActiveAt(g.now()) {
		return nil, fmt.Errorf("%w: status %s", ErrSubscriptionInactive, sub.Status)
	}

	return sub, nil
}

// AuthorizeCapability reports whether the capability is enabled on the
// subscription. Plan ceilings are enforced at toggle time, so the enabled
// set alone decides.
func (g *Gate) AuthorizeCapability(sub *subscription.Subscription, capability subscription.Capability) bool {
	return sub.HasCapability(capability)
}

// CheckRateLimit counts one call against the tenant's daily plan ceiling and
// reports the decision. Unlimited plans always pass but still count, so usage
// reports stay complete across tiers.
func (g *Gate) CheckRateLimit(ctx context.Context, sub *subscription.Subscription) (*ratelimit.Result, error) {
	plan, ok := g.catalog.Plan(sub.Plan)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrPlanUnknown, sub.Plan)
	}
	return g.quota.Allow(ctx, sub.TenantID, int(plan.CallsPerDay))
}

// UsageToday returns the calls recorded for the tenant today without
// counting one. Billing reads it for the subscription status endpoint.
func (g *Gate) UsageToday(ctx context.Context, tenantID string) (int64, error) {
	return g.quota.Usage(ctx, tenantID, g.now())
}

// UsageWindow sums the tenant's recorded calls over the trailing days, today
// included. The window is clamped to the plan's analytics retention by the
// caller, not here.
func (g *Gate) UsageWindow(ctx context.Context, tenantID string, days int) (int64, error) {
	return g.quota.UsageWindow(ctx, tenantID, days)
}
