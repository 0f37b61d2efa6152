package tenant

import (
	"context"
	"log/slog"

	"github.com/bankvoiceai/platform/svc/subscription"
)

// contextKey prevents collisions with other packages using context values
type contextKey struct{}

// WithSubscription stores the authenticated subscription in the context.
// The middleware calls this after a successful gate pass.
func WithSubscription(ctx context.Context, sub *subscription.Subscription) context.Context {
	return context.WithValue(ctx, contextKey{}, sub)
}

// FromContext retrieves the authenticated subscription, if any.
func FromContext(ctx context.Context) (*subscription.Subscription, bool) {
	sub, ok := ctx.Value(contextKey{}).(*subscription.Subscription)
	return sub, ok && sub != nil
}

// MustFromContext panics if no subscription is present. Use only in handlers
// mounted behind the gate middleware.
func MustFromContext(ctx context.Context) *subscription.Subscription {
	sub, ok := FromContext(ctx)
	if !ok {
		panic("tenant: no subscription in context")
	}
	return sub
}

// IDFromContext provides fast access to the tenant id without exposing the
// full subscription record.
func IDFromContext(ctx context.Context) (string, bool) {
	sub, ok := FromContext(ctx)
	if !ok {
		return "", false
	}
	return sub.TenantID, true
}

// LoggerExtractor returns a function that enriches log records with the
// authenticated tenant id.
func LoggerExtractor() func(ctx context.Context) (slog.Attr, bool) {
	return func(ctx context.Context) (slog.Attr, bool) {
		if id, ok := IDFromContext(ctx); ok {
			return slog.String("tenant_id", id), true
		}
		return slog.Attr{}, false
	}
}
