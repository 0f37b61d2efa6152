package tenant

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/bankvoiceai/platform/svc/subscription"
)

// Middleware authenticates the request credential, charges the call against
// the tenant's daily quota, and injects the subscription into the request
// context. Quota store errors fail open so a counter outage cannot take the
// conversational API down; authentication errors never fail open.
func (g *Gate) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sub, err := g.Authenticate(r.Context(), CredentialFromRequest(r))
			if err != nil {
				g.writeAuthError(w, r, err)
				return
			}

			ctx := WithSubscription(r.Context(), sub)

			res, err := g.CheckRateLimit(ctx, sub)
			if err != nil {
				g.log.ErrorContext(ctx, "rate limit check failed, admitting request",
					"tenant_id", sub.TenantID,
					"error", err)
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(res.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(res.ResetAt.Unix(), 10))

			if !res.Allowed {
				retryAfter := int(res.RetryAfter().Seconds())
				if retryAfter < 1 {
					retryAfter = 1
				}
				w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
				writeError(w, http.StatusTooManyRequests,
					fmt.Sprintf("daily call limit of %d reached, resets at %s", res.Limit, res.ResetAt.Format("15:04 MST")))
				return
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// AuthMiddleware authenticates the credential and injects the subscription
// without charging the daily quota. Management surfaces mount this one; the
// quota meters conversational turns, not account administration.
func (g *Gate) AuthMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sub, err := g.Authenticate(r.Context(), CredentialFromRequest(r))
			if err != nil {
				g.writeAuthError(w, r, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithSubscription(r.Context(), sub)))
		})
	}
}

// RequireCapability guards a route behind a single capability. Mount it
// inside Middleware; without an authenticated subscription in the context it
// rejects the request outright.
func (g *Gate) RequireCapability(capability subscription.Capability) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sub, ok := FromContext(r.Context())
			if !ok {
				writeError(w, http.StatusUnauthorized, "missing credential")
				return
			}

			if !g.AuthorizeCapability(sub, capability) {
				writeError(w, http.StatusForbidden,
					fmt.Sprintf("capability %s not enabled on plan %s", capability, sub.Plan))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func (g *Gate) writeAuthError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrMissingCredential):
		writeError(w, http.StatusUnauthorized, "missing credential")
	case errors.Is(err, ErrInvalidCredential):
		writeError(w, http.StatusUnauthorized, "invalid credential")
	case errors.Is(err, ErrSubscriptionInactive):
		writeError(w, http.StatusForbidden, err.Error())
	default:
		g.log.ErrorContext(r.Context(), "authentication unavailable", "error", err)
		writeError(w, http.StatusServiceUnavailable, "authentication temporarily unavailable")
	}
}

// writeError emits the platform's JSON error envelope without pulling the
// HTTP module layer into this package.
func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{
			"code":    status,
			"message": message,
		},
	})
}
