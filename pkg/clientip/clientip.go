// Package clientip resolves the originating client address of an HTTP
// request behind one or more reverse proxies.
//
// Resolution walks the forwarding headers in priority order and falls back
// to the TCP peer address:
//
//  1. CF-Connecting-IP — set by Cloudflare
//  2. True-Client-IP   — Akamai and older Cloudflare plans
//  3. X-Forwarded-For  — comma-separated chain, first valid entry wins
//  4. X-Real-IP        — set by reverse proxies such as nginx
//  5. RemoteAddr       — direct connection fallback
//
// The resolved address feeds abuse throttling on the unauthenticated
// payment endpoints and the audit trail, so it is normalized through
// netip before use. FromRequest never fails: when nothing parses it
// returns an empty string and callers decide how to proceed.
package clientip

import (
	"context"
	"net"
	"net/http"
	"net/netip"
	"strings"
)

// Forwarding headers in descending trust order. X-Forwarded-For is handled
// separately because it carries a chain rather than a single address.
var singleValueHeaders = []string{
	"CF-Connecting-IP",
	"True-Client-IP",
}

// FromRequest resolves the client address for r, preferring proxy headers
// over the transport peer. Returns "" when no candidate parses as an IP.
func FromRequest(r *http.Request) string {
	for _, h := range singleValueHeaders {
		if ip := normalize(r.Header.Get(h)); ip != "" {
			return ip
		}
	}

	if chain := r.Header.Get("X-Forwarded-For"); chain != "" {
		for candidate := range strings.SplitSeq(chain, ",") {
			if ip := normalize(candidate); ip != "" {
				return ip
			}
		}
	}

	if ip := normalize(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		// RemoteAddr without a port, e.g. from a test request.
		return normalize(r.RemoteAddr)
	}
	return normalize(host)
}

// normalize parses a candidate address and returns its canonical string
// form, stripping ports, brackets and IPv6 zone identifiers. Invalid
// candidates collapse to "".
func normalize(candidate string) string {
	candidate = strings.TrimSpace(candidate)
	if candidate == "" {
		return ""
	}

	// Proxies occasionally forward host:port pairs.
	if host, _, err := net.SplitHostPort(candidate); err == nil {
		candidate = host
	}
	candidate = strings.Trim(candidate, "[]")

	addr, err := netip.ParseAddr(candidate)
	if err != nil {
		return ""
	}
	return addr.WithZone("").String()
}

type contextKey struct{}

// WithContext stores the resolved client address in ctx.
func WithContext(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, contextKey{}, ip)
}

// FromContext returns the client address stored by Middleware, or "" when
// the middleware did not run.
func FromContext(ctx context.Context) string {
	ip, _ := ctx.Value(contextKey{}).(string)
	return ip
}

// Middleware resolves the client address once per request and stores it in
// the request context for downstream handlers, throttles and audit sinks.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := WithContext(r.Context(), FromRequest(r))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
