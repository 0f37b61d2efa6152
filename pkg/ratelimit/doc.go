// Package ratelimit provides fixed-window request counting with pluggable
// memory and Redis backends.
//
// Two frontends share the same Store:
//
// Quota counts calls against a per-tenant daily ceiling that varies by plan,
// so the ceiling is passed per call. Counters live in UTC-dated keys
// ("ratelimit:<tenant>:<yyyymmdd>"); the quota therefore resets at midnight
// UTC without any scheduled job, and the counter TTL only garbage-collects
// past days. With a retention longer than a day, Usage and UsageWindow
// double as the source for daily and trailing-window usage reports.
//
//	quota, err := ratelimit.NewQuota(ratelimit.NewRedisStore(client),
//		ratelimit.WithRetention(35*24*time.Hour))
//	res, err := quota.Allow(ctx, tenantID, plan.CallsPerDay)
//	if !res.Allowed {
//		// deny with res.RetryAfter()
//	}
//
// FixedWindow is a classic shared-ceiling limiter for public endpoints,
// wired through Middleware:
//
//	fw, err := ratelimit.NewFixedWindow(store, 20, time.Minute)
//	r.Use(ratelimit.Middleware(fw, byClientIP))
//
// The middleware fails open: a store outage admits traffic instead of
// refusing it.
package ratelimit
