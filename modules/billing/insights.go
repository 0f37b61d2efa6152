package billing

import (
	"net/http"
	"time"

	"github.com/bankvoiceai/platform/binder"
	"github.com/bankvoiceai/platform/core"
	"github.com/bankvoiceai/platform/pkg/audit"
	"github.com/bankvoiceai/platform/svc/subscription"
	"github.com/bankvoiceai/platform/svc/tenant"
)

type usageResponse struct {
	Plan                subscription.PlanID       `json:"plan"`
	CallsToday          int64                     `json:"calls_today"`
	DailyLimit          int64                     `json:"daily_limit"` // -1 means unlimited
	Remaining           int64                     `json:"remaining"`   // -1 means unlimited
	EnabledCapabilities []subscription.Capability `json:"enabled_capabilities"`
	Active              bool                      `json:"active"`
	ExpiresAt           time.Time                 `json:"expires_at"`
}

// usage reports today's consumption against the plan ceiling. Read-only:
// looking at the counter never charges it.
func (s *Service) usage(w http.ResponseWriter, r *http.Request) {
	sub := tenant.MustFromContext(r.Context())

	plan, ok := s.registry.PlanByID(sub.Plan)
	if !ok {
		s.fail(w, r, subscription.ErrPlanNotFound)
		return
	}

	used, err := s.gate.UsageToday(r.Context(), sub.TenantID)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	remaining := subscription.Unlimited
	if plan.CallsPerDay != subscription.Unlimited {
		remaining = plan.CallsPerDay - used
		if remaining < 0 {
			remaining = 0
		}
	}

	core.Render(w, r, core.JSON(usageResponse{
		Plan:                sub.Plan,
		CallsToday:          used,
		DailyLimit:          plan.CallsPerDay,
		Remaining:           remaining,
		EnabledCapabilities: sub.EnabledCapabilities,
		Active:              sub.IsActive(),
		ExpiresAt:           sub.ExpiresAt,
	}))
}

type analyticsResponse struct {
	WindowDays   int     `json:"window_days"`
	CallsTotal   int64   `json:"calls_total"`
	CallsToday   int64   `json:"calls_today"`
	DailyAverage float64 `json:"daily_average"`
	DailyLimit   int64   `json:"daily_limit"`
	Payments     int     `json:"payments"`
	Escalations  int64   `json:"escalations"`
}

// analytics summarizes activity within the plan's analytics window. Wider
// windows are a plan feature, not a query parameter.
func (s *Service) analytics(w http.ResponseWriter, r *http.Request) {
	sub := tenant.MustFromContext(r.Context())

	plan, ok := s.registry.PlanByID(sub.Plan)
	if !ok {
		s.fail(w, r, subscription.ErrPlanNotFound)
		return
	}

	total, err := s.gate.UsageWindow(r.Context(), sub.TenantID, plan.AnalyticsDays)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	today, err := s.gate.UsageToday(r.Context(), sub.TenantID)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	resp := analyticsResponse{
		WindowDays: plan.AnalyticsDays,
		CallsTotal: total,
		CallsToday: today,
		DailyLimit: plan.CallsPerDay,
	}
	if plan.AnalyticsDays > 0 {
		resp.DailyAverage = float64(total) / float64(plan.AnalyticsDays)
	}

	since := time.Now().UTC().AddDate(0, 0, -plan.AnalyticsDays)

	if recs, err := s.payments.History(r.Context(), sub.TenantID); err == nil {
		for _, rec := range recs {
			if !rec.CreatedAt.Before(since) {
				resp.Payments++
			}
		}
	}

	if s.auditReader != nil {
		n, err := s.auditReader.Count(r.Context(), audit.Criteria{
			TenantID: sub.TenantID,
			Action:   "conversation.escalated",
			Since:    since,
		})
		if err != nil {
			s.log.ErrorContext(r.Context(), "escalation count unavailable", "error", err)
		} else {
			resp.Escalations = n
		}
	}

	core.Render(w, r, core.JSON(resp))
}

type auditLogQuery struct {
	Limit  int    `query:"limit"`
	Offset int    `query:"offset"`
	Action string `query:"action"`
	Result string `query:"result"`
	Days   int    `query:"days"`
}

// auditLog pages through the tenant's audit trail, newest first. Defaults
// to the last 100 events.
func (s *Service) auditLog(w http.ResponseWriter, r *http.Request) {
	sub := tenant.MustFromContext(r.Context())

	if s.auditReader == nil {
		core.Render(w, r, core.JSONError(core.ErrServiceUnavailable.WithMessage("audit log is not available")))
		return
	}

	var q auditLogQuery
	if err := binder.Query(r, &q); err != nil {
		core.Render(w, r, core.JSONError(core.ErrBadRequest.WithMessage(err.Error())))
		return
	}

	verr := core.NewValidationError()
	if q.Offset < 0 {
		verr.Add("offset", "must not be negative")
	}
	if q.Days < 0 {
		verr.Add("days", "must not be negative")
	}
	switch audit.Result(q.Result) {
	case "", audit.ResultSuccess, audit.ResultFailure, audit.ResultDenied:
	default:
		verr.Add("result", "must be success, failure, or denied")
	}
	if err := verr.Err(); err != nil {
		core.Render(w, r, core.JSONError(err))
		return
	}

	criteria := audit.Criteria{
		TenantID: sub.TenantID,
		Action:   q.Action,
		Result:   audit.Result(q.Result),
		Limit:    q.Limit,
		Offset:   q.Offset,
	}
	if q.Days > 0 {
		criteria.Since = time.Now().UTC().AddDate(0, 0, -q.Days)
	}

	events, err := s.auditReader.Query(r.Context(), criteria)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	total, err := s.auditReader.Count(r.Context(), criteria)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	core.Render(w, r, core.JSONMeta(events, map[string]any{
		"total":  total,
		"offset": q.Offset,
	}))
}
