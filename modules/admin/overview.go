package admin

import (
	"cmp"
	"net/http"
	"slices"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/bankvoiceai/platform/core"
	"github.com/bankvoiceai/platform/svc/subscription"
)

type tenantMetrics struct {
	Total    int                         `json:"total"`
	Active   int                         `json:"active"`
	ByStatus map[subscription.Status]int `json:"by_status"`
	ByPlan   map[subscription.PlanID]int `json:"by_plan"`
}

type metricsResponse struct {
	Tenants        tenantMetrics `json:"tenants"`
	Payments       int64         `json:"payments"`
	ActiveSessions int           `json:"active_sessions"`
}

// metrics aggregates the platform counters an operator dashboard polls.
func (s *Service) metrics(w http.ResponseWriter, r *http.Request) {
	subs, err := s.registry.List(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}

	tm := tenantMetrics{
		Total:    len(subs),
		ByStatus: make(map[subscription.Status]int),
		ByPlan:   make(map[subscription.PlanID]int),
	}
	for _, sub := range subs {
		tm.ByStatus[sub.Status]++
		tm.ByPlan[sub.Plan]++
		if sub.IsActive() {
			tm.Active++
		}
	}

	payments, err := s.payments.Count(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	sessions, err := s.sessions.CountActive(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}

	core.Render(w, r, core.JSON(metricsResponse{
		Tenants:        tm,
		Payments:       payments,
		ActiveSessions: sessions,
	}))
}

type tenantRow struct {
	TenantID            string                    `json:"tenant_id"`
	DisplayName         string                    `json:"display_name"`
	Plan                subscription.PlanID       `json:"plan"`
	Status              subscription.Status       `json:"status"`
	Active              bool                      `json:"active"`
	EnabledCapabilities []subscription.Capability `json:"enabled_capabilities"`
	ExpiresAt           time.Time                 `json:"expires_at"`
	CreatedAt           time.Time                 `json:"created_at"`
}

func newTenantRow(sub *subscription.Subscription) tenantRow {
	return tenantRow{
		TenantID:            sub.TenantID,
		DisplayName:         sub.DisplayName,
		Plan:                sub.Plan,
		Status:              sub.Status,
		Active:              sub.IsActive(),
		EnabledCapabilities: sub.EnabledCapabilities,
		ExpiresAt:           sub.ExpiresAt,
		CreatedAt:           sub.CreatedAt,
	}
}

// tenants returns the subscription overview, ordered by tenant id.
func (s *Service) tenants(w http.ResponseWriter, r *http.Request) {
	subs, err := s.registry.List(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}

	rows := make([]tenantRow, 0, len(subs))
	for _, sub := range subs {
		rows = append(rows, newTenantRow(sub))
	}
	slices.SortFunc(rows, func(a, b tenantRow) int {
		return cmp.Compare(a.TenantID, b.TenantID)
	})

	core.Render(w, r, core.JSONMeta(rows, map[string]any{"total": len(rows)}))
}

// suspend pauses a tenant administratively; its credentials stop
// authenticating until resumed.
func (s *Service) suspend(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	sub, err := s.registry.Suspend(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	s.record(r, "tenant.suspended", id)
	core.Render(w, r, core.JSON(newTenantRow(sub)))
}

// resume lifts an administrative suspension.
func (s *Service) resume(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	sub, err := s.registry.Resume(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	s.record(r, "tenant.resumed", id)
	core.Render(w, r, core.JSON(newTenantRow(sub)))
}
