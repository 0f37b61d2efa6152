package conversation

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/bankvoiceai/platform/binder"
	"github.com/bankvoiceai/platform/core"
	"github.com/bankvoiceai/platform/pkg/audit"
	convo "github.com/bankvoiceai/platform/svc/conversation"
	"github.com/bankvoiceai/platform/svc/tenant"
)

type endSessionRequest struct {
	Reason string `json:"reason"`
}

type endSessionResponse struct {
	SessionID string              `json:"session_id"`
	Status    convo.SessionStatus `json:"status"`
	EndReason string              `json:"end_reason"`
	Turns     int                 `json:"turns"`
	StartedAt time.Time           `json:"started_at"`
	EndedAt   time.Time           `json:"ended_at"`
}

// endSession closes a session on a provider status callback. Repeats are
// no-ops so providers can retry delivery.
func (s *Service) endSession(w http.ResponseWriter, r *http.Request) {
	sub := tenant.MustFromContext(r.Context())

	var req endSessionRequest
	if r.ContentLength != 0 {
		if err := binder.JSON(r, &req); err != nil {
			s.bindError(w, r, err)
			return
		}
	}

	session, err := s.router.EndSession(r.Context(), sub.TenantID, chi.URLParam(r, "id"), req.Reason)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	s.record(r.Context(), "conversation.session_ended",
		audit.WithTenant(sub.TenantID),
		audit.WithSessionID(session.ID),
		audit.WithMetadata("reason", session.EndReason),
		audit.WithMetadata("turns", len(session.Turns)))

	core.Render(w, r, core.JSON(endSessionResponse{
		SessionID: session.ID,
		Status:    session.Status,
		EndReason: session.EndReason,
		Turns:     len(session.Turns),
		StartedAt: session.StartedAt,
		EndedAt:   session.EndedAt,
	}))
}
