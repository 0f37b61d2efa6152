package conversation_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bankvoiceai/platform/pkg/audit"
	convo "github.com/bankvoiceai/platform/svc/conversation"
	"github.com/bankvoiceai/platform/svc/subscription"
)

type endBody struct {
	SessionID string              `json:"session_id"`
	Status    convo.SessionStatus `json:"status"`
	EndReason string              `json:"end_reason"`
	Turns     int                 `json:"turns"`
}

func TestEndSession(t *testing.T) {
	t.Parallel()

	startSession := func(t *testing.T, e *env, key, sessionID string) {
		t.Helper()
		rr := doJSON(t, e.handler, http.MethodPost, "/chat/inbound", key, map[string]string{
			"session_id": sessionID,
			"message":    "hello, quick question",
		})
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	}

	t.Run("ends an active session with a reason", func(t *testing.T) {
		t.Parallel()
		e := newEnv(t)
		key := e.provision(t, "first_national", subscription.PlanGrowth)
		startSession(t, e, key, "chat-10")

		rr := doJSON(t, e.handler, http.MethodPost, "/sessions/chat-10/end", key,
			map[string]string{"reason": "caller_hangup"})
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

		body := dataAs[endBody](t, rr)
		assert.Equal(t, "chat-10", body.SessionID)
		assert.Equal(t, convo.SessionEnded, body.Status)
		assert.Equal(t, "caller_hangup", body.EndReason)
		assert.Equal(t, 2, body.Turns) // user utterance plus assistant reply

		events, err := e.audits.Query(context.Background(), audit.Criteria{Action: "conversation.session_ended"})
		require.NoError(t, err)
		require.Len(t, events, 1)
		assert.Equal(t, "first_national", events[0].TenantID)
		assert.Equal(t, "chat-10", events[0].SessionID)
		assert.Equal(t, "caller_hangup", events[0].Metadata["reason"])
	})

	t.Run("defaults the reason when none is given", func(t *testing.T) {
		t.Parallel()
		e := newEnv(t)
		key := e.provision(t, "first_national", subscription.PlanGrowth)
		startSession(t, e, key, "chat-11")

		rr := doJSON(t, e.handler, http.MethodPost, "/sessions/chat-11/end", key, nil)
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
		assert.Equal(t, "completed", dataAs[endBody](t, rr).EndReason)
	})

	t.Run("repeated end is a no-op", func(t *testing.T) {
		t.Parallel()
		e := newEnv(t)
		key := e.provision(t, "first_national", subscription.PlanGrowth)
		startSession(t, e, key, "chat-12")

		require.Equal(t, http.StatusOK,
			doJSON(t, e.handler, http.MethodPost, "/sessions/chat-12/end", key, map[string]string{"reason": "caller_hangup"}).Code)

		rr := doJSON(t, e.handler, http.MethodPost, "/sessions/chat-12/end", key, map[string]string{"reason": "different"})
		require.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "caller_hangup", dataAs[endBody](t, rr).EndReason)
	})

	t.Run("unknown session", func(t *testing.T) {
		t.Parallel()
		e := newEnv(t)
		key := e.provision(t, "first_national", subscription.PlanGrowth)

		rr := doJSON(t, e.handler, http.MethodPost, "/sessions/never-started/end", key, nil)
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("foreign tenant sessions read as absent", func(t *testing.T) {
		t.Parallel()
		e := newEnv(t)
		key := e.provision(t, "first_national", subscription.PlanGrowth)
		other := e.provision(t, "coastal_cu", subscription.PlanGrowth)
		startSession(t, e, key, "chat-13")

		rr := doJSON(t, e.handler, http.MethodPost, "/sessions/chat-13/end", other, nil)
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}
