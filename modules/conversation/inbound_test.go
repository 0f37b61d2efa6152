package conversation_test

import (
	"context"
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bankvoiceai/platform/pkg/audit"
	convo "github.com/bankvoiceai/platform/svc/conversation"
	"github.com/bankvoiceai/platform/svc/subscription"
)

func TestVoiceInbound(t *testing.T) {
	t.Parallel()

	t.Run("routes a form-encoded turn", func(t *testing.T) {
		t.Parallel()
		e := newEnv(t)
		key := e.provision(t, "first_national", subscription.PlanGrowth)

		rr := doForm(t, e.handler, "/voice/inbound", key, url.Values{
			"CallSid":      {"CA100"},
			"From":         {"+15550100"},
			"SpeechResult": {"I think there is fraud on my account"},
			"Language":     {"en-US"},
		})
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

		reply := dataAs[convo.Reply](t, rr)
		assert.Equal(t, "CA100", reply.SessionID)
		assert.Equal(t, convo.SpecialistFraudDetection, reply.Specialist)
		assert.Equal(t, convo.IntentFraudReport, reply.Intent)
		assert.False(t, reply.Escalate)
		assert.False(t, reply.EndSession)

		// Strict compliance opens the first reply with the recording notice.
		assert.Contains(t, reply.Text, "This call may be recorded")
		assert.Contains(t, reply.Text, "First National Bank")
	})

	t.Run("DTMF digits stand in for empty speech", func(t *testing.T) {
		t.Parallel()
		e := newEnv(t)
		key := e.provision(t, "first_national", subscription.PlanGrowth)

		rr := doForm(t, e.handler, "/voice/inbound", key, url.Values{
			"CallSid": {"CA101"},
			"Digits":  {"1"},
		})
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
		assert.Equal(t, convo.SpecialistCustomerService, dataAs[convo.Reply](t, rr).Specialist)
	})

	t.Run("accepts a JSON body", func(t *testing.T) {
		t.Parallel()
		e := newEnv(t)
		key := e.provision(t, "first_national", subscription.PlanGrowth)

		rr := doJSON(t, e.handler, http.MethodPost, "/voice/inbound", key, map[string]string{
			"call_sid":      "CA102",
			"speech_result": "what is my balance",
		})
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

		reply := dataAs[convo.Reply](t, rr)
		assert.Equal(t, convo.IntentBalanceInquiry, reply.Intent)
		assert.Equal(t, convo.SpecialistCustomerService, reply.Specialist)
	})

	t.Run("rejects a silent turn", func(t *testing.T) {
		t.Parallel()
		e := newEnv(t)
		key := e.provision(t, "first_national", subscription.PlanGrowth)

		rr := doForm(t, e.handler, "/voice/inbound", key, url.Values{"CallSid": {"CA103"}})
		require.Equal(t, http.StatusUnprocessableEntity, rr.Code)
		assert.Contains(t, decode(t, rr).Error.Details, "input")
	})

	t.Run("requires a call sid", func(t *testing.T) {
		t.Parallel()
		e := newEnv(t)
		key := e.provision(t, "first_national", subscription.PlanGrowth)

		rr := doForm(t, e.handler, "/voice/inbound", key, url.Values{"SpeechResult": {"hello"}})
		require.Equal(t, http.StatusUnprocessableEntity, rr.Code)
		assert.Contains(t, decode(t, rr).Error.Details, "session_id")
	})
}

func TestChatInbound(t *testing.T) {
	t.Parallel()

	t.Run("keeps the specialist across turns", func(t *testing.T) {
		t.Parallel()
		e := newEnv(t)
		key := e.provision(t, "first_national", subscription.PlanGrowth)

		rr := doJSON(t, e.handler, http.MethodPost, "/chat/inbound", key, map[string]string{
			"session_id": "chat-1",
			"message":    "I want to open a new account",
			"user_id":    "web-4821",
		})
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

		first := dataAs[convo.Reply](t, rr)
		assert.Equal(t, convo.IntentNewAccount, first.Intent)
		assert.Equal(t, convo.SpecialistOnboarding, first.Specialist)

		rr = doJSON(t, e.handler, http.MethodPost, "/chat/inbound", key, map[string]string{
			"session_id": "chat-1",
			"message":    "John Smith, john@example.com",
		})
		require.Equal(t, http.StatusOK, rr.Code)

		second := dataAs[convo.Reply](t, rr)
		assert.Equal(t, convo.IntentContinuation, second.Intent)
		assert.Equal(t, convo.SpecialistOnboarding, second.Specialist)
	})

	t.Run("plans without the specialist fall back to customer service", func(t *testing.T) {
		t.Parallel()
		e := newEnv(t)
		key := e.provision(t, "first_national", subscription.PlanStarter)

		rr := doJSON(t, e.handler, http.MethodPost, "/chat/inbound", key, map[string]string{
			"session_id": "chat-2",
			"message":    "I need a payment plan for my loan",
		})
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

		reply := dataAs[convo.Reply](t, rr)
		assert.Equal(t, convo.IntentPaymentPlan, reply.Intent)
		assert.Equal(t, convo.SpecialistCustomerService, reply.Specialist)
	})

	t.Run("escalates on a human handoff phrase and audits it", func(t *testing.T) {
		t.Parallel()
		e := newEnv(t)
		key := e.provision(t, "first_national", subscription.PlanGrowth)

		rr := doJSON(t, e.handler, http.MethodPost, "/chat/inbound", key, map[string]string{
			"session_id": "chat-3",
			"message":    "let me talk to a human please",
		})
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

		reply := dataAs[convo.Reply](t, rr)
		assert.True(t, reply.Escalate)
		assert.Contains(t, reply.Text, "transfer you to a human representative")

		events, err := e.audits.Query(context.Background(), audit.Criteria{Action: "conversation.escalated"})
		require.NoError(t, err)
		require.Len(t, events, 1)
		assert.Equal(t, "first_national", events[0].TenantID)
		assert.Equal(t, "chat-3", events[0].SessionID)
		assert.Equal(t, "chat", events[0].Metadata["channel"])
	})

	t.Run("rejects turns on an ended session", func(t *testing.T) {
		t.Parallel()
		e := newEnv(t)
		key := e.provision(t, "first_national", subscription.PlanGrowth)

		turn := map[string]string{"session_id": "chat-4", "message": "hello there"}
		require.Equal(t, http.StatusOK, doJSON(t, e.handler, http.MethodPost, "/chat/inbound", key, turn).Code)
		require.Equal(t, http.StatusOK, doJSON(t, e.handler, http.MethodPost, "/sessions/chat-4/end", key, nil).Code)

		rr := doJSON(t, e.handler, http.MethodPost, "/chat/inbound", key, turn)
		assert.Equal(t, http.StatusConflict, rr.Code)
	})

	t.Run("requires a JSON payload", func(t *testing.T) {
		t.Parallel()
		e := newEnv(t)
		key := e.provision(t, "first_national", subscription.PlanGrowth)

		rr := doForm(t, e.handler, "/chat/inbound", key, url.Values{"message": {"hi"}})
		assert.Equal(t, http.StatusUnsupportedMediaType, rr.Code)
	})
}
