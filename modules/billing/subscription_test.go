package billing_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bankvoiceai/platform/pkg/apikey"
	"github.com/bankvoiceai/platform/svc/payment"
	"github.com/bankvoiceai/platform/svc/subscription"
)

type subscriptionBody struct {
	TenantID            string                      `json:"tenant_id"`
	DisplayName         string                      `json:"display_name"`
	Plan                subscription.PlanID         `json:"plan"`
	Status              subscription.Status         `json:"status"`
	Active              bool                        `json:"active"`
	EnabledCapabilities []subscription.Capability   `json:"enabled_capabilities"`
	ComplianceMode      subscription.ComplianceMode `json:"compliance_mode"`
	WebhookURL          string                      `json:"webhook_url"`
	EscalationPolicy    struct {
		TriggerKeywords    []string `json:"trigger_keywords"`
		SentimentThreshold float64  `json:"sentiment_threshold"`
		MaxWaitSeconds     int      `json:"max_wait_seconds"`
	} `json:"escalation_policy"`
	APIKeys []struct {
		Key string `json:"key"`
	} `json:"api_keys"`
}

func TestGetSubscription(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	key := e.activate(t, "first_national", subscription.PlanStarter)

	rr := do(t, e.handler, http.MethodGet, "/subscription", key, nil)
	require.Equal(t, http.StatusOK, rr.Code)

	body := dataAs[subscriptionBody](t, rr)
	assert.Equal(t, "first_national", body.TenantID)
	assert.Equal(t, subscription.PlanStarter, body.Plan)
	assert.True(t, body.Active)
	assert.Equal(t, subscription.ComplianceStrict, body.ComplianceMode)

	require.NotEmpty(t, body.APIKeys)
	for _, k := range body.APIKeys {
		assert.Error(t, apikey.Validate(k.Key), "credential %s must be masked", k.Key)
	}
}

func TestListPlans(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	key := e.activate(t, "first_national", subscription.PlanTrial)

	rr := do(t, e.handler, http.MethodGet, "/plans", key, nil)
	require.Equal(t, http.StatusOK, rr.Code)

	type planBody struct {
		ID          subscription.PlanID `json:"id"`
		PriceFET    int64               `json:"price_fet"`
		CallsPerDay int64               `json:"calls_per_day"`
	}
	plans := dataAs[[]planBody](t, rr)
	require.Len(t, plans, 4)

	byID := map[subscription.PlanID]planBody{}
	for _, p := range plans {
		byID[p.ID] = p
	}
	assert.EqualValues(t, 0, byID[subscription.PlanTrial].PriceFET)
	assert.EqualValues(t, 250, byID[subscription.PlanStarter].PriceFET)
	assert.EqualValues(t, 750, byID[subscription.PlanGrowth].PriceFET)
	assert.EqualValues(t, 2000, byID[subscription.PlanEnterprise].PriceFET)
	assert.EqualValues(t, subscription.Unlimited, byID[subscription.PlanEnterprise].CallsPerDay)
}

func TestUpgrade(t *testing.T) {
	t.Parallel()

	type upgradeBody struct {
		PaymentRequired    bool                 `json:"payment_required"`
		PaymentInstruction *payment.Instruction `json:"payment_instruction"`
		Subscription       *subscriptionBody    `json:"subscription"`
	}

	t.Run("upgrade returns a prorated instruction", func(t *testing.T) {
		t.Parallel()
		e := newEnv(t)
		key := e.activate(t, "first_national", subscription.PlanStarter)

		rr := do(t, e.handler, http.MethodPost, "/subscription/upgrade", key, map[string]string{"plan": "enterprise"})
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

		body := dataAs[upgradeBody](t, rr)
		assert.True(t, body.PaymentRequired)
		require.NotNil(t, body.PaymentInstruction)
		assert.EqualValues(t, 1750, body.PaymentInstruction.AmountFET) // 2000 minus 250
		assert.Equal(t, "BANKVOICEAI_UPGRADE|first_national|enterprise", body.PaymentInstruction.Memo)
	})

	t.Run("downgrade applies immediately", func(t *testing.T) {
		t.Parallel()
		e := newEnv(t)
		key := e.activate(t, "first_national", subscription.PlanGrowth)

		rr := do(t, e.handler, http.MethodPost, "/subscription/upgrade", key, map[string]string{"plan": "starter"})
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

		body := dataAs[upgradeBody](t, rr)
		assert.False(t, body.PaymentRequired)
		assert.Nil(t, body.PaymentInstruction)
		require.NotNil(t, body.Subscription)
		assert.Equal(t, subscription.PlanStarter, body.Subscription.Plan)
	})

	t.Run("unknown plan", func(t *testing.T) {
		t.Parallel()
		e := newEnv(t)
		key := e.activate(t, "first_national", subscription.PlanStarter)

		rr := do(t, e.handler, http.MethodPost, "/subscription/upgrade", key, map[string]string{"plan": "diamond"})
		assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	})
}

func TestRotateCredential(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	key := e.activate(t, "first_national", subscription.PlanStarter)

	rr := do(t, e.handler, http.MethodPost, "/api-keys/rotate", key, nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	type rotateBody struct {
		APIKey  string `json:"api_key"`
		APIKeys []struct {
			Key string `json:"key"`
		} `json:"api_keys"`
	}
	body := dataAs[rotateBody](t, rr)
	require.NoError(t, apikey.Validate(body.APIKey))
	assert.NotEqual(t, key, body.APIKey)
	assert.NotEmpty(t, body.APIKeys)

	// Both the old and the new credential authenticate.
	assert.Equal(t, http.StatusOK, do(t, e.handler, http.MethodGet, "/subscription", key, nil).Code)
	assert.Equal(t, http.StatusOK, do(t, e.handler, http.MethodGet, "/subscription", body.APIKey, nil).Code)
}

func TestCapabilities(t *testing.T) {
	t.Parallel()

	type capabilityBody struct {
		Name      subscription.Capability `json:"name"`
		Available bool                    `json:"available"`
		Enabled   bool                    `json:"enabled"`
	}

	index := func(views []capabilityBody) map[subscription.Capability]capabilityBody {
		out := make(map[subscription.Capability]capabilityBody, len(views))
		for _, v := range views {
			out[v.Name] = v
		}
		return out
	}

	t.Run("lists every specialist with plan availability", func(t *testing.T) {
		t.Parallel()
		e := newEnv(t)
		key := e.activate(t, "first_national", subscription.PlanStarter)

		rr := do(t, e.handler, http.MethodGet, "/capabilities", key, nil)
		require.Equal(t, http.StatusOK, rr.Code)

		caps := index(dataAs[[]capabilityBody](t, rr))
		require.Len(t, caps, len(subscription.KnownCapabilities()))

		assert.True(t, caps[subscription.CapabilityCustomerService].Available)
		assert.True(t, caps[subscription.CapabilityCustomerService].Enabled)
		assert.False(t, caps[subscription.CapabilityCollections].Available)
		assert.False(t, caps[subscription.CapabilityCollections].Enabled)
	})

	t.Run("toggle off and on within the plan", func(t *testing.T) {
		t.Parallel()
		e := newEnv(t)
		key := e.activate(t, "first_national", subscription.PlanStarter)

		rr := do(t, e.handler, http.MethodPost, "/capabilities/onboarding/toggle", key, map[string]bool{"enabled": false})
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
		caps := index(dataAs[[]capabilityBody](t, rr))
		assert.False(t, caps[subscription.CapabilityOnboarding].Enabled)

		rr = do(t, e.handler, http.MethodPost, "/capabilities/onboarding/toggle", key, map[string]bool{"enabled": true})
		require.Equal(t, http.StatusOK, rr.Code)
		caps = index(dataAs[[]capabilityBody](t, rr))
		assert.True(t, caps[subscription.CapabilityOnboarding].Enabled)
	})

	t.Run("toggle outside the plan ceiling is forbidden", func(t *testing.T) {
		t.Parallel()
		e := newEnv(t)
		key := e.activate(t, "first_national", subscription.PlanStarter)

		rr := do(t, e.handler, http.MethodPost, "/capabilities/collections/toggle", key, map[string]bool{"enabled": true})
		assert.Equal(t, http.StatusForbidden, rr.Code)
	})

	t.Run("unknown capability", func(t *testing.T) {
		t.Parallel()
		e := newEnv(t)
		key := e.activate(t, "first_national", subscription.PlanStarter)

		rr := do(t, e.handler, http.MethodPost, "/capabilities/fortune_telling/toggle", key, map[string]bool{"enabled": true})
		assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	})
}

func TestComplianceMode(t *testing.T) {
	t.Parallel()

	t.Run("switches to assistive", func(t *testing.T) {
		t.Parallel()
		e := newEnv(t)
		key := e.activate(t, "first_national", subscription.PlanStarter)

		rr := do(t, e.handler, http.MethodPost, "/compliance/mode", key, map[string]string{"mode": "assistive"})
		require.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, subscription.ComplianceAssistive, dataAs[subscriptionBody](t, rr).ComplianceMode)
	})

	t.Run("rejects unknown modes", func(t *testing.T) {
		t.Parallel()
		e := newEnv(t)
		key := e.activate(t, "first_national", subscription.PlanStarter)

		rr := do(t, e.handler, http.MethodPost, "/compliance/mode", key, map[string]string{"mode": "lenient"})
		require.Equal(t, http.StatusUnprocessableEntity, rr.Code)
		assert.Contains(t, decode(t, rr).Error.Details, "mode")
	})
}

func TestWebhooks(t *testing.T) {
	t.Parallel()

	t.Run("sets and clears the endpoint", func(t *testing.T) {
		t.Parallel()
		e := newEnv(t)
		key := e.activate(t, "first_national", subscription.PlanStarter)

		rr := do(t, e.handler, http.MethodPut, "/webhooks", key, map[string]string{"url": "https://hooks.firstnational.example/bvai"})
		require.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "https://hooks.firstnational.example/bvai", dataAs[subscriptionBody](t, rr).WebhookURL)

		rr = do(t, e.handler, http.MethodPut, "/webhooks", key, map[string]string{"url": ""})
		require.Equal(t, http.StatusOK, rr.Code)
		assert.Empty(t, dataAs[subscriptionBody](t, rr).WebhookURL)
	})

	t.Run("rejects plain http", func(t *testing.T) {
		t.Parallel()
		e := newEnv(t)
		key := e.activate(t, "first_national", subscription.PlanStarter)

		rr := do(t, e.handler, http.MethodPut, "/webhooks", key, map[string]string{"url": "http://insecure.example"})
		require.Equal(t, http.StatusUnprocessableEntity, rr.Code)
		assert.Contains(t, decode(t, rr).Error.Details, "url")
	})
}

func TestEscalationPolicy(t *testing.T) {
	t.Parallel()

	t.Run("replaces the policy", func(t *testing.T) {
		t.Parallel()
		e := newEnv(t)
		key := e.activate(t, "first_national", subscription.PlanStarter)

		rr := do(t, e.handler, http.MethodPut, "/escalation-policy", key, map[string]any{
			"trigger_keywords":    []string{"lawyer", "ombudsman"},
			"sentiment_threshold": -0.5,
			"max_wait_seconds":    120,
		})
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

		body := dataAs[subscriptionBody](t, rr)
		assert.Equal(t, []string{"lawyer", "ombudsman"}, body.EscalationPolicy.TriggerKeywords)
		assert.InDelta(t, -0.5, body.EscalationPolicy.SentimentThreshold, 0.001)
		assert.Equal(t, 120, body.EscalationPolicy.MaxWaitSeconds)
	})

	t.Run("rejects out-of-range threshold", func(t *testing.T) {
		t.Parallel()
		e := newEnv(t)
		key := e.activate(t, "first_national", subscription.PlanStarter)

		rr := do(t, e.handler, http.MethodPut, "/escalation-policy", key, map[string]any{
			"sentiment_threshold": 0.7,
			"max_wait_seconds":    -1,
		})
		require.Equal(t, http.StatusUnprocessableEntity, rr.Code)

		details := decode(t, rr).Error.Details
		assert.Contains(t, details, "sentiment_threshold")
		assert.Contains(t, details, "max_wait_seconds")
	})
}
