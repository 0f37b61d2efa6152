package subscription_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bankvoiceai/platform/pkg/apikey"
	"github.com/bankvoiceai/platform/svc/subscription"
)

var testTime = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func newRegistry(t *testing.T, opts ...subscription.RegistryOption) (*subscription.Registry, *subscription.MemoryStore) {
	t.Helper()
	store := subscription.NewMemoryStore()
	opts = append([]subscription.RegistryOption{
		subscription.WithClock(func() time.Time { return testTime }),
	}, opts...)
	return subscription.NewRegistry(store, subscription.DefaultCatalog(), "test-secret", opts...), store
}

func TestNewRegistry(t *testing.T) {
	t.Parallel()

	t.Run("panics without store", func(t *testing.T) {
		t.Parallel()
		assert.Panics(t, func() {
			subscription.NewRegistry(nil, subscription.DefaultCatalog(), "secret")
		})
	})

	t.Run("panics without secret", func(t *testing.T) {
		t.Parallel()
		assert.Panics(t, func() {
			subscription.NewRegistry(subscription.NewMemoryStore(), subscription.DefaultCatalog(), "")
		})
	})

	t.Run("panics on empty catalog", func(t *testing.T) {
		t.Parallel()
		assert.Panics(t, func() {
			subscription.NewRegistry(subscription.NewMemoryStore(), subscription.Catalog{}, "secret")
		})
	})
}

func TestRegistryCreate(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("free tier starts in trial status", func(t *testing.T) {
		t.Parallel()
		reg, store := newRegistry(t)

		sub, err := reg.Create(ctx, "first_national", subscription.PlanTrial, "First National Bank")
		require.NoError(t, err)

		assert.Equal(t, subscription.StatusTrial, sub.Status)
		assert.Equal(t, subscription.PlanTrial, sub.Plan)
		assert.Equal(t, testTime.AddDate(0, 0, 30), sub.ExpiresAt)
		assert.Equal(t, subscription.ComplianceStrict, sub.ComplianceMode)
		assert.ElementsMatch(t, []subscription.Capability{
			subscription.CapabilityCustomerService,
			subscription.CapabilityFraudDetection,
		}, sub.EnabledCapabilities)

		require.Len(t, sub.Credentials, 1)
		require.NoError(t, apikey.Validate(sub.Credentials[0].Key))

		tenantID, err := store.ResolveCredential(ctx, sub.Credentials[0].Key)
		require.NoError(t, err)
		assert.Equal(t, "first_national", tenantID)
	})

	t.Run("paid tier starts active", func(t *testing.T) {
		t.Parallel()
		reg, _ := newRegistry(t)

		sub, err := reg.Create(ctx, "acme", subscription.PlanGrowth, "Acme Credit Union")
		require.NoError(t, err)

		assert.Equal(t, subscription.StatusActive, sub.Status)
		assert.True(t, sub.IsActiveAt(testTime))
		assert.Len(t, sub.EnabledCapabilities, 6)
	})

	t.Run("rejects duplicate tenant", func(t *testing.T) {
		t.Parallel()
		reg, _ := newRegistry(t)

		_, err := reg.Create(ctx, "acme", subscription.PlanTrial, "Acme")
		require.NoError(t, err)

		_, err = reg.Create(ctx, "acme", subscription.PlanStarter, "Acme")
		assert.ErrorIs(t, err, subscription.ErrAlreadyExists)
	})

	t.Run("rejects malformed tenant id", func(t *testing.T) {
		t.Parallel()
		reg, _ := newRegistry(t)

		for _, id := range []string{"", "Acme Bank", "UPPER", "-leading", "a"} {
			_, err := reg.Create(ctx, id, subscription.PlanTrial, "x")
			assert.ErrorIs(t, err, subscription.ErrInvalidTenantID, "id %q", id)
		}
	})

	t.Run("rejects unknown plan", func(t *testing.T) {
		t.Parallel()
		reg, _ := newRegistry(t)

		_, err := reg.Create(ctx, "acme", "platinum", "Acme")
		assert.ErrorIs(t, err, subscription.ErrPlanNotFound)
	})
}

func TestRegistryChangePlan(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("downgrade clamps capabilities to new ceiling", func(t *testing.T) {
		t.Parallel()
		reg, _ := newRegistry(t)

		created, err := reg.Create(ctx, "acme", subscription.PlanGrowth, "Acme")
		require.NoError(t, err)
		expiresAt := created.ExpiresAt

		sub, err := reg.ChangePlan(ctx, "acme", subscription.PlanStarter)
		require.NoError(t, err)

		assert.Equal(t, subscription.PlanStarter, sub.Plan)
		assert.ElementsMatch(t, []subscription.Capability{
			subscription.CapabilityCustomerService,
			subscription.CapabilityFraudDetection,
			subscription.CapabilityOnboarding,
		}, sub.EnabledCapabilities)
		assert.False(t, sub.HasCapability(subscription.CapabilityCollections))

		// Plan changes never move the expiry date.
		assert.Equal(t, expiresAt, sub.ExpiresAt)
	})

	t.Run("upgrade grants the new ceiling", func(t *testing.T) {
		t.Parallel()
		reg, _ := newRegistry(t)

		_, err := reg.Create(ctx, "acme", subscription.PlanTrial, "Acme")
		require.NoError(t, err)

		sub, err := reg.ChangePlan(ctx, "acme", subscription.PlanEnterprise)
		require.NoError(t, err)
		assert.True(t, sub.HasCapability(subscription.CapabilityOrchestrator))
	})

	t.Run("unknown tenant", func(t *testing.T) {
		t.Parallel()
		reg, _ := newRegistry(t)

		_, err := reg.ChangePlan(ctx, "ghost", subscription.PlanStarter)
		assert.ErrorIs(t, err, subscription.ErrNotFound)
	})
}

func TestRegistryToggleCapability(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("enable outside ceiling is denied", func(t *testing.T) {
		t.Parallel()
		reg, _ := newRegistry(t)

		_, err := reg.Create(ctx, "acme", subscription.PlanTrial, "Acme")
		require.NoError(t, err)

		_, err = reg.ToggleCapability(ctx, "acme", subscription.CapabilityCollections, true)
		assert.ErrorIs(t, err, subscription.ErrCapabilityNotInPlan)
	})

	t.Run("disable then re-enable inside ceiling", func(t *testing.T) {
		t.Parallel()
		reg, _ := newRegistry(t)

		_, err := reg.Create(ctx, "acme", subscription.PlanGrowth, "Acme")
		require.NoError(t, err)

		sub, err := reg.ToggleCapability(ctx, "acme", subscription.CapabilitySales, false)
		require.NoError(t, err)
		assert.False(t, sub.HasCapability(subscription.CapabilitySales))

		sub, err = reg.ToggleCapability(ctx, "acme", subscription.CapabilitySales, true)
		require.NoError(t, err)
		assert.True(t, sub.HasCapability(subscription.CapabilitySales))
	})

	t.Run("enable is idempotent", func(t *testing.T) {
		t.Parallel()
		reg, _ := newRegistry(t)

		_, err := reg.Create(ctx, "acme", subscription.PlanGrowth, "Acme")
		require.NoError(t, err)

		sub, err := reg.ToggleCapability(ctx, "acme", subscription.CapabilitySales, true)
		require.NoError(t, err)

		count := 0
		for _, c := range sub.EnabledCapabilities {
			if c == subscription.CapabilitySales {
				count++
			}
		}
		assert.Equal(t, 1, count)
	})

	t.Run("unknown capability", func(t *testing.T) {
		t.Parallel()
		reg, _ := newRegistry(t)

		_, err := reg.ToggleCapability(ctx, "acme", "telepathy", true)
		assert.ErrorIs(t, err, subscription.ErrUnknownCapability)
	})
}

func TestRegistryRenew(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("extends a live subscription from its expiry", func(t *testing.T) {
		t.Parallel()
		reg, _ := newRegistry(t)

		created, err := reg.Create(ctx, "acme", subscription.PlanStarter, "Acme")
		require.NoError(t, err)

		sub, err := reg.Renew(ctx, "acme", 30)
		require.NoError(t, err)
		assert.Equal(t, created.ExpiresAt.AddDate(0, 0, 30), sub.ExpiresAt)
		assert.Equal(t, subscription.StatusActive, sub.Status)
	})

	t.Run("lapsed subscription restarts from now", func(t *testing.T) {
		t.Parallel()
		reg, store := newRegistry(t)

		_, err := reg.Create(ctx, "acme", subscription.PlanStarter, "Acme")
		require.NoError(t, err)

		// Age the record past its expiry.
		sub, err := store.Get(ctx, "acme")
		require.NoError(t, err)
		sub.ExpiresAt = testTime.AddDate(0, 0, -10)
		require.NoError(t, store.Save(ctx, sub))

		renewed, err := reg.Renew(ctx, "acme", 30)
		require.NoError(t, err)
		assert.Equal(t, testTime.AddDate(0, 0, 30), renewed.ExpiresAt)
		assert.True(t, renewed.IsActiveAt(testTime))
	})
}

func TestRegistryActivate(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("upgrades a trial in place", func(t *testing.T) {
		t.Parallel()
		reg, store := newRegistry(t)

		trial, err := reg.Create(ctx, "acme", subscription.PlanTrial, "Acme")
		require.NoError(t, err)
		trialKey := trial.Credentials[0].Key

		sub, key, err := reg.Activate(ctx, "acme", subscription.PlanGrowth, "")
		require.NoError(t, err)

		assert.Equal(t, subscription.StatusActive, sub.Status)
		assert.Equal(t, subscription.PlanGrowth, sub.Plan)
		assert.Equal(t, "Acme", sub.DisplayName)
		assert.NotEqual(t, trialKey, key)
		assert.Equal(t, key, sub.LatestCredential())

		tenantID, err := store.ResolveCredential(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, "acme", tenantID)
	})

	t.Run("creates unknown tenant on first payment", func(t *testing.T) {
		t.Parallel()
		reg, _ := newRegistry(t)

		sub, key, err := reg.Activate(ctx, "fresh_bank", subscription.PlanStarter, "Fresh Bank")
		require.NoError(t, err)

		assert.Equal(t, subscription.StatusActive, sub.Status)
		assert.Equal(t, testTime.AddDate(0, 0, 30), sub.ExpiresAt)
		require.NoError(t, apikey.Validate(key))
	})

	t.Run("unknown plan", func(t *testing.T) {
		t.Parallel()
		reg, _ := newRegistry(t)

		_, _, err := reg.Activate(ctx, "acme", "platinum", "Acme")
		assert.ErrorIs(t, err, subscription.ErrPlanNotFound)
	})
}

func TestRegistryRotateCredential(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("appends until ceiling then trims oldest", func(t *testing.T) {
		t.Parallel()
		reg, store := newRegistry(t)

		// Starter allows two keys.
		created, err := reg.Create(ctx, "acme", subscription.PlanStarter, "Acme")
		require.NoError(t, err)
		firstKey := created.Credentials[0].Key

		secondKey, err := reg.RotateCredential(ctx, "acme")
		require.NoError(t, err)

		sub, err := reg.Get(ctx, "acme")
		require.NoError(t, err)
		assert.Equal(t, []string{firstKey, secondKey}, sub.CredentialKeys())

		thirdKey, err := reg.RotateCredential(ctx, "acme")
		require.NoError(t, err)

		sub, err = reg.Get(ctx, "acme")
		require.NoError(t, err)
		assert.Equal(t, []string{secondKey, thirdKey}, sub.CredentialKeys())

		// The trimmed key left the reverse index, the survivors did not.
		_, err = store.ResolveCredential(ctx, firstKey)
		assert.ErrorIs(t, err, subscription.ErrCredentialNotFound)
		for _, key := range []string{secondKey, thirdKey} {
			tenantID, err := store.ResolveCredential(ctx, key)
			require.NoError(t, err)
			assert.Equal(t, "acme", tenantID)
		}
	})

	t.Run("unlimited plan never trims", func(t *testing.T) {
		t.Parallel()
		reg, _ := newRegistry(t)

		_, err := reg.Create(ctx, "acme", subscription.PlanEnterprise, "Acme")
		require.NoError(t, err)

		for range 5 {
			_, err := reg.RotateCredential(ctx, "acme")
			require.NoError(t, err)
		}

		sub, err := reg.Get(ctx, "acme")
		require.NoError(t, err)
		assert.Len(t, sub.Credentials, 6)
	})
}

func TestRegistryRevokeCredential(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	reg, store := newRegistry(t)

	created, err := reg.Create(ctx, "acme", subscription.PlanStarter, "Acme")
	require.NoError(t, err)
	key := created.Credentials[0].Key

	require.NoError(t, reg.RevokeCredential(ctx, "acme", key))

	sub, err := reg.Get(ctx, "acme")
	require.NoError(t, err)
	assert.Empty(t, sub.Credentials)

	_, err = store.ResolveCredential(ctx, key)
	assert.ErrorIs(t, err, subscription.ErrCredentialNotFound)

	assert.ErrorIs(t, reg.RevokeCredential(ctx, "acme", key), subscription.ErrCredentialNotFound)
}

func TestRegistryLifecycle(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("cancel records the reason", func(t *testing.T) {
		t.Parallel()
		reg, _ := newRegistry(t)

		_, err := reg.Create(ctx, "acme", subscription.PlanStarter, "Acme")
		require.NoError(t, err)

		sub, err := reg.Cancel(ctx, "acme", "refund requested")
		require.NoError(t, err)

		assert.Equal(t, subscription.StatusCancelled, sub.Status)
		assert.Equal(t, "refund requested", sub.Metadata["cancel_reason"])
		assert.NotEmpty(t, sub.Metadata["cancelled_at"])
		assert.False(t, sub.IsActiveAt(testTime))
	})

	t.Run("suspend and resume", func(t *testing.T) {
		t.Parallel()
		reg, _ := newRegistry(t)

		_, err := reg.Create(ctx, "acme", subscription.PlanStarter, "Acme")
		require.NoError(t, err)

		sub, err := reg.Suspend(ctx, "acme")
		require.NoError(t, err)
		assert.Equal(t, subscription.StatusSuspended, sub.Status)
		assert.False(t, sub.IsActiveAt(testTime))

		sub, err = reg.Resume(ctx, "acme")
		require.NoError(t, err)
		assert.Equal(t, subscription.StatusActive, sub.Status)
	})

	t.Run("cannot suspend a cancelled subscription", func(t *testing.T) {
		t.Parallel()
		reg, _ := newRegistry(t)

		_, err := reg.Create(ctx, "acme", subscription.PlanStarter, "Acme")
		require.NoError(t, err)
		_, err = reg.Cancel(ctx, "acme", "")
		require.NoError(t, err)

		_, err = reg.Suspend(ctx, "acme")
		assert.ErrorIs(t, err, subscription.ErrInvalidStatus)
	})

	t.Run("cannot resume an active subscription", func(t *testing.T) {
		t.Parallel()
		reg, _ := newRegistry(t)

		_, err := reg.Create(ctx, "acme", subscription.PlanStarter, "Acme")
		require.NoError(t, err)

		_, err = reg.Resume(ctx, "acme")
		assert.ErrorIs(t, err, subscription.ErrInvalidStatus)
	})
}

func TestRegistrySettings(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("compliance mode", func(t *testing.T) {
		t.Parallel()
		reg, _ := newRegistry(t)

		_, err := reg.Create(ctx, "acme", subscription.PlanStarter, "Acme")
		require.NoError(t, err)

		sub, err := reg.SetComplianceMode(ctx, "acme", subscription.ComplianceAssistive)
		require.NoError(t, err)
		assert.Equal(t, subscription.ComplianceAssistive, sub.ComplianceMode)

		_, err = reg.SetComplianceMode(ctx, "acme", "lenient")
		assert.ErrorIs(t, err, subscription.ErrInvalidComplianceMode)
	})

	t.Run("webhook URL must be https", func(t *testing.T) {
		t.Parallel()
		reg, _ := newRegistry(t)

		_, err := reg.Create(ctx, "acme", subscription.PlanStarter, "Acme")
		require.NoError(t, err)

		sub, err := reg.SetWebhookURL(ctx, "acme", "https://hooks.acme.example/bvai")
		require.NoError(t, err)
		assert.Equal(t, "https://hooks.acme.example/bvai", sub.WebhookURL)

		_, err = reg.SetWebhookURL(ctx, "acme", "http://hooks.acme.example/bvai")
		assert.ErrorIs(t, err, subscription.ErrInvalidWebhookURL)

		// Empty clears.
		sub, err = reg.SetWebhookURL(ctx, "acme", "")
		require.NoError(t, err)
		assert.Empty(t, sub.WebhookURL)
	})

	t.Run("escalation policy and contact email", func(t *testing.T) {
		t.Parallel()
		reg, _ := newRegistry(t)

		_, err := reg.Create(ctx, "acme", subscription.PlanStarter, "Acme")
		require.NoError(t, err)

		policy := subscription.EscalationPolicy{
			TriggerKeywords:    []string{"supervisor"},
			SentimentThreshold: -0.5,
			MaxWaitSeconds:     5,
		}
		sub, err := reg.SetEscalationPolicy(ctx, "acme", policy)
		require.NoError(t, err)
		assert.Equal(t, policy, sub.EscalationPolicy)

		sub, err = reg.SetContactEmail(ctx, "acme", "ops@acme.example")
		require.NoError(t, err)
		assert.Equal(t, "ops@acme.example", sub.ContactEmail)
	})
}
