package audit_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bankvoiceai/platform/pkg/audit"
)

var auditTime = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func testEvent() audit.Event {
	return audit.Event{
		ID:         uuid.MustParse("a2f1bfae-0c9c-4c3b-9d1e-6a3f6f0c0001"),
		TenantID:   "first_national",
		Actor:      "tenant:first_national",
		SessionID:  "sess-100",
		Action:     "payment.verified",
		Resource:   "payment",
		ResourceID: "tx-42",
		Result:     audit.ResultSuccess,
		CreatedAt:  auditTime,
	}
}

func TestEventValidate(t *testing.T) {
	t.Parallel()

	t.Run("complete event passes", func(t *testing.T) {
		t.Parallel()
		event := testEvent()
		require.NoError(t, event.Validate())
	})

	t.Run("action is required", func(t *testing.T) {
		t.Parallel()
		event := testEvent()
		event.Action = ""
		assert.ErrorIs(t, event.Validate(), audit.ErrInvalidEvent)
	})

	t.Run("actor is required", func(t *testing.T) {
		t.Parallel()
		event := testEvent()
		event.Actor = ""
		assert.ErrorIs(t, event.Validate(), audit.ErrInvalidEvent)
	})

	t.Run("result must be a known value", func(t *testing.T) {
		t.Parallel()
		event := testEvent()
		event.Result = "partial"
		assert.ErrorIs(t, event.Validate(), audit.ErrInvalidEvent)
	})

	t.Run("all results are accepted", func(t *testing.T) {
		t.Parallel()
		for _, result := range []audit.Result{audit.ResultSuccess, audit.ResultFailure, audit.ResultDenied} {
			event := testEvent()
			event.Result = result
			assert.NoError(t, event.Validate())
		}
	})
}

func TestTenantActor(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "tenant:first_national", audit.TenantActor("first_national"))
}

func TestChecksum(t *testing.T) {
	t.Parallel()

	t.Run("deterministic for equal events", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, audit.Checksum(testEvent()), audit.Checksum(testEvent()))
	})

	t.Run("verify accepts an untouched event", func(t *testing.T) {
		t.Parallel()
		event := testEvent()
		event.Checksum = audit.Checksum(event)
		assert.True(t, audit.VerifyChecksum(event))
	})

	t.Run("verify rejects a modified event", func(t *testing.T) {
		t.Parallel()
		event := testEvent()
		event.Checksum = audit.Checksum(event)

		event.Action = "payment.refunded"
		assert.False(t, audit.VerifyChecksum(event))
	})

	t.Run("verify rejects a missing checksum", func(t *testing.T) {
		t.Parallel()
		assert.False(t, audit.VerifyChecksum(testEvent()))
	})

	t.Run("metadata does not contribute to the digest", func(t *testing.T) {
		t.Parallel()
		event := testEvent()
		event.Checksum = audit.Checksum(event)

		event.Metadata = map[string]any{"plan": "professional"}
		assert.True(t, audit.VerifyChecksum(event))
	})
}
