package audit_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bankvoiceai/platform/pkg/audit"
)

type recordingStorage struct {
	mu     sync.Mutex
	events []audit.Event
	err    error
}

func (s *recordingStorage) Store(_ context.Context, event audit.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.events = append(s.events, event)
	return nil
}

func (s *recordingStorage) last(t *testing.T) audit.Event {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	require.NotEmpty(t, s.events)
	return s.events[len(s.events)-1]
}

type tenantKey struct{}

func tenantFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(tenantKey{}).(string)
	return id, ok
}

func newTestLogger(t *testing.T, opts ...audit.Option) (*audit.Logger, *recordingStorage) {
	t.Helper()
	storage := &recordingStorage{}
	opts = append([]audit.Option{audit.WithClock(func() time.Time { return auditTime })}, opts...)
	return audit.NewLogger(storage, opts...), storage
}

func TestNewLogger(t *testing.T) {
	t.Parallel()

	t.Run("panics on nil storage", func(t *testing.T) {
		t.Parallel()
		assert.Panics(t, func() { audit.NewLogger(nil) })
	})
}

func TestLoggerLog(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("fills defaults", func(t *testing.T) {
		t.Parallel()
		logger, storage := newTestLogger(t)

		require.NoError(t, logger.Log(ctx, "subscription.updated"))

		event := storage.last(t)
		assert.NotEmpty(t, event.ID)
		assert.Equal(t, "subscription.updated", event.Action)
		assert.Equal(t, audit.ActorSystem, event.Actor)
		assert.Equal(t, audit.ResultSuccess, event.Result)
		assert.True(t, event.CreatedAt.Equal(auditTime))
		assert.True(t, audit.VerifyChecksum(event))
	})

	t.Run("event options apply", func(t *testing.T) {
		t.Parallel()
		logger, storage := newTestLogger(t)

		require.NoError(t, logger.Log(ctx, "payment.verified",
			audit.WithTenant("first_national"),
			audit.WithResource("payment", "tx-42"),
			audit.WithSessionID("sess-100"),
			audit.WithMetadata("plan", "professional"),
		))

		event := storage.last(t)
		assert.Equal(t, "first_national", event.TenantID)
		assert.Equal(t, "tenant:first_national", event.Actor)
		assert.Equal(t, "payment", event.Resource)
		assert.Equal(t, "tx-42", event.ResourceID)
		assert.Equal(t, "sess-100", event.SessionID)
		assert.Equal(t, "professional", event.Metadata["plan"])
	})

	t.Run("extractors fill from context", func(t *testing.T) {
		t.Parallel()
		logger, storage := newTestLogger(t, audit.WithExtractors(
			audit.TenantExtractor(tenantFromContext),
			audit.RequestIDExtractor(func(context.Context) string { return "req-7" }),
			audit.ClientIPExtractor(func(context.Context) string { return "203.0.113.9" }),
		))

		tenantCtx := context.WithValue(ctx, tenantKey{}, "first_national")
		require.NoError(t, logger.Log(tenantCtx, "capability.toggled"))

		event := storage.last(t)
		assert.Equal(t, "first_national", event.TenantID)
		assert.Equal(t, "tenant:first_national", event.Actor)
		assert.Equal(t, "req-7", event.RequestID)
		assert.Equal(t, "203.0.113.9", event.IP)
	})

	t.Run("explicit actor survives the tenant extractor", func(t *testing.T) {
		t.Parallel()
		logger, storage := newTestLogger(t, audit.WithExtractors(
			audit.TenantExtractor(tenantFromContext),
		))

		tenantCtx := context.WithValue(ctx, tenantKey{}, "first_national")
		require.NoError(t, logger.Log(tenantCtx, "tenant.suspended", audit.WithActor(audit.ActorOperator)))

		event := storage.last(t)
		assert.Equal(t, "first_national", event.TenantID)
		assert.Equal(t, audit.ActorOperator, event.Actor)
	})

	t.Run("metadata passes through the pii filter", func(t *testing.T) {
		t.Parallel()
		logger, storage := newTestLogger(t)

		require.NoError(t, logger.Log(ctx, "account.lookup",
			audit.WithMetadata("account_number", "9876543210"),
			audit.WithMetadata("api_key", "bvai_secret"),
		))

		event := storage.last(t)
		assert.Equal(t, "******3210", event.Metadata["account_number"])
		assert.NotContains(t, event.Metadata, "api_key")
	})

	t.Run("nil filter disables filtering", func(t *testing.T) {
		t.Parallel()
		logger, storage := newTestLogger(t, audit.WithMetadataFilter(nil))

		require.NoError(t, logger.Log(ctx, "account.lookup",
			audit.WithMetadata("account_number", "9876543210"),
		))

		assert.Equal(t, "9876543210", storage.last(t).Metadata["account_number"])
	})

	t.Run("invalid event never reaches storage", func(t *testing.T) {
		t.Parallel()
		logger, storage := newTestLogger(t)

		err := logger.Log(ctx, "")
		assert.ErrorIs(t, err, audit.ErrInvalidEvent)
		assert.Empty(t, storage.events)
	})

	t.Run("storage failure is reported", func(t *testing.T) {
		t.Parallel()
		storage := &recordingStorage{err: errors.New("connection refused")}
		logger := audit.NewLogger(storage)

		err := logger.Log(ctx, "payment.verified")
		assert.ErrorIs(t, err, audit.ErrStorageUnavailable)
	})
}

func TestLoggerLogError(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("records the failure cause", func(t *testing.T) {
		t.Parallel()
		logger, storage := newTestLogger(t)

		require.NoError(t, logger.LogError(ctx, "payment.verify", errors.New("tx not found")))

		event := storage.last(t)
		assert.Equal(t, audit.ResultFailure, event.Result)
		assert.Equal(t, "tx not found", event.Error)
	})

	t.Run("result can be overridden to denied", func(t *testing.T) {
		t.Parallel()
		logger, storage := newTestLogger(t)

		require.NoError(t, logger.LogError(ctx, "capability.toggle",
			errors.New("capability not included in plan"),
			audit.WithResult(audit.ResultDenied)))

		assert.Equal(t, audit.ResultDenied, storage.last(t).Result)
	})
}
