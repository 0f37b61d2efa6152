package logger_test

import (
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bankvoiceai/platform/pkg/logger"
)

func TestGroup(t *testing.T) {
	attr := logger.Group("req", slog.String("id", "1"), slog.Int("n", 2))
	require.Equal(t, "req", attr.Key)
	require.Equal(t, slog.KindGroup, attr.Value.Kind())
	g := attr.Value.Group()
	require.Len(t, g, 2)
	assert.Equal(t, "id", g[0].Key)
	assert.Equal(t, "n", g[1].Key)
}

func TestErrors(t *testing.T) {
	err1 := errors.New("first")
	err2 := errors.New("second")

	attr := logger.Errors(err1, nil, err2)
	require.Equal(t, "errors", attr.Key)
	require.Equal(t, slog.KindGroup, attr.Value.Kind())
	g := attr.Value.Group()
	require.Len(t, g, 2)
	assert.Equal(t, err1, g[0].Value.Any())
	assert.Equal(t, err2, g[1].Value.Any())

	empty := logger.Errors(nil)
	assert.True(t, empty.Equal(slog.Attr{}))
}

func TestError(t *testing.T) {
	err := errors.New("boom")
	attr := logger.Error(err)
	require.Equal(t, "error", attr.Key)
	assert.Equal(t, err, attr.Value.Any())

	empty := logger.Error(nil)
	assert.True(t, empty.Equal(slog.Attr{}))
}

func TestTenantID(t *testing.T) {
	attr := logger.TenantID("firstnational")
	require.Equal(t, "tenant_id", attr.Key)
	assert.Equal(t, "firstnational", attr.Value.Any())

	empty := logger.TenantID("")
	assert.True(t, empty.Equal(slog.Attr{}))
}

func TestTxID(t *testing.T) {
	attr := logger.TxID("ABC123")
	require.Equal(t, "tx_id", attr.Key)
	assert.Equal(t, "ABC123", attr.Value.Any())

	empty := logger.TxID("")
	assert.True(t, empty.Equal(slog.Attr{}))
}

func TestSessionID(t *testing.T) {
	attr := logger.SessionID("sess-1")
	require.Equal(t, "session_id", attr.Key)
	assert.Equal(t, "sess-1", attr.Value.Any())
}

func TestRequestID(t *testing.T) {
	attr := logger.RequestID("abc")
	require.Equal(t, "request_id", attr.Key)
	assert.Equal(t, "abc", attr.Value.Any())
}

func TestIntentSpecialist(t *testing.T) {
	assert.Equal(t, "intent", logger.Intent("card_lost").Key)
	assert.Equal(t, "specialist", logger.Specialist("fraud_detection").Key)
	assert.Equal(t, "capability", logger.Capability("collections").Key)
}
