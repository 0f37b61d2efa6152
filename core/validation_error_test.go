package core_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bankvoiceai/platform/core"
)

func TestValidationError(t *testing.T) {
	t.Parallel()

	t.Run("accumulates messages per field", func(t *testing.T) {
		t.Parallel()

		verr := core.NewValidationError()
		verr.Add("tenant_id", "required")
		verr.Add("tenant_id", "must be a lowercase slug")
		verr.Add("plan", "unknown plan")

		assert.True(t, verr.Has("tenant_id"))
		assert.True(t, verr.Has("plan"))
		assert.False(t, verr.Has("memo"))
		assert.Len(t, verr["tenant_id"], 2)
	})

	t.Run("error string is deterministic", func(t *testing.T) {
		t.Parallel()

		verr := core.NewValidationError()
		verr.Add("plan", "unknown plan")
		verr.Add("amount", "must be positive")

		first := verr.Error()
		for range 10 {
			assert.Equal(t, first, verr.Error())
		}
		assert.Contains(t, first, "amount")
		assert.Contains(t, first, "plan")
	})

	t.Run("empty error", func(t *testing.T) {
		t.Parallel()

		verr := core.NewValidationError()
		assert.True(t, verr.IsEmpty())
		assert.Equal(t, "validation failed", verr.Error())
	})

	t.Run("err returns nil when empty", func(t *testing.T) {
		t.Parallel()

		verr := core.NewValidationError()
		require.NoError(t, verr.Err())

		verr.Add("tx_id", "required")
		err := verr.Err()
		require.Error(t, err)

		var target core.ValidationError
		require.ErrorAs(t, err, &target)
		assert.True(t, target.Has("tx_id"))
	})

	t.Run("survives wrapping", func(t *testing.T) {
		t.Parallel()

		verr := core.NewValidationError()
		verr.Add("memo", "missing plan segment")
		wrapped := errors.Join(errors.New("bind"), verr)

		var target core.ValidationError
		require.ErrorAs(t, wrapped, &target)
		assert.Equal(t, []string{"missing plan segment"}, target["memo"])
	})
}
