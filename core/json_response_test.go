package core_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bankvoiceai/platform/core"
)

func render(t *testing.T, resp core.Response) (*httptest.ResponseRecorder, core.JSONResponse) {
	t.Helper()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	require.NoError(t, resp.Render(rec, req))

	var body core.JSONResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec, body
}

func TestJSON(t *testing.T) {
	t.Parallel()

	t.Run("wraps data in a 200 envelope", func(t *testing.T) {
		t.Parallel()

		rec, body := render(t, core.JSON(map[string]string{"tenant_id": "bank1"}))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "application/json; charset=utf-8", rec.Header().Get("Content-Type"))
		assert.Nil(t, body.Error)
		data, ok := body.Data.(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "bank1", data["tenant_id"])
	})

	t.Run("explicit status", func(t *testing.T) {
		t.Parallel()

		rec, _ := render(t, core.JSONStatus(http.StatusCreated, "ok"))
		assert.Equal(t, http.StatusCreated, rec.Code)
	})

	t.Run("meta travels alongside data", func(t *testing.T) {
		t.Parallel()

		_, body := render(t, core.JSONMeta([]string{"a"}, map[string]any{"total": 1}))
		require.NotNil(t, body.Meta)
		assert.EqualValues(t, 1, body.Meta["total"])
	})
}

func TestError(t *testing.T) {
	t.Parallel()

	rec, body := render(t, core.Error(http.StatusPaymentRequired, "plan requires a verified payment"))

	assert.Equal(t, http.StatusPaymentRequired, rec.Code)
	require.NotNil(t, body.Error)
	assert.Equal(t, http.StatusPaymentRequired, body.Error.Code)
	assert.Equal(t, "plan requires a verified payment", body.Error.Message)
	assert.Nil(t, body.Data)
}

func TestJSONError(t *testing.T) {
	t.Parallel()

	t.Run("validation error becomes 422 with details", func(t *testing.T) {
		t.Parallel()

		valErr := core.NewValidationError()
		valErr.Add("tenant_id", "must be a lowercase slug")
		valErr.Add("plan", "unknown plan")

		rec, body := render(t, core.JSONError(valErr))

		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		require.NotNil(t, body.Error)
		assert.Equal(t, "validation failed", body.Error.Message)
		assert.Equal(t, []string{"must be a lowercase slug"}, body.Error.Details["tenant_id"])
		assert.Equal(t, []string{"unknown plan"}, body.Error.Details["plan"])
	})

	t.Run("wrapped validation error unwraps", func(t *testing.T) {
		t.Parallel()

		valErr := core.NewValidationError()
		valErr.Add("memo", "missing tenant segment")

		rec, _ := render(t, core.JSONError(errors.Join(errors.New("decode"), valErr)))
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})

	t.Run("http error keeps its status", func(t *testing.T) {
		t.Parallel()

		rec, body := render(t, core.JSONError(core.ErrNotFound.WithMessage("subscription not found")))

		assert.Equal(t, http.StatusNotFound, rec.Code)
		require.NotNil(t, body.Error)
		assert.Equal(t, "subscription not found", body.Error.Message)
	})

	t.Run("unknown errors never leak their cause", func(t *testing.T) {
		t.Parallel()

		rec, body := render(t, core.JSONError(errors.New("pq: connection refused")))

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		require.NotNil(t, body.Error)
		assert.Equal(t, "internal server error", body.Error.Message)
		assert.NotContains(t, body.Error.Message, "pq:")
	})
}

func TestHTTPError(t *testing.T) {
	t.Parallel()

	t.Run("empty message falls back to status text", func(t *testing.T) {
		t.Parallel()

		assert.Equal(t, "Too Many Requests", core.ErrTooManyRequests.Error())
	})

	t.Run("with message does not mutate the original", func(t *testing.T) {
		t.Parallel()

		specific := core.ErrForbidden.WithMessage("capability collections not enabled")
		assert.Equal(t, "capability collections not enabled", specific.Message)
		assert.Equal(t, "Forbidden", core.ErrForbidden.Message)
	})
}
