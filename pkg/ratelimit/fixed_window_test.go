package ratelimit_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bankvoiceai/platform/pkg/ratelimit"
)

func newFixedWindow(t *testing.T, limit int, window time.Duration) *ratelimit.FixedWindow {
	t.Helper()
	store := ratelimit.NewMemoryStore(ratelimit.WithCleanupInterval(0))
	t.Cleanup(store.Close)

	fw, err := ratelimit.NewFixedWindow(store, limit, window)
	require.NoError(t, err)
	return fw
}

func TestFixedWindow(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("admits up to the limit", func(t *testing.T) {
		t.Parallel()
		fw := newFixedWindow(t, 2, time.Minute)

		for i := 0; i < 2; i++ {
			res, err := fw.Allow(ctx, "10.0.0.1")
			require.NoError(t, err)
			assert.True(t, res.Allowed)
		}

		res, err := fw.Allow(ctx, "10.0.0.1")
		require.NoError(t, err)
		assert.False(t, res.Allowed)
		assert.Equal(t, 0, res.Remaining)
	})

	t.Run("window expiry reopens the key", func(t *testing.T) {
		t.Parallel()
		fw := newFixedWindow(t, 1, 30*time.Millisecond)

		res, err := fw.Allow(ctx, "10.0.0.2")
		require.NoError(t, err)
		require.True(t, res.Allowed)

		res, err = fw.Allow(ctx, "10.0.0.2")
		require.NoError(t, err)
		require.False(t, res.Allowed)

		time.Sleep(50 * time.Millisecond)

		res, err = fw.Allow(ctx, "10.0.0.2")
		require.NoError(t, err)
		assert.True(t, res.Allowed)
	})

	t.Run("status does not consume", func(t *testing.T) {
		t.Parallel()
		fw := newFixedWindow(t, 2, time.Minute)

		for i := 0; i < 5; i++ {
			res, err := fw.Status(ctx, "10.0.0.3")
			require.NoError(t, err)
			assert.True(t, res.Allowed)
			assert.Equal(t, int64(0), res.Used)
		}

		_, err := fw.Allow(ctx, "10.0.0.3")
		require.NoError(t, err)

		res, err := fw.Status(ctx, "10.0.0.3")
		require.NoError(t, err)
		assert.Equal(t, int64(1), res.Used)
		assert.Equal(t, 1, res.Remaining)
	})

	t.Run("reset clears the counter", func(t *testing.T) {
		t.Parallel()
		fw := newFixedWindow(t, 1, time.Minute)

		_, err := fw.Allow(ctx, "10.0.0.4")
		require.NoError(t, err)
		require.NoError(t, fw.Reset(ctx, "10.0.0.4"))

		res, err := fw.Allow(ctx, "10.0.0.4")
		require.NoError(t, err)
		assert.True(t, res.Allowed)
	})

	t.Run("constructor validation", func(t *testing.T) {
		t.Parallel()
		store := ratelimit.NewMemoryStore(ratelimit.WithCleanupInterval(0))
		t.Cleanup(store.Close)

		_, err := ratelimit.NewFixedWindow(nil, 1, time.Minute)
		assert.ErrorIs(t, err, ratelimit.ErrStoreRequired)

		_, err = ratelimit.NewFixedWindow(store, 0, time.Minute)
		assert.ErrorIs(t, err, ratelimit.ErrInvalidLimit)

		_, err = ratelimit.NewFixedWindow(store, 1, 0)
		assert.ErrorIs(t, err, ratelimit.ErrInvalidWindow)
	})
}

// failingStore simulates a storage outage.
type failingStore struct{}

func (failingStore) IncrementAndGet(ctx context.Context, key string, incr int, window time.Duration) (int64, time.Duration, error) {
	return 0, 0, errors.Join(ratelimit.ErrStoreUnavailable, errors.New("connection refused"))
}

func (failingStore) Get(ctx context.Context, key string) (int64, time.Duration, error) {
	return 0, 0, ratelimit.ErrStoreUnavailable
}

func (failingStore) Delete(ctx context.Context, key string) error {
	return ratelimit.ErrStoreUnavailable
}

func TestMiddleware(t *testing.T) {
	t.Parallel()

	byRemoteAddr := func(r *http.Request) string { return r.RemoteAddr }
	okHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	t.Run("denies beyond the ceiling with headers", func(t *testing.T) {
		t.Parallel()
		fw := newFixedWindow(t, 2, time.Minute)
		handler := ratelimit.Middleware(fw, byRemoteAddr)(okHandler)

		for i := 0; i < 2; i++ {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = "10.1.1.1:1234"
			handler.ServeHTTP(rec, req)
			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, "2", rec.Header().Get("X-RateLimit-Limit"))
		}

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "10.1.1.1:1234"
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusTooManyRequests, rec.Code)
		assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))
		assert.NotEmpty(t, rec.Header().Get("Retry-After"))
	})

	t.Run("empty key passes through", func(t *testing.T) {
		t.Parallel()
		fw := newFixedWindow(t, 1, time.Minute)
		handler := ratelimit.Middleware(fw, func(*http.Request) string { return "" })(okHandler)

		for i := 0; i < 3; i++ {
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
			assert.Equal(t, http.StatusOK, rec.Code)
		}
	})

	t.Run("fails open on store errors", func(t *testing.T) {
		t.Parallel()
		fw, err := ratelimit.NewFixedWindow(failingStore{}, 1, time.Minute)
		require.NoError(t, err)
		handler := ratelimit.Middleware(fw, byRemoteAddr)(okHandler)

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "10.1.1.2:1234"
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestComposite(t *testing.T) {
	t.Parallel()

	byIP := func(r *http.Request) string { return "10.2.2.2" }
	byPath := func(r *http.Request) string { return r.URL.Path }

	t.Run("joins parts with colon", func(t *testing.T) {
		t.Parallel()
		key := ratelimit.Composite(byIP, byPath)(httptest.NewRequest(http.MethodGet, "/api/v1/payments", nil))
		assert.Equal(t, "10.2.2.2:/api/v1/payments", key)
	})

	t.Run("skips empty parts", func(t *testing.T) {
		t.Parallel()
		empty := func(*http.Request) string { return "" }
		key := ratelimit.Composite(empty, byIP)(httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, "10.2.2.2", key)
	})

	t.Run("hashes long keys", func(t *testing.T) {
		t.Parallel()
		long := func(*http.Request) string { return strings65() }
		key := ratelimit.Composite(long, byPath)(httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Len(t, key, 32)
	})

	t.Run("all empty yields empty", func(t *testing.T) {
		t.Parallel()
		empty := func(*http.Request) string { return "" }
		assert.Empty(t, ratelimit.Composite(empty)(httptest.NewRequest(http.MethodGet, "/", nil)))
	})
}

func strings65() string {
	out := make([]byte, 65)
	for i := range out {
		out[i] = 'a'
	}
	return string(out)
}
