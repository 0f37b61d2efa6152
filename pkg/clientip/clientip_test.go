package clientip_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bankvoiceai/platform/pkg/clientip"
)

func TestFromRequest(t *testing.T) {
	t.Parallel()

	newRequest := func(headers map[string]string) *http.Request {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.RemoteAddr = "203.0.113.7:52100"
		for k, v := range headers {
			r.Header.Set(k, v)
		}
		return r
	}

	tests := []struct {
		name    string
		headers map[string]string
		want    string
	}{
		{
			name: "cloudflare header wins",
			headers: map[string]string{
				"CF-Connecting-IP": "198.51.100.1",
				"X-Forwarded-For":  "192.0.2.44",
			},
			want: "198.51.100.1",
		},
		{
			name:    "true client ip",
			headers: map[string]string{"True-Client-IP": "198.51.100.2"},
			want:    "198.51.100.2",
		},
		{
			name:    "first valid forwarded entry",
			headers: map[string]string{"X-Forwarded-For": "not-an-ip, 192.0.2.44, 10.0.0.1"},
			want:    "192.0.2.44",
		},
		{
			name:    "real ip fallback",
			headers: map[string]string{"X-Real-IP": "192.0.2.99"},
			want:    "192.0.2.99",
		},
		{
			name: "remote addr when no headers",
			want: "203.0.113.7",
		},
		{
			name:    "invalid header falls through to remote addr",
			headers: map[string]string{"CF-Connecting-IP": "<script>"},
			want:    "203.0.113.7",
		},
		{
			name:    "ipv6 normalized",
			headers: map[string]string{"X-Forwarded-For": "2001:db8:0:0:0:0:0:1"},
			want:    "2001:db8::1",
		},
		{
			name:    "ipv6 with brackets and port",
			headers: map[string]string{"X-Real-IP": "[2001:db8::2]:443"},
			want:    "2001:db8::2",
		},
		{
			name:    "zone identifier stripped",
			headers: map[string]string{"X-Real-IP": "fe80::1%eth0"},
			want:    "fe80::1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, clientip.FromRequest(newRequest(tt.headers)))
		})
	}

	t.Run("bare remote addr without port", func(t *testing.T) {
		t.Parallel()

		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.RemoteAddr = "192.0.2.10"
		assert.Equal(t, "192.0.2.10", clientip.FromRequest(r))
	})
}

func TestMiddleware(t *testing.T) {
	t.Parallel()

	var seen string
	handler := clientip.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = clientip.FromContext(r.Context())
	}))

	r := httptest.NewRequest(http.MethodPost, "/payments/verify", nil)
	r.Header.Set("X-Forwarded-For", "198.51.100.7")
	handler.ServeHTTP(httptest.NewRecorder(), r)

	require.Equal(t, "198.51.100.7", seen)
	assert.Empty(t, clientip.FromContext(t.Context()))
}
