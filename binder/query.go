package binder

import "net/http"

// Query decodes URL query parameters into v using `query` struct tags.
// Repeated parameters and comma-separated values both bind to slices.
func Query(r *http.Request, v any) error {
	return bindValues(v, "query", r.URL.Query(), ErrInvalidQuery)
}
