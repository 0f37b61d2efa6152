package binder

import (
	"fmt"
	"mime"
	"net/http"
)

// Form decodes an application/x-www-form-urlencoded request body into v
// using `form` struct tags. Fields without a tag bind to their lowercased
// name; `form:"-"` skips a field. Multi-value fields bind to slices, and
// pointer fields stay nil when the value is absent.
func Form(r *http.Request, v any) error {
	contentType := r.Header.Get("Content-Type")
	if contentType == "" {
		return fmt.Errorf("%w: expected application/x-www-form-urlencoded", ErrMissingContentType)
	}

	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil || mediaType != "application/x-www-form-urlencoded" {
		return fmt.Errorf("%w: got %s, expected application/x-www-form-urlencoded", ErrUnsupportedMediaType, contentType)
	}

	if err := r.ParseForm(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidForm, err)
	}

	return bindValues(v, "form", r.PostForm, ErrInvalidForm)
}
