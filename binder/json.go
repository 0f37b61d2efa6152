// Package binder decodes HTTP request payloads into plain structs.
//
// Each binder validates the request content type, decodes the payload and
// reports failures through the package sentinel errors so handlers can map
// them to client-facing responses:
//
//	var req initiateRequest
//	if err := binder.JSON(r, &req); err != nil {
//		return core.JSONError(core.ErrBadRequest.WithMessage(err.Error()))
//	}
//
// Form and query binding use `form` and `query` struct tags and support
// basic types, slices and pointers for optional fields.
package binder

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
)

// JSON decodes an application/json request body into v, which must be a
// non-nil pointer to a struct. Unknown fields and trailing data are
// rejected so malformed client payloads fail loudly instead of being
// silently ignored.
func JSON(r *http.Request, v any) error {
	contentType := r.Header.Get("Content-Type")
	if contentType == "" {
		return fmt.Errorf("%w: expected application/json", ErrMissingContentType)
	}

	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil || mediaType != "application/json" {
		return fmt.Errorf("%w: got %s, expected application/json", ErrUnsupportedMediaType, contentType)
	}

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: empty body", ErrInvalidJSON)
		}
		return fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}

	// A valid payload is exactly one JSON value.
	if dec.More() {
		return fmt.Errorf("%w: unexpected data after JSON value", ErrInvalidJSON)
	}

	return nil
}
