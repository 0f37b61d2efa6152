package core

import (
	"fmt"
	"sort"
	"strings"
)

// ValidationError accumulates per-field validation messages. Handlers add
// to it while checking a request and return it whole, so the client sees
// every broken field in one round trip instead of one at a time.
type ValidationError map[string][]string

// NewValidationError creates an empty validation error.
func NewValidationError() ValidationError {
	return make(ValidationError)
}

// Error implements the error interface with fields in stable order.
func (e ValidationError) Error() string {
	if len(e) == 0 {
		return "validation failed"
	}

	fields := make([]string, 0, len(e))
	for field := range e {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		if msgs := e[field]; len(msgs) > 0 {
			parts = append(parts, fmt.Sprintf("%s: %s", field, msgs[0]))
		}
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Add records a message against a field.
func (e ValidationError) Add(field, message string) {
	e[field] = append(e[field], message)
}

// Has reports whether the field collected any messages.
func (e ValidationError) Has(field string) bool {
	return len(e[field]) > 0
}

// IsEmpty reports whether the request validated cleanly.
func (e ValidationError) IsEmpty() bool {
	return len(e) == 0
}

// Err returns the collected error, or nil when validation passed. The
// usual tail of a handler's validation block.
func (e ValidationError) Err() error {
	if e.IsEmpty() {
		return nil
	}
	return e
}
