package core

import "net/http"

// HTTPError carries a status code alongside a client-safe message. Module
// handlers wrap domain errors into HTTPError so JSONError renders the right
// status instead of a blanket 500.
type HTTPError struct {
	Code    int
	Message string
}

// Error implements the error interface.
func (e HTTPError) Error() string {
	return e.Message
}

// NewHTTPError builds an HTTPError with an explicit message. An empty
// message falls back to the standard status text.
func NewHTTPError(code int, message string) HTTPError {
	if message == "" {
		message = http.StatusText(code)
	}
	return HTTPError{Code: code, Message: message}
}

// WithMessage returns a copy carrying a more specific message. The
// predeclared errors keep generic text; handlers specialize at the edge.
func (e HTTPError) WithMessage(message string) HTTPError {
	e.Message = message
	return e
}

var (
	ErrBadRequest          = NewHTTPError(http.StatusBadRequest, "")
	ErrUnauthorized        = NewHTTPError(http.StatusUnauthorized, "")
	ErrPaymentRequired     = NewHTTPError(http.StatusPaymentRequired, "")
	ErrForbidden           = NewHTTPError(http.StatusForbidden, "")
	ErrNotFound            = NewHTTPError(http.StatusNotFound, "")
	ErrConflict            = NewHTTPError(http.StatusConflict, "")
	ErrUnprocessableEntity = NewHTTPError(http.StatusUnprocessableEntity, "")
	ErrTooManyRequests     = NewHTTPError(http.StatusTooManyRequests, "")
	ErrInternalServerError = NewHTTPError(http.StatusInternalServerError, "")
	ErrBadGateway          = NewHTTPError(http.StatusBadGateway, "")
	ErrServiceUnavailable  = NewHTTPError(http.StatusServiceUnavailable, "")
)
