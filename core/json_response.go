package core

import (
	"encoding/json"
	"errors"
	"net/http"
)

// JSONResponse is the platform's JSON envelope. Success responses carry
// Data and optional Meta; failures carry Error and nothing else.
type JSONResponse struct {
	Data  any            `json:"data,omitempty"`
	Meta  map[string]any `json:"meta,omitempty"`
	Error *ErrorDetail   `json:"error,omitempty"`
}

// ErrorDetail is the error half of the envelope. Details carries
// per-field validation messages when present.
type ErrorDetail struct {
	Code    int                 `json:"code"`
	Message string              `json:"message"`
	Details map[string][]string `json:"details,omitempty"`
}

type jsonResponse struct {
	status int
	body   JSONResponse
}

func (j jsonResponse) Render(w http.ResponseWriter, r *http.Request) error {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(j.status)
	return json.NewEncoder(w).Encode(j.body)
}

// JSON wraps data in a 200 envelope.
func JSON(data any) Response {
	return jsonResponse{
		status: http.StatusOK,
		body:   JSONResponse{Data: data},
	}
}

// JSONStatus wraps data in an envelope with an explicit status code.
func JSONStatus(status int, data any) Response {
	return jsonResponse{
		status: status,
		body:   JSONResponse{Data: data},
	}
}

// JSONMeta wraps data plus response metadata, such as paging counters.
func JSONMeta(data any, meta map[string]any) Response {
	return jsonResponse{
		status: http.StatusOK,
		body:   JSONResponse{Data: data, Meta: meta},
	}
}

// Error builds an error envelope with an explicit status and message.
func Error(status int, message string) Response {
	return jsonResponse{
		status: status,
		body: JSONResponse{
			Error: &ErrorDetail{Code: status, Message: message},
		},
	}
}

// JSONError maps an error to the error envelope: validation errors become
// 422 with per-field details, HTTPError keeps its own status and message,
// anything else is a 500 with the cause withheld from the client.
func JSONError(err error) Response {
	var valErr ValidationError
	if errors.As(err, &valErr) {
		return jsonResponse{
			status: http.StatusUnprocessableEntity,
			body: JSONResponse{
				Error: &ErrorDetail{
					Code:    http.StatusUnprocessableEntity,
					Message: "validation failed",
					Details: valErr,
				},
			},
		}
	}

	var httpErr HTTPError
	if errors.As(err, &httpErr) {
		return Error(httpErr.Code, httpErr.Message)
	}

	return Error(http.StatusInternalServerError, "internal server error")
}
