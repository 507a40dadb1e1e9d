// Package httputil holds the JSON response and request helpers shared by the
// HTTP handlers.
package httputil

import (
	"encoding/json"
	"net/http"

	dErrors "kickoff/pkg/domain-errors"
)

// ErrorResponse is the body written by WriteError.
type ErrorResponse struct {
	Error       string `json:"error"`
	Description string `json:"error_description,omitempty"`
}

func WriteJSON(w http.ResponseWriter, status int, response any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// The status is already sent; an encode failure cannot be reported.
	_ = json.NewEncoder(w).Encode(response)
}

// WriteError translates err into a status and an ErrorResponse. Messages of
// 5xx errors stay in the logs.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	status := DomainCodeToHTTPStatus(code)

	resp := ErrorResponse{Error: errorCode(code)}
	if status < http.StatusInternalServerError {
		resp.Description = err.Error()
	}
	WriteJSON(w, status, resp)
}

// DomainCodeToHTTPStatus translates domain error codes to HTTP status codes.
// Every operator-side failure is a 500; callers are not told which dependency broke.
func DomainCodeToHTTPStatus(code dErrors.Code) int {
	switch code {
	case dErrors.CodeBadRequest, dErrors.CodeValidation:
		return http.StatusBadRequest
	case dErrors.CodeUnauthorized:
		return http.StatusUnauthorized
	case dErrors.CodeForbidden:
		return http.StatusForbidden
	case dErrors.CodePayloadTooLarge:
		return http.StatusRequestEntityTooLarge
	default:
		return http.StatusInternalServerError
	}
}

func errorCode(code dErrors.Code) string {
	switch code {
	case dErrors.CodeBadRequest:
		return "bad_request"
	case dErrors.CodeValidation:
		return "validation_error"
	case dErrors.CodeUnauthorized:
		return "unauthorized"
	case dErrors.CodeForbidden:
		return "forbidden"
	case dErrors.CodePayloadTooLarge:
		return "payload_too_large"
	default:
		return "internal_error"
	}
}
