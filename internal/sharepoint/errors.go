package sharepoint

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	dErrors "kickoff/pkg/domain-errors"
)

// APIError is a non-2xx response from Graph or the token endpoint.
type APIError struct {
	Op      string
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("sharepoint %s: %d %s: %s", e.Op, e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("sharepoint %s: %d", e.Op, e.Status)
}

// graphErrorBody matches both the Graph and the identity platform error shapes.
type graphErrorBody struct {
	Error json.RawMessage `json:"error"`
	// identity platform
	Description string `json:"error_description"`
}

type graphError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func statusError(op string, status int, body []byte) error {
	apiErr := &APIError{Op: op, Status: status}

	var parsed graphErrorBody
	if json.Unmarshal(body, &parsed) == nil && len(parsed.Error) > 0 {
		var ge graphError
		if json.Unmarshal(parsed.Error, &ge) == nil {
			apiErr.Code, apiErr.Message = ge.Code, ge.Message
		} else {
			var code string
			_ = json.Unmarshal(parsed.Error, &code)
			apiErr.Code, apiErr.Message = code, parsed.Description
		}
	}

	code := dErrors.CodeDependency
	switch status {
	case http.StatusTooManyRequests, http.StatusServiceUnavailable:
		code = dErrors.CodeUnavailable
	case http.StatusGatewayTimeout:
		code = dErrors.CodeTimeout
	}
	return &dErrors.Error{Code: code, Message: apiErr.Error(), Err: apiErr}
}

func transportError(ctx context.Context, op string, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "sharepoint "+op+": request timed out")
	}
	return dErrors.Wrap(err, dErrors.CodeDependency, "sharepoint "+op+": request failed")
}
