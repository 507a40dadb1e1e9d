// Package domainerrors carries transport-agnostic failure codes from the
// stores, senders and services up to the HTTP edge.
package domainerrors

import "errors"

// Code names what went wrong in domain terms. httputil maps it to a status.
type Code string

const (
	// Caller-side failures.
	CodeBadRequest      Code = "bad_request"
	CodeValidation      Code = "validation_failed"
	CodeUnauthorized    Code = "unauthorized"
	CodeForbidden       Code = "forbidden"
	CodePayloadTooLarge Code = "payload_too_large"

	// Programming or configuration mistakes caught at construction time.
	CodeInvariantViolation Code = "invariant_violation"

	// Operator-side failures. The caller cannot fix these.
	CodeInternal      Code = "internal_error"
	CodeMisconfigured Code = "misconfigured"
	CodeTimeout       Code = "timeout"
	CodeDependency    Code = "dependency_failed" // record store or email sender failed
	CodeUnavailable   Code = "unavailable"       // circuit open
)

// Error is a failure with a stable code. Message is safe to log; whether it
// is shown to the caller is decided at the HTTP edge.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return string(e.Code)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error with the same code, so errors.Is(err, &Error{Code: CodeTimeout})
// works through wrap chains.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

func New(code Code, msg string) error {
	return &Error{Code: code, Message: msg}
}

// Wrap attaches msg to err. A code already present in the chain wins over code,
// so a timeout deep in a client stays a timeout at the edge.
func Wrap(err error, code Code, msg string) error {
	var existing *Error
	if errors.As(err, &existing) {
		code = existing.Code
	}
	return &Error{Code: code, Message: msg, Err: err}
}

// HasCode reports whether the outermost domain error in err's chain has code.
func HasCode(err error, code Code) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == code
}

// CodeOf returns the code of the outermost domain error in the chain,
// or CodeInternal when err carries none.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeInternal
}

// IsTransient reports whether a retry later could succeed.
func IsTransient(err error) bool {
	switch CodeOf(err) {
	case CodeTimeout, CodeUnavailable:
		return true
	}
	return false
}
