package service

import (
	dErrors "kickoff/pkg/domain-errors"
	"kickoff/pkg/platform/httputil"
)

// Outcome names a terminal state of the pipeline. It is the metrics label.
type Outcome string

const (
	OutcomeAccepted         Outcome = "accepted"
	OutcomeInvalidSignature Outcome = "invalid_signature"
	OutcomeMisconfigured    Outcome = "misconfigured"
	OutcomeInvalidPayload   Outcome = "invalid_payload"
	OutcomeUnexpectedForm   Outcome = "unexpected_form"
	OutcomeMissingFields    Outcome = "missing_fields"
	OutcomeStoreFailed      Outcome = "store_failed"
)

// Caller-facing messages. Internal detail never goes in a response body.
const (
	msgInvalidSignature = "Invalid signature"
	msgMisconfigured    = "Server misconfigured"
	msgInvalidPayload   = "Invalid payload"
	msgUnexpectedForm   = "Unexpected form"
	msgMissingFields    = "Missing required fields"
	msgStoreFailed      = "Failed to record submission"
)

// Result is the single structured value every Process call produces.
type Result struct {
	Status  int
	Body    any
	Outcome Outcome
}

type ErrorResponse struct {
	Error string `json:"error"`
}

type MissingFieldsResponse struct {
	Error   string   `json:"error"`
	Missing []string `json:"missing"`
}

type SuccessResponse struct {
	Success          bool     `json:"success"`
	SharePointItemID string   `json:"sharePointItemId,omitempty"`
	EmailSent        bool     `json:"emailSent"`
	UnmappedRefs     []string `json:"unmappedRefs"`
}

var outcomeCodes = map[Outcome]dErrors.Code{
	OutcomeInvalidSignature: dErrors.CodeUnauthorized,
	OutcomeMisconfigured:    dErrors.CodeMisconfigured,
	OutcomeInvalidPayload:   dErrors.CodeBadRequest,
	OutcomeUnexpectedForm:   dErrors.CodeForbidden,
	OutcomeMissingFields:    dErrors.CodeValidation,
	OutcomeStoreFailed:      dErrors.CodeDependency,
}

func reject(outcome Outcome, msg string) Result {
	return Result{
		Status:  httputil.DomainCodeToHTTPStatus(outcomeCodes[outcome]),
		Body:    ErrorResponse{Error: msg},
		Outcome: outcome,
	}
}

func rejectMissing(missing []string) Result {
	return Result{
		Status:  httputil.DomainCodeToHTTPStatus(outcomeCodes[OutcomeMissingFields]),
		Body:    MissingFieldsResponse{Error: msgMissingFields, Missing: missing},
		Outcome: OutcomeMissingFields,
	}
}

// Failed reports whether the result is anything other than accepted.
func (r Result) Failed() bool {
	return r.Outcome != OutcomeAccepted
}
