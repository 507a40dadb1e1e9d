package httputil

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	dErrors "kickoff/pkg/domain-errors"
	"kickoff/pkg/requestcontext"
)

type Sanitizable interface{ Sanitize() }

type Normalizable interface{ Normalize() }

type Validatable interface{ Validate() error }

// PrepareRequest runs Sanitize, Normalize and Validate, in that order, for
// whichever of them req implements.
func PrepareRequest(req any) error {
	if s, ok := req.(Sanitizable); ok {
		s.Sanitize()
	}
	if n, ok := req.(Normalizable); ok {
		n.Normalize()
	}
	if v, ok := req.(Validatable); ok {
		return v.Validate()
	}
	return nil
}

// DecodeAndPrepare decodes a JSON body into T and prepares it. On failure it
// writes the error response and returns false; the handler just returns.
//
//	req, ok := httputil.DecodeAndPrepare[models.SubscribeRequest](w, r, h.logger)
//	if !ok {
//		return
//	}
func DecodeAndPrepare[T any](w http.ResponseWriter, r *http.Request, logger *slog.Logger) (*T, bool) {
	ctx := r.Context()
	var req T
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.WarnContext(ctx, "failed to decode request body",
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
		WriteError(w, decodeError(err))
		return nil, false
	}

	if err := PrepareRequest(&req); err != nil {
		logger.WarnContext(ctx, "invalid request",
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
		var domainErr *dErrors.Error
		if !errors.As(err, &domainErr) {
			err = dErrors.New(dErrors.CodeValidation, err.Error())
		}
		WriteError(w, err)
		return nil, false
	}
	return &req, true
}

func decodeError(err error) error {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		return dErrors.New(dErrors.CodePayloadTooLarge, "request body too large")
	case errors.Is(err, io.EOF):
		return dErrors.New(dErrors.CodeBadRequest, "request body is empty")
	default:
		return dErrors.New(dErrors.CodeBadRequest, "invalid request body")
	}
}
