package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"kickoff/internal/intake/service"
	"kickoff/internal/intake/signature"
	"kickoff/pkg/platform/httputil"
	"kickoff/pkg/requestcontext"
)

// Processor runs one webhook delivery through the intake pipeline.
type Processor interface {
	Process(ctx context.Context, raw []byte, signatureHeader string) service.Result
}

// Handler serves the vendor webhook endpoint.
type Handler struct {
	processor Processor
	logger    *slog.Logger
}

func New(processor Processor, logger *slog.Logger) *Handler {
	return &Handler{processor: processor, logger: logger}
}

// Register mounts the handler routes on the given router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/webhooks/typeform", h.HandleTypeform)
}

// HandleTypeform handles POST /webhooks/typeform. The body is passed on
// unparsed because the signature covers the exact bytes.
func (h *Handler) HandleTypeform(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	raw, err := io.ReadAll(r.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.logger.WarnContext(ctx, "webhook body too large",
				"limit", tooLarge.Limit,
				"request_id", requestcontext.RequestID(ctx),
			)
			httputil.WriteJSON(w, http.StatusRequestEntityTooLarge, service.ErrorResponse{Error: "Payload too large"})
			return
		}
		h.logger.WarnContext(ctx, "failed to read webhook body",
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
		httputil.WriteJSON(w, http.StatusBadRequest, service.ErrorResponse{Error: "Invalid payload"})
		return
	}

	res := h.processor.Process(ctx, raw, r.Header.Get(signature.HeaderName))
	httputil.WriteJSON(w, res.Status, res.Body)
}
