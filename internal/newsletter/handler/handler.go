package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"kickoff/internal/newsletter/models"
	"kickoff/pkg/platform/httputil"
	"kickoff/pkg/requestcontext"
)

// Service records newsletter sign-ups.
type Service interface {
	Subscribe(ctx context.Context, sub models.Subscription) (string, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the handler routes on the given router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/api/newsletter", h.HandleSubscribe)
}

// HandleSubscribe handles POST /api/newsletter.
func (h *Handler) HandleSubscribe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[models.SubscribeRequest](w, r, h.logger)
	if !ok {
		return
	}

	userAgent := requestcontext.UserAgent(ctx)
	if userAgent == "" {
		userAgent = r.UserAgent()
	}

	id, err := h.service.Subscribe(ctx, models.Subscription{
		Email:     req.Email,
		Name:      req.Name,
		Source:    req.Source,
		UserAgent: userAgent,
	})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, models.SubscribeResponse{Success: true, ID: id})
}
