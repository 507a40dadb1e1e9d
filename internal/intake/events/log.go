package events

import (
	"context"
	"log/slog"

	"kickoff/internal/intake/models"
)

// LogPublisher writes events to the structured log. Used when no broker is
// configured.
type LogPublisher struct {
	logger *slog.Logger
}

func NewLogPublisher(logger *slog.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

func (l *LogPublisher) Publish(ctx context.Context, event models.SubmissionEvent) error {
	l.logger.InfoContext(ctx, "submission recorded",
		"log_type", "audit",
		"event_id", event.ID,
		"form_id", event.FormID,
		"token", event.Token,
		"item_id", event.ItemID,
		"email_sent", event.EmailSent,
		"unmapped_refs", event.UnmappedRefs,
		"submitted_at", event.SubmittedAt,
		"occurred_at", event.OccurredAt,
	)
	return nil
}
