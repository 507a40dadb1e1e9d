package resend

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"kickoff/internal/intake/models"
	"kickoff/internal/platform/tracer"
)

const DefaultThankYouSubject = "Thanks for applying"

// Sender is the Resend call the notifier depends on.
type Sender interface {
	Send(ctx context.Context, email Email) (string, error)
}

// ThankYouNotifier confirms a recorded submission by email.
type ThankYouNotifier struct {
	sender  Sender
	from    string
	replyTo string
	subject string
	summary []string
	logger  *slog.Logger
}

type NotifierOption func(*ThankYouNotifier)

func WithReplyTo(addr string) NotifierOption {
	return func(n *ThankYouNotifier) {
		n.replyTo = addr
	}
}

func WithSubject(subject string) NotifierOption {
	return func(n *ThankYouNotifier) {
		if subject != "" {
			n.subject = subject
		}
	}
}

// WithSummaryFields lists record fields echoed back in the email body, in
// order. Fields that are empty on the record are left out.
func WithSummaryFields(fields ...string) NotifierOption {
	return func(n *ThankYouNotifier) {
		n.summary = append([]string(nil), fields...)
	}
}

func WithLogger(logger *slog.Logger) NotifierOption {
	return func(n *ThankYouNotifier) {
		if logger != nil {
			n.logger = logger
		}
	}
}

func NewThankYouNotifier(sender Sender, from string, opts ...NotifierOption) *ThankYouNotifier {
	n := &ThankYouNotifier{
		sender:  sender,
		from:    from,
		subject: DefaultThankYouSubject,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// SendThankYou reports whether the email was accepted by Resend. Failures
// are logged and reported as false.
func (n *ThankYouNotifier) SendThankYou(ctx context.Context, msg models.ThankYou) bool {
	if strings.TrimSpace(msg.Email) == "" {
		return false
	}

	id, err := n.sender.Send(ctx, Email{
		From:    n.from,
		To:      []string{msg.Email},
		Subject: n.subject,
		Text:    n.text(msg),
		ReplyTo: n.replyTo,
	})
	if err != nil {
		n.logger.ErrorContext(ctx, "failed to send thank-you email",
			"error", err,
			"form_id", msg.FormID,
			"email_hash", tracer.HashEmail(msg.Email),
		)
		return false
	}
	n.logger.InfoContext(ctx, "thank-you email sent",
		"message_id", id,
		"form_id", msg.FormID,
	)
	return true
}

func (n *ThankYouNotifier) text(msg models.ThankYou) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s,\n\n", greetingName(msg.FullName, msg.Email))
	b.WriteString("Thanks for your application. We have received it and our team will review it shortly.\n\n")
	for _, field := range n.summary {
		if v := msg.Fields[field]; v != "" {
			fmt.Fprintf(&b, "%s: %s\n", field, v)
		}
	}
	b.WriteString("\nIf any of your details change, just reply to this email.\n\nSee you on the pitch,\nThe League Team\n")
	return b.String()
}

// NoopNotifier is wired when email is not configured. It never sends.
type NoopNotifier struct {
	logger *slog.Logger
}

func NewNoopNotifier(logger *slog.Logger) *NoopNotifier {
	return &NoopNotifier{logger: logger}
}

func (n *NoopNotifier) SendThankYou(ctx context.Context, msg models.ThankYou) bool {
	if n.logger != nil {
		n.logger.DebugContext(ctx, "email not configured, thank-you skipped", "form_id", msg.FormID)
	}
	return false
}
