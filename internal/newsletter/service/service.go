// Package service records newsletter sign-ups in the subscribers list.
package service

import (
	"context"
	"log/slog"

	"kickoff/internal/newsletter/models"
	"kickoff/internal/platform/tracer"
	dErrors "kickoff/pkg/domain-errors"
	"kickoff/pkg/requestcontext"
)

const statusSubscribed = "Subscribed"

// RecordStore persists a flat record and returns the store's item id.
type RecordStore interface {
	Create(ctx context.Context, listID string, fields map[string]string) (string, error)
}

type Service struct {
	store  RecordStore
	listID string
	logger *slog.Logger
	tracer tracer.Tracer
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithTracer(t tracer.Tracer) Option {
	return func(s *Service) {
		if t != nil {
			s.tracer = t
		}
	}
}

func New(store RecordStore, listID string, opts ...Option) *Service {
	s := &Service{
		store:  store,
		listID: listID,
		logger: slog.Default(),
		tracer: tracer.NewNoop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Subscribe stores the sign-up and returns the new item id.
func (s *Service) Subscribe(ctx context.Context, sub models.Subscription) (id string, err error) {
	ctx, span := s.tracer.Start(ctx, tracer.SpanNewsletter,
		tracer.String(tracer.AttrEmailHash, tracer.HashEmail(sub.Email)),
		tracer.String(tracer.AttrListID, s.listID),
	)
	defer func() { span.End(err) }()

	if s.listID == "" {
		s.logger.ErrorContext(ctx, "newsletter list id not configured")
		return "", dErrors.New(dErrors.CodeMisconfigured, "newsletter list not configured")
	}

	fields := map[string]string{
		"Title":  sub.Email,
		"Email":  sub.Email,
		"STATUS": statusSubscribed,
		"Device": deviceLabel(sub.UserAgent),
	}
	if sub.Name != "" {
		fields["FullName"] = sub.Name
	}
	if sub.Source != "" {
		fields["Source"] = sub.Source
	}

	id, err = s.store.Create(ctx, s.listID, fields)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to record newsletter subscription",
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
		return "", dErrors.Wrap(err, dErrors.CodeDependency, "failed to record subscription")
	}

	s.logger.InfoContext(ctx, "newsletter subscription recorded",
		"item_id", id,
		"source", sub.Source,
		"request_id", requestcontext.RequestID(ctx),
	)
	span.SetAttributes(tracer.String(tracer.AttrItemID, id))
	return id, nil
}
