// Package service sequences webhook intake: verify, parse, map, validate,
// store, notify. Every terminal state is returned as a Result; nothing
// escapes to the caller as an error or panic.
package service

import (
	"context"
	"log/slog"
	"time"

	"kickoff/internal/intake/mapping"
	"kickoff/internal/intake/metrics"
	"kickoff/internal/intake/models"
	"kickoff/internal/intake/signature"
	"kickoff/internal/platform/tracer"
)

const (
	defaultStoreTimeout  = 10 * time.Second
	defaultNotifyTimeout = 10 * time.Second
)

// RecordStore persists a flat record and returns the store's item id.
type RecordStore interface {
	Create(ctx context.Context, listID string, fields map[string]string) (string, error)
}

// Notifier sends the thank-you message. It reports false instead of
// returning errors.
type Notifier interface {
	SendThankYou(ctx context.Context, msg models.ThankYou) bool
}

// EventPublisher emits a SubmissionEvent after a record is stored.
type EventPublisher interface {
	Publish(ctx context.Context, event models.SubmissionEvent) error
}

// Service is the intake orchestrator. It holds no per-request state and is
// safe for concurrent use.
type Service struct {
	verifier       *signature.Verifier
	mapper         *mapping.Mapper
	store          RecordStore
	listID         string
	expectedFormID string
	notifier       Notifier
	publisher      EventPublisher
	storeTimeout   time.Duration
	notifyTimeout  time.Duration
	logger         *slog.Logger
	tracer         tracer.Tracer
	metrics        *metrics.Metrics
	now            func() time.Time
}

// Option configures the Service.
type Option func(*Service)

// WithExpectedFormID rejects submissions for any other form with 403.
func WithExpectedFormID(formID string) Option {
	return func(s *Service) {
		s.expectedFormID = formID
	}
}

func WithNotifier(n Notifier) Option {
	return func(s *Service) {
		if n != nil {
			s.notifier = n
		}
	}
}

func WithPublisher(p EventPublisher) Option {
	return func(s *Service) {
		if p != nil {
			s.publisher = p
		}
	}
}

// WithStoreTimeout bounds the record store call. A timeout is a store failure.
func WithStoreTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.storeTimeout = d
		}
	}
}

// WithNotifyTimeout bounds the notifier call. A timeout means emailSent=false.
func WithNotifyTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.notifyTimeout = d
		}
	}
}

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

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithClock overrides the time source used for event timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// New creates the orchestrator. listID is the record store destination; when
// it is empty every authentic request fails with 500.
func New(verifier *signature.Verifier, mapper *mapping.Mapper, store RecordStore, listID string, opts ...Option) *Service {
	s := &Service{
		verifier:      verifier,
		mapper:        mapper,
		store:         store,
		listID:        listID,
		notifier:      noopNotifier{},
		publisher:     noopPublisher{},
		storeTimeout:  defaultStoreTimeout,
		notifyTimeout: defaultNotifyTimeout,
		logger:        slog.Default(),
		tracer:        tracer.NewNoop(),
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type noopNotifier struct{}

func (noopNotifier) SendThankYou(context.Context, models.ThankYou) bool { return false }

type noopPublisher struct{}

func (noopPublisher) Publish(context.Context, models.SubmissionEvent) error { return nil }
