// Package events publishes SubmissionEvents after a record has been stored.
// Publishing is best effort: failures are logged, never surfaced to the
// webhook caller.
package events

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"kickoff/internal/intake/models"
)

// ErrClosed is returned by Publish once the AsyncPublisher is closed.
var ErrClosed = errors.New("event publisher is closed")

// Sink persists or forwards one event.
type Sink interface {
	Publish(ctx context.Context, event models.SubmissionEvent) error
}

// AsyncPublisher moves publishing off the request path. Events are queued
// and delivered to the sink from a background goroutine; when the buffer is
// full the event is dropped with a warning.
type AsyncPublisher struct {
	sink   Sink
	events chan models.SubmissionEvent
	wg     sync.WaitGroup
	logger *slog.Logger

	mu     sync.RWMutex
	closed bool
}

// AsyncOption configures the AsyncPublisher.
type AsyncOption func(*AsyncPublisher)

// WithAsyncLogger sets a logger for delivery errors and dropped events.
func WithAsyncLogger(logger *slog.Logger) AsyncOption {
	return func(p *AsyncPublisher) {
		p.logger = logger
	}
}

// NewAsync starts the delivery goroutine. Close must be called to drain it.
func NewAsync(sink Sink, buffer int, opts ...AsyncOption) *AsyncPublisher {
	if buffer <= 0 {
		buffer = 1
	}
	p := &AsyncPublisher{
		sink:   sink,
		events: make(chan models.SubmissionEvent, buffer),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.wg.Add(1)
	go p.run()
	return p
}

func (p *AsyncPublisher) run() {
	defer p.wg.Done()
	for event := range p.events {
		// Request context is gone by the time the event is delivered.
		if err := p.sink.Publish(context.Background(), event); err != nil {
			p.logger.Error("failed to deliver submission event",
				"error", err,
				"event_id", event.ID,
				"form_id", event.FormID,
			)
		}
	}
}

// Publish enqueues the event without blocking.
func (p *AsyncPublisher) Publish(_ context.Context, event models.SubmissionEvent) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrClosed
	}
	select {
	case p.events <- event:
	default:
		p.logger.Warn("submission event buffer full, event dropped",
			"event_id", event.ID,
			"form_id", event.FormID,
		)
	}
	return nil
}

// Close stops accepting events and waits for queued ones to be delivered.
// Later calls to Publish return ErrClosed.
func (p *AsyncPublisher) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.events)
	p.mu.Unlock()

	p.wg.Wait()
}
