package events

import (
	"context"
	"sync"

	"kickoff/internal/intake/models"
)

// InMemory collects events for tests.
type InMemory struct {
	mu     sync.RWMutex
	events []models.SubmissionEvent
}

func NewInMemory() *InMemory {
	return &InMemory{}
}

func (m *InMemory) Publish(_ context.Context, event models.SubmissionEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	return nil
}

// Events returns a copy of everything published so far.
func (m *InMemory) Events() []models.SubmissionEvent {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]models.SubmissionEvent{}, m.events...)
}
