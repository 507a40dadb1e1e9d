package sharepoint

import (
	"context"
	"errors"
	"log/slog"

	dErrors "kickoff/pkg/domain-errors"
	"kickoff/pkg/platform/circuit"
)

// ItemCreator is the Graph call the store depends on.
type ItemCreator interface {
	CreateListItem(ctx context.Context, listID string, fields map[string]string) (string, error)
}

// ListStore is the SharePoint-backed record store. Consecutive failures open
// the circuit so a SharePoint outage fails requests fast instead of holding
// them for the full timeout.
type ListStore struct {
	client  ItemCreator
	breaker *circuit.Breaker
	logger  *slog.Logger
}

func NewListStore(client ItemCreator, breaker *circuit.Breaker, logger *slog.Logger) *ListStore {
	if breaker == nil {
		breaker = circuit.New("sharepoint")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ListStore{client: client, breaker: breaker, logger: logger}
}

func (s *ListStore) Create(ctx context.Context, listID string, fields map[string]string) (string, error) {
	if !s.breaker.Allow() {
		return "", dErrors.New(dErrors.CodeUnavailable, "sharepoint circuit open")
	}

	id, err := s.client.CreateListItem(ctx, listID, fields)
	if err != nil {
		// A caller that went away says nothing about SharePoint's health.
		if !errors.Is(err, context.Canceled) {
			if _, change := s.breaker.RecordFailure(); change.Opened {
				s.logger.WarnContext(ctx, "circuit breaker opened", "breaker", s.breaker.Name(), "error", err)
			}
		}
		return "", err
	}

	if _, change := s.breaker.RecordSuccess(); change.Closed {
		s.logger.InfoContext(ctx, "circuit breaker closed", "breaker", s.breaker.Name())
	}
	return id, nil
}
