// Package store holds the in-memory record store used in tests and local
// development when SharePoint is not configured.
package store

import (
	"context"
	"maps"
	"sync"

	"github.com/google/uuid"
)

// Item is one stored record.
type Item struct {
	ID     string
	Fields map[string]string
}

// InMemory keeps records per list id. It is safe for concurrent use.
type InMemory struct {
	mu    sync.RWMutex
	lists map[string][]Item
}

func NewInMemory() *InMemory {
	return &InMemory{lists: make(map[string][]Item)}
}

// Create stores a copy of fields and returns a new item id.
func (s *InMemory) Create(ctx context.Context, listID string, fields map[string]string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	item := Item{ID: uuid.NewString(), Fields: maps.Clone(fields)}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.lists[listID] = append(s.lists[listID], item)
	return item.ID, nil
}

// Items returns a snapshot of the records stored in listID.
func (s *InMemory) Items(listID string) []Item {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Item, len(s.lists[listID]))
	copy(out, s.lists[listID])
	return out
}

// Count returns how many records listID holds.
func (s *InMemory) Count(listID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.lists[listID])
}

func (s *InMemory) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lists = make(map[string][]Item)
}
