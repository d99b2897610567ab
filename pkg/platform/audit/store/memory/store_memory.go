package memory

import (
	"context"
	"sync"

	id "cipherledger/pkg/domain"
	audit "cipherledger/pkg/platform/audit"
)

type InMemoryStore struct {
	mu     sync.RWMutex
	events map[id.RecordID][]audit.Event
	all    []audit.Event
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{events: make(map[id.RecordID][]audit.Event)}
}

func (s *InMemoryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = make(map[id.RecordID][]audit.Event)
	s.all = nil
}

func (s *InMemoryStore) Append(_ context.Context, event audit.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events[event.RecordID] = append(s.events[event.RecordID], event)
	s.all = append(s.all, event)
	return nil
}

func (s *InMemoryStore) ListByRecord(_ context.Context, recordID id.RecordID) ([]audit.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]audit.Event{}, s.events[recordID]...), nil
}

// ListRecent returns the most recent N events in append order.
func (s *InMemoryStore) ListRecent(_ context.Context, limit int) ([]audit.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	start := len(s.all) - limit
	if start < 0 {
		start = 0
	}
	return append([]audit.Event{}, s.all[start:]...), nil
}
