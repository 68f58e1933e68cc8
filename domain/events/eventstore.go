package events

import (
	"fmt"
	"sync"
)

// EventStore is the interface for storing and retrieving events.
type EventStore interface {
	Append(event Event) error
	LoadEvents(tableID string) ([]Event, error)
	Clear(tableID string)
}

// InMemoryEventStore is an in-memory implementation of the EventStore interface.
// It keeps at most limit events per table, dropping the oldest.
type InMemoryEventStore struct {
	events map[string][]Event
	limit  int
	mutex  sync.RWMutex
}

// NewInMemoryEventStore creates a new in-memory event store. A limit <= 0
// keeps everything.
func NewInMemoryEventStore(limit int) *InMemoryEventStore {
	return &InMemoryEventStore{
		events: make(map[string][]Event),
		limit:  limit,
	}
}

// Append adds a new event to the store.
func (s *InMemoryEventStore) Append(event Event) error {
	tableID := ExtractTableID(event)
	if tableID == "" {
		return fmt.Errorf("event %s has no tableID", event.Name())
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	log := append(s.events[tableID], event)
	if s.limit > 0 && len(log) > s.limit {
		log = append([]Event(nil), log[len(log)-s.limit:]...)
	}
	s.events[tableID] = log
	return nil
}

// LoadEvents retrieves all events for the given tableID.
func (s *InMemoryEventStore) LoadEvents(tableID string) ([]Event, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	if events, exists := s.events[tableID]; exists {
		// Make a copy to avoid potential race conditions
		result := make([]Event, len(events))
		copy(result, events)
		return result, nil
	}

	// Return empty slice if no events found
	return []Event{}, nil
}

// Clear forgets everything recorded for a table.
func (s *InMemoryEventStore) Clear(tableID string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	delete(s.events, tableID)
}
