package memory

import (
	"context"
	"sync"
	"time"

	"github.com/encorelive/encore-backend/internal/models"
)

// EventStore caches the externally-owned event records this layer reads the
// scheduled start instant from.
type EventStore struct {
	mu     sync.RWMutex
	events map[string]models.Event
}

func NewEventStore() *EventStore {
	return &EventStore{events: make(map[string]models.Event)}
}

func (s *EventStore) AddEvent(e models.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events[e.ID] = e
}

func (s *EventStore) StartTime(ctx context.Context, eventID string) (time.Time, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.events[eventID]
	if !ok {
		return time.Time{}, ErrNotFound
	}
	return e.StartTime, nil
}
