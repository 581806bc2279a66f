package memory

import (
	"context"
	"sort"
	"sync"

	"launch-radar/internal/domain"
	"launch-radar/internal/storage"
)

// EventStore is an in-memory implementation of storage.EventStore.
type EventStore struct {
	mu   sync.RWMutex
	data map[string]*domain.EventRecord // keyed by event_id
}

// NewEventStore creates a new in-memory event store.
func NewEventStore() *EventStore {
	return &EventStore{
		data: make(map[string]*domain.EventRecord),
	}
}

// Compile-time interface check.
var _ storage.EventStore = (*EventStore)(nil)

// Insert adds one event record. Returns ErrDuplicateKey if the event ID
// was already recorded.
func (s *EventStore) Insert(_ context.Context, rec *domain.EventRecord) error {
	if rec == nil || rec.EventID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[rec.EventID]; exists {
		return storage.ErrDuplicateKey
	}

	recCopy := *rec
	s.data[rec.EventID] = &recCopy
	return nil
}

// ListByType retrieves up to limit events of one type, newest first.
func (s *EventStore) ListByType(_ context.Context, eventType string, limit int) ([]*domain.EventRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.EventRecord
	for _, rec := range s.data {
		if rec.Type == eventType {
			recCopy := *rec
			result = append(result, &recCopy)
		}
	}
	return truncateNewestEvents(result, limit), nil
}

// ListRecent retrieves up to limit events, newest first.
func (s *EventStore) ListRecent(_ context.Context, limit int) ([]*domain.EventRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.EventRecord, 0, len(s.data))
	for _, rec := range s.data {
		recCopy := *rec
		result = append(result, &recCopy)
	}
	return truncateNewestEvents(result, limit), nil
}

func truncateNewestEvents(events []*domain.EventRecord, limit int) []*domain.EventRecord {
	sort.Slice(events, func(i, j int) bool {
		if events[i].EmittedAt != events[j].EmittedAt {
			return events[i].EmittedAt > events[j].EmittedAt
		}
		return events[i].EventID < events[j].EventID
	})
	if limit > 0 && len(events) > limit {
		events = events[:limit]
	}
	return events
}
