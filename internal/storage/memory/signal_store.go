package memory

import (
	"context"
	"sort"
	"sync"

	"launch-radar/internal/domain"
	"launch-radar/internal/idhash"
	"launch-radar/internal/storage"
)

// SignalStore is an in-memory implementation of storage.SignalStore.
type SignalStore struct {
	mu   sync.RWMutex
	data map[string]*domain.ClassifiedSignal // keyed by signal id
}

// NewSignalStore creates a new in-memory signal store.
func NewSignalStore() *SignalStore {
	return &SignalStore{
		data: make(map[string]*domain.ClassifiedSignal),
	}
}

// Compile-time interface check.
var _ storage.SignalStore = (*SignalStore)(nil)

// Insert adds a classified signal. Returns ErrDuplicateKey if the signal
// was already recorded.
func (s *SignalStore) Insert(_ context.Context, cs *domain.ClassifiedSignal) error {
	if cs == nil || cs.SourceID == "" {
		return storage.ErrInvalidInput
	}
	id := idhash.ComputeSignalID(cs.Source, cs.SourceID)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[id]; exists {
		return storage.ErrDuplicateKey
	}

	// Store a copy to prevent external mutation
	sigCopy := *cs
	s.data[id] = &sigCopy
	return nil
}

// GetByID retrieves a signal by its deterministic ID.
func (s *SignalStore) GetByID(_ context.Context, id string) (*domain.ClassifiedSignal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cs, exists := s.data[id]
	if !exists {
		return nil, storage.ErrNotFound
	}

	sigCopy := *cs
	return &sigCopy, nil
}

// ListByCategory retrieves up to limit signals of one category, newest first.
func (s *SignalStore) ListByCategory(_ context.Context, category domain.Category, limit int) ([]*domain.ClassifiedSignal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.ClassifiedSignal
	for _, cs := range s.data {
		if cs.Category == category {
			sigCopy := *cs
			result = append(result, &sigCopy)
		}
	}
	return truncateNewest(result, limit), nil
}

// ListRecent retrieves up to limit signals, newest first.
func (s *SignalStore) ListRecent(_ context.Context, limit int) ([]*domain.ClassifiedSignal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.ClassifiedSignal, 0, len(s.data))
	for _, cs := range s.data {
		sigCopy := *cs
		result = append(result, &sigCopy)
	}
	return truncateNewest(result, limit), nil
}

// truncateNewest sorts newest first and applies the limit.
func truncateNewest(signals []*domain.ClassifiedSignal, limit int) []*domain.ClassifiedSignal {
	sort.Slice(signals, func(i, j int) bool {
		if !signals[i].CreatedAt.Equal(signals[j].CreatedAt) {
			return signals[i].CreatedAt.After(signals[j].CreatedAt)
		}
		return signals[i].SourceID < signals[j].SourceID
	})
	if limit > 0 && len(signals) > limit {
		signals = signals[:limit]
	}
	return signals
}
