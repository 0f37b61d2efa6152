package audit

import (
	"context"
	"maps"
	"sync"
)

// MemoryStorage keeps events in process memory, newest last. Intended for
// tests and single-node development; production deployments use
// PostgresStorage or OpenSearchStorage.
type MemoryStorage struct {
	mu     sync.RWMutex
	events []Event
}

// NewMemoryStorage creates an empty in-memory event store.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{}
}

func (s *MemoryStorage) Store(ctx context.Context, event Event) error {
	return s.StoreBatch(ctx, []Event{event})
}

func (s *MemoryStorage) StoreBatch(_ context.Context, events []Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, event := range events {
		event.Metadata = maps.Clone(event.Metadata)
		s.events = append(s.events, event)
	}
	return nil
}

// Query returns matching events newest first.
func (s *MemoryStorage) Query(_ context.Context, criteria Criteria) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	limit := criteria.limit()
	skipped := 0
	matched := make([]Event, 0, limit)
	for i := len(s.events) - 1; i >= 0 && len(matched) < limit; i-- {
		event := s.events[i]
		if !criteria.matches(event) {
			continue
		}
		if skipped < criteria.Offset {
			skipped++
			continue
		}
		event.Metadata = maps.Clone(event.Metadata)
		matched = append(matched, event)
	}
	return matched, nil
}

func (s *MemoryStorage) Count(_ context.Context, criteria Criteria) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int64
	for _, event := range s.events {
		if criteria.matches(event) {
			count++
		}
	}
	return count, nil
}
