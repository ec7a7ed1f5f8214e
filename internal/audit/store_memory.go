package audit

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// MemoryStore keeps audit events per merchant in insertion order.
type MemoryStore struct {
	mu     sync.RWMutex
	events map[uuid.UUID][]Event
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{events: make(map[uuid.UUID][]Event)}
}

func (s *MemoryStore) Append(_ context.Context, event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events[event.MerchantID] = append(s.events[event.MerchantID], event)
	return nil
}

func (s *MemoryStore) ListByMerchant(_ context.Context, merchantID uuid.UUID) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Event{}, s.events[merchantID]...), nil
}
