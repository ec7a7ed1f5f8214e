package verification

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"kycgate/pkg/sentinel"
)

// MemoryStore keeps verification records in a mutex-guarded map. It favors
// clarity over performance and backs unit tests and local development.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[uuid.UUID]*Record
	order   []uuid.UUID
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[uuid.UUID]*Record)}
}

func (s *MemoryStore) Create(_ context.Context, record *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[record.MerchantID]; ok {
		return sentinel.ErrConflict
	}
	s.records[record.MerchantID] = record.Clone()
	s.order = append(s.order, record.MerchantID)
	return nil
}

func (s *MemoryStore) Get(_ context.Context, merchantID uuid.UUID) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.records[merchantID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return record.Clone(), nil
}

// Update applies mutate under the store lock. The mutation runs against a
// copy, so a failed mutate leaves the stored record untouched.
func (s *MemoryStore) Update(_ context.Context, merchantID uuid.UUID, mutate func(*Record) error) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.records[merchantID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	next := record.Clone()
	if err := mutate(next); err != nil {
		return nil, err
	}
	s.records[merchantID] = next
	return next.Clone(), nil
}

// ListPending returns records with at least one submitted step, in insertion
// order.
func (s *MemoryStore) ListPending(_ context.Context) ([]*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var pending []*Record
	for _, id := range s.order {
		if record := s.records[id]; record.HasSubmittedStep() {
			pending = append(pending, record.Clone())
		}
	}
	return pending, nil
}
