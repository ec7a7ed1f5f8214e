package account

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"

	"kycgate/pkg/sentinel"
)

// MemoryStore keeps accounts in mutex-guarded maps.
type MemoryStore struct {
	mu       sync.RWMutex
	accounts map[uuid.UUID]*Account
	byEmail  map[string]uuid.UUID
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		accounts: make(map[uuid.UUID]*Account),
		byEmail:  make(map[string]uuid.UUID),
	}
}

func (s *MemoryStore) Create(_ context.Context, account *Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	email := strings.ToLower(account.Email)
	if _, ok := s.byEmail[email]; ok {
		return sentinel.ErrConflict
	}
	dup := *account
	s.accounts[account.ID] = &dup
	s.byEmail[email] = account.ID
	return nil
}

func (s *MemoryStore) FindByID(_ context.Context, id uuid.UUID) (*Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if account, ok := s.accounts[id]; ok {
		dup := *account
		return &dup, nil
	}
	return nil, sentinel.ErrNotFound
}

func (s *MemoryStore) FindByEmail(_ context.Context, email string) (*Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if id, ok := s.byEmail[strings.ToLower(email)]; ok {
		dup := *s.accounts[id]
		return &dup, nil
	}
	return nil, sentinel.ErrNotFound
}
