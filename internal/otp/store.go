// Package otp holds short-lived email verification codes in a keyed map with
// explicit expiry sweeps — no package-level state, so every instance owns its
// lifecycle and tests can run stores side by side.
package otp

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"math/big"
	"sync"
	"time"

	"kycgate/pkg/sentinel"
)

type entry struct {
	code      string
	expiresAt time.Time
}

// Store is an in-memory OTP store with TTL.
type Store struct {
	mu      sync.Mutex
	entries map[string]entry
	ttl     time.Duration
}

func NewStore(ttl time.Duration) *Store {
	return &Store{entries: make(map[string]entry), ttl: ttl}
}

// Generate creates a 6-digit code for the key, replacing any previous one.
func (s *Store) Generate(key string) (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", fmt.Errorf("generate otp: %w", err)
	}
	code := fmt.Sprintf("%06d", n.Int64())

	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = entry{code: code, expiresAt: time.Now().Add(s.ttl)}
	return code, nil
}

// Consume validates and removes the code for the key. A wrong code does not
// consume the stored one, so the merchant can retry until expiry.
func (s *Store) Consume(key, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.entries[key]
	if !ok {
		return sentinel.ErrNotFound
	}
	if time.Now().After(stored.expiresAt) {
		delete(s.entries, key)
		return sentinel.ErrExpired
	}
	if subtle.ConstantTimeCompare([]byte(stored.code), []byte(code)) != 1 {
		return sentinel.ErrInvalidState
	}
	delete(s.entries, key)
	return nil
}

// Sweep removes expired entries. Run drives it periodically.
func (s *Store) Sweep(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, stored := range s.entries {
		if now.After(stored.expiresAt) {
			delete(s.entries, key)
		}
	}
}

// Run sweeps expired codes at the given interval until the context ends.
func (s *Store) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			s.Sweep(now)
		}
	}
}
