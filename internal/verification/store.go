package verification

import (
	"context"

	"github.com/google/uuid"
)

// Store is interface-driven so the domain logic stays testable and the
// in-memory, postgres, and cached implementations can be swapped without
// rewiring business code.
//
// Update is the atomic read-modify-write primitive: implementations load the
// record, run mutate against it, and persist the result so that no partial
// step update is ever visible to a concurrent operation. When mutate returns
// an error the record is left untouched and the error is returned as-is.
type Store interface {
	Create(ctx context.Context, record *Record) error
	Get(ctx context.Context, merchantID uuid.UUID) (*Record, error)
	Update(ctx context.Context, merchantID uuid.UUID, mutate func(*Record) error) (*Record, error)
	ListPending(ctx context.Context) ([]*Record, error)
}
