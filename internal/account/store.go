package account

import (
	"context"

	"github.com/google/uuid"
)

// Store persists accounts. Emails are unique.
type Store interface {
	Create(ctx context.Context, account *Account) error
	FindByID(ctx context.Context, id uuid.UUID) (*Account, error)
	FindByEmail(ctx context.Context, email string) (*Account, error)
}
