package audit

import (
	"context"

	"github.com/google/uuid"
)

// Store is append-only so the trail stays immutable once written.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByMerchant(ctx context.Context, merchantID uuid.UUID) ([]Event, error)
}
