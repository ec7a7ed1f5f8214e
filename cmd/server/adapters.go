package main

import (
	"context"

	"github.com/google/uuid"

	"kycgate/internal/account"
	"kycgate/internal/review"
)

// identityAdapter lets the review service read merchant display fields from
// the account module without depending on it.
type identityAdapter struct {
	accounts *account.Service
}

func (a identityAdapter) ResolveIdentity(ctx context.Context, merchantID uuid.UUID) (review.Identity, error) {
	acct, err := a.accounts.GetAccount(ctx, merchantID)
	if err != nil {
		return review.Identity{}, err
	}
	return review.Identity{Name: acct.Name, Email: acct.Email, Phone: acct.Phone}, nil
}
