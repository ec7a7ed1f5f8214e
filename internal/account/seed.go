package account

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"kycgate/internal/platform/middleware"
	"kycgate/pkg/sentinel"
)

// SeedAdmin ensures an admin account exists. Admins are provisioned, never
// self-registered, so deployments bootstrap one here.
func SeedAdmin(ctx context.Context, store Store, name, email, password string) error {
	if _, err := store.FindByEmail(ctx, email); err == nil {
		return nil
	} else if !errors.Is(err, sentinel.ErrNotFound) {
		return fmt.Errorf("check admin account: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}
	err = store.Create(ctx, &Account{
		ID:           uuid.New(),
		Name:         name,
		Email:        email,
		Role:         middleware.RoleAdmin,
		PasswordHash: hash,
		CreatedAt:    time.Now(),
	})
	if err != nil && !errors.Is(err, sentinel.ErrConflict) {
		return fmt.Errorf("create admin account: %w", err)
	}
	return nil
}
