package account

import (
	"time"

	"github.com/google/uuid"
)

// Account is a platform login: a merchant undergoing onboarding or an admin
// reviewing it. The verification core only ever reads these fields for display
// joins; it never writes them.
type Account struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Phone        string    `json:"phone,omitempty"`
	Role         string    `json:"role"`
	PasswordHash []byte    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}
