// Package account implements the identity collaborators the verification core
// depends on: registration (which creates the merchant's verification record),
// login, and identity resolution for admin display joins.
package account

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"kycgate/internal/audit"
	"kycgate/internal/otp"
	"kycgate/internal/platform/middleware"
	"kycgate/internal/verification"
	dErrors "kycgate/pkg/domainerrors"
	"kycgate/pkg/sentinel"
)

// Notifier delivers OTP codes. Email templating and transport are external;
// only the send boundary lives here.
type Notifier interface {
	SendOTP(ctx context.Context, email, code string) error
}

// TokenIssuer issues signed access tokens.
type TokenIssuer interface {
	GenerateAccessToken(accountID uuid.UUID, role string, expiresIn time.Duration) (string, error)
}

// Service wires registration, login, and email verification together.
type Service struct {
	store         Store
	verifications verification.Store
	otps          *otp.Store
	notifier      Notifier
	tokens        TokenIssuer
	audit         *audit.Publisher
	tokenTTL      time.Duration
}

func NewService(store Store, verifications verification.Store, otps *otp.Store,
	notifier Notifier, tokens TokenIssuer, publisher *audit.Publisher, tokenTTL time.Duration) *Service {
	return &Service{
		store:         store,
		verifications: verifications,
		otps:          otps,
		notifier:      notifier,
		tokens:        tokens,
		audit:         publisher,
		tokenTTL:      tokenTTL,
	}
}

// Register creates a merchant account together with its verification record:
// nine pending steps, pointer at step 1. An OTP is sent for the email step.
func (s *Service) Register(ctx context.Context, name, email, phone, password string) (*Account, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)
	if name == "" || email == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "name and email are required")
	}
	if len(password) < 8 {
		return nil, dErrors.New(dErrors.CodeBadRequest, "password must be at least 8 characters")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "failed to hash password", err)
	}

	now := time.Now()
	acct := &Account{
		ID:           uuid.New(),
		Name:         name,
		Email:        email,
		Phone:        strings.TrimSpace(phone),
		Role:         middleware.RoleMerchant,
		PasswordHash: hash,
		CreatedAt:    now,
	}
	if err := s.store.Create(ctx, acct); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "email is already registered")
		}
		return nil, dErrors.Wrap(dErrors.CodeInternal, "failed to create account", err)
	}

	if err := s.verifications.Create(ctx, verification.NewRecord(acct.ID, now)); err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "failed to create verification record", err)
	}

	code, err := s.otps.Generate(acct.ID.String())
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "failed to generate verification code", err)
	}
	if err := s.notifier.SendOTP(ctx, acct.Email, code); err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "failed to send verification code", err)
	}

	s.audit.Emit(ctx, audit.Event{
		ActorID:    acct.ID,
		ActorRole:  middleware.RoleMerchant,
		MerchantID: acct.ID,
		Action:     audit.ActionRegistered,
		ClientIP:   middleware.GetClientIP(ctx),
	})
	return acct, nil
}

// Login checks credentials and issues an access token carrying the account's
// role.
func (s *Service) Login(ctx context.Context, email, password string) (string, *Account, error) {
	acct, err := s.store.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return "", nil, dErrors.New(dErrors.CodeUnauthorized, "invalid credentials")
		}
		return "", nil, dErrors.Wrap(dErrors.CodeInternal, "failed to load account", err)
	}
	if bcrypt.CompareHashAndPassword(acct.PasswordHash, []byte(password)) != nil {
		return "", nil, dErrors.New(dErrors.CodeUnauthorized, "invalid credentials")
	}

	token, err := s.tokens.GenerateAccessToken(acct.ID, acct.Role, s.tokenTTL)
	if err != nil {
		return "", nil, dErrors.Wrap(dErrors.CodeInternal, "failed to issue token", err)
	}
	return token, acct, nil
}

// VerifyEmail consumes the OTP and marks step 1 verified. The email step is
// the one step verified without an admin; it follows the same transition rules
// as admin verification, including advancing the step pointer.
func (s *Service) VerifyEmail(ctx context.Context, accountID uuid.UUID, code string) (*verification.Record, error) {
	if err := s.otps.Consume(accountID.String(), code); err != nil {
		switch {
		case errors.Is(err, sentinel.ErrExpired):
			return nil, dErrors.New(dErrors.CodeBadRequest, "verification code has expired")
		case errors.Is(err, sentinel.ErrNotFound), errors.Is(err, sentinel.ErrInvalidState):
			return nil, dErrors.New(dErrors.CodeBadRequest, "invalid verification code")
		default:
			return nil, dErrors.Wrap(dErrors.CodeInternal, "failed to check verification code", err)
		}
	}

	now := time.Now()
	record, err := s.verifications.Update(ctx, accountID, func(r *verification.Record) error {
		if err := r.CanReview(verification.StepEmail, verification.DecisionVerified); err != nil {
			return err
		}
		r.ApplyVerification(verification.StepEmail, now)
		return nil
	})
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.Wrap(dErrors.CodeNotFound, "verification record not found", err)
		}
		var de *dErrors.Error
		if errors.As(err, &de) {
			return nil, err
		}
		return nil, dErrors.Wrap(dErrors.CodeInternal, "storage failure", err)
	}

	s.audit.Emit(ctx, audit.Event{
		ActorID:    accountID,
		ActorRole:  middleware.RoleMerchant,
		MerchantID: accountID,
		Action:     audit.ActionStepVerified,
		StepNumber: verification.StepEmail,
		Decision:   string(verification.DecisionVerified),
		ClientIP:   middleware.GetClientIP(ctx),
	})
	return record, nil
}

// GetAccount loads an account by ID.
func (s *Service) GetAccount(ctx context.Context, id uuid.UUID) (*Account, error) {
	acct, err := s.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.Wrap(dErrors.CodeNotFound, "account not found", err)
		}
		return nil, dErrors.Wrap(dErrors.CodeInternal, "failed to load account", err)
	}
	return acct, nil
}

// LogNotifier is the development Notifier: it logs the code instead of
// sending mail.
type LogNotifier struct {
	Log interface {
		InfoContext(ctx context.Context, msg string, args ...any)
	}
}

func (n LogNotifier) SendOTP(ctx context.Context, email, code string) error {
	n.Log.InfoContext(ctx, "otp issued", "email", email, "code", code)
	return nil
}
