package account

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"kycgate/pkg/sentinel"
)

// PostgresStore persists accounts with a unique lowercase email.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const accountSchema = `
CREATE TABLE IF NOT EXISTS accounts (
    id            UUID PRIMARY KEY,
    name          TEXT NOT NULL,
    email         TEXT NOT NULL UNIQUE,
    phone         TEXT NOT NULL DEFAULT '',
    role          TEXT NOT NULL,
    password_hash BYTEA NOT NULL,
    created_at    TIMESTAMPTZ NOT NULL
);
`

// EnsureSchema creates the backing table when it does not exist yet.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, accountSchema); err != nil {
		return fmt.Errorf("ensure account schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) Create(ctx context.Context, account *Account) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO accounts (id, name, email, phone, role, password_hash, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		account.ID, account.Name, strings.ToLower(account.Email), account.Phone,
		account.Role, account.PasswordHash, account.CreatedAt,
	)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
		return sentinel.ErrConflict
	}
	if err != nil {
		return fmt.Errorf("insert account: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id uuid.UUID) (*Account, error) {
	return s.scanOne(s.db.QueryRowContext(ctx, `
		SELECT id, name, email, phone, role, password_hash, created_at
		FROM accounts WHERE id = $1`, id))
}

func (s *PostgresStore) FindByEmail(ctx context.Context, email string) (*Account, error) {
	return s.scanOne(s.db.QueryRowContext(ctx, `
		SELECT id, name, email, phone, role, password_hash, created_at
		FROM accounts WHERE email = $1`, strings.ToLower(email)))
}

func (s *PostgresStore) scanOne(row *sql.Row) (*Account, error) {
	var account Account
	err := row.Scan(&account.ID, &account.Name, &account.Email, &account.Phone,
		&account.Role, &account.PasswordHash, &account.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan account: %w", err)
	}
	return &account, nil
}
