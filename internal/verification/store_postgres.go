package verification

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"kycgate/pkg/sentinel"
)

// PostgresStore persists one row per merchant with the step sequence as JSONB.
// Update serializes concurrent writers to the same record with a row lock, so
// two admins (or a merchant submit racing an admin review) can never clobber
// each other's step mutation.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const verificationSchema = `
CREATE TABLE IF NOT EXISTS merchant_verifications (
    merchant_id   UUID PRIMARY KEY,
    current_step  INT NOT NULL,
    kyc_completed BOOLEAN NOT NULL DEFAULT FALSE,
    steps         JSONB NOT NULL,
    created_at    TIMESTAMPTZ NOT NULL,
    updated_at    TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_merchant_verifications_submitted
    ON merchant_verifications USING GIN (steps jsonb_path_ops);
`

// EnsureSchema creates the backing table when it does not exist yet.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, verificationSchema); err != nil {
		return fmt.Errorf("ensure verification schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) Create(ctx context.Context, record *Record) error {
	steps, err := json.Marshal(record.Steps)
	if err != nil {
		return fmt.Errorf("marshal steps: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO merchant_verifications (merchant_id, current_step, kyc_completed, steps, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		record.MerchantID, record.CurrentStep, record.KYCCompleted, steps, record.CreatedAt, record.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert verification record: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, merchantID uuid.UUID) (*Record, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT merchant_id, current_step, kyc_completed, steps, created_at, updated_at
		FROM merchant_verifications WHERE merchant_id = $1`, merchantID)
	return scanRecord(row)
}

// Update runs the mutation inside a transaction holding the record's row lock,
// giving the load-mutate-save cycle read-modify-write atomicity.
func (s *PostgresStore) Update(ctx context.Context, merchantID uuid.UUID, mutate func(*Record) error) (*Record, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin verification update: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	row := tx.QueryRowContext(ctx, `
		SELECT merchant_id, current_step, kyc_completed, steps, created_at, updated_at
		FROM merchant_verifications WHERE merchant_id = $1 FOR UPDATE`, merchantID)
	record, err := scanRecord(row)
	if err != nil {
		return nil, err
	}

	if err := mutate(record); err != nil {
		return nil, err
	}

	steps, err := json.Marshal(record.Steps)
	if err != nil {
		return nil, fmt.Errorf("marshal steps: %w", err)
	}
	_, err = tx.ExecContext(ctx, `
		UPDATE merchant_verifications
		SET current_step = $2, kyc_completed = $3, steps = $4, updated_at = $5
		WHERE merchant_id = $1`,
		record.MerchantID, record.CurrentStep, record.KYCCompleted, steps, record.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("update verification record: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit verification update: %w", err)
	}
	return record, nil
}

// ListPending returns records holding at least one submitted step, oldest
// activity first so the longest-waiting merchants surface at the top of the
// review queue.
func (s *PostgresStore) ListPending(ctx context.Context) ([]*Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT merchant_id, current_step, kyc_completed, steps, created_at, updated_at
		FROM merchant_verifications
		WHERE steps @> '[{"status": "submitted"}]'::jsonb
		ORDER BY updated_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("list pending verifications: %w", err)
	}
	defer rows.Close()

	var pending []*Record
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		pending = append(pending, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pending verifications: %w", err)
	}
	return pending, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*Record, error) {
	var (
		record Record
		steps  []byte
	)
	err := row.Scan(&record.MerchantID, &record.CurrentStep, &record.KYCCompleted,
		&steps, &record.CreatedAt, &record.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan verification record: %w", err)
	}
	if err := json.Unmarshal(steps, &record.Steps); err != nil {
		return nil, fmt.Errorf("unmarshal steps: %w", err)
	}
	// Flags are derived; re-derive on load so they never drift from the steps.
	record.Recompute()
	return &record, nil
}
