package audit

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// PostgresStore appends audit events to an insert-only table.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const auditSchema = `
CREATE TABLE IF NOT EXISTS onboarding_audit_events (
    id          UUID PRIMARY KEY,
    occurred_at TIMESTAMPTZ NOT NULL,
    actor_id    UUID NOT NULL,
    actor_role  TEXT NOT NULL,
    merchant_id UUID NOT NULL,
    action      TEXT NOT NULL,
    step_number INT NOT NULL DEFAULT 0,
    decision    TEXT NOT NULL DEFAULT '',
    reason      TEXT NOT NULL DEFAULT '',
    client_ip   TEXT NOT NULL DEFAULT '',
    device      TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_onboarding_audit_merchant
    ON onboarding_audit_events (merchant_id, occurred_at);
`

// EnsureSchema creates the backing table when it does not exist yet.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, auditSchema); err != nil {
		return fmt.Errorf("ensure audit schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) Append(ctx context.Context, event Event) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO onboarding_audit_events
		    (id, occurred_at, actor_id, actor_role, merchant_id, action, step_number, decision, reason, client_ip, device)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		event.ID, event.Timestamp, event.ActorID, event.ActorRole, event.MerchantID,
		event.Action, event.StepNumber, event.Decision, event.Reason, event.ClientIP, event.Device,
	)
	if err != nil {
		return fmt.Errorf("append audit event: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListByMerchant(ctx context.Context, merchantID uuid.UUID) ([]Event, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, occurred_at, actor_id, actor_role, merchant_id, action, step_number, decision, reason, client_ip, device
		FROM onboarding_audit_events
		WHERE merchant_id = $1
		ORDER BY occurred_at ASC`, merchantID)
	if err != nil {
		return nil, fmt.Errorf("list audit events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var (
			event      Event
			occurredAt time.Time
		)
		err := rows.Scan(&event.ID, &occurredAt, &event.ActorID, &event.ActorRole, &event.MerchantID,
			&event.Action, &event.StepNumber, &event.Decision, &event.Reason, &event.ClientIP, &event.Device)
		if err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		event.Timestamp = occurredAt
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit events: %w", err)
	}
	return events, nil
}
