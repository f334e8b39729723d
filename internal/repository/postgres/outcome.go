package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ignite/outreach-crm/internal/domain"
)

// OutcomeRepo reads the append-only outcome log for the admin API. Writes
// go through DispatchStore so the recipient status advance stays
// transactional.
type OutcomeRepo struct{ db *sql.DB }

// NewOutcomeRepo creates a Postgres-backed outcome reader.
func NewOutcomeRepo(db *sql.DB) *OutcomeRepo { return &OutcomeRepo{db: db} }

func (r *OutcomeRepo) ListByBatch(ctx context.Context, batchID int64) ([]domain.OutcomeRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, batch_id, recipient_id, sender_id, message_text,
		       result, COALESCE(detail,''), created_at
		FROM outreach_outcomes
		WHERE batch_id = $1
		ORDER BY id ASC
	`, batchID)
	if err != nil {
		return nil, fmt.Errorf("list outcomes: %w", err)
	}
	defer rows.Close()

	var out []domain.OutcomeRecord
	for rows.Next() {
		var o domain.OutcomeRecord
		if err := rows.Scan(
			&o.ID, &o.BatchID, &o.RecipientID, &o.SenderID, &o.MessageText,
			&o.Result, &o.Detail, &o.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan outcome: %w", err)
		}
		out = append(out, o)
	}
	return out, nil
}

func (r *OutcomeRepo) CountSuccessesOn(ctx context.Context, day time.Time) (int, error) {
	return countSuccessesOn(ctx, r.db, day)
}

func countSuccessesOn(ctx context.Context, db *sql.DB, day time.Time) (int, error) {
	var n int
	err := db.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM outreach_outcomes
		WHERE result = 'success' AND created_at::date = $1::date
	`, day).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count successes: %w", err)
	}
	return n, nil
}
