package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ignite/outreach-crm/internal/domain"
	"github.com/ignite/outreach-crm/internal/service/outreach"
)

// BatchRepo implements outreach.BatchRepository against PostgreSQL.
type BatchRepo struct{ db *sql.DB }

// NewBatchRepo creates a Postgres-backed batch repository.
func NewBatchRepo(db *sql.DB) *BatchRepo { return &BatchRepo{db: db} }

const batchCols = `id, config_id, sender_id, template_id, title, is_auto,
	       is_complete, start_at, end_at, created_at, updated_at`

func scanBatch(row interface{ Scan(...interface{}) error }, b *domain.DispatchBatch) error {
	return row.Scan(
		&b.ID, &b.ConfigID, &b.SenderID, &b.TemplateID, &b.Title, &b.IsAuto,
		&b.IsComplete, &b.StartAt, &b.EndAt, &b.CreatedAt, &b.UpdatedAt,
	)
}

func (r *BatchRepo) Get(ctx context.Context, id int64) (*domain.DispatchBatch, error) {
	b := &domain.DispatchBatch{}
	err := scanBatch(r.db.QueryRowContext(ctx, `
		SELECT `+batchCols+`
		FROM outreach_batches
		WHERE id = $1
	`, id), b)
	if err == sql.ErrNoRows {
		return nil, outreach.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get batch: %w", err)
	}
	return b, nil
}

func (r *BatchRepo) List(ctx context.Context, f outreach.BatchFilter) ([]domain.DispatchBatch, int, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = 50
	}

	where := ""
	args := []interface{}{}
	idx := 1
	and := func(cond string, val interface{}) {
		if where == "" {
			where = " WHERE "
		} else {
			where += " AND "
		}
		where += fmt.Sprintf(cond, idx)
		args = append(args, val)
		idx++
	}

	if f.ConfigID != nil {
		and("config_id = $%d", *f.ConfigID)
	}
	if f.IsAuto != nil {
		and("is_auto = $%d", *f.IsAuto)
	}

	var total int
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM outreach_batches`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count batches: %w", err)
	}

	q := `SELECT ` + batchCols + ` FROM outreach_batches` + where +
		fmt.Sprintf(" ORDER BY id DESC LIMIT $%d OFFSET $%d", idx, idx+1)
	args = append(args, limit, f.Offset)

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list batches: %w", err)
	}
	defer rows.Close()

	var out []domain.DispatchBatch
	for rows.Next() {
		var b domain.DispatchBatch
		if err := scanBatch(rows, &b); err != nil {
			return nil, 0, fmt.Errorf("scan batch: %w", err)
		}
		out = append(out, b)
	}
	return out, total, nil
}

// Create inserts a manual batch and attaches its target recipients in one
// transaction, so a half-attached batch can never become visible to the
// pending-batch processor.
func (r *BatchRepo) Create(ctx context.Context, b *domain.DispatchBatch, targetIDs []int64) (int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin create batch: %w", err)
	}
	defer tx.Rollback()

	err = tx.QueryRowContext(ctx, `
		INSERT INTO outreach_batches
			(config_id, sender_id, template_id, title, is_auto, is_complete,
			 start_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, false, $6, NOW(), NOW())
		RETURNING id
	`, b.ConfigID, b.SenderID, b.TemplateID, b.Title, b.IsAuto, b.StartAt).Scan(&b.ID)
	if err != nil {
		return 0, fmt.Errorf("create batch: %w", err)
	}

	for _, rid := range targetIDs {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO outreach_batch_targets (batch_id, recipient_id)
			VALUES ($1, $2)
			ON CONFLICT DO NOTHING
		`, b.ID, rid); err != nil {
			return 0, fmt.Errorf("attach batch target: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit create batch: %w", err)
	}
	return b.ID, nil
}
