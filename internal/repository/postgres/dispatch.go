package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ignite/outreach-crm/internal/domain"
)

// DispatchStore implements dispatch.Store against PostgreSQL. It is the
// engine's narrow view of the database; the admin API uses the CRUD repos
// in this package instead.
type DispatchStore struct{ db *sql.DB }

// NewDispatchStore creates a Postgres-backed dispatch store.
func NewDispatchStore(db *sql.DB) *DispatchStore { return &DispatchStore{db: db} }

func (s *DispatchStore) ListActiveConfigs(ctx context.Context, configID *int64) ([]domain.AutoDMConfig, error) {
	q := `
		SELECT ` + configCols + `
		FROM outreach_dm_configs
		WHERE is_active = true`
	args := []interface{}{}
	if configID != nil {
		q += ` AND id = $1`
		args = append(args, *configID)
	}
	q += ` ORDER BY priority ASC, id ASC`

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list active configs: %w", err)
	}
	defer rows.Close()

	var out []domain.AutoDMConfig
	for rows.Next() {
		var c domain.AutoDMConfig
		if err := scanConfig(rows, &c); err != nil {
			return nil, fmt.Errorf("scan config: %w", err)
		}
		out = append(out, c)
	}
	return out, nil
}

func (s *DispatchStore) GetSender(ctx context.Context, id int64) (*domain.Sender, error) {
	return NewSenderRepo(s.db).Get(ctx, id)
}

func (s *DispatchStore) GetTemplate(ctx context.Context, id int64) (*domain.MessageTemplate, error) {
	return NewTemplateRepo(s.db).Get(ctx, id)
}

func (s *DispatchStore) SelectTargets(ctx context.Context, cfg domain.AutoDMConfig, limit int) ([]domain.Recipient, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+recipientCols+`
		FROM outreach_recipients
		WHERE review_status = 'approved'
		  AND status = 'unconfirmed'
		  AND country = $1
		  AND review_score >= $2
		  AND username IS NOT NULL AND username <> ''
		ORDER BY id ASC
		LIMIT $3
	`, cfg.Country, cfg.MinReviewScore, limit)
	if err != nil {
		return nil, fmt.Errorf("select targets: %w", err)
	}
	defer rows.Close()

	out := []domain.Recipient{}
	for rows.Next() {
		var rec domain.Recipient
		if err := scanRecipient(rows, &rec); err != nil {
			return nil, fmt.Errorf("scan target: %w", err)
		}
		out = append(out, rec)
	}
	return out, nil
}

func (s *DispatchStore) CountSuccessesOn(ctx context.Context, day time.Time) (int, error) {
	return countSuccessesOn(ctx, s.db, day)
}

func (s *DispatchStore) CreateBatch(ctx context.Context, b *domain.DispatchBatch) (int64, error) {
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO outreach_batches
			(config_id, sender_id, template_id, title, is_auto, is_complete,
			 start_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, false, $6, NOW(), NOW())
		RETURNING id
	`, b.ConfigID, b.SenderID, b.TemplateID, b.Title, b.IsAuto, b.StartAt).Scan(&b.ID)
	if err != nil {
		return 0, fmt.Errorf("create batch: %w", err)
	}
	return b.ID, nil
}

func (s *DispatchStore) CompleteBatch(ctx context.Context, id int64, endAt time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE outreach_batches
		SET is_complete = true, end_at = $1, updated_at = NOW()
		WHERE id = $2
	`, endAt, id)
	if err != nil {
		return fmt.Errorf("complete batch: %w", err)
	}
	return nil
}

func (s *DispatchStore) MarkConfigSent(ctx context.Context, id int64, at time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE outreach_dm_configs
		SET last_sent_at = $1, updated_at = NOW()
		WHERE id = $2
	`, at, id)
	if err != nil {
		return fmt.Errorf("mark config sent: %w", err)
	}
	return nil
}

// RecordOutcome appends one outcome row. A success row and the recipient's
// unconfirmed -> dm_sent advance commit together, so the quota count and
// the eligibility pool can never disagree about a sent DM.
func (s *DispatchStore) RecordOutcome(ctx context.Context, rec domain.OutcomeRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin record outcome: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO outreach_outcomes
			(batch_id, recipient_id, sender_id, message_text, result, detail, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
	`, rec.BatchID, rec.RecipientID, rec.SenderID, rec.MessageText, rec.Result, rec.Detail); err != nil {
		return fmt.Errorf("insert outcome: %w", err)
	}

	if rec.Result == domain.OutcomeSuccess {
		if _, err := tx.ExecContext(ctx, `
			UPDATE outreach_recipients
			SET status = 'dm_sent', updated_at = NOW()
			WHERE id = $1 AND status = 'unconfirmed'
		`, rec.RecipientID); err != nil {
			return fmt.Errorf("advance recipient: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit record outcome: %w", err)
	}
	return nil
}

func (s *DispatchStore) ListPendingBatches(ctx context.Context, now time.Time) ([]domain.DispatchBatch, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+batchCols+`
		FROM outreach_batches
		WHERE is_auto = false
		  AND is_complete = false
		  AND start_at <= $1
		  AND (end_at IS NULL OR end_at > $1)
		ORDER BY id ASC
	`, now)
	if err != nil {
		return nil, fmt.Errorf("list pending batches: %w", err)
	}
	defer rows.Close()

	var out []domain.DispatchBatch
	for rows.Next() {
		var b domain.DispatchBatch
		if err := scanBatch(rows, &b); err != nil {
			return nil, fmt.Errorf("scan pending batch: %w", err)
		}
		out = append(out, b)
	}
	return out, nil
}

func (s *DispatchStore) ListRemainingBatchTargets(ctx context.Context, batchID int64) ([]domain.Recipient, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+recipientCols+`
		FROM outreach_recipients r
		JOIN outreach_batch_targets bt ON bt.recipient_id = r.id
		WHERE bt.batch_id = $1
		  AND NOT EXISTS (
		      SELECT 1 FROM outreach_outcomes o
		      WHERE o.batch_id = bt.batch_id
		        AND o.recipient_id = r.id
		        AND o.result = 'success'
		  )
		ORDER BY r.id ASC
	`, batchID)
	if err != nil {
		return nil, fmt.Errorf("list batch targets: %w", err)
	}
	defer rows.Close()

	var out []domain.Recipient
	for rows.Next() {
		var rec domain.Recipient
		if err := scanRecipient(rows, &rec); err != nil {
			return nil, fmt.Errorf("scan batch target: %w", err)
		}
		out = append(out, rec)
	}
	return out, nil
}
