package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/ignite/outreach-crm/internal/domain"
	"github.com/ignite/outreach-crm/internal/service/outreach"
)

// RecipientRepo implements outreach.RecipientRepository against PostgreSQL.
type RecipientRepo struct{ db *sql.DB }

// NewRecipientRepo creates a Postgres-backed recipient repository.
func NewRecipientRepo(db *sql.DB) *RecipientRepo { return &RecipientRepo{db: db} }

const recipientCols = `id, username, COALESCE(nickname,''), COALESCE(country,''),
	       status, review_status, review_score, follower_count,
	       COALESCE(profile_url,''), reviewed_at, created_at, updated_at`

func scanRecipient(row interface{ Scan(...interface{}) error }, rec *domain.Recipient) error {
	return row.Scan(
		&rec.ID, &rec.Username, &rec.Nickname, &rec.Country,
		&rec.Status, &rec.ReviewStatus, &rec.ReviewScore, &rec.FollowerCount,
		&rec.ProfileURL, &rec.ReviewedAt, &rec.CreatedAt, &rec.UpdatedAt,
	)
}

func (r *RecipientRepo) Get(ctx context.Context, id int64) (*domain.Recipient, error) {
	rec := &domain.Recipient{}
	err := scanRecipient(r.db.QueryRowContext(ctx, `
		SELECT `+recipientCols+`
		FROM outreach_recipients
		WHERE id = $1
	`, id), rec)
	if err == sql.ErrNoRows {
		return nil, outreach.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get recipient: %w", err)
	}
	return rec, nil
}

func (r *RecipientRepo) List(ctx context.Context, f outreach.RecipientFilter) ([]domain.Recipient, int, error) {
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

	if f.Status != "" {
		and("status = $%d", f.Status)
	}
	if f.ReviewStatus != "" {
		and("review_status = $%d", f.ReviewStatus)
	}
	if f.Country != "" {
		and("country = $%d", f.Country)
	}
	if f.MinScore != nil {
		and("review_score >= $%d", *f.MinScore)
	}

	var total int
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM outreach_recipients`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count recipients: %w", err)
	}

	q := `SELECT ` + recipientCols + ` FROM outreach_recipients` + where +
		fmt.Sprintf(" ORDER BY id ASC LIMIT $%d OFFSET $%d", idx, idx+1)
	args = append(args, limit, f.Offset)

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list recipients: %w", err)
	}
	defer rows.Close()

	var out []domain.Recipient
	for rows.Next() {
		var rec domain.Recipient
		if err := scanRecipient(rows, &rec); err != nil {
			return nil, 0, fmt.Errorf("scan recipient: %w", err)
		}
		out = append(out, rec)
	}
	return out, total, nil
}

func (r *RecipientRepo) Create(ctx context.Context, rec *domain.Recipient) (int64, error) {
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO outreach_recipients
			(username, nickname, country, status, review_status,
			 review_score, follower_count, profile_url, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())
		RETURNING id
	`, rec.Username, rec.Nickname, rec.Country, rec.Status, rec.ReviewStatus,
		rec.ReviewScore, rec.FollowerCount, rec.ProfileURL).Scan(&rec.ID)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return 0, outreach.ErrDuplicateUsername
		}
		return 0, fmt.Errorf("create recipient: %w", err)
	}
	return rec.ID, nil
}

func (r *RecipientRepo) SetReview(ctx context.Context, id int64, status domain.ReviewStatus, score int, reviewedAt time.Time) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE outreach_recipients
		SET review_status = $1, review_score = $2, reviewed_at = $3, updated_at = NOW()
		WHERE id = $4
	`, status, score, reviewedAt, id)
	if err != nil {
		return fmt.Errorf("set review: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return outreach.ErrNotFound
	}
	return nil
}
