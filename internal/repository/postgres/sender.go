package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ignite/outreach-crm/internal/domain"
	"github.com/ignite/outreach-crm/internal/service/outreach"
)

// SenderRepo implements outreach.SenderRepository against PostgreSQL.
type SenderRepo struct{ db *sql.DB }

// NewSenderRepo creates a Postgres-backed sender repository.
func NewSenderRepo(db *sql.DB) *SenderRepo { return &SenderRepo{db: db} }

const senderCols = `id, name, username, platform, session_file_path, is_active,
	       created_at, updated_at`

func scanSender(row interface{ Scan(...interface{}) error }, s *domain.Sender) error {
	return row.Scan(
		&s.ID, &s.Name, &s.Username, &s.Platform, &s.SessionFilePath,
		&s.IsActive, &s.CreatedAt, &s.UpdatedAt,
	)
}

func (r *SenderRepo) Get(ctx context.Context, id int64) (*domain.Sender, error) {
	s := &domain.Sender{}
	err := scanSender(r.db.QueryRowContext(ctx, `
		SELECT `+senderCols+`
		FROM outreach_senders
		WHERE id = $1
	`, id), s)
	if err == sql.ErrNoRows {
		return nil, outreach.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get sender: %w", err)
	}
	return s, nil
}

func (r *SenderRepo) List(ctx context.Context) ([]domain.Sender, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+senderCols+`
		FROM outreach_senders
		ORDER BY id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list senders: %w", err)
	}
	defer rows.Close()

	var out []domain.Sender
	for rows.Next() {
		var s domain.Sender
		if err := scanSender(rows, &s); err != nil {
			return nil, fmt.Errorf("scan sender: %w", err)
		}
		out = append(out, s)
	}
	return out, nil
}

func (r *SenderRepo) Create(ctx context.Context, s *domain.Sender) (int64, error) {
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO outreach_senders
			(name, username, platform, session_file_path, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		RETURNING id
	`, s.Name, s.Username, s.Platform, s.SessionFilePath, s.IsActive).Scan(&s.ID)
	if err != nil {
		return 0, fmt.Errorf("create sender: %w", err)
	}
	return s.ID, nil
}

func (r *SenderRepo) Update(ctx context.Context, id int64, u outreach.SenderUpdate) error {
	sets := []string{}
	args := []interface{}{}
	idx := 1
	add := func(col string, val interface{}) {
		sets = append(sets, fmt.Sprintf("%s = $%d", col, idx))
		args = append(args, val)
		idx++
	}

	if u.Name != nil {
		add("name", *u.Name)
	}
	if u.Username != nil {
		add("username", *u.Username)
	}
	if u.Platform != nil {
		add("platform", *u.Platform)
	}
	if u.SessionFilePath != nil {
		add("session_file_path", *u.SessionFilePath)
	}
	if u.IsActive != nil {
		add("is_active", *u.IsActive)
	}

	if len(sets) == 0 {
		return nil
	}
	sets = append(sets, "updated_at = NOW()")

	q := fmt.Sprintf("UPDATE outreach_senders SET %s WHERE id = $%d", joinComma(sets), idx)
	args = append(args, id)

	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return fmt.Errorf("update sender: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return outreach.ErrNotFound
	}
	return nil
}
