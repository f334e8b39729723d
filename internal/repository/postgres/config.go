package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ignite/outreach-crm/internal/domain"
	"github.com/ignite/outreach-crm/internal/service/outreach"
)

// ConfigRepo implements outreach.ConfigRepository against PostgreSQL.
type ConfigRepo struct{ db *sql.DB }

// NewConfigRepo creates a Postgres-backed configuration repository.
func NewConfigRepo(db *sql.DB) *ConfigRepo { return &ConfigRepo{db: db} }

const configCols = `id, name, country, is_active, sender_id, template_id,
	       schedule_type, schedule_time, schedule_day, min_review_score,
	       priority, last_sent_at, created_at, updated_at`

func scanConfig(row interface{ Scan(...interface{}) error }, c *domain.AutoDMConfig) error {
	return row.Scan(
		&c.ID, &c.Name, &c.Country, &c.IsActive, &c.SenderID, &c.TemplateID,
		&c.ScheduleType, &c.ScheduleTime, &c.ScheduleDay, &c.MinReviewScore,
		&c.Priority, &c.LastSentAt, &c.CreatedAt, &c.UpdatedAt,
	)
}

func (r *ConfigRepo) Get(ctx context.Context, id int64) (*domain.AutoDMConfig, error) {
	c := &domain.AutoDMConfig{}
	err := scanConfig(r.db.QueryRowContext(ctx, `
		SELECT `+configCols+`
		FROM outreach_dm_configs
		WHERE id = $1
	`, id), c)
	if err == sql.ErrNoRows {
		return nil, outreach.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get config: %w", err)
	}
	return c, nil
}

func (r *ConfigRepo) List(ctx context.Context, f outreach.ConfigFilter) ([]domain.AutoDMConfig, int, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = 50
	}

	countQ := `SELECT COUNT(*) FROM outreach_dm_configs`
	args := []interface{}{}
	idx := 1
	if f.Active != nil {
		countQ += fmt.Sprintf(" WHERE is_active = $%d", idx)
		args = append(args, *f.Active)
		idx++
	}

	var total int
	if err := r.db.QueryRowContext(ctx, countQ, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count configs: %w", err)
	}

	q := `SELECT ` + configCols + ` FROM outreach_dm_configs`
	qArgs := []interface{}{}
	qIdx := 1
	if f.Active != nil {
		q += fmt.Sprintf(" WHERE is_active = $%d", qIdx)
		qArgs = append(qArgs, *f.Active)
		qIdx++
	}
	q += fmt.Sprintf(" ORDER BY priority ASC, id ASC LIMIT $%d OFFSET $%d", qIdx, qIdx+1)
	qArgs = append(qArgs, limit, f.Offset)

	rows, err := r.db.QueryContext(ctx, q, qArgs...)
	if err != nil {
		return nil, 0, fmt.Errorf("list configs: %w", err)
	}
	defer rows.Close()

	var out []domain.AutoDMConfig
	for rows.Next() {
		var c domain.AutoDMConfig
		if err := scanConfig(rows, &c); err != nil {
			return nil, 0, fmt.Errorf("scan config: %w", err)
		}
		out = append(out, c)
	}
	return out, total, nil
}

func (r *ConfigRepo) Create(ctx context.Context, c *domain.AutoDMConfig) (int64, error) {
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO outreach_dm_configs
			(name, country, is_active, sender_id, template_id,
			 schedule_type, schedule_time, schedule_day, min_review_score,
			 priority, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW(), NOW())
		RETURNING id
	`, c.Name, c.Country, c.IsActive, c.SenderID, c.TemplateID,
		c.ScheduleType, c.ScheduleTime, c.ScheduleDay, c.MinReviewScore,
		c.Priority).Scan(&c.ID)
	if err != nil {
		return 0, fmt.Errorf("create config: %w", err)
	}
	return c.ID, nil
}

func (r *ConfigRepo) Update(ctx context.Context, id int64, u outreach.ConfigUpdate) error {
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
	if u.Country != nil {
		add("country", *u.Country)
	}
	if u.IsActive != nil {
		add("is_active", *u.IsActive)
	}
	if u.SenderID != nil {
		add("sender_id", *u.SenderID)
	}
	if u.TemplateID != nil {
		add("template_id", *u.TemplateID)
	}
	if u.ScheduleType != nil {
		add("schedule_type", *u.ScheduleType)
	}
	if u.ScheduleTime != nil {
		add("schedule_time", *u.ScheduleTime)
	}
	if u.ScheduleDay != nil {
		add("schedule_day", *u.ScheduleDay)
	}
	if u.MinReviewScore != nil {
		add("min_review_score", *u.MinReviewScore)
	}
	if u.Priority != nil {
		add("priority", *u.Priority)
	}

	if len(sets) == 0 {
		return nil
	}
	sets = append(sets, "updated_at = NOW()")

	q := fmt.Sprintf("UPDATE outreach_dm_configs SET %s WHERE id = $%d",
		joinComma(sets), idx)
	args = append(args, id)

	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return fmt.Errorf("update config: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return outreach.ErrNotFound
	}
	return nil
}

func (r *ConfigRepo) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM outreach_dm_configs WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete config: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return outreach.ErrNotFound
	}
	return nil
}

func joinComma(parts []string) string {
	out := ""
	for i, p := range parts {
		if i > 0 {
			out += ", "
		}
		out += p
	}
	return out
}
