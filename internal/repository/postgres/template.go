package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/ignite/outreach-crm/internal/domain"
	"github.com/ignite/outreach-crm/internal/service/outreach"
)

// TemplateRepo implements outreach.TemplateRepository against PostgreSQL.
type TemplateRepo struct{ db *sql.DB }

// NewTemplateRepo creates a Postgres-backed template repository.
func NewTemplateRepo(db *sql.DB) *TemplateRepo { return &TemplateRepo{db: db} }

const templateCols = `id, name, template_code, COALESCE(header_json,''),
	       COALESCE(body_json,''), COALESCE(footer_json,''), created_at, updated_at`

func scanTemplate(row interface{ Scan(...interface{}) error }, t *domain.MessageTemplate) error {
	return row.Scan(
		&t.ID, &t.Name, &t.TemplateCode, &t.HeaderJSON,
		&t.BodyJSON, &t.FooterJSON, &t.CreatedAt, &t.UpdatedAt,
	)
}

func (r *TemplateRepo) Get(ctx context.Context, id int64) (*domain.MessageTemplate, error) {
	t := &domain.MessageTemplate{}
	err := scanTemplate(r.db.QueryRowContext(ctx, `
		SELECT `+templateCols+`
		FROM outreach_templates
		WHERE id = $1
	`, id), t)
	if err == sql.ErrNoRows {
		return nil, outreach.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get template: %w", err)
	}
	return t, nil
}

func (r *TemplateRepo) List(ctx context.Context) ([]domain.MessageTemplate, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+templateCols+`
		FROM outreach_templates
		ORDER BY id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	defer rows.Close()

	var out []domain.MessageTemplate
	for rows.Next() {
		var t domain.MessageTemplate
		if err := scanTemplate(rows, &t); err != nil {
			return nil, fmt.Errorf("scan template: %w", err)
		}
		out = append(out, t)
	}
	return out, nil
}

func (r *TemplateRepo) Create(ctx context.Context, t *domain.MessageTemplate) (int64, error) {
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO outreach_templates
			(name, template_code, header_json, body_json, footer_json, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		RETURNING id
	`, t.Name, t.TemplateCode, t.HeaderJSON, t.BodyJSON, t.FooterJSON).Scan(&t.ID)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return 0, outreach.ErrDuplicateCode
		}
		return 0, fmt.Errorf("create template: %w", err)
	}
	return t.ID, nil
}

func (r *TemplateRepo) Update(ctx context.Context, id int64, u outreach.TemplateUpdate) error {
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
	if u.HeaderJSON != nil {
		add("header_json", *u.HeaderJSON)
	}
	if u.BodyJSON != nil {
		add("body_json", *u.BodyJSON)
	}
	if u.FooterJSON != nil {
		add("footer_json", *u.FooterJSON)
	}

	if len(sets) == 0 {
		return nil
	}
	sets = append(sets, "updated_at = NOW()")

	q := fmt.Sprintf("UPDATE outreach_templates SET %s WHERE id = $%d", joinComma(sets), idx)
	args = append(args, id)

	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return fmt.Errorf("update template: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return outreach.ErrNotFound
	}
	return nil
}
