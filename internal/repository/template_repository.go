package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/hamidrezasoltanian/recruitment-dashboard/internal/models"
)

// TemplateRepository manages persistence for message templates.
type TemplateRepository struct {
	db *sqlx.DB
}

// NewTemplateRepository constructs a TemplateRepository.
func NewTemplateRepository(db *sqlx.DB) *TemplateRepository {
	return &TemplateRepository{db: db}
}

const templateColumns = `id, name, content, type, stage_id, created_at, updated_at`

// List returns templates matching the filter, ordered by id so that a stage
// with multiple bound templates resolves deterministically (first match wins).
func (r *TemplateRepository) List(ctx context.Context, filter models.TemplateFilter) ([]models.Template, error) {
	base := "FROM templates WHERE 1=1"
	var args []interface{}

	if filter.StageID != "" {
		base += fmt.Sprintf(" AND stage_id = $%d", len(args)+1)
		args = append(args, filter.StageID)
	}
	if filter.Type != "" {
		base += fmt.Sprintf(" AND type = $%d", len(args)+1)
		args = append(args, filter.Type)
	}

	query := fmt.Sprintf("SELECT %s %s ORDER BY id ASC", templateColumns, base)
	var templates []models.Template
	if err := r.db.SelectContext(ctx, &templates, query, args...); err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	return templates, nil
}

// FindByID fetches a template by identifier.
func (r *TemplateRepository) FindByID(ctx context.Context, id string) (*models.Template, error) {
	query := fmt.Sprintf("SELECT %s FROM templates WHERE id = $1 LIMIT 1", templateColumns)
	var tmpl models.Template
	if err := r.db.GetContext(ctx, &tmpl, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find template: %w", err)
	}
	return &tmpl, nil
}

// FindForStage returns the first template bound to the stage and channel,
// or sql.ErrNoRows when none is configured.
func (r *TemplateRepository) FindForStage(ctx context.Context, stageID string, tmplType models.TemplateType) (*models.Template, error) {
	query := fmt.Sprintf("SELECT %s FROM templates WHERE stage_id = $1 AND type = $2 ORDER BY id ASC LIMIT 1", templateColumns)
	var tmpl models.Template
	if err := r.db.GetContext(ctx, &tmpl, query, stageID, tmplType); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find template for stage: %w", err)
	}
	return &tmpl, nil
}

// Create inserts a new template.
func (r *TemplateRepository) Create(ctx context.Context, tmpl *models.Template) error {
	if tmpl.ID == "" {
		tmpl.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if tmpl.CreatedAt.IsZero() {
		tmpl.CreatedAt = now
	}
	tmpl.UpdatedAt = now
	const query = `INSERT INTO templates (id, name, content, type, stage_id, created_at, updated_at)
        VALUES (:id, :name, :content, :type, :stage_id, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, tmpl); err != nil {
		return fmt.Errorf("create template: %w", err)
	}
	return nil
}

// Update modifies an existing template.
func (r *TemplateRepository) Update(ctx context.Context, tmpl *models.Template) error {
	tmpl.UpdatedAt = time.Now().UTC()
	const query = `UPDATE templates SET name = :name, content = :content, type = :type, stage_id = :stage_id, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, tmpl); err != nil {
		return fmt.Errorf("update template: %w", err)
	}
	return nil
}

// Delete removes a template.
func (r *TemplateRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM templates WHERE id = $1", id); err != nil {
		return fmt.Errorf("delete template: %w", err)
	}
	return nil
}
