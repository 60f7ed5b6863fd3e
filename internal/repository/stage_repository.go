package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/hamidrezasoltanian/recruitment-dashboard/internal/models"
)

// StageRepository manages the ordered hiring pipeline registry.
type StageRepository struct {
	db *sqlx.DB
}

// NewStageRepository constructs a StageRepository.
func NewStageRepository(db *sqlx.DB) *StageRepository {
	return &StageRepository{db: db}
}

// List returns all stages ordered by board position.
func (r *StageRepository) List(ctx context.Context) ([]models.Stage, error) {
	const query = `SELECT id, title, is_core, position, created_at, updated_at FROM stages ORDER BY position ASC`
	var stages []models.Stage
	if err := r.db.SelectContext(ctx, &stages, query); err != nil {
		return nil, fmt.Errorf("list stages: %w", err)
	}
	return stages, nil
}

// FindByID fetches a stage by identifier.
func (r *StageRepository) FindByID(ctx context.Context, id string) (*models.Stage, error) {
	const query = `SELECT id, title, is_core, position, created_at, updated_at FROM stages WHERE id = $1 LIMIT 1`
	var stage models.Stage
	if err := r.db.GetContext(ctx, &stage, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find stage: %w", err)
	}
	return &stage, nil
}

// ExistsTitle checks whether a stage title is already taken, case-insensitive,
// optionally excluding one stage id.
func (r *StageRepository) ExistsTitle(ctx context.Context, title, excludeID string) (bool, error) {
	query := "SELECT 1 FROM stages WHERE LOWER(title) = LOWER($1)"
	args := []interface{}{title}
	if excludeID != "" {
		query += " AND id <> $2"
		args = append(args, excludeID)
	}
	var exists int
	if err := r.db.GetContext(ctx, &exists, query+" LIMIT 1", args...); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check stage title: %w", err)
	}
	return true, nil
}

// Create appends a new stage at the end of the board.
func (r *StageRepository) Create(ctx context.Context, stage *models.Stage) error {
	now := time.Now().UTC()
	if stage.CreatedAt.IsZero() {
		stage.CreatedAt = now
	}
	stage.UpdatedAt = now
	const query = `INSERT INTO stages (id, title, is_core, position, created_at, updated_at)
        VALUES (:id, :title, :is_core, (SELECT COALESCE(MAX(position), 0) + 1 FROM stages), :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, stage); err != nil {
		return fmt.Errorf("create stage: %w", err)
	}
	return nil
}

// UpdateTitle renames a stage in place. The core flag is immutable.
func (r *StageRepository) UpdateTitle(ctx context.Context, id, title string) error {
	const query = `UPDATE stages SET title = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, title, time.Now().UTC()); err != nil {
		return fmt.Errorf("update stage title: %w", err)
	}
	return nil
}

// Delete removes a stage. Core and occupancy checks happen in the service.
func (r *StageRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM stages WHERE id = $1", id); err != nil {
		return fmt.Errorf("delete stage: %w", err)
	}
	return nil
}

// Reorder persists board positions following the given id ordering.
func (r *StageRepository) Reorder(ctx context.Context, orderedIDs []string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin stage reorder: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	now := time.Now().UTC()
	for i, id := range orderedIDs {
		if _, err := tx.ExecContext(ctx, "UPDATE stages SET position = $2, updated_at = $3 WHERE id = $1", id, i+1, now); err != nil {
			return fmt.Errorf("reorder stage %s: %w", id, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit stage reorder: %w", err)
	}
	return nil
}
