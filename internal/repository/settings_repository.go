package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/hamidrezasoltanian/recruitment-dashboard/internal/models"
)

// settingsRowID pins settings to a single row; the document is read and
// replaced as a whole.
const settingsRowID = 1

// SettingsRepository persists the single settings document.
type SettingsRepository struct {
	db *sqlx.DB
}

// NewSettingsRepository constructs a SettingsRepository.
func NewSettingsRepository(db *sqlx.DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

// Get loads the settings document. A missing row yields empty settings.
func (r *SettingsRepository) Get(ctx context.Context) (*models.Settings, error) {
	var raw []byte
	err := r.db.GetContext(ctx, &raw, "SELECT document FROM settings WHERE id = $1", settingsRowID)
	if err != nil {
		if err == sql.ErrNoRows {
			return &models.Settings{}, nil
		}
		return nil, fmt.Errorf("load settings: %w", err)
	}

	var settings models.Settings
	if err := json.Unmarshal(raw, &settings); err != nil {
		return nil, fmt.Errorf("decode settings: %w", err)
	}
	return &settings, nil
}

// Replace overwrites the settings document.
func (r *SettingsRepository) Replace(ctx context.Context, settings *models.Settings) error {
	settings.UpdatedAt = time.Now().UTC()
	raw, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	const query = `INSERT INTO settings (id, document, updated_at) VALUES ($1, $2, $3)
        ON CONFLICT (id) DO UPDATE SET document = EXCLUDED.document, updated_at = EXCLUDED.updated_at`
	if _, err := r.db.ExecContext(ctx, query, settingsRowID, raw, settings.UpdatedAt); err != nil {
		return fmt.Errorf("replace settings: %w", err)
	}
	return nil
}
