package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/hamidrezasoltanian/recruitment-dashboard/internal/models"
	appErrors "github.com/hamidrezasoltanian/recruitment-dashboard/pkg/errors"
)

type settingsRepository interface {
	Get(ctx context.Context) (*models.Settings, error)
	Replace(ctx context.Context, settings *models.Settings) error
}

type snapshotStageRepository interface {
	List(ctx context.Context) ([]models.Stage, error)
	FindByID(ctx context.Context, id string) (*models.Stage, error)
	Create(ctx context.Context, stage *models.Stage) error
	UpdateTitle(ctx context.Context, id, title string) error
	Reorder(ctx context.Context, orderedIDs []string) error
}

type snapshotTemplateRepository interface {
	List(ctx context.Context, filter models.TemplateFilter) ([]models.Template, error)
	Create(ctx context.Context, tmpl *models.Template) error
	Update(ctx context.Context, tmpl *models.Template) error
	FindByID(ctx context.Context, id string) (*models.Template, error)
}

// UpdateSettingsRequest replaces the whole settings document.
type UpdateSettingsRequest struct {
	Sources        []models.Source         `json:"sources"`
	CompanyProfile models.CompanyProfile   `json:"company_profile"`
	TestLibrary    []models.TestDefinition `json:"test_library"`
}

// SettingsService manages the single-document configuration and the
// backup/restore snapshot that bundles settings, stages and templates.
type SettingsService struct {
	repo      settingsRepository
	stages    snapshotStageRepository
	templates snapshotTemplateRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSettingsService constructs the settings service.
func NewSettingsService(repo settingsRepository, stages snapshotStageRepository, templates snapshotTemplateRepository, validate *validator.Validate, logger *zap.Logger) *SettingsService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SettingsService{repo: repo, stages: stages, templates: templates, validator: validate, logger: logger}
}

// Get returns the current settings document.
func (s *SettingsService) Get(ctx context.Context) (*models.Settings, error) {
	settings, err := s.repo.Get(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load settings")
	}
	return settings, nil
}

// Update replaces the settings document as a whole.
func (s *SettingsService) Update(ctx context.Context, actor string, req UpdateSettingsRequest) (*models.Settings, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid settings payload")
	}
	settings := &models.Settings{
		Sources:        req.Sources,
		CompanyProfile: req.CompanyProfile,
		TestLibrary:    req.TestLibrary,
		UpdatedBy:      &actor,
		UpdatedAt:      time.Now().UTC(),
	}
	if err := s.repo.Replace(ctx, settings); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store settings")
	}
	return settings, nil
}

// Snapshot bundles the configuration surface for export.
func (s *SettingsService) Snapshot(ctx context.Context) (*models.Snapshot, error) {
	settings, err := s.repo.Get(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load settings")
	}
	stages, err := s.stages.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list stages")
	}
	templates, err := s.templates.List(ctx, models.TemplateFilter{})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list templates")
	}
	return &models.Snapshot{
		Settings:  *settings,
		Stages:    stages,
		Templates: templates,
		TakenAt:   time.Now().UTC(),
	}, nil
}

// Restore applies a snapshot. The settings document is replaced outright;
// stages and templates are upserted by id so candidate stage references stay
// valid. Stages present in the database but absent from the snapshot are left
// in place.
func (s *SettingsService) Restore(ctx context.Context, actor string, snapshot models.Snapshot) error {
	settings := snapshot.Settings
	settings.UpdatedBy = &actor
	settings.UpdatedAt = time.Now().UTC()
	if err := s.repo.Replace(ctx, &settings); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to restore settings")
	}

	var order []string
	for _, stage := range snapshot.Stages {
		existing, err := s.stages.FindByID(ctx, stage.ID)
		switch {
		case err == sql.ErrNoRows:
			created := stage
			if err := s.stages.Create(ctx, &created); err != nil {
				return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to restore stage "+stage.ID)
			}
		case err != nil:
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load stage "+stage.ID)
		default:
			if existing.Title != stage.Title {
				if err := s.stages.UpdateTitle(ctx, stage.ID, stage.Title); err != nil {
					return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to restore stage "+stage.ID)
				}
			}
		}
		order = append(order, stage.ID)
	}
	if len(order) > 0 {
		if err := s.stages.Reorder(ctx, order); err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to restore stage order")
		}
	}

	for _, tmpl := range snapshot.Templates {
		restored := tmpl
		if _, err := s.templates.FindByID(ctx, tmpl.ID); err != nil {
			if err != sql.ErrNoRows {
				return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load template "+tmpl.ID)
			}
			if err := s.templates.Create(ctx, &restored); err != nil {
				return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to restore template "+tmpl.ID)
			}
			continue
		}
		if err := s.templates.Update(ctx, &restored); err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to restore template "+tmpl.ID)
		}
	}

	s.logger.Info("configuration snapshot restored", zap.String("actor", actor), zap.Time("taken_at", snapshot.TakenAt))
	return nil
}
