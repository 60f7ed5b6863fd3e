package service

import (
	"context"
	"database/sql"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/hamidrezasoltanian/recruitment-dashboard/internal/models"
	appErrors "github.com/hamidrezasoltanian/recruitment-dashboard/pkg/errors"
)

type templateRepository interface {
	List(ctx context.Context, filter models.TemplateFilter) ([]models.Template, error)
	FindByID(ctx context.Context, id string) (*models.Template, error)
	Create(ctx context.Context, tmpl *models.Template) error
	Update(ctx context.Context, tmpl *models.Template) error
	Delete(ctx context.Context, id string) error
}

type templateStageChecker interface {
	FindByID(ctx context.Context, id string) (*models.Stage, error)
}

// SaveTemplateRequest is the payload for creating or updating a template.
type SaveTemplateRequest struct {
	Name    string              `json:"name" validate:"required"`
	Content string              `json:"content" validate:"required"`
	Type    models.TemplateType `json:"type" validate:"required,oneof=email whatsapp"`
	StageID *string             `json:"stage_id,omitempty"`
}

// TemplateService manages notification templates. A template bound to a stage
// becomes the proposed message for transitions into that stage.
type TemplateService struct {
	repo      templateRepository
	stages    templateStageChecker
	validator *validator.Validate
	logger    *zap.Logger
}

// NewTemplateService constructs the template service.
func NewTemplateService(repo templateRepository, stages templateStageChecker, validate *validator.Validate, logger *zap.Logger) *TemplateService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TemplateService{repo: repo, stages: stages, validator: validate, logger: logger}
}

// List returns templates, optionally filtered by stage and type.
func (s *TemplateService) List(ctx context.Context, filter models.TemplateFilter) ([]models.Template, error) {
	templates, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list templates")
	}
	return templates, nil
}

// Get loads a template by id.
func (s *TemplateService) Get(ctx context.Context, id string) (*models.Template, error) {
	tmpl, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "template not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load template")
	}
	return tmpl, nil
}

// Create stores a new template after validating any stage binding.
func (s *TemplateService) Create(ctx context.Context, req SaveTemplateRequest) (*models.Template, error) {
	if err := s.validateRequest(ctx, &req); err != nil {
		return nil, err
	}
	tmpl := &models.Template{
		Name:    strings.TrimSpace(req.Name),
		Content: req.Content,
		Type:    req.Type,
		StageID: req.StageID,
	}
	if err := s.repo.Create(ctx, tmpl); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create template")
	}
	return tmpl, nil
}

// Update replaces the template's content, type and stage binding.
func (s *TemplateService) Update(ctx context.Context, id string, req SaveTemplateRequest) (*models.Template, error) {
	if err := s.validateRequest(ctx, &req); err != nil {
		return nil, err
	}
	tmpl, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "template not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load template")
	}
	tmpl.Name = strings.TrimSpace(req.Name)
	tmpl.Content = req.Content
	tmpl.Type = req.Type
	tmpl.StageID = req.StageID
	if err := s.repo.Update(ctx, tmpl); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update template")
	}
	return tmpl, nil
}

// Delete removes a template. Transitions into the affected stage simply stop
// proposing a notification.
func (s *TemplateService) Delete(ctx context.Context, id string) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "template not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load template")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete template")
	}
	return nil
}

func (s *TemplateService) validateRequest(ctx context.Context, req *SaveTemplateRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid template payload")
	}
	if req.StageID != nil {
		trimmed := strings.TrimSpace(*req.StageID)
		if trimmed == "" {
			req.StageID = nil
			return nil
		}
		req.StageID = &trimmed
		if _, err := s.stages.FindByID(ctx, trimmed); err != nil {
			if err == sql.ErrNoRows {
				return appErrors.Clone(appErrors.ErrValidation, "template references an unknown stage")
			}
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate stage binding")
		}
	}
	return nil
}
