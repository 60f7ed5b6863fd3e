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

type stageRepository interface {
	List(ctx context.Context) ([]models.Stage, error)
	FindByID(ctx context.Context, id string) (*models.Stage, error)
	ExistsTitle(ctx context.Context, title, excludeID string) (bool, error)
	Create(ctx context.Context, stage *models.Stage) error
	UpdateTitle(ctx context.Context, id, title string) error
	Delete(ctx context.Context, id string) error
	Reorder(ctx context.Context, orderedIDs []string) error
}

type stageOccupancyCounter interface {
	CountByStage(ctx context.Context, stageID string) (int, error)
}

// CreateStageRequest holds payload for adding a stage.
type CreateStageRequest struct {
	Title string `json:"title" validate:"required"`
}

// UpdateStageRequest holds payload for renaming a stage.
type UpdateStageRequest struct {
	Title string `json:"title" validate:"required"`
}

// ReorderStagesRequest carries the full id permutation for the board.
type ReorderStagesRequest struct {
	OrderedIDs []string `json:"ordered_ids" validate:"required,min=1"`
}

// StageService enforces the pipeline registry rules: unique titles, core
// stages that cannot be removed, and occupancy checks before deletion.
type StageService struct {
	repo       stageRepository
	candidates stageOccupancyCounter
	validator  *validator.Validate
	logger     *zap.Logger
}

// NewStageService constructs the stage service.
func NewStageService(repo stageRepository, candidates stageOccupancyCounter, validate *validator.Validate, logger *zap.Logger) *StageService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StageService{repo: repo, candidates: candidates, validator: validate, logger: logger}
}

// List returns all stages in board order.
func (s *StageService) List(ctx context.Context) ([]models.Stage, error) {
	stages, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list stages")
	}
	return stages, nil
}

// Create appends a new non-core stage at the end of the board.
func (s *StageService) Create(ctx context.Context, req CreateStageRequest) (*models.Stage, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid stage payload")
	}
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "stage title is empty")
	}
	exists, err := s.repo.ExistsTitle(ctx, title, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate stage title")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "stage title already used")
	}

	stage := &models.Stage{
		ID:     slugify(title),
		Title:  title,
		IsCore: false,
	}
	if err := s.repo.Create(ctx, stage); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create stage")
	}
	return stage, nil
}

// Update renames a stage in place without touching the core flag.
func (s *StageService) Update(ctx context.Context, id string, req UpdateStageRequest) (*models.Stage, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid stage payload")
	}
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "stage title is empty")
	}
	stage, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "stage not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load stage")
	}
	exists, err := s.repo.ExistsTitle(ctx, title, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate stage title")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "stage title already used")
	}
	if err := s.repo.UpdateTitle(ctx, id, title); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to rename stage")
	}
	stage.Title = title
	return stage, nil
}

// Delete removes a stage unless it is core or still holds candidates.
func (s *StageService) Delete(ctx context.Context, id string) error {
	stage, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "stage not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load stage")
	}
	if stage.IsCore {
		return appErrors.Clone(appErrors.ErrCoreStage, "core stages cannot be deleted")
	}
	occupied, err := s.candidates.CountByStage(ctx, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check stage occupancy")
	}
	if occupied > 0 {
		return appErrors.Clone(appErrors.ErrStageOccupied, "move candidates out of this stage first")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete stage")
	}
	return nil
}

// Reorder persists a new board ordering. The request must be a permutation
// of the current stage set.
func (s *StageService) Reorder(ctx context.Context, req ReorderStagesRequest) ([]models.Stage, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid reorder payload")
	}
	current, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list stages")
	}
	if len(req.OrderedIDs) != len(current) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "reorder must include every stage exactly once")
	}
	known := make(map[string]struct{}, len(current))
	for _, stage := range current {
		known[stage.ID] = struct{}{}
	}
	seen := make(map[string]struct{}, len(req.OrderedIDs))
	for _, id := range req.OrderedIDs {
		if _, ok := known[id]; !ok {
			return nil, appErrors.Clone(appErrors.ErrValidation, "unknown stage id in reorder: "+id)
		}
		if _, dup := seen[id]; dup {
			return nil, appErrors.Clone(appErrors.ErrValidation, "duplicate stage id in reorder: "+id)
		}
		seen[id] = struct{}{}
	}
	if err := s.repo.Reorder(ctx, req.OrderedIDs); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reorder stages")
	}
	return s.List(ctx)
}

// slugify derives a stable id from a stage title.
func slugify(title string) string {
	lower := strings.ToLower(strings.TrimSpace(title))
	var b strings.Builder
	lastDash := false
	for _, r := range lower {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash && b.Len() > 0 {
				b.WriteRune('-')
				lastDash = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
