package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hamidrezasoltanian/recruitment-dashboard/internal/models"
	appErrors "github.com/hamidrezasoltanian/recruitment-dashboard/pkg/errors"
)

type stubStageRegistry struct {
	stages    []models.Stage
	titles    map[string]bool
	created   *models.Stage
	deleted   string
	reordered []string
	renamed   map[string]string
}

func (s *stubStageRegistry) List(ctx context.Context) ([]models.Stage, error) {
	return s.stages, nil
}

func (s *stubStageRegistry) FindByID(ctx context.Context, id string) (*models.Stage, error) {
	for i := range s.stages {
		if s.stages[i].ID == id {
			copied := s.stages[i]
			return &copied, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *stubStageRegistry) ExistsTitle(ctx context.Context, title, excludeID string) (bool, error) {
	return s.titles[title], nil
}

func (s *stubStageRegistry) Create(ctx context.Context, stage *models.Stage) error {
	s.created = stage
	s.stages = append(s.stages, *stage)
	return nil
}

func (s *stubStageRegistry) UpdateTitle(ctx context.Context, id, title string) error {
	if s.renamed == nil {
		s.renamed = map[string]string{}
	}
	s.renamed[id] = title
	return nil
}

func (s *stubStageRegistry) Delete(ctx context.Context, id string) error {
	s.deleted = id
	return nil
}

func (s *stubStageRegistry) Reorder(ctx context.Context, orderedIDs []string) error {
	s.reordered = orderedIDs
	return nil
}

type stubOccupancy struct {
	counts map[string]int
}

func (s *stubOccupancy) CountByStage(ctx context.Context, stageID string) (int, error) {
	return s.counts[stageID], nil
}

func newStageFixture() (*StageService, *stubStageRegistry, *stubOccupancy) {
	repo := &stubStageRegistry{
		stages: []models.Stage{
			{ID: "new", Title: "New", IsCore: true, Position: 1},
			{ID: "review", Title: "Review", Position: 2},
			{ID: "hired", Title: "Hired", IsCore: true, Position: 3},
		},
		titles: map[string]bool{},
	}
	occupancy := &stubOccupancy{counts: map[string]int{}}
	return NewStageService(repo, occupancy, nil, nil), repo, occupancy
}

func TestStageServiceCreateRejectsEmptyTitle(t *testing.T) {
	svc, _, _ := newStageFixture()

	_, err := svc.Create(context.Background(), CreateStageRequest{Title: "   "})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestStageServiceCreateRejectsDuplicateTitle(t *testing.T) {
	svc, repo, _ := newStageFixture()
	repo.titles["Review"] = true

	_, err := svc.Create(context.Background(), CreateStageRequest{Title: "Review"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestStageServiceCreateSlugsTitle(t *testing.T) {
	svc, repo, _ := newStageFixture()

	stage, err := svc.Create(context.Background(), CreateStageRequest{Title: "Tech Review"})
	require.NoError(t, err)
	assert.Equal(t, "tech-review", stage.ID)
	assert.False(t, stage.IsCore)
	require.NotNil(t, repo.created)
}

func TestStageServiceDeleteRejectsCoreStage(t *testing.T) {
	svc, repo, _ := newStageFixture()

	err := svc.Delete(context.Background(), "hired")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrCoreStage.Code, appErrors.FromError(err).Code)
	assert.Empty(t, repo.deleted)
}

func TestStageServiceDeleteRejectsOccupiedStage(t *testing.T) {
	svc, repo, occupancy := newStageFixture()
	occupancy.counts["review"] = 3

	err := svc.Delete(context.Background(), "review")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrStageOccupied.Code, appErrors.FromError(err).Code)
	assert.Empty(t, repo.deleted)
}

func TestStageServiceDeleteEmptyNonCoreStage(t *testing.T) {
	svc, repo, _ := newStageFixture()

	require.NoError(t, svc.Delete(context.Background(), "review"))
	assert.Equal(t, "review", repo.deleted)
}

func TestStageServiceReorderRejectsPartialPermutation(t *testing.T) {
	svc, repo, _ := newStageFixture()

	_, err := svc.Reorder(context.Background(), ReorderStagesRequest{OrderedIDs: []string{"new", "review"}})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	assert.Nil(t, repo.reordered)
}

func TestStageServiceReorderRejectsUnknownID(t *testing.T) {
	svc, repo, _ := newStageFixture()

	_, err := svc.Reorder(context.Background(), ReorderStagesRequest{OrderedIDs: []string{"new", "review", "ghost"}})
	require.Error(t, err)
	assert.Nil(t, repo.reordered)
}

func TestStageServiceReorderPersistsPermutation(t *testing.T) {
	svc, repo, _ := newStageFixture()

	_, err := svc.Reorder(context.Background(), ReorderStagesRequest{OrderedIDs: []string{"review", "new", "hired"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"review", "new", "hired"}, repo.reordered)
}
