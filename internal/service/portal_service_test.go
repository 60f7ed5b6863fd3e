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

type stubPortalRepo struct {
	candidate *models.Candidate
	token     string
	results   []models.TestResult
	updated   *models.TestResult
	history   []models.HistoryEntry
}

func (s *stubPortalRepo) FindByPortalToken(ctx context.Context, id, token string) (*models.Candidate, error) {
	if s.candidate == nil || s.candidate.ID != id || s.token != token {
		return nil, sql.ErrNoRows
	}
	copied := *s.candidate
	return &copied, nil
}

func (s *stubPortalRepo) ListTestResults(ctx context.Context, candidateID string) ([]models.TestResult, error) {
	return s.results, nil
}

func (s *stubPortalRepo) FindTestResult(ctx context.Context, candidateID, resultID string) (*models.TestResult, error) {
	for i := range s.results {
		if s.results[i].ID == resultID {
			copied := s.results[i]
			return &copied, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *stubPortalRepo) UpdateTestResult(ctx context.Context, result *models.TestResult) error {
	copied := *result
	s.updated = &copied
	return nil
}

func (s *stubPortalRepo) AppendHistory(ctx context.Context, entry *models.HistoryEntry) error {
	s.history = append(s.history, *entry)
	return nil
}

func newPortalFixture() (*PortalService, *stubPortalRepo) {
	repo := &stubPortalRepo{
		candidate: &models.Candidate{
			ID:       "c1",
			FullName: "Ali Rezaei",
			Position: "Backend Engineer",
			StageID:  "interview-1",
			Rating:   4,
		},
		token: "tok-1",
		results: []models.TestResult{
			{ID: "r1", CandidateID: "c1", TestID: "algo", Status: models.TestStatusAssigned},
		},
	}
	stages := &stubStageRepo{stages: map[string]*models.Stage{
		"interview-1": {ID: "interview-1", Title: "First Interview"},
	}}
	settings := &stubSettingsRepo{settings: &models.Settings{
		CompanyProfile: models.CompanyProfile{Name: "Acme"},
		TestLibrary: []models.TestDefinition{
			{ID: "algo", Title: "Algorithms", Link: "https://tests.example/algo"},
		},
	}}
	return NewPortalService(repo, stages, settings, nil, nil), repo
}

func TestPortalViewRequiresValidToken(t *testing.T) {
	svc, _ := newPortalFixture()

	_, err := svc.View(context.Background(), "c1", "wrong-token")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestPortalViewExposesOnlyPublicFields(t *testing.T) {
	svc, _ := newPortalFixture()

	view, err := svc.View(context.Background(), "c1", "tok-1")
	require.NoError(t, err)
	assert.Equal(t, "Ali Rezaei", view.FullName)
	assert.Equal(t, "First Interview", view.StageTitle)
	assert.Equal(t, "Acme", view.CompanyName)
	require.Len(t, view.Tests, 1)
	assert.Equal(t, "Algorithms", view.Tests[0].Title)
	assert.Equal(t, "https://tests.example/algo", view.Tests[0].Link)
}

func TestPortalSubmitTestResult(t *testing.T) {
	svc, repo := newPortalFixture()

	result, err := svc.SubmitTestResult(context.Background(), "c1", "tok-1", "r1", SubmitTestResultRequest{
		ResultURL: "https://results.example/answer",
	})
	require.NoError(t, err)
	assert.Equal(t, models.TestStatusSubmitted, result.Status)
	require.NotNil(t, repo.updated)
	assert.Equal(t, "https://results.example/answer", *repo.updated.ResultURL)

	require.Len(t, repo.history, 1)
	assert.Equal(t, "portal", repo.history[0].Actor)
	assert.Equal(t, "test result submitted", repo.history[0].Action)
}

func TestPortalSubmitRejectsGradedResult(t *testing.T) {
	svc, repo := newPortalFixture()
	repo.results[0].Status = models.TestStatusPassed

	_, err := svc.SubmitTestResult(context.Background(), "c1", "tok-1", "r1", SubmitTestResultRequest{
		ResultURL: "https://results.example/late",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
	assert.Nil(t, repo.updated)
}
