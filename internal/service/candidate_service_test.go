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

type stubCandidateStore struct {
	candidate   *models.Candidate
	created     *models.Candidate
	updated     *models.Candidate
	deleted     string
	history     []models.HistoryEntry
	storedToken string
}

func (s *stubCandidateStore) List(ctx context.Context, filter models.CandidateFilter) ([]models.Candidate, int, error) {
	if s.candidate == nil {
		return nil, 0, nil
	}
	return []models.Candidate{*s.candidate}, 1, nil
}

func (s *stubCandidateStore) FindByID(ctx context.Context, id string) (*models.Candidate, error) {
	if s.candidate == nil || s.candidate.ID != id {
		return nil, sql.ErrNoRows
	}
	copied := *s.candidate
	return &copied, nil
}

func (s *stubCandidateStore) Create(ctx context.Context, candidate *models.Candidate) error {
	candidate.ID = "c-new"
	copied := *candidate
	s.created = &copied
	return nil
}

func (s *stubCandidateStore) Update(ctx context.Context, candidate *models.Candidate) error {
	copied := *candidate
	s.updated = &copied
	return nil
}

func (s *stubCandidateStore) Delete(ctx context.Context, id string) error {
	s.deleted = id
	return nil
}

func (s *stubCandidateStore) AppendHistory(ctx context.Context, entry *models.HistoryEntry) error {
	s.history = append(s.history, *entry)
	return nil
}

func (s *stubCandidateStore) ListHistory(ctx context.Context, candidateID string) ([]models.HistoryEntry, error) {
	return s.history, nil
}

func (s *stubCandidateStore) AddComment(ctx context.Context, comment *models.Comment) error {
	return nil
}

func (s *stubCandidateStore) ListComments(ctx context.Context, candidateID string) ([]models.Comment, error) {
	return nil, nil
}

func (s *stubCandidateStore) AddTestResult(ctx context.Context, result *models.TestResult) error {
	result.ID = "r-new"
	return nil
}

func (s *stubCandidateStore) UpdateTestResult(ctx context.Context, result *models.TestResult) error {
	return nil
}

func (s *stubCandidateStore) FindTestResult(ctx context.Context, candidateID, resultID string) (*models.TestResult, error) {
	return nil, sql.ErrNoRows
}

func (s *stubCandidateStore) ListTestResults(ctx context.Context, candidateID string) ([]models.TestResult, error) {
	return nil, nil
}

func (s *stubCandidateStore) SetPortalToken(ctx context.Context, id, token string) (string, error) {
	if s.storedToken == "" {
		s.storedToken = token
	}
	return s.storedToken, nil
}

type stubFileRemover struct {
	prefixes []string
}

func (s *stubFileRemover) DeletePrefix(prefix string) error {
	s.prefixes = append(s.prefixes, prefix)
	return nil
}

func newCandidateFixture() (*CandidateService, *stubCandidateStore, *stubFileRemover) {
	store := &stubCandidateStore{
		candidate: &models.Candidate{
			ID:       "c1",
			FullName: "Ali Rezaei",
			Email:    "ali@example.com",
			Phone:    "09121234567",
			Position: "Backend Engineer",
			StageID:  "review",
		},
	}
	files := &stubFileRemover{}
	return NewCandidateService(store, files, nil, nil), store, files
}

func intPtr(v int) *int { return &v }

func TestCandidateServiceCreateStartsInEntryStage(t *testing.T) {
	svc, store, _ := newCandidateFixture()

	candidate, err := svc.Create(context.Background(), "admin", CreateCandidateRequest{
		FullName: "Sara Ahmadi",
		Email:    "sara@example.com",
		Phone:    "09121112233",
		Position: "Designer",
		Source:   "linkedin",
	})
	require.NoError(t, err)
	assert.Equal(t, models.StageIDNew, candidate.StageID)
	require.NotNil(t, store.created)
	require.Len(t, store.history, 1)
	assert.Equal(t, "candidate created", store.history[0].Action)
	assert.Equal(t, "admin", store.history[0].Actor)
}

func TestCandidateServiceUpdateRejectsOutOfRangeRating(t *testing.T) {
	svc, store, _ := newCandidateFixture()

	_, err := svc.Update(context.Background(), "admin", "c1", UpdateCandidateRequest{Rating: intPtr(6)})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	assert.Nil(t, store.updated)
}

func TestCandidateServiceUpdateMergesFields(t *testing.T) {
	svc, store, _ := newCandidateFixture()
	name := "Ali R."

	candidate, err := svc.Update(context.Background(), "admin", "c1", UpdateCandidateRequest{
		FullName: &name,
		Rating:   intPtr(5),
	})
	require.NoError(t, err)
	assert.Equal(t, "Ali R.", candidate.FullName)
	assert.Equal(t, 5, candidate.Rating)
	// Untouched fields survive the merge.
	assert.Equal(t, "ali@example.com", candidate.Email)
	require.NotNil(t, store.updated)
}

func TestCandidateServiceDeleteRemovesStoredFiles(t *testing.T) {
	svc, store, files := newCandidateFixture()

	require.NoError(t, svc.Delete(context.Background(), "c1"))
	assert.Equal(t, "c1", store.deleted)
	require.Len(t, files.prefixes, 1)
	assert.Equal(t, "candidates/c1", files.prefixes[0])
}

func TestCandidateServicePortalTokenIsStable(t *testing.T) {
	svc, _, _ := newCandidateFixture()

	first, err := svc.PortalToken(context.Background(), "c1")
	require.NoError(t, err)
	require.NotEmpty(t, first)

	second, err := svc.PortalToken(context.Background(), "c1")
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestCandidateServiceAssignTestStartsAssigned(t *testing.T) {
	svc, store, _ := newCandidateFixture()

	result, err := svc.AssignTest(context.Background(), "admin", "c1", AssignTestRequest{TestID: "algo"})
	require.NoError(t, err)
	assert.Equal(t, models.TestStatusAssigned, result.Status)
	require.Len(t, store.history, 1)
	assert.Equal(t, "test assigned", store.history[0].Action)
}
