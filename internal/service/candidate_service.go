package service

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/hamidrezasoltanian/recruitment-dashboard/internal/models"
	appErrors "github.com/hamidrezasoltanian/recruitment-dashboard/pkg/errors"
)

type candidateRepository interface {
	List(ctx context.Context, filter models.CandidateFilter) ([]models.Candidate, int, error)
	FindByID(ctx context.Context, id string) (*models.Candidate, error)
	Create(ctx context.Context, candidate *models.Candidate) error
	Update(ctx context.Context, candidate *models.Candidate) error
	Delete(ctx context.Context, id string) error
	AppendHistory(ctx context.Context, entry *models.HistoryEntry) error
	ListHistory(ctx context.Context, candidateID string) ([]models.HistoryEntry, error)
	AddComment(ctx context.Context, comment *models.Comment) error
	ListComments(ctx context.Context, candidateID string) ([]models.Comment, error)
	AddTestResult(ctx context.Context, result *models.TestResult) error
	UpdateTestResult(ctx context.Context, result *models.TestResult) error
	FindTestResult(ctx context.Context, candidateID, resultID string) (*models.TestResult, error)
	ListTestResults(ctx context.Context, candidateID string) ([]models.TestResult, error)
	SetPortalToken(ctx context.Context, id, token string) (string, error)
}

type candidateFileRemover interface {
	DeletePrefix(prefix string) error
}

// CreateCandidateRequest is the payload for registering a new candidate.
type CreateCandidateRequest struct {
	FullName string `json:"full_name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Phone    string `json:"phone" validate:"required"`
	Position string `json:"position" validate:"required"`
	Source   string `json:"source"`
}

// UpdateCandidateRequest carries the editable profile fields. The stage is
// deliberately absent; transitions go through the stage-change workflow.
type UpdateCandidateRequest struct {
	FullName      *string `json:"full_name,omitempty"`
	Email         *string `json:"email,omitempty" validate:"omitempty,email"`
	Phone         *string `json:"phone,omitempty"`
	Position      *string `json:"position,omitempty"`
	Source        *string `json:"source,omitempty"`
	Rating        *int    `json:"rating,omitempty" validate:"omitempty,min=0,max=5"`
	InterviewDate *string `json:"interview_date,omitempty"`
	InterviewTime *string `json:"interview_time,omitempty"`
	InterviewerID *string `json:"interviewer_id,omitempty"`
}

// AddCommentRequest is the payload for commenting on a candidate.
type AddCommentRequest struct {
	Body string `json:"body" validate:"required"`
}

// AssignTestRequest assigns a library test to a candidate.
type AssignTestRequest struct {
	TestID string `json:"test_id" validate:"required"`
}

// UpdateTestResultRequest records the outcome of an assigned test.
type UpdateTestResultRequest struct {
	Status    string   `json:"status" validate:"required,oneof=assigned submitted passed failed"`
	Score     *float64 `json:"score,omitempty" validate:"omitempty,min=0,max=100"`
	Notes     *string  `json:"notes,omitempty"`
	ResultURL *string  `json:"result_url,omitempty" validate:"omitempty,url"`
}

// CandidateService manages candidate records and their child collections.
// Every mutation appends a history entry naming the acting user.
type CandidateService struct {
	repo      candidateRepository
	files     candidateFileRemover
	validator *validator.Validate
	logger    *zap.Logger
}

// NewCandidateService constructs the candidate service.
func NewCandidateService(repo candidateRepository, files candidateFileRemover, validate *validator.Validate, logger *zap.Logger) *CandidateService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CandidateService{repo: repo, files: files, validator: validate, logger: logger}
}

// List returns candidates matching the filter together with the total count.
func (s *CandidateService) List(ctx context.Context, filter models.CandidateFilter) ([]models.Candidate, int, error) {
	candidates, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list candidates")
	}
	return candidates, total, nil
}

// Get loads a candidate with history, comments and test results.
func (s *CandidateService) Get(ctx context.Context, id string) (*models.CandidateDetail, error) {
	candidate, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "candidate not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load candidate")
	}
	history, err := s.repo.ListHistory(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load candidate history")
	}
	comments, err := s.repo.ListComments(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load candidate comments")
	}
	results, err := s.repo.ListTestResults(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load test results")
	}
	return &models.CandidateDetail{
		Candidate:   *candidate,
		History:     history,
		Comments:    comments,
		TestResults: results,
	}, nil
}

// Create registers a new candidate in the entry stage.
func (s *CandidateService) Create(ctx context.Context, actor string, req CreateCandidateRequest) (*models.Candidate, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid candidate payload")
	}
	candidate := &models.Candidate{
		FullName: strings.TrimSpace(req.FullName),
		Email:    strings.TrimSpace(req.Email),
		Phone:    strings.TrimSpace(req.Phone),
		Position: strings.TrimSpace(req.Position),
		Source:   strings.TrimSpace(req.Source),
		StageID:  models.StageIDNew,
	}
	if err := s.repo.Create(ctx, candidate); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create candidate")
	}
	s.appendHistory(ctx, candidate.ID, actor, "candidate created", nil)
	return candidate, nil
}

// Update merges the provided fields into the candidate profile.
func (s *CandidateService) Update(ctx context.Context, actor, id string, req UpdateCandidateRequest) (*models.Candidate, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid candidate payload")
	}
	candidate, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "candidate not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load candidate")
	}

	if req.FullName != nil {
		candidate.FullName = strings.TrimSpace(*req.FullName)
	}
	if req.Email != nil {
		candidate.Email = strings.TrimSpace(*req.Email)
	}
	if req.Phone != nil {
		candidate.Phone = strings.TrimSpace(*req.Phone)
	}
	if req.Position != nil {
		candidate.Position = strings.TrimSpace(*req.Position)
	}
	if req.Source != nil {
		candidate.Source = strings.TrimSpace(*req.Source)
	}
	if req.Rating != nil {
		candidate.Rating = *req.Rating
	}
	if req.InterviewDate != nil {
		candidate.InterviewDate = req.InterviewDate
	}
	if req.InterviewTime != nil {
		candidate.InterviewTime = req.InterviewTime
	}
	if req.InterviewerID != nil {
		candidate.InterviewerID = req.InterviewerID
	}

	if err := s.repo.Update(ctx, candidate); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update candidate")
	}
	s.appendHistory(ctx, candidate.ID, actor, "candidate updated", nil)
	return candidate, nil
}

// Delete removes a candidate, its child rows and any stored files.
func (s *CandidateService) Delete(ctx context.Context, id string) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "candidate not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load candidate")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete candidate")
	}
	if s.files != nil {
		if err := s.files.DeletePrefix("candidates/" + id); err != nil {
			s.logger.Warn("failed to remove candidate files", zap.String("candidate_id", id), zap.Error(err))
		}
	}
	return nil
}

// AddComment attaches a note to the candidate.
func (s *CandidateService) AddComment(ctx context.Context, actor, id string, req AddCommentRequest) (*models.Comment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid comment payload")
	}
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "candidate not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load candidate")
	}
	comment := &models.Comment{
		CandidateID: id,
		Author:      actor,
		Body:        strings.TrimSpace(req.Body),
	}
	if err := s.repo.AddComment(ctx, comment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to add comment")
	}
	return comment, nil
}

// AssignTest creates a pending test result for the candidate.
func (s *CandidateService) AssignTest(ctx context.Context, actor, id string, req AssignTestRequest) (*models.TestResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid test payload")
	}
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "candidate not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load candidate")
	}
	result := &models.TestResult{
		CandidateID: id,
		TestID:      req.TestID,
		Status:      models.TestStatusAssigned,
	}
	if err := s.repo.AddTestResult(ctx, result); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to assign test")
	}
	s.appendHistory(ctx, id, actor, "test assigned", &req.TestID)
	return result, nil
}

// UpdateTestResult records the status, score or notes of an assigned test.
func (s *CandidateService) UpdateTestResult(ctx context.Context, actor, candidateID, resultID string, req UpdateTestResultRequest) (*models.TestResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid test result payload")
	}
	result, err := s.repo.FindTestResult(ctx, candidateID, resultID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "test result not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load test result")
	}
	result.Status = req.Status
	if req.Score != nil {
		result.Score = req.Score
	}
	if req.Notes != nil {
		result.Notes = req.Notes
	}
	if req.ResultURL != nil {
		result.ResultURL = req.ResultURL
	}
	if err := s.repo.UpdateTestResult(ctx, result); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update test result")
	}
	s.appendHistory(ctx, candidateID, actor, "test result updated", &result.TestID)
	return result, nil
}

// SetResumePath records where the uploaded resume was stored.
func (s *CandidateService) SetResumePath(ctx context.Context, actor, id, relPath string) (*models.Candidate, error) {
	candidate, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "candidate not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load candidate")
	}
	candidate.ResumePath = &relPath
	if err := s.repo.Update(ctx, candidate); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store resume path")
	}
	s.appendHistory(ctx, id, actor, "resume uploaded", nil)
	return candidate, nil
}

// PortalToken returns the candidate's portal token, generating one on first
// use. Repeated calls always return the same token.
func (s *CandidateService) PortalToken(ctx context.Context, id string) (string, error) {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if err == sql.ErrNoRows {
			return "", appErrors.Clone(appErrors.ErrNotFound, "candidate not found")
		}
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load candidate")
	}
	fresh, err := newPortalToken()
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to generate portal token")
	}
	token, err := s.repo.SetPortalToken(ctx, id, fresh)
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store portal token")
	}
	return token, nil
}

func (s *CandidateService) appendHistory(ctx context.Context, candidateID, actor, action string, details *string) {
	entry := &models.HistoryEntry{
		CandidateID: candidateID,
		Actor:       actor,
		Action:      action,
		Details:     details,
	}
	if err := s.repo.AppendHistory(ctx, entry); err != nil {
		s.logger.Error("failed to append candidate history",
			zap.String("candidate_id", candidateID),
			zap.String("action", action),
			zap.Error(err))
	}
}

func newPortalToken() (string, error) {
	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate portal token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
