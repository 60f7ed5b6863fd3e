package service

import (
	"context"
	"database/sql"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/hamidrezasoltanian/recruitment-dashboard/internal/models"
	appErrors "github.com/hamidrezasoltanian/recruitment-dashboard/pkg/errors"
)

// portalActor is recorded in candidate history for portal-originated changes.
const portalActor = "portal"

type portalCandidateRepository interface {
	FindByPortalToken(ctx context.Context, id, token string) (*models.Candidate, error)
	ListTestResults(ctx context.Context, candidateID string) ([]models.TestResult, error)
	FindTestResult(ctx context.Context, candidateID, resultID string) (*models.TestResult, error)
	UpdateTestResult(ctx context.Context, result *models.TestResult) error
	AppendHistory(ctx context.Context, entry *models.HistoryEntry) error
}

type portalStageRepository interface {
	FindByID(ctx context.Context, id string) (*models.Stage, error)
}

type portalSettingsReader interface {
	Get(ctx context.Context) (*models.Settings, error)
}

// PortalView is the candidate-facing read model. It deliberately exposes no
// internal fields such as rating, comments or interviewer notes.
type PortalView struct {
	FullName      string       `json:"full_name"`
	Position      string       `json:"position"`
	StageTitle    string       `json:"stage_title"`
	InterviewDate *string      `json:"interview_date,omitempty"`
	InterviewTime *string      `json:"interview_time,omitempty"`
	CompanyName   string       `json:"company_name,omitempty"`
	Tests         []PortalTest `json:"tests"`
}

// PortalTest is one assigned test as the candidate sees it.
type PortalTest struct {
	ID        string  `json:"id"`
	TestID    string  `json:"test_id"`
	Title     string  `json:"title,omitempty"`
	Link      string  `json:"link,omitempty"`
	Status    string  `json:"status"`
	ResultURL *string `json:"result_url,omitempty"`
}

// SubmitTestResultRequest is the portal payload for handing in a test.
type SubmitTestResultRequest struct {
	ResultURL string `json:"result_url" validate:"required,url"`
}

// PortalService serves the token-gated candidate surface. Every operation
// authenticates by the (candidate id, portal token) pair; an unknown pair is
// reported as not found to avoid confirming candidate existence.
type PortalService struct {
	candidates portalCandidateRepository
	stages     portalStageRepository
	settings   portalSettingsReader
	validator  *validator.Validate
	logger     *zap.Logger
}

// NewPortalService constructs the portal service.
func NewPortalService(candidates portalCandidateRepository, stages portalStageRepository, settings portalSettingsReader, validate *validator.Validate, logger *zap.Logger) *PortalService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PortalService{candidates: candidates, stages: stages, settings: settings, validator: validate, logger: logger}
}

// View returns the candidate's own picture of the process.
func (s *PortalService) View(ctx context.Context, candidateID, token string) (*PortalView, error) {
	candidate, err := s.authenticate(ctx, candidateID, token)
	if err != nil {
		return nil, err
	}

	view := &PortalView{
		FullName:      candidate.FullName,
		Position:      candidate.Position,
		InterviewDate: candidate.InterviewDate,
		InterviewTime: candidate.InterviewTime,
		Tests:         []PortalTest{},
	}

	stage, err := s.stages.FindByID(ctx, candidate.StageID)
	if err != nil {
		if err != sql.ErrNoRows {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load stage")
		}
		view.StageTitle = candidate.StageID
	} else {
		view.StageTitle = stage.Title
	}

	settings, err := s.settings.Get(ctx)
	if err != nil {
		s.logger.Warn("failed to load settings for portal view", zap.Error(err))
	}
	library := make(map[string]models.TestDefinition)
	if settings != nil {
		view.CompanyName = settings.CompanyProfile.Name
		for _, def := range settings.TestLibrary {
			library[def.ID] = def
		}
	}

	results, err := s.candidates.ListTestResults(ctx, candidate.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load test results")
	}
	for _, result := range results {
		test := PortalTest{
			ID:        result.ID,
			TestID:    result.TestID,
			Status:    result.Status,
			ResultURL: result.ResultURL,
		}
		if def, ok := library[result.TestID]; ok {
			test.Title = def.Title
			test.Link = def.Link
		}
		view.Tests = append(view.Tests, test)
	}
	return view, nil
}

// SubmitTestResult records the candidate's own submission link and marks the
// assignment submitted. Already graded results cannot be overwritten.
func (s *PortalService) SubmitTestResult(ctx context.Context, candidateID, token, resultID string, req SubmitTestResultRequest) (*models.TestResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid submission payload")
	}
	candidate, err := s.authenticate(ctx, candidateID, token)
	if err != nil {
		return nil, err
	}

	result, err := s.candidates.FindTestResult(ctx, candidate.ID, resultID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "test not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load test result")
	}
	if result.Status == models.TestStatusPassed || result.Status == models.TestStatusFailed {
		return nil, appErrors.Clone(appErrors.ErrConflict, "test has already been graded")
	}

	result.Status = models.TestStatusSubmitted
	result.ResultURL = &req.ResultURL
	if err := s.candidates.UpdateTestResult(ctx, result); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store submission")
	}

	entry := &models.HistoryEntry{
		CandidateID: candidate.ID,
		Actor:       portalActor,
		Action:      "test result submitted",
		Details:     &result.TestID,
	}
	if err := s.candidates.AppendHistory(ctx, entry); err != nil {
		s.logger.Error("failed to append portal history", zap.String("candidate_id", candidate.ID), zap.Error(err))
	}
	return result, nil
}

func (s *PortalService) authenticate(ctx context.Context, candidateID, token string) (*models.Candidate, error) {
	if candidateID == "" || token == "" {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "not found")
	}
	candidate, err := s.candidates.FindByPortalToken(ctx, candidateID, token)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve portal access")
	}
	return candidate, nil
}
