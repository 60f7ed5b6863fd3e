package service

import (
	"context"
	"database/sql"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hamidrezasoltanian/recruitment-dashboard/internal/models"
	appErrors "github.com/hamidrezasoltanian/recruitment-dashboard/pkg/errors"
)

type stubCandidateRepo struct {
	candidate *models.Candidate
	updated   *models.Candidate
	history   []models.HistoryEntry
	findErr   error
	updateErr error
}

func (s *stubCandidateRepo) FindByID(ctx context.Context, id string) (*models.Candidate, error) {
	if s.findErr != nil {
		return nil, s.findErr
	}
	copied := *s.candidate
	return &copied, nil
}

func (s *stubCandidateRepo) Update(ctx context.Context, candidate *models.Candidate) error {
	if s.updateErr != nil {
		return s.updateErr
	}
	copied := *candidate
	s.updated = &copied
	return nil
}

func (s *stubCandidateRepo) AppendHistory(ctx context.Context, entry *models.HistoryEntry) error {
	s.history = append(s.history, *entry)
	return nil
}

type stubStageRepo struct {
	stages map[string]*models.Stage
}

func (s *stubStageRepo) FindByID(ctx context.Context, id string) (*models.Stage, error) {
	stage, ok := s.stages[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *stage
	return &copied, nil
}

type stubTemplateRepo struct {
	templates map[string]*models.Template
}

func (s *stubTemplateRepo) FindForStage(ctx context.Context, stageID string, tmplType models.TemplateType) (*models.Template, error) {
	tmpl, ok := s.templates[stageID+"/"+string(tmplType)]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *tmpl
	return &copied, nil
}

type stubSettingsRepo struct {
	settings *models.Settings
	err      error
}

func (s *stubSettingsRepo) Get(ctx context.Context) (*models.Settings, error) {
	if s.err != nil {
		return nil, s.err
	}
	copied := *s.settings
	return &copied, nil
}

func newWorkflowFixture() (*StageChangeService, *stubCandidateRepo, *stubTemplateRepo) {
	candidates := &stubCandidateRepo{
		candidate: &models.Candidate{
			ID:       "c1",
			FullName: "Ali Rezaei",
			Email:    "ali@example.com",
			Phone:    "09121234567",
			Position: "Backend Engineer",
			StageID:  "review",
		},
	}
	stages := &stubStageRepo{stages: map[string]*models.Stage{
		"review":      {ID: "review", Title: "Review"},
		"interview-1": {ID: "interview-1", Title: "First Interview"},
		"rejected":    {ID: "rejected", Title: "Rejected", IsCore: true},
	}}
	templates := &stubTemplateRepo{templates: map[string]*models.Template{
		"interview-1/email": {
			ID:      "t1",
			Name:    "Interview invite",
			Content: "Hi {{candidateName}}, interview on {{interviewDate}} at {{interviewTime}} with {{companyName}}.",
			Type:    models.TemplateTypeEmail,
		},
		"interview-1/whatsapp": {
			ID:      "t2",
			Name:    "Interview invite",
			Content: "Hi {{candidateName}}, see you on {{interviewDate}}.",
			Type:    models.TemplateTypeWhatsApp,
		},
	}}
	settings := &stubSettingsRepo{settings: &models.Settings{
		CompanyProfile: models.CompanyProfile{Name: "Acme", Address: "Tehran", Website: "acme.example"},
	}}
	svc := NewStageChangeService(candidates, stages, templates, settings, nil, nil, nil)
	return svc, candidates, templates
}

func strPtr(v string) *string { return &v }

func TestStageChangeConfirmInterviewRequiresSchedule(t *testing.T) {
	svc, candidates, _ := newWorkflowFixture()

	_, err := svc.Confirm(context.Background(), "admin", "c1", models.StageChangeRequest{
		TargetStageID: "interview-1",
	})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	assert.Nil(t, candidates.updated, "candidate must not be persisted")
	assert.Empty(t, candidates.history, "no history on a rejected transition")
}

func TestStageChangeConfirmInterviewPersistsAndDispatches(t *testing.T) {
	svc, candidates, _ := newWorkflowFixture()

	result, err := svc.Confirm(context.Background(), "admin", "c1", models.StageChangeRequest{
		TargetStageID:    "interview-1",
		InterviewDate:    strPtr("1402/05/01"),
		InterviewTime:    strPtr("10:00"),
		SendNotification: true,
		Channels:         []models.Channel{models.ChannelEmail},
	})
	require.NoError(t, err)
	assert.True(t, result.Changed)

	require.NotNil(t, candidates.updated)
	assert.Equal(t, "interview-1", candidates.updated.StageID)
	assert.Equal(t, "1402/05/01", *candidates.updated.InterviewDate)
	assert.Equal(t, "10:00", *candidates.updated.InterviewTime)

	require.Len(t, candidates.history, 1)
	assert.Equal(t, "stage changed to First Interview", candidates.history[0].Action)
	assert.Equal(t, "admin", candidates.history[0].Actor)

	require.Len(t, result.Dispatch, 1)
	assert.Equal(t, models.ChannelEmail, result.Dispatch[0].Channel)
	assert.Empty(t, result.Dispatch[0].Error)
	assert.True(t, strings.HasPrefix(result.Dispatch[0].URI, "mailto:ali@example.com"))
	assert.Contains(t, result.Dispatch[0].URI, "1402%2F05%2F01")
}

func TestStageChangeConfirmSameStageIsNoOp(t *testing.T) {
	svc, candidates, _ := newWorkflowFixture()

	result, err := svc.Confirm(context.Background(), "admin", "c1", models.StageChangeRequest{
		TargetStageID:    "review",
		SendNotification: true,
	})
	require.NoError(t, err)
	assert.False(t, result.Changed)
	assert.Nil(t, candidates.updated)
	assert.Empty(t, candidates.history)
	assert.Empty(t, result.Dispatch)
}

func TestStageChangeConfirmChannelFailureDoesNotBlock(t *testing.T) {
	svc, candidates, _ := newWorkflowFixture()
	candidates.candidate.Phone = "no digits here"

	result, err := svc.Confirm(context.Background(), "admin", "c1", models.StageChangeRequest{
		TargetStageID:    "interview-1",
		InterviewDate:    strPtr("1402/05/01"),
		InterviewTime:    strPtr("10:00"),
		SendNotification: true,
		Channels:         []models.Channel{models.ChannelWhatsApp, models.ChannelEmail},
	})
	require.NoError(t, err)
	assert.True(t, result.Changed)
	require.NotNil(t, candidates.updated, "persistence survives a channel failure")

	require.Len(t, result.Dispatch, 2)
	assert.Equal(t, models.ChannelWhatsApp, result.Dispatch[0].Channel)
	assert.NotEmpty(t, result.Dispatch[0].Error)
	assert.Equal(t, models.ChannelEmail, result.Dispatch[1].Channel)
	assert.Empty(t, result.Dispatch[1].Error)
	assert.NotEmpty(t, result.Dispatch[1].URI)
}

func TestStageChangeConfirmMissingTemplateReportedPerChannel(t *testing.T) {
	svc, candidates, templates := newWorkflowFixture()
	delete(templates.templates, "interview-1/whatsapp")

	result, err := svc.Confirm(context.Background(), "admin", "c1", models.StageChangeRequest{
		TargetStageID:    "interview-1",
		InterviewDate:    strPtr("1402/05/01"),
		InterviewTime:    strPtr("10:00"),
		SendNotification: true,
		Channels:         []models.Channel{models.ChannelWhatsApp},
	})
	require.NoError(t, err)
	assert.True(t, result.Changed)
	assert.NotNil(t, candidates.updated)
	require.Len(t, result.Dispatch, 1)
	assert.Equal(t, "no template configured for this stage", result.Dispatch[0].Error)
}

func TestStageChangePlanRendersProposedMessage(t *testing.T) {
	svc, _, _ := newWorkflowFixture()

	plan, err := svc.Plan(context.Background(), "c1", "interview-1")
	require.NoError(t, err)
	assert.True(t, plan.RequiresInterview)
	assert.True(t, plan.SendNotification)
	assert.Equal(t, models.ChannelEmail, plan.DefaultChannel)
	assert.Equal(t, "First Interview", plan.TargetStageTitle)
	assert.Contains(t, plan.EmailBody, "Hi Ali Rezaei")
	assert.Contains(t, plan.EmailBody, "Acme")
	// No schedule yet, so the date renders as the not-set marker.
	assert.Contains(t, plan.EmailBody, "تعیین نشده")
}

func TestStageChangePlanSameStageWarns(t *testing.T) {
	svc, _, _ := newWorkflowFixture()

	plan, err := svc.Plan(context.Background(), "c1", "review")
	require.NoError(t, err)
	assert.False(t, plan.SendNotification)
	assert.Equal(t, "candidate is already in this stage", plan.Warning)
}

func TestStageChangePlanNoTemplateWarns(t *testing.T) {
	svc, _, _ := newWorkflowFixture()

	plan, err := svc.Plan(context.Background(), "c1", "rejected")
	require.NoError(t, err)
	assert.False(t, plan.SendNotification)
	assert.Equal(t, "no template configured for this stage", plan.Warning)
}
