package handler

import (
	"bytes"
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/hamidrezasoltanian/recruitment-dashboard/internal/middleware"
	"github.com/hamidrezasoltanian/recruitment-dashboard/internal/models"
	"github.com/hamidrezasoltanian/recruitment-dashboard/internal/service"
)

type fakeWorkflowCandidates struct {
	candidates map[string]*models.Candidate
	history    []models.HistoryEntry
}

func (f *fakeWorkflowCandidates) FindByID(_ context.Context, id string) (*models.Candidate, error) {
	if c, ok := f.candidates[id]; ok {
		copied := *c
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeWorkflowCandidates) Update(_ context.Context, candidate *models.Candidate) error {
	f.candidates[candidate.ID] = candidate
	return nil
}

func (f *fakeWorkflowCandidates) AppendHistory(_ context.Context, entry *models.HistoryEntry) error {
	f.history = append(f.history, *entry)
	return nil
}

type fakeWorkflowStages struct {
	stages map[string]*models.Stage
}

func (f *fakeWorkflowStages) FindByID(_ context.Context, id string) (*models.Stage, error) {
	if s, ok := f.stages[id]; ok {
		return s, nil
	}
	return nil, sql.ErrNoRows
}

type fakeWorkflowTemplates struct {
	templates map[string]*models.Template
}

func (f *fakeWorkflowTemplates) FindForStage(_ context.Context, stageID string, tmplType models.TemplateType) (*models.Template, error) {
	if t, ok := f.templates[stageID+"/"+string(tmplType)]; ok {
		return t, nil
	}
	return nil, sql.ErrNoRows
}

type fakeSettings struct{}

func (fakeSettings) Get(context.Context) (*models.Settings, error) {
	return &models.Settings{CompanyProfile: models.CompanyProfile{Name: "Acme"}}, nil
}

func buildWorkflowRouter(t *testing.T) (*gin.Engine, *fakeWorkflowCandidates) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	candidates := &fakeWorkflowCandidates{candidates: map[string]*models.Candidate{
		"c1": {ID: "c1", FullName: "Ali Rezaei", Email: "ali@example.com", Phone: "+989121234567", StageID: "review"},
	}}
	stages := &fakeWorkflowStages{stages: map[string]*models.Stage{
		"review":      {ID: "review", Title: "Review"},
		"interview-1": {ID: "interview-1", Title: "First Interview"},
	}}
	templates := &fakeWorkflowTemplates{templates: map[string]*models.Template{
		"interview-1/email": {ID: "t1", Name: "Interview Invite", Type: models.TemplateTypeEmail, Content: "Hi {{candidateName}}"},
	}}

	svc := service.NewStageChangeService(candidates, stages, templates, fakeSettings{}, nil, nil, nil)
	h := NewCandidateHandler(nil, svc, nil, nil)

	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "u1", FullName: "Recruiter One", Role: models.RoleRecruiter})
		c.Next()
	})
	router.GET("/candidates/:id/stage-change/plan", h.PlanStageChange)
	router.POST("/candidates/:id/stage-change", h.ConfirmStageChange)
	return router, candidates
}

func performRequest(router *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	return resp
}

func TestPlanStageChangeEndpoint(t *testing.T) {
	router, _ := buildWorkflowRouter(t)

	req, _ := http.NewRequest(http.MethodGet, "/candidates/c1/stage-change/plan?target_stage_id=interview-1", nil)
	resp := performRequest(router, req)

	require.Equal(t, http.StatusOK, resp.Code)
	require.Contains(t, resp.Body.String(), `"requires_interview":true`)
	require.Contains(t, resp.Body.String(), "Hi Ali Rezaei")
}

func TestPlanStageChangeMissingTarget(t *testing.T) {
	router, _ := buildWorkflowRouter(t)

	req, _ := http.NewRequest(http.MethodGet, "/candidates/c1/stage-change/plan", nil)
	resp := performRequest(router, req)

	require.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestConfirmStageChangeEndpoint(t *testing.T) {
	router, candidates := buildWorkflowRouter(t)

	body := `{"target_stage_id":"interview-1","interview_date":"1402/05/01","interview_time":"10:00","send_notification":true}`
	req, _ := http.NewRequest(http.MethodPost, "/candidates/c1/stage-change", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	resp := performRequest(router, req)

	require.Equal(t, http.StatusOK, resp.Code)
	require.Contains(t, resp.Body.String(), `"changed":true`)
	require.Contains(t, resp.Body.String(), "mailto:")
	require.Equal(t, "interview-1", candidates.candidates["c1"].StageID)

	require.Len(t, candidates.history, 1)
	require.Equal(t, "Recruiter One", candidates.history[0].Actor)
}

func TestConfirmStageChangeRejectsUnscheduledInterview(t *testing.T) {
	router, candidates := buildWorkflowRouter(t)

	body := `{"target_stage_id":"interview-1"}`
	req, _ := http.NewRequest(http.MethodPost, "/candidates/c1/stage-change", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	resp := performRequest(router, req)

	require.Equal(t, http.StatusBadRequest, resp.Code)
	require.Equal(t, "review", candidates.candidates["c1"].StageID)
	require.Empty(t, candidates.history)
}

func TestConfirmStageChangeUnknownCandidate(t *testing.T) {
	router, _ := buildWorkflowRouter(t)

	body := `{"target_stage_id":"interview-1","interview_date":"1402/05/01","interview_time":"10:00"}`
	req, _ := http.NewRequest(http.MethodPost, "/candidates/missing/stage-change", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	resp := performRequest(router, req)

	require.Equal(t, http.StatusNotFound, resp.Code)
}
