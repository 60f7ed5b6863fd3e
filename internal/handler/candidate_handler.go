package handler

import (
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/hamidrezasoltanian/recruitment-dashboard/internal/models"
	"github.com/hamidrezasoltanian/recruitment-dashboard/internal/service"
	appErrors "github.com/hamidrezasoltanian/recruitment-dashboard/pkg/errors"
	"github.com/hamidrezasoltanian/recruitment-dashboard/pkg/response"
)

const maxResumeSize = 10 << 20

var allowedResumeExtensions = map[string]struct{}{
	".pdf":  {},
	".doc":  {},
	".docx": {},
}

type fileStreamSaver interface {
	SaveStream(filename string, r io.Reader) (string, error)
}

// CandidateHandler exposes candidate CRUD, the stage-change workflow and the
// child collections (comments, tests, resume, portal token).
type CandidateHandler struct {
	candidates  *service.CandidateService
	stageChange *service.StageChangeService
	dashboard   *service.DashboardService
	files       fileStreamSaver
}

// NewCandidateHandler creates a new handler.
func NewCandidateHandler(candidates *service.CandidateService, stageChange *service.StageChangeService, dashboard *service.DashboardService, files fileStreamSaver) *CandidateHandler {
	return &CandidateHandler{candidates: candidates, stageChange: stageChange, dashboard: dashboard, files: files}
}

// List godoc
// @Summary List candidates
// @Description List candidates with filtering, sorting and pagination
// @Tags Candidates
// @Produce json
// @Param search query string false "Search in name, email and position"
// @Param stage_id query string false "Filter by stage"
// @Param source query string false "Filter by source"
// @Param position query string false "Filter by position"
// @Param min_rating query int false "Minimum rating"
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Param sort_by query string false "Sort column"
// @Param sort_order query string false "asc or desc"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /candidates [get]
func (h *CandidateHandler) List(c *gin.Context) {
	filter := candidateFilterFromQuery(c)
	candidates, total, err := h.candidates.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	pagination := &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}
	response.JSON(c, http.StatusOK, candidates, pagination)
}

// Get godoc
// @Summary Get candidate
// @Description Get a candidate with history, comments and test results
// @Tags Candidates
// @Produce json
// @Param id path string true "Candidate ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /candidates/{id} [get]
func (h *CandidateHandler) Get(c *gin.Context) {
	detail, err := h.candidates.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail, nil)
}

// Create godoc
// @Summary Create candidate
// @Description Register a new candidate in the entry stage
// @Tags Candidates
// @Accept json
// @Produce json
// @Param payload body service.CreateCandidateRequest true "Candidate payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Security BearerAuth
// @Router /candidates [post]
func (h *CandidateHandler) Create(c *gin.Context) {
	var req service.CreateCandidateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid candidate payload"))
		return
	}
	candidate, err := h.candidates.Create(c.Request.Context(), actorName(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.invalidateDashboard(c)
	response.Created(c, candidate)
}

// Update godoc
// @Summary Update candidate
// @Description Update candidate profile fields
// @Tags Candidates
// @Accept json
// @Produce json
// @Param id path string true "Candidate ID"
// @Param payload body service.UpdateCandidateRequest true "Fields to update"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /candidates/{id} [put]
func (h *CandidateHandler) Update(c *gin.Context) {
	var req service.UpdateCandidateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid candidate payload"))
		return
	}
	candidate, err := h.candidates.Update(c.Request.Context(), actorName(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.invalidateDashboard(c)
	response.JSON(c, http.StatusOK, candidate, nil)
}

// Delete godoc
// @Summary Delete candidate
// @Description Remove a candidate and their stored files
// @Tags Candidates
// @Produce json
// @Param id path string true "Candidate ID"
// @Success 204 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /candidates/{id} [delete]
func (h *CandidateHandler) Delete(c *gin.Context) {
	if err := h.candidates.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	h.invalidateDashboard(c)
	response.NoContent(c)
}

// PlanStageChange godoc
// @Summary Plan a stage change
// @Description Preview a transition: interview requirement, proposed notification and rendered bodies
// @Tags Candidates
// @Produce json
// @Param id path string true "Candidate ID"
// @Param target_stage_id query string true "Target stage ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /candidates/{id}/stage-change/plan [get]
func (h *CandidateHandler) PlanStageChange(c *gin.Context) {
	targetStageID := strings.TrimSpace(c.Query("target_stage_id"))
	if targetStageID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "target_stage_id is required"))
		return
	}
	plan, err := h.stageChange.Plan(c.Request.Context(), c.Param("id"), targetStageID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, plan, nil)
}

// ConfirmStageChange godoc
// @Summary Confirm a stage change
// @Description Move a candidate to the target stage and optionally build notification links
// @Tags Candidates
// @Accept json
// @Produce json
// @Param id path string true "Candidate ID"
// @Param payload body models.StageChangeRequest true "Stage change payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /candidates/{id}/stage-change [post]
func (h *CandidateHandler) ConfirmStageChange(c *gin.Context) {
	var req models.StageChangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid stage change payload"))
		return
	}
	result, err := h.stageChange.Confirm(c.Request.Context(), actorName(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	if result.Changed {
		h.invalidateDashboard(c)
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// AddComment godoc
// @Summary Add comment
// @Description Attach a note to a candidate
// @Tags Candidates
// @Accept json
// @Produce json
// @Param id path string true "Candidate ID"
// @Param payload body service.AddCommentRequest true "Comment payload"
// @Success 201 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /candidates/{id}/comments [post]
func (h *CandidateHandler) AddComment(c *gin.Context) {
	var req service.AddCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid comment payload"))
		return
	}
	comment, err := h.candidates.AddComment(c.Request.Context(), actorName(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, comment)
}

// AssignTest godoc
// @Summary Assign test
// @Description Assign a library test to a candidate
// @Tags Candidates
// @Accept json
// @Produce json
// @Param id path string true "Candidate ID"
// @Param payload body service.AssignTestRequest true "Test payload"
// @Success 201 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /candidates/{id}/tests [post]
func (h *CandidateHandler) AssignTest(c *gin.Context) {
	var req service.AssignTestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid test payload"))
		return
	}
	result, err := h.candidates.AssignTest(c.Request.Context(), actorName(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// UpdateTestResult godoc
// @Summary Update test result
// @Description Record the status, score or notes of an assigned test
// @Tags Candidates
// @Accept json
// @Produce json
// @Param id path string true "Candidate ID"
// @Param resultId path string true "Test result ID"
// @Param payload body service.UpdateTestResultRequest true "Result payload"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /candidates/{id}/tests/{resultId} [put]
func (h *CandidateHandler) UpdateTestResult(c *gin.Context) {
	var req service.UpdateTestResultRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid test result payload"))
		return
	}
	result, err := h.candidates.UpdateTestResult(c.Request.Context(), actorName(c), c.Param("id"), c.Param("resultId"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// UploadResume godoc
// @Summary Upload resume
// @Description Store the candidate's resume file
// @Tags Candidates
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "Candidate ID"
// @Param file formData file true "Resume file"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /candidates/{id}/resume [post]
func (h *CandidateHandler) UploadResume(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "resume file is required"))
		return
	}
	if fileHeader.Size > maxResumeSize {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "resume file exceeds the size limit"))
		return
	}
	ext := strings.ToLower(filepath.Ext(fileHeader.Filename))
	if _, ok := allowedResumeExtensions[ext]; !ok {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "unsupported resume file type"))
		return
	}

	src, err := fileHeader.Open()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, http.StatusInternalServerError, "failed to read uploaded file"))
		return
	}
	defer src.Close() //nolint:errcheck

	id := c.Param("id")
	relPath := fmt.Sprintf("candidates/%s/resume_%d%s", id, time.Now().UTC().Unix(), ext)
	if _, err := h.files.SaveStream(relPath, src); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, http.StatusInternalServerError, "failed to store resume"))
		return
	}

	candidate, err := h.candidates.SetResumePath(c.Request.Context(), actorName(c), id, relPath)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, candidate, nil)
}

// PortalToken godoc
// @Summary Get portal token
// @Description Return the candidate's stable portal access token
// @Tags Candidates
// @Produce json
// @Param id path string true "Candidate ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /candidates/{id}/portal-token [get]
func (h *CandidateHandler) PortalToken(c *gin.Context) {
	token, err := h.candidates.PortalToken(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"portal_token": token}, nil)
}

func (h *CandidateHandler) invalidateDashboard(c *gin.Context) {
	if h.dashboard != nil {
		h.dashboard.Invalidate(c.Request.Context())
	}
}

func candidateFilterFromQuery(c *gin.Context) models.CandidateFilter {
	filter := models.CandidateFilter{
		Search:    strings.TrimSpace(c.Query("search")),
		StageID:   strings.TrimSpace(c.Query("stage_id")),
		Source:    strings.TrimSpace(c.Query("source")),
		Position:  strings.TrimSpace(c.Query("position")),
		SortBy:    strings.TrimSpace(c.Query("sort_by")),
		SortOrder: strings.TrimSpace(c.Query("sort_order")),
		Page:      1,
		PageSize:  20,
	}
	if v, err := strconv.Atoi(c.Query("page")); err == nil && v > 0 {
		filter.Page = v
	}
	if v, err := strconv.Atoi(c.Query("page_size")); err == nil && v > 0 && v <= 100 {
		filter.PageSize = v
	}
	if raw := c.Query("min_rating"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil {
			filter.MinRating = &v
		}
	}
	return filter
}
