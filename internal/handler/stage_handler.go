package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hamidrezasoltanian/recruitment-dashboard/internal/service"
	appErrors "github.com/hamidrezasoltanian/recruitment-dashboard/pkg/errors"
	"github.com/hamidrezasoltanian/recruitment-dashboard/pkg/response"
)

// StageHandler exposes the pipeline stage registry.
type StageHandler struct {
	stages    *service.StageService
	dashboard *service.DashboardService
}

// NewStageHandler creates a new handler.
func NewStageHandler(stages *service.StageService, dashboard *service.DashboardService) *StageHandler {
	return &StageHandler{stages: stages, dashboard: dashboard}
}

// List godoc
// @Summary List stages
// @Description List pipeline stages in board order
// @Tags Stages
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /stages [get]
func (h *StageHandler) List(c *gin.Context) {
	stages, err := h.stages.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, stages, nil)
}

// Create godoc
// @Summary Create stage
// @Description Add a custom stage to the end of the board
// @Tags Stages
// @Accept json
// @Produce json
// @Param payload body service.CreateStageRequest true "Stage payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Security BearerAuth
// @Router /stages [post]
func (h *StageHandler) Create(c *gin.Context) {
	var req service.CreateStageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid stage payload"))
		return
	}
	stage, err := h.stages.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.invalidateDashboard(c)
	response.Created(c, stage)
}

// Update godoc
// @Summary Rename stage
// @Description Change a stage title
// @Tags Stages
// @Accept json
// @Produce json
// @Param id path string true "Stage ID"
// @Param payload body service.UpdateStageRequest true "Stage payload"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Security BearerAuth
// @Router /stages/{id} [put]
func (h *StageHandler) Update(c *gin.Context) {
	var req service.UpdateStageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid stage payload"))
		return
	}
	stage, err := h.stages.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.invalidateDashboard(c)
	response.JSON(c, http.StatusOK, stage, nil)
}

// Delete godoc
// @Summary Delete stage
// @Description Remove an empty, non-core stage
// @Tags Stages
// @Produce json
// @Param id path string true "Stage ID"
// @Success 204 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Security BearerAuth
// @Router /stages/{id} [delete]
func (h *StageHandler) Delete(c *gin.Context) {
	if err := h.stages.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	h.invalidateDashboard(c)
	response.NoContent(c)
}

// Reorder godoc
// @Summary Reorder stages
// @Description Apply a full permutation of stage IDs as the new board order
// @Tags Stages
// @Accept json
// @Produce json
// @Param payload body service.ReorderStagesRequest true "Ordered stage IDs"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Security BearerAuth
// @Router /stages/reorder [put]
func (h *StageHandler) Reorder(c *gin.Context) {
	var req service.ReorderStagesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid reorder payload"))
		return
	}
	stages, err := h.stages.Reorder(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.invalidateDashboard(c)
	response.JSON(c, http.StatusOK, stages, nil)
}

func (h *StageHandler) invalidateDashboard(c *gin.Context) {
	if h.dashboard != nil {
		h.dashboard.Invalidate(c.Request.Context())
	}
}
