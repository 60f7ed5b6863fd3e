package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hamidrezasoltanian/recruitment-dashboard/internal/models"
	"github.com/hamidrezasoltanian/recruitment-dashboard/internal/service"
	appErrors "github.com/hamidrezasoltanian/recruitment-dashboard/pkg/errors"
	"github.com/hamidrezasoltanian/recruitment-dashboard/pkg/response"
)

// SettingsHandler manages the admin configuration document and its
// backup/restore surface.
type SettingsHandler struct {
	settings  *service.SettingsService
	dashboard *service.DashboardService
}

// NewSettingsHandler creates a new handler.
func NewSettingsHandler(settings *service.SettingsService, dashboard *service.DashboardService) *SettingsHandler {
	return &SettingsHandler{settings: settings, dashboard: dashboard}
}

// Get godoc
// @Summary Get settings
// @Description Return the configuration document
// @Tags Settings
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /settings [get]
func (h *SettingsHandler) Get(c *gin.Context) {
	settings, err := h.settings.Get(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, settings, nil)
}

// Update godoc
// @Summary Update settings
// @Description Replace sources, company profile and test library
// @Tags Settings
// @Accept json
// @Produce json
// @Param payload body service.UpdateSettingsRequest true "Settings payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Security BearerAuth
// @Router /settings [put]
func (h *SettingsHandler) Update(c *gin.Context) {
	var req service.UpdateSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid settings payload"))
		return
	}
	settings, err := h.settings.Update(c.Request.Context(), actorName(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, settings, nil)
}

// Backup godoc
// @Summary Export configuration snapshot
// @Description Bundle settings, stages and templates into a restorable snapshot
// @Tags Settings
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /settings/backup [get]
func (h *SettingsHandler) Backup(c *gin.Context) {
	snapshot, err := h.settings.Snapshot(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="recruitment_backup.json"`)
	response.JSON(c, http.StatusOK, snapshot, nil)
}

// Restore godoc
// @Summary Restore configuration snapshot
// @Description Apply a previously exported snapshot
// @Tags Settings
// @Accept json
// @Produce json
// @Param payload body models.Snapshot true "Snapshot payload"
// @Success 204 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Security BearerAuth
// @Router /settings/restore [post]
func (h *SettingsHandler) Restore(c *gin.Context) {
	var snapshot models.Snapshot
	if err := c.ShouldBindJSON(&snapshot); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid snapshot payload"))
		return
	}
	if err := h.settings.Restore(c.Request.Context(), actorName(c), snapshot); err != nil {
		response.Error(c, err)
		return
	}
	if h.dashboard != nil {
		h.dashboard.Invalidate(c.Request.Context())
	}
	response.NoContent(c)
}
