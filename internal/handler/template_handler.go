package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/hamidrezasoltanian/recruitment-dashboard/internal/models"
	"github.com/hamidrezasoltanian/recruitment-dashboard/internal/service"
	appErrors "github.com/hamidrezasoltanian/recruitment-dashboard/pkg/errors"
	"github.com/hamidrezasoltanian/recruitment-dashboard/pkg/response"
)

// TemplateHandler manages notification message templates.
type TemplateHandler struct {
	templates *service.TemplateService
}

// NewTemplateHandler creates a new handler.
func NewTemplateHandler(templates *service.TemplateService) *TemplateHandler {
	return &TemplateHandler{templates: templates}
}

// List godoc
// @Summary List templates
// @Description List message templates, optionally filtered by stage or type
// @Tags Templates
// @Produce json
// @Param stage_id query string false "Filter by bound stage"
// @Param type query string false "email or whatsapp"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /templates [get]
func (h *TemplateHandler) List(c *gin.Context) {
	filter := models.TemplateFilter{
		StageID: strings.TrimSpace(c.Query("stage_id")),
		Type:    models.TemplateType(strings.TrimSpace(c.Query("type"))),
	}
	templates, err := h.templates.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, templates, nil)
}

// Get godoc
// @Summary Get template
// @Tags Templates
// @Produce json
// @Param id path string true "Template ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /templates/{id} [get]
func (h *TemplateHandler) Get(c *gin.Context) {
	tmpl, err := h.templates.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, tmpl, nil)
}

// Create godoc
// @Summary Create template
// @Description Create a message template, optionally bound to a stage
// @Tags Templates
// @Accept json
// @Produce json
// @Param payload body service.SaveTemplateRequest true "Template payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Security BearerAuth
// @Router /templates [post]
func (h *TemplateHandler) Create(c *gin.Context) {
	var req service.SaveTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid template payload"))
		return
	}
	tmpl, err := h.templates.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, tmpl)
}

// Update godoc
// @Summary Update template
// @Tags Templates
// @Accept json
// @Produce json
// @Param id path string true "Template ID"
// @Param payload body service.SaveTemplateRequest true "Template payload"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /templates/{id} [put]
func (h *TemplateHandler) Update(c *gin.Context) {
	var req service.SaveTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid template payload"))
		return
	}
	tmpl, err := h.templates.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, tmpl, nil)
}

// Delete godoc
// @Summary Delete template
// @Tags Templates
// @Produce json
// @Param id path string true "Template ID"
// @Success 204 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /templates/{id} [delete]
func (h *TemplateHandler) Delete(c *gin.Context) {
	if err := h.templates.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
