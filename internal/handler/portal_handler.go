package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/hamidrezasoltanian/recruitment-dashboard/internal/service"
	appErrors "github.com/hamidrezasoltanian/recruitment-dashboard/pkg/errors"
	"github.com/hamidrezasoltanian/recruitment-dashboard/pkg/response"
)

// PortalHandler serves the public candidate portal. Requests authenticate
// with the candidate's portal token instead of a JWT.
type PortalHandler struct {
	portal *service.PortalService
}

// NewPortalHandler creates a new handler.
func NewPortalHandler(portal *service.PortalService) *PortalHandler {
	return &PortalHandler{portal: portal}
}

// View godoc
// @Summary Candidate portal view
// @Description Public read-only view of a candidate's own status and tests
// @Tags Portal
// @Produce json
// @Param id path string true "Candidate ID"
// @Param token query string true "Portal token"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /portal/{id} [get]
func (h *PortalHandler) View(c *gin.Context) {
	view, err := h.portal.View(c.Request.Context(), c.Param("id"), portalToken(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view, nil)
}

// SubmitTestResult godoc
// @Summary Submit test result
// @Description Candidate submits a link to their completed test
// @Tags Portal
// @Accept json
// @Produce json
// @Param id path string true "Candidate ID"
// @Param resultId path string true "Test result ID"
// @Param token query string true "Portal token"
// @Param payload body service.SubmitTestResultRequest true "Result payload"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /portal/{id}/tests/{resultId} [post]
func (h *PortalHandler) SubmitTestResult(c *gin.Context) {
	var req service.SubmitTestResultRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid result payload"))
		return
	}
	result, err := h.portal.SubmitTestResult(c.Request.Context(), c.Param("id"), portalToken(c), c.Param("resultId"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// portalToken reads the token from the query string or the X-Portal-Token
// header.
func portalToken(c *gin.Context) string {
	if token := strings.TrimSpace(c.Query("token")); token != "" {
		return token
	}
	return strings.TrimSpace(c.GetHeader("X-Portal-Token"))
}
