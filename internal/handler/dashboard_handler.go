package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hamidrezasoltanian/recruitment-dashboard/internal/service"
	"github.com/hamidrezasoltanian/recruitment-dashboard/pkg/response"
)

// DashboardHandler serves the aggregated Kanban board summary.
type DashboardHandler struct {
	dashboard *service.DashboardService
}

// NewDashboardHandler creates a new handler.
func NewDashboardHandler(dashboard *service.DashboardService) *DashboardHandler {
	return &DashboardHandler{dashboard: dashboard}
}

// Summary godoc
// @Summary Dashboard summary
// @Description Per-stage counts, recent candidates, upcoming interviews and runtime metrics
// @Tags Dashboard
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /dashboard [get]
func (h *DashboardHandler) Summary(c *gin.Context) {
	summary, cached, err := h.dashboard.Summary(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary, nil, map[string]interface{}{"cached": cached})
}
