package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hamidrezasoltanian/recruitment-dashboard/internal/service"
	"github.com/hamidrezasoltanian/recruitment-dashboard/pkg/response"
)

// MetricsHandler exposes Prometheus scrapes and a JSON snapshot.
type MetricsHandler struct {
	metrics *service.MetricsService
}

// NewMetricsHandler creates a new handler.
func NewMetricsHandler(metrics *service.MetricsService) *MetricsHandler {
	return &MetricsHandler{metrics: metrics}
}

// Prometheus godoc
// @Summary Prometheus metrics
// @Tags Metrics
// @Produce plain
// @Success 200 {string} string
// @Router /metrics [get]
func (h *MetricsHandler) Prometheus(c *gin.Context) {
	h.metrics.Handler().ServeHTTP(c.Writer, c.Request)
}

// Snapshot godoc
// @Summary Metrics snapshot
// @Description JSON view of request, cache and runtime counters
// @Tags Metrics
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /metrics/summary [get]
func (h *MetricsHandler) Snapshot(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.metrics.Snapshot(), nil)
}
