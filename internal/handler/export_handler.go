package handler

import (
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/hamidrezasoltanian/recruitment-dashboard/internal/models"
	"github.com/hamidrezasoltanian/recruitment-dashboard/internal/service"
	appErrors "github.com/hamidrezasoltanian/recruitment-dashboard/pkg/errors"
	"github.com/hamidrezasoltanian/recruitment-dashboard/pkg/response"
)

// ExportHandler drives async roster exports: enqueue, poll and download.
type ExportHandler struct {
	exports *service.ExportService
}

// NewExportHandler creates a new handler.
func NewExportHandler(exports *service.ExportService) *ExportHandler {
	return &ExportHandler{exports: exports}
}

// ExportRequest is the enqueue payload.
type ExportRequest struct {
	Format  models.ExportFormat `json:"format"`
	Search  string              `json:"search,omitempty"`
	StageID string              `json:"stage_id,omitempty"`
	Source  string              `json:"source,omitempty"`
}

// Enqueue godoc
// @Summary Start roster export
// @Description Queue a CSV or PDF export of the candidate roster
// @Tags Exports
// @Accept json
// @Produce json
// @Param payload body handler.ExportRequest true "Export payload"
// @Success 202 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Security BearerAuth
// @Router /exports [post]
func (h *ExportHandler) Enqueue(c *gin.Context) {
	var req ExportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid export payload"))
		return
	}
	filter := models.CandidateFilter{
		Search:  strings.TrimSpace(req.Search),
		StageID: strings.TrimSpace(req.StageID),
		Source:  strings.TrimSpace(req.Source),
	}
	job, err := h.exports.Enqueue(c.Request.Context(), actorName(c), req.Format, filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusAccepted, job, nil)
}

// Status godoc
// @Summary Export job status
// @Tags Exports
// @Produce json
// @Param id path string true "Job ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /exports/{id} [get]
func (h *ExportHandler) Status(c *gin.Context) {
	job, err := h.exports.Get(c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, job, nil)
}

// Download godoc
// @Summary Download export
// @Description Stream a finished export via its signed token
// @Tags Exports
// @Produce octet-stream
// @Param token path string true "Signed download token"
// @Success 200 {file} binary
// @Failure 401 {object} response.Envelope
// @Router /exports/download/{token} [get]
func (h *ExportHandler) Download(c *gin.Context) {
	_, relPath, _, err := h.exports.ParseToken(c.Param("token"), false)
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "invalid or expired download token"))
		return
	}
	file, err := h.exports.Open(relPath)
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "export file not found"))
		return
	}
	defer file.Close() //nolint:errcheck

	filename := filepath.Base(relPath)
	contentType := "application/octet-stream"
	switch filepath.Ext(filename) {
	case ".csv":
		contentType = "text/csv"
	case ".pdf":
		contentType = "application/pdf"
	}
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Header("Content-Type", contentType)
	c.File(file.Name())
}
