package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/HungtdFPI/TaskforceAF/internal/dto"
	"github.com/HungtdFPI/TaskforceAF/internal/middleware"
	"github.com/HungtdFPI/TaskforceAF/internal/models"
	"github.com/HungtdFPI/TaskforceAF/internal/service"
	"github.com/HungtdFPI/TaskforceAF/pkg/response"
)

type statsService interface {
	Summary(ctx context.Context, actor models.Actor) (*models.ReportStats, bool, error)
}

type exportService interface {
	Export(ctx context.Context, actor models.Actor, format service.ExportFormat, query dto.ReportQuery) (*service.ExportFile, error)
}

// InsightsHandler serves report statistics and downloads.
type InsightsHandler struct {
	stats   statsService
	exports exportService
}

// NewInsightsHandler constructs handler.
func NewInsightsHandler(stats statsService, exports exportService) *InsightsHandler {
	return &InsightsHandler{stats: stats, exports: exports}
}

// Stats godoc
// @Summary Report counts within the caller's visibility
// @Tags Reports
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /reports/stats [get]
func (h *InsightsHandler) Stats(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	stats, hit, err := h.stats.Summary(c.Request.Context(), actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, hit)
	response.JSON(c, http.StatusOK, stats, middleware.ExtractMeta(c))
}

// Export godoc
// @Summary Download visible reports
// @Tags Reports
// @Produce text/csv
// @Produce application/pdf
// @Param format query string false "csv (default) or pdf"
// @Param status query string false "Comma separated statuses"
// @Success 200 {file} file
// @Router /reports/export [get]
func (h *InsightsHandler) Export(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	query, err := parseReportQuery(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	file, err := h.exports.Export(c.Request.Context(), actor, service.ExportFormat(c.Query("format")), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, file.Filename, file.ContentType, file.Body)
}
