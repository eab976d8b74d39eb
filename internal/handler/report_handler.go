package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/HungtdFPI/TaskforceAF/internal/dto"
	"github.com/HungtdFPI/TaskforceAF/internal/models"
	"github.com/HungtdFPI/TaskforceAF/pkg/response"
)

type reportService interface {
	List(ctx context.Context, actor models.Actor, query dto.ReportQuery) ([]models.Report, error)
	Get(ctx context.Context, actor models.Actor, id string) (*models.Report, error)
	Create(ctx context.Context, actor models.Actor, req dto.CreateReportRequest) (*models.Report, error)
	EditContent(ctx context.Context, actor models.Actor, id string, req dto.UpdateReportRequest) (*models.Report, error)
	Delete(ctx context.Context, actor models.Actor, id string) error
	ClearDrafts(ctx context.Context, actor models.Actor) (int, error)
	SetCareStatus(ctx context.Context, actor models.Actor, id string, req dto.CareRequest) (*models.Report, error)
}

// ReportHandler exposes the report repository.
type ReportHandler struct {
	reports reportService
}

// NewReportHandler constructs handler.
func NewReportHandler(reports reportService) *ReportHandler {
	return &ReportHandler{reports: reports}
}

// List godoc
// @Summary List visible reports
// @Tags Reports
// @Produce json
// @Param status query string false "Comma separated statuses"
// @Param class query string false "Class name"
// @Param q query string false "Student name or code"
// @Param period query string false "Creation date window" Enums(all, today, week, month)
// @Success 200 {object} response.Envelope
// @Router /reports [get]
func (h *ReportHandler) List(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	query, err := parseReportQuery(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	reports, err := h.reports.List(c.Request.Context(), actor, query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, reports, map[string]interface{}{"total": len(reports)})
}

// Get godoc
// @Summary Get a report
// @Tags Reports
// @Produce json
// @Param id path string true "Report ID"
// @Success 200 {object} response.Envelope
// @Router /reports/{id} [get]
func (h *ReportHandler) Get(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	report, err := h.reports.Get(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, report)
}

// Create godoc
// @Summary Create a draft report
// @Tags Reports
// @Accept json
// @Produce json
// @Param payload body dto.CreateReportRequest true "Report payload"
// @Success 201 {object} response.Envelope
// @Router /reports [post]
func (h *ReportHandler) Create(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	var req dto.CreateReportRequest
	if !bindJSON(c, &req, "invalid report payload") {
		return
	}
	report, err := h.reports.Create(c.Request.Context(), actor, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, report)
}

// Update godoc
// @Summary Edit a report's content
// @Tags Reports
// @Accept json
// @Produce json
// @Param id path string true "Report ID"
// @Param payload body dto.UpdateReportRequest true "Report payload"
// @Success 200 {object} response.Envelope
// @Router /reports/{id} [put]
func (h *ReportHandler) Update(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	var req dto.UpdateReportRequest
	if !bindJSON(c, &req, "invalid report payload") {
		return
	}
	report, err := h.reports.EditContent(c.Request.Context(), actor, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, report)
}

// Delete godoc
// @Summary Delete an own report
// @Tags Reports
// @Param id path string true "Report ID"
// @Success 204
// @Router /reports/{id} [delete]
func (h *ReportHandler) Delete(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	if err := h.reports.Delete(c.Request.Context(), actor, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ClearDrafts godoc
// @Summary Delete every own draft
// @Tags Reports
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /reports/drafts [delete]
func (h *ReportHandler) ClearDrafts(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	removed, err := h.reports.ClearDrafts(c.Request.Context(), actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"deleted": removed})
}

// Care godoc
// @Summary Record the student-affairs care outcome
// @Tags Reports
// @Accept json
// @Produce json
// @Param id path string true "Report ID"
// @Param payload body dto.CareRequest true "Care payload"
// @Success 200 {object} response.Envelope
// @Router /reports/{id}/care [patch]
func (h *ReportHandler) Care(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	var req dto.CareRequest
	if !bindJSON(c, &req, "invalid care payload") {
		return
	}
	report, err := h.reports.SetCareStatus(c.Request.Context(), actor, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, report)
}
