package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/HungtdFPI/TaskforceAF/internal/dto"
	"github.com/HungtdFPI/TaskforceAF/internal/middleware"
	"github.com/HungtdFPI/TaskforceAF/internal/models"
	"github.com/HungtdFPI/TaskforceAF/internal/service"
	"github.com/HungtdFPI/TaskforceAF/pkg/response"
)

type versioningService interface {
	RecordNewCycle(ctx context.Context, actor models.Actor, reportID string, req dto.NewCycleRequest) (*models.Report, error)
	ListCycles(ctx context.Context, actor models.Actor, reportID string) ([]models.CycleEntry, error)
}

type noteService interface {
	AppendNote(ctx context.Context, actor models.Actor, reportID string, field models.LogType, content string) (*models.Report, error)
	ListNotes(ctx context.Context, actor models.Actor, reportID string, field models.LogType) ([]models.ReportLog, error)
}

// HistoryHandler exposes assessment cycles and per-field note threads.
type HistoryHandler struct {
	versions versioningService
	notes    noteService
}

// NewHistoryHandler constructs handler.
func NewHistoryHandler(versions versioningService, notes noteService) *HistoryHandler {
	return &HistoryHandler{versions: versions, notes: notes}
}

// ListCycles godoc
// @Summary List archived assessment cycles
// @Tags History
// @Produce json
// @Param id path string true "Report ID"
// @Success 200 {object} response.Envelope
// @Router /reports/{id}/cycles [get]
func (h *HistoryHandler) ListCycles(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	entries, err := h.versions.ListCycles(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, entries)
}

// RecordCycle godoc
// @Summary Archive the current state and start a new assessment cycle
// @Tags History
// @Accept json
// @Produce json
// @Param id path string true "Report ID"
// @Param payload body dto.NewCycleRequest true "New cycle values"
// @Success 200 {object} response.Envelope
// @Router /reports/{id}/cycles [post]
func (h *HistoryHandler) RecordCycle(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	var req dto.NewCycleRequest
	if !bindJSON(c, &req, "invalid cycle payload") {
		return
	}
	report, err := h.versions.RecordNewCycle(c.Request.Context(), actor, c.Param("id"), req)
	if err != nil {
		var cycleErr *service.CycleError
		if report != nil && errors.As(err, &cycleErr) && cycleErr.Step == service.CycleStepNotify {
			middleware.AddWarning(c, "report updated but the campus was not notified")
			response.JSON(c, http.StatusOK, report, middleware.ExtractMeta(c))
			return
		}
		response.Error(c, err)
		return
	}
	response.OK(c, report)
}

// ListNotes godoc
// @Summary List a note thread
// @Tags History
// @Produce json
// @Param id path string true "Report ID"
// @Param field path string true "status_detail, teacher_note or dvsv_note"
// @Success 200 {object} response.Envelope
// @Router /reports/{id}/notes/{field} [get]
func (h *HistoryHandler) ListNotes(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	logs, err := h.notes.ListNotes(c.Request.Context(), actor, c.Param("id"), models.LogType(c.Param("field")))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, logs)
}

// AppendNote godoc
// @Summary Append to a note thread
// @Tags History
// @Accept json
// @Produce json
// @Param id path string true "Report ID"
// @Param field path string true "status_detail, teacher_note or dvsv_note"
// @Param payload body dto.AppendNoteRequest true "Note"
// @Success 201 {object} response.Envelope
// @Router /reports/{id}/notes/{field} [post]
func (h *HistoryHandler) AppendNote(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	var req dto.AppendNoteRequest
	if !bindJSON(c, &req, "invalid note payload") {
		return
	}
	report, err := h.notes.AppendNote(c.Request.Context(), actor, c.Param("id"), models.LogType(c.Param("field")), req.Content)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, report)
}
