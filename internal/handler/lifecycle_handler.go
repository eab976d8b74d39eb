package handler

import (
	"context"
	"errors"
	"io"

	"github.com/gin-gonic/gin"

	"github.com/HungtdFPI/TaskforceAF/internal/dto"
	"github.com/HungtdFPI/TaskforceAF/internal/models"
	appErrors "github.com/HungtdFPI/TaskforceAF/pkg/errors"
	"github.com/HungtdFPI/TaskforceAF/pkg/response"
)

type lifecycleService interface {
	Submit(ctx context.Context, actor models.Actor, ids []string) (*dto.BatchResult, error)
	Approve(ctx context.Context, actor models.Actor, id string) (*dto.TransitionResult, error)
	Reject(ctx context.Context, actor models.Actor, id, reason string) (*dto.TransitionResult, error)
	FinalizeAll(ctx context.Context, actor models.Actor) (*dto.BatchResult, error)
}

// LifecycleHandler exposes report status transitions.
type LifecycleHandler struct {
	lifecycle lifecycleService
}

// NewLifecycleHandler constructs handler.
func NewLifecycleHandler(lifecycle lifecycleService) *LifecycleHandler {
	return &LifecycleHandler{lifecycle: lifecycle}
}

// Submit godoc
// @Summary Submit own drafts for review
// @Description An empty or missing ids list submits every own draft.
// @Tags Lifecycle
// @Accept json
// @Produce json
// @Param payload body dto.SubmitReportsRequest false "Report ids"
// @Success 200 {object} response.Envelope
// @Router /reports/submit [post]
func (h *LifecycleHandler) Submit(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	var req dto.SubmitReportsRequest
	if !bindOptionalJSON(c, &req, "invalid submit payload") {
		return
	}
	result, err := h.lifecycle.Submit(c.Request.Context(), actor, req.IDs)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, result)
}

// Approve godoc
// @Summary Approve a submitted report
// @Tags Lifecycle
// @Produce json
// @Param id path string true "Report ID"
// @Success 200 {object} response.Envelope
// @Router /reports/{id}/approve [post]
func (h *LifecycleHandler) Approve(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	result, err := h.lifecycle.Approve(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, result)
}

// Reject godoc
// @Summary Return a submitted report to draft
// @Tags Lifecycle
// @Accept json
// @Produce json
// @Param id path string true "Report ID"
// @Param payload body dto.RejectReportRequest false "Reason"
// @Success 200 {object} response.Envelope
// @Router /reports/{id}/reject [post]
func (h *LifecycleHandler) Reject(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	var req dto.RejectReportRequest
	if !bindOptionalJSON(c, &req, "invalid reject payload") {
		return
	}
	result, err := h.lifecycle.Reject(c.Request.Context(), actor, c.Param("id"), req.Reason)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, result)
}

// Finalize godoc
// @Summary Finalize every approved report
// @Tags Lifecycle
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /reports/finalize [post]
func (h *LifecycleHandler) Finalize(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	result, err := h.lifecycle.FinalizeAll(c.Request.Context(), actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, result)
}

// bindOptionalJSON accepts an empty body as the zero value.
func bindOptionalJSON(c *gin.Context, dest interface{}, message string) bool {
	if c.Request.Body == nil || c.Request.ContentLength == 0 {
		return true
	}
	if err := c.ShouldBindJSON(dest); err != nil && !errors.Is(err, io.EOF) {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, message))
		return false
	}
	return true
}
