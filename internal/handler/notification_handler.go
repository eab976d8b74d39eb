package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/HungtdFPI/TaskforceAF/internal/dto"
	"github.com/HungtdFPI/TaskforceAF/internal/models"
	"github.com/HungtdFPI/TaskforceAF/pkg/response"
)

type notificationService interface {
	Feed(ctx context.Context, actor models.Actor) (*dto.NotificationFeed, error)
	Unread(ctx context.Context, actor models.Actor) (*dto.UnreadCount, error)
	MarkReadFor(ctx context.Context, actor models.Actor, id string) error
}

// NotificationHandler serves the notification bell.
type NotificationHandler struct {
	notifications notificationService
}

// NewNotificationHandler constructs handler.
func NewNotificationHandler(notifications notificationService) *NotificationHandler {
	return &NotificationHandler{notifications: notifications}
}

// Feed godoc
// @Summary Notifications for the caller's campus
// @Tags Notifications
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /notifications [get]
func (h *NotificationHandler) Feed(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	feed, err := h.notifications.Feed(c.Request.Context(), actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, feed)
}

// UnreadCount godoc
// @Summary Unread notification count
// @Tags Notifications
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /notifications/unread-count [get]
func (h *NotificationHandler) UnreadCount(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	count, err := h.notifications.Unread(c.Request.Context(), actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, count)
}

// MarkRead godoc
// @Summary Mark a notification read
// @Tags Notifications
// @Param id path string true "Notification ID"
// @Success 204
// @Router /notifications/{id}/read [post]
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	if err := h.notifications.MarkReadFor(c.Request.Context(), actor, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
