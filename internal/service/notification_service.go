package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/HungtdFPI/TaskforceAF/internal/dto"
	"github.com/HungtdFPI/TaskforceAF/internal/models"
	"github.com/HungtdFPI/TaskforceAF/internal/repository"
	appErrors "github.com/HungtdFPI/TaskforceAF/pkg/errors"
)

type notificationStore interface {
	InsertNotification(ctx context.Context, n *models.Notification, retain int) error
	ListNotifications(ctx context.Context, campus models.CampusCode) ([]models.Notification, error)
	MarkNotificationRead(ctx context.Context, id, userID string) error
}

// NotificationConfig bounds the campus notification queue.
type NotificationConfig struct {
	Cap           int
	DefaultCampus models.CampusCode
	PollInterval  time.Duration
}

// NotificationServiceOption configures the service.
type NotificationServiceOption func(*NotificationService)

// WithNotificationMetrics counts emitted notifications.
func WithNotificationMetrics(metrics *MetricsService) NotificationServiceOption {
	return func(s *NotificationService) { s.metrics = metrics }
}

// WithNotificationClock overrides the time source.
func WithNotificationClock(now func() time.Time) NotificationServiceOption {
	return func(s *NotificationService) {
		if now != nil {
			s.now = now
		}
	}
}

// NotificationService broadcasts lifecycle events to campuses and tracks who has read them.
type NotificationService struct {
	store   notificationStore
	cfg     NotificationConfig
	metrics *MetricsService
	logger  *zap.Logger
	now     func() time.Time
}

// NewNotificationService constructs the dispatcher.
func NewNotificationService(store notificationStore, cfg NotificationConfig, logger *zap.Logger, opts ...NotificationServiceOption) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Cap <= 0 {
		cfg.Cap = 50
	}
	if cfg.DefaultCampus == "" {
		cfg.DefaultCampus = models.CampusHN
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 30 * time.Second
	}
	svc := &NotificationService{
		store:  store,
		cfg:    cfg,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		if opt != nil {
			opt(svc)
		}
	}
	return svc
}

// PollInterval is how often clients are expected to refresh.
func (s *NotificationService) PollInterval() time.Duration {
	return s.cfg.PollInterval
}

// Notify stores a new unread notification for campus.
func (s *NotificationService) Notify(ctx context.Context, campus models.CampusCode, title, message string, typ models.NotificationType, relatedID string) (*models.Notification, error) {
	title = strings.TrimSpace(title)
	message = strings.TrimSpace(message)
	if title == "" || message == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "title and message are required")
	}
	if campus == "" {
		campus = s.cfg.DefaultCampus
	}
	n := &models.Notification{
		Campus:    campus,
		Title:     title,
		Message:   message,
		Type:      typ,
		RelatedID: relatedID,
		ReadBy:    []string{},
		CreatedAt: s.now(),
	}
	if err := s.store.InsertNotification(ctx, n, s.cfg.Cap); err != nil {
		return nil, storeFailure(err, "failed to create notification")
	}
	s.metrics.RecordNotification()
	s.logger.Debug("notification created",
		zap.String("notification_id", n.ID),
		zap.String("campus", string(n.Campus)),
		zap.String("type", string(n.Type)))
	return n, nil
}

// MarkRead adds userID to the notification's readers. Repeated calls are no-ops.
func (s *NotificationService) MarkRead(ctx context.Context, id, userID string) error {
	if strings.TrimSpace(id) == "" || strings.TrimSpace(userID) == "" {
		return appErrors.Clone(appErrors.ErrValidation, "notification id and user id are required")
	}
	if err := s.store.MarkNotificationRead(ctx, id, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return appErrors.Clone(appErrors.ErrNotFound, "notification not found")
		}
		return storeFailure(err, "failed to mark notification read")
	}
	return nil
}

// MarkReadFor marks a notification read for actor. Notifications outside the actor's feed are
// reported as not found.
func (s *NotificationService) MarkReadFor(ctx context.Context, actor models.Actor, id string) error {
	if actor.UserID == "" {
		return appErrors.ErrUnauthorized
	}
	items, err := s.store.ListNotifications(ctx, actor.NotificationCampus())
	if err != nil {
		return storeFailure(err, "failed to load notifications")
	}
	for _, n := range items {
		if n.ID == id {
			return s.MarkRead(ctx, id, actor.UserID)
		}
	}
	return appErrors.Clone(appErrors.ErrNotFound, "notification not found")
}

// List returns notifications for campus, newest first. An empty campus lists every campus.
func (s *NotificationService) List(ctx context.Context, userID string, campus models.CampusCode) ([]models.Notification, error) {
	items, err := s.store.ListNotifications(ctx, campus)
	if err != nil {
		return nil, storeFailure(err, "failed to list notifications")
	}
	return items, nil
}

// UnreadCount counts the notifications in List that userID has not read.
func (s *NotificationService) UnreadCount(ctx context.Context, userID string, campus models.CampusCode) (int, error) {
	items, err := s.List(ctx, userID, campus)
	if err != nil {
		return 0, err
	}
	return models.CountUnread(items, userID), nil
}

// Feed returns the bell contents for actor together with the polling contract.
func (s *NotificationService) Feed(ctx context.Context, actor models.Actor) (*dto.NotificationFeed, error) {
	items, err := s.List(ctx, actor.UserID, actor.NotificationCampus())
	if err != nil {
		return nil, err
	}
	return &dto.NotificationFeed{
		Items:          items,
		Unread:         models.CountUnread(items, actor.UserID),
		PollIntervalMs: s.cfg.PollInterval.Milliseconds(),
	}, nil
}

// Unread returns only the unread count for actor.
func (s *NotificationService) Unread(ctx context.Context, actor models.Actor) (*dto.UnreadCount, error) {
	count, err := s.UnreadCount(ctx, actor.UserID, actor.NotificationCampus())
	if err != nil {
		return nil, err
	}
	return &dto.UnreadCount{Unread: count, PollIntervalMs: s.cfg.PollInterval.Milliseconds()}, nil
}

// storeFailure maps repository errors onto API errors.
func storeFailure(err error, message string) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, "report not found")
	case errors.Is(err, repository.ErrFallbackFailed):
		return appErrors.Wrap(err, appErrors.ErrOperationFailed.Code, appErrors.ErrOperationFailed.Status, message)
	case repository.IsUnavailable(err):
		return appErrors.Wrap(err, appErrors.ErrStorageUnavailable.Code, appErrors.ErrStorageUnavailable.Status, message)
	default:
		return appErrors.Wrap(err, appErrors.ErrOperationFailed.Code, appErrors.ErrOperationFailed.Status, message)
	}
}
