package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HungtdFPI/TaskforceAF/internal/models"
	"github.com/HungtdFPI/TaskforceAF/internal/repository"
	appErrors "github.com/HungtdFPI/TaskforceAF/pkg/errors"
)

func newNotificationService(t *testing.T, limit int) (*NotificationService, *MetricsService) {
	t.Helper()
	metrics := NewMetricsService()
	svc := NewNotificationService(repository.NewMemoryStore(), NotificationConfig{Cap: limit, PollInterval: 15 * time.Second}, nil,
		WithNotificationMetrics(metrics),
		WithNotificationClock(tickClock(time.Date(2024, 10, 1, 0, 0, 0, 0, time.UTC))))
	return svc, metrics
}

func TestNotifyKeepsNewestWithinCap(t *testing.T) {
	svc, metrics := newNotificationService(t, 3)
	ctx := context.Background()

	for i := 1; i <= 5; i++ {
		_, err := svc.Notify(ctx, models.CampusHN, "Report updated", fmt.Sprintf("message %d", i), models.NotificationReportUpdated, "")
		require.NoError(t, err)
	}

	items, err := svc.List(ctx, "gv-1", models.CampusHN)
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, "message 5", items[0].Message)
	assert.Equal(t, "message 3", items[2].Message)
	assert.Equal(t, uint64(5), metrics.Snapshot().NotificationsCreated)
}

func TestNotifyRetainsFiftyNewestOfSixty(t *testing.T) {
	svc, _ := newNotificationService(t, 50)
	ctx := context.Background()

	for i := 1; i <= 60; i++ {
		_, err := svc.Notify(ctx, models.CampusHN, "Report updated", fmt.Sprintf("message %d", i), models.NotificationReportUpdated, "")
		require.NoError(t, err)
	}

	items, err := svc.List(ctx, "ho-1", "")
	require.NoError(t, err)
	require.Len(t, items, 50)
	assert.Equal(t, "message 60", items[0].Message)
	assert.Equal(t, "message 11", items[49].Message)
}

func TestNotifyValidatesAndDefaultsCampus(t *testing.T) {
	svc, _ := newNotificationService(t, 10)
	ctx := context.Background()

	_, err := svc.Notify(ctx, models.CampusHN, " ", "body", models.NotificationReportCreated, "")
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))

	n, err := svc.Notify(ctx, "", "Title", "body", models.NotificationReportCreated, "r1")
	require.NoError(t, err)
	assert.Equal(t, models.CampusHN, n.Campus)
	assert.NotEmpty(t, n.ID)
	assert.Empty(t, n.ReadBy)
}

func TestMarkReadIsIdempotent(t *testing.T) {
	svc, _ := newNotificationService(t, 10)
	ctx := context.Background()
	n, err := svc.Notify(ctx, models.CampusHN, "Title", "body", models.NotificationReportCreated, "")
	require.NoError(t, err)

	unread, err := svc.UnreadCount(ctx, "gv-1", models.CampusHN)
	require.NoError(t, err)
	assert.Equal(t, 1, unread)

	require.NoError(t, svc.MarkRead(ctx, n.ID, "gv-1"))
	require.NoError(t, svc.MarkRead(ctx, n.ID, "gv-1"))

	items, err := svc.List(ctx, "gv-1", models.CampusHN)
	require.NoError(t, err)
	assert.Equal(t, []string{"gv-1"}, items[0].ReadBy)

	unread, err = svc.UnreadCount(ctx, "gv-1", models.CampusHN)
	require.NoError(t, err)
	assert.Zero(t, unread)
	unread, err = svc.UnreadCount(ctx, "gv-2", models.CampusHN)
	require.NoError(t, err)
	assert.Equal(t, 1, unread)

	err = svc.MarkRead(ctx, "missing", "gv-1")
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))
	err = svc.MarkRead(ctx, n.ID, "")
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
}

func TestMarkReadForStaysWithinCampus(t *testing.T) {
	svc, _ := newNotificationService(t, 10)
	ctx := context.Background()
	dn, err := svc.Notify(ctx, models.CampusDN, "Title", "body", models.NotificationReportCreated, "")
	require.NoError(t, err)

	err = svc.MarkReadFor(ctx, models.Actor{UserID: "gv-1", Role: models.RoleLecturer, Campus: models.CampusHN}, dn.ID)
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))
	unread, err := svc.UnreadCount(ctx, "gv-1", models.CampusDN)
	require.NoError(t, err)
	assert.Equal(t, 1, unread)

	require.NoError(t, svc.MarkReadFor(ctx, models.Actor{UserID: "gv-3", Role: models.RoleLecturer, Campus: models.CampusDN}, dn.ID))
	require.NoError(t, svc.MarkReadFor(ctx, models.Actor{UserID: "ho-1", Role: models.RoleHeadOffice}, dn.ID))

	items, err := svc.List(ctx, "", "")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"gv-3", "ho-1"}, items[0].ReadBy)

	err = svc.MarkReadFor(ctx, models.Actor{}, dn.ID)
	assert.True(t, appErrors.Is(err, appErrors.ErrUnauthorized))
}

func TestFeedFiltersByCampus(t *testing.T) {
	svc, _ := newNotificationService(t, 10)
	ctx := context.Background()
	_, err := svc.Notify(ctx, models.CampusHN, "Title", "hn", models.NotificationReportCreated, "")
	require.NoError(t, err)
	_, err = svc.Notify(ctx, models.CampusDN, "Title", "dn", models.NotificationReportCreated, "")
	require.NoError(t, err)

	feed, err := svc.Feed(ctx, lecturerHN)
	require.NoError(t, err)
	require.Len(t, feed.Items, 1)
	assert.Equal(t, "hn", feed.Items[0].Message)
	assert.Equal(t, 1, feed.Unread)
	assert.Equal(t, int64(15000), feed.PollIntervalMs)

	all, err := svc.Feed(ctx, headOffice)
	require.NoError(t, err)
	assert.Len(t, all.Items, 2)

	count, err := svc.Unread(ctx, affairsDN)
	require.NoError(t, err)
	assert.Equal(t, 1, count.Unread)
	assert.Equal(t, int64(15000), count.PollIntervalMs)
}
