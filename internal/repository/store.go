package repository

import (
	"context"
	"database/sql/driver"
	"errors"
	"net"
	"strings"
	"syscall"

	"github.com/HungtdFPI/TaskforceAF/internal/models"
)

var (
	// ErrNotFound is returned when a keyed lookup has no row.
	ErrNotFound = errors.New("record not found")
	// ErrStorageUnavailable marks errors caused by an unreachable backend.
	ErrStorageUnavailable = errors.New("storage unavailable")
)

// ReportStore persists reports.
type ReportStore interface {
	ListReports(ctx context.Context, filter models.ReportFilter) ([]models.Report, error)
	GetReport(ctx context.Context, id string) (*models.Report, error)
	InsertReport(ctx context.Context, report *models.Report) error
	// UpsertReport writes the full record keyed by ID.
	UpsertReport(ctx context.Context, report *models.Report) error
	DeleteReport(ctx context.Context, id string) error
	// DeleteReports removes every report matching filter and returns how many went.
	DeleteReports(ctx context.Context, filter models.ReportFilter) (int, error)
	// TransitionStatus moves matching reports currently in t.From to t.To and returns the ids
	// that moved.
	TransitionStatus(ctx context.Context, t models.StatusTransition) ([]string, error)
}

// LogStore is the append-only report log.
type LogStore interface {
	AppendLog(ctx context.Context, log *models.ReportLog) error
	// ListLogs returns a report's logs newest first; an empty logType returns every type.
	ListLogs(ctx context.Context, reportID string, logType models.LogType) ([]models.ReportLog, error)
}

// NotificationStore keeps a bounded queue of notifications.
type NotificationStore interface {
	// InsertNotification stores n and evicts the oldest entries beyond retain.
	InsertNotification(ctx context.Context, n *models.Notification, retain int) error
	// ListNotifications returns notifications visible on campus, newest first.
	ListNotifications(ctx context.Context, campus models.CampusCode) ([]models.Notification, error)
	// MarkNotificationRead adds userID to read_by if absent.
	MarkNotificationRead(ctx context.Context, id, userID string) error
}

// Store is the persistence contract the report subsystem runs against.
type Store interface {
	ReportStore
	LogStore
	NotificationStore
	Name() string
	Ping(ctx context.Context) error
}

// IsUnavailable reports whether err means the backend could not be reached, as opposed to
// the backend rejecting the operation.
func IsUnavailable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrStorageUnavailable) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, driver.ErrBadConn) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, net.ErrClosed) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var opErr *net.OpError
	return errors.As(err, &opErr)
}

// matchesFilter applies f to r in memory; shared by the key-value backends.
func matchesFilter(r models.Report, f models.ReportFilter) bool {
	if len(f.IDs) > 0 && !containsString(f.IDs, r.ID) {
		return false
	}
	if f.LecturerID != "" && r.LecturerID != f.LecturerID {
		return false
	}
	if f.Campus != "" && r.Campus != f.Campus {
		return false
	}
	if len(f.Status) > 0 {
		found := false
		for _, s := range f.Status {
			if r.Status == s {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if f.ClassName != "" && r.ClassName != f.ClassName {
		return false
	}
	if f.Search != "" && !containsFold(r.StudentName, f.Search) && !containsFold(r.StudentCode, f.Search) {
		return false
	}
	if !f.CreatedFrom.IsZero() && r.CreatedAt.Before(f.CreatedFrom) {
		return false
	}
	if !f.CreatedTo.IsZero() && !r.CreatedAt.Before(f.CreatedTo) {
		return false
	}
	return true
}

func transitionFilter(t models.StatusTransition) models.ReportFilter {
	return models.ReportFilter{
		IDs:        t.IDs,
		LecturerID: t.LecturerID,
		Campus:     t.Campus,
		Status:     []models.ReportStatus{t.From},
	}
}

func containsString(items []string, v string) bool {
	for _, item := range items {
		if item == v {
			return true
		}
	}
	return false
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

// targetsNothing reports whether a transition has neither explicit ids nor the all-ids flag.
func targetsNothing(t models.StatusTransition) bool {
	return !t.AllIDs && len(t.IDs) == 0
}
