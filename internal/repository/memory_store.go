package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/HungtdFPI/TaskforceAF/internal/models"
)

// MemoryStore is an in-process Store. Values are copied on the way in and out so callers never
// share state with the store.
type MemoryStore struct {
	mu            sync.RWMutex
	reports       map[string]models.Report
	logs          map[string][]models.ReportLog
	notifications []models.Notification
	now           func() time.Time
}

// NewMemoryStore constructs an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		reports: make(map[string]models.Report),
		logs:    make(map[string][]models.ReportLog),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Name identifies the backend.
func (s *MemoryStore) Name() string { return "memory" }

// Ping always succeeds.
func (s *MemoryStore) Ping(context.Context) error { return nil }

// ListReports returns matching reports, newest first.
func (s *MemoryStore) ListReports(_ context.Context, filter models.ReportFilter) ([]models.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Report, 0, len(s.reports))
	for _, r := range s.reports {
		if matchesFilter(r, filter) {
			out = append(out, r)
		}
	}
	sortReports(out)
	return out, nil
}

// GetReport returns a copy of the stored report.
func (s *MemoryStore) GetReport(_ context.Context, id string) (*models.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.reports[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &r, nil
}

// InsertReport stores a new report.
func (s *MemoryStore) InsertReport(_ context.Context, report *models.Report) error {
	if report.ID == "" {
		report.ID = uuid.NewString()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reports[report.ID] = *report
	return nil
}

// UpsertReport writes the full record; campus, owner and created_at survive from the stored row.
func (s *MemoryStore) UpsertReport(_ context.Context, report *models.Report) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := *report
	if existing, ok := s.reports[report.ID]; ok {
		next.Campus = existing.Campus
		next.LecturerID = existing.LecturerID
		next.CreatedAt = existing.CreatedAt
	}
	s.reports[report.ID] = next
	return nil
}

// DeleteReport removes a report.
func (s *MemoryStore) DeleteReport(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.reports[id]; !ok {
		return ErrNotFound
	}
	delete(s.reports, id)
	return nil
}

// DeleteReports removes all reports matching filter.
func (s *MemoryStore) DeleteReports(_ context.Context, filter models.ReportFilter) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id, r := range s.reports {
		if matchesFilter(r, filter) {
			delete(s.reports, id)
			removed++
		}
	}
	return removed, nil
}

// TransitionStatus moves matching reports in t.From to t.To under one lock.
func (s *MemoryStore) TransitionStatus(_ context.Context, t models.StatusTransition) ([]string, error) {
	if targetsNothing(t) {
		return nil, nil
	}
	at := t.At
	if at.IsZero() {
		at = s.now()
	}
	filter := transitionFilter(t)
	s.mu.Lock()
	defer s.mu.Unlock()
	moved := make([]string, 0)
	for id, r := range s.reports {
		if !matchesFilter(r, filter) {
			continue
		}
		r.Status = t.To
		r.UpdatedAt = at
		s.reports[id] = r
		moved = append(moved, id)
	}
	sort.Strings(moved)
	return moved, nil
}

// AppendLog appends an audit entry.
func (s *MemoryStore) AppendLog(_ context.Context, log *models.ReportLog) error {
	if log.ID == "" {
		log.ID = uuid.NewString()
	}
	if log.CreatedAt.IsZero() {
		log.CreatedAt = s.now()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logs[log.ReportID] = append(s.logs[log.ReportID], *log)
	return nil
}

// ListLogs returns the report's logs newest first.
func (s *MemoryStore) ListLogs(_ context.Context, reportID string, logType models.LogType) ([]models.ReportLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entries := s.logs[reportID]
	out := make([]models.ReportLog, 0, len(entries))
	for i := len(entries) - 1; i >= 0; i-- {
		if logType == "" || entries[i].Type == logType {
			out = append(out, entries[i])
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// InsertNotification prepends n and evicts entries beyond retain.
func (s *MemoryStore) InsertNotification(_ context.Context, n *models.Notification, retain int) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = s.now()
	}
	stored := cloneNotification(*n)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notifications = append([]models.Notification{stored}, s.notifications...)
	sort.SliceStable(s.notifications, func(i, j int) bool {
		return s.notifications[i].CreatedAt.After(s.notifications[j].CreatedAt)
	})
	if retain > 0 && len(s.notifications) > retain {
		s.notifications = s.notifications[:retain]
	}
	return nil
}

// ListNotifications returns notifications visible on campus, newest first.
func (s *MemoryStore) ListNotifications(_ context.Context, campus models.CampusCode) ([]models.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Notification, 0, len(s.notifications))
	for _, n := range s.notifications {
		if n.VisibleOn(campus) {
			out = append(out, cloneNotification(n))
		}
	}
	return out, nil
}

// MarkNotificationRead adds userID to the read set.
func (s *MemoryStore) MarkNotificationRead(_ context.Context, id, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.notifications {
		if s.notifications[i].ID != id {
			continue
		}
		if !s.notifications[i].ReadByUser(userID) {
			s.notifications[i].ReadBy = append(s.notifications[i].ReadBy, userID)
		}
		return nil
	}
	return ErrNotFound
}

func cloneNotification(n models.Notification) models.Notification {
	readBy := make([]string, len(n.ReadBy))
	copy(readBy, n.ReadBy)
	n.ReadBy = readBy
	return n
}

func sortReports(reports []models.Report) {
	sort.SliceStable(reports, func(i, j int) bool {
		if reports[i].CreatedAt.Equal(reports[j].CreatedAt) {
			return reports[i].ID > reports[j].ID
		}
		return reports[i].CreatedAt.After(reports[j].CreatedAt)
	})
}
