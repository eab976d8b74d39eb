package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/HungtdFPI/TaskforceAF/internal/models"
	"github.com/HungtdFPI/TaskforceAF/internal/repository"
)

var (
	lecturerHN  = models.Actor{UserID: "gv-1", Role: models.RoleLecturer, Campus: models.CampusHN, DisplayName: "Tran An"}
	lecturerHN2 = models.Actor{UserID: "gv-2", Role: models.RoleLecturer, Campus: models.CampusHN, DisplayName: "Le Binh"}
	lecturerDN  = models.Actor{UserID: "gv-3", Role: models.RoleLecturer, Campus: models.CampusDN, DisplayName: "Pham Chi"}
	subjectHN   = models.Actor{UserID: "cnbm-1", Role: models.RoleSubjectHead, Campus: models.CampusHN}
	deptHead    = models.Actor{UserID: "tn-1", Role: models.RoleDepartmentHead, Campus: models.CampusHN}
	headOffice  = models.Actor{UserID: "ho-1", Role: models.RoleHeadOffice}
	affairsHN   = models.Actor{UserID: "dvsv-1", Role: models.RoleStudentAffairs, Campus: models.CampusHN}
	affairsDN   = models.Actor{UserID: "dvsv-2", Role: models.RoleStudentAffairs, Campus: models.CampusDN}
	guest       = models.Actor{UserID: "guest-1", Role: models.RoleGuest, Campus: models.CampusHN}
)

// tickClock returns a clock that advances one second per call.
func tickClock(start time.Time) func() time.Time {
	var mu sync.Mutex
	current := start
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		current = current.Add(time.Second)
		return current
	}
}

type statsCounter struct {
	mu    sync.Mutex
	calls int
}

func (s *statsCounter) Invalidate(context.Context) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
}

func (s *statsCounter) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type testEnv struct {
	store         *repository.MemoryStore
	clock         func() time.Time
	metrics       *MetricsService
	stats         *statsCounter
	notifications *NotificationService
	reports       *ReportService
	lifecycle     *LifecycleService
	versioning    *VersioningService
	notes         *NoteService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		store:   repository.NewMemoryStore(),
		clock:   tickClock(time.Date(2024, 10, 1, 7, 0, 0, 0, time.UTC)),
		metrics: NewMetricsService(),
		stats:   &statsCounter{},
	}
	env.notifications = NewNotificationService(env.store, NotificationConfig{Cap: 50}, nil,
		WithNotificationMetrics(env.metrics),
		WithNotificationClock(env.clock))
	env.reports = NewReportService(env.store, nil, nil, ReportServiceConfig{GuardFinalized: true},
		WithReportNotifier(env.notifications),
		WithReportStatsInvalidator(env.stats),
		WithReportClock(env.clock))
	env.lifecycle = NewLifecycleService(env.store, env.reports, nil,
		WithLifecycleNotifier(env.notifications),
		WithLifecycleStatsInvalidator(env.stats),
		WithLifecycleMetrics(env.metrics),
		WithLifecycleClock(env.clock))
	env.versioning = NewVersioningService(env.reports, env.store, env.notifications, VersioningConfig{}, nil,
		WithVersioningClock(env.clock))
	env.notes = NewNoteService(env.reports, env.store, nil, WithNoteClock(env.clock))
	return env
}

// seed stores a report directly, bypassing the service.
func (e *testEnv) seed(t *testing.T, id string, owner models.Actor, status models.ReportStatus) *models.Report {
	t.Helper()
	created := e.clock()
	report := &models.Report{
		ID:             id,
		LecturerID:     owner.UserID,
		Campus:         owner.Campus,
		StudentCode:    "SE" + id,
		StudentName:    "Student " + id,
		ClassName:      "GD07201",
		Subject:        "Figma",
		StatusDetail:   "absent twice",
		DvsvStatus:     models.DvsvStatusPending,
		StudyStatus:    models.StudyStatusStudying,
		AssessmentDate: "01/10/2024",
		Status:         status,
		CreatedAt:      created,
		UpdatedAt:      created,
	}
	require.NoError(t, e.store.InsertReport(context.Background(), report))
	return report
}

func (e *testEnv) status(t *testing.T, id string) models.ReportStatus {
	t.Helper()
	r, err := e.store.GetReport(context.Background(), id)
	require.NoError(t, err)
	return r.Status
}

func (e *testEnv) feed(t *testing.T, campus models.CampusCode) []models.Notification {
	t.Helper()
	items, err := e.store.ListNotifications(context.Background(), campus)
	require.NoError(t, err)
	return items
}
