package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HungtdFPI/TaskforceAF/internal/dto"
	"github.com/HungtdFPI/TaskforceAF/internal/models"
	appErrors "github.com/HungtdFPI/TaskforceAF/pkg/errors"
)

func reportIDs(reports []models.Report) []string {
	ids := make([]string, 0, len(reports))
	for _, r := range reports {
		ids = append(ids, r.ID)
	}
	return ids
}

func TestReportServiceListHonoursVisibility(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t, "r1", lecturerHN, models.ReportStatusDraft)
	env.seed(t, "r2", lecturerHN2, models.ReportStatusSubmitted)
	env.seed(t, "r3", lecturerDN, models.ReportStatusApproved)
	ctx := context.Background()

	cases := []struct {
		name  string
		actor models.Actor
		want  []string
	}{
		{"lecturer sees own", lecturerHN, []string{"r1"}},
		{"subject head sees campus", subjectHN, []string{"r2", "r1"}},
		{"student affairs sees campus", affairsDN, []string{"r3"}},
		{"department head sees all", deptHead, []string{"r3", "r2", "r1"}},
		{"head office sees all", headOffice, []string{"r3", "r2", "r1"}},
		{"guest sees own only", guest, []string{}},
		{"unknown role sees own only", models.Actor{UserID: "gv-1", Role: "auditor", Campus: models.CampusHN}, []string{"r1"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			reports, err := env.reports.List(ctx, tc.actor, dto.ReportQuery{})
			require.NoError(t, err)
			assert.Equal(t, tc.want, reportIDs(reports))
			for _, r := range reports {
				assert.True(t, tc.actor.CanSee(r))
			}
		})
	}
}

func TestReportServiceListFilters(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t, "r1", lecturerHN, models.ReportStatusDraft)
	env.seed(t, "r2", lecturerHN, models.ReportStatusSubmitted)

	reports, err := env.reports.List(context.Background(), lecturerHN, dto.ReportQuery{
		Status: []models.ReportStatus{models.ReportStatusSubmitted},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"r2"}, reportIDs(reports))

	reports, err = env.reports.List(context.Background(), lecturerHN, dto.ReportQuery{Search: "ser1"})
	require.NoError(t, err)
	assert.Equal(t, []string{"r1"}, reportIDs(reports))
}

func TestReportServiceListByCreatedPeriod(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	now := time.Date(2024, 10, 9, 15, 0, 0, 0, time.UTC)
	for id, created := range map[string]time.Time{
		"today":      time.Date(2024, 10, 9, 8, 0, 0, 0, time.UTC),
		"monday":     time.Date(2024, 10, 7, 0, 0, 0, 0, time.UTC),
		"last-week":  time.Date(2024, 10, 6, 23, 59, 0, 0, time.UTC),
		"last-month": time.Date(2024, 9, 30, 12, 0, 0, 0, time.UTC),
	} {
		require.NoError(t, env.store.InsertReport(ctx, &models.Report{
			ID: id, LecturerID: lecturerHN.UserID, Campus: models.CampusHN, StudentName: id,
			Status: models.ReportStatusDraft, CreatedAt: created, UpdatedAt: created,
		}))
	}
	svc := NewReportService(env.store, nil, nil, ReportServiceConfig{}, WithReportClock(func() time.Time { return now }))

	cases := []struct {
		period models.CreatedPeriod
		want   []string
	}{
		{"", []string{"today", "monday", "last-week", "last-month"}},
		{models.CreatedAnyTime, []string{"today", "monday", "last-week", "last-month"}},
		{models.CreatedToday, []string{"today"}},
		{models.CreatedThisWeek, []string{"today", "monday"}},
		{models.CreatedThisMonth, []string{"today", "monday", "last-week"}},
	}
	for _, tc := range cases {
		t.Run(string(tc.period), func(t *testing.T) {
			reports, err := svc.List(ctx, lecturerHN, dto.ReportQuery{Period: tc.period})
			require.NoError(t, err)
			assert.Equal(t, tc.want, reportIDs(reports))
		})
	}

	_, err := svc.List(ctx, lecturerHN, dto.ReportQuery{Period: "year"})
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
}

func TestReportServiceGetOutsideVisibilityIsNotFound(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t, "r1", lecturerDN, models.ReportStatusDraft)

	_, err := env.reports.Get(context.Background(), subjectHN, "r1")
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))

	report, err := env.reports.Get(context.Background(), deptHead, "r1")
	require.NoError(t, err)
	assert.Equal(t, "r1", report.ID)
}

func TestReportServiceCreate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	report, err := env.reports.Create(ctx, lecturerHN, dto.CreateReportRequest{
		StudentCode:    " SE1001 ",
		StudentName:    "Nguyen Van An",
		ClassName:      "GD07201",
		Subject:        "Photoshop",
		Warn10:         true,
		AssessmentDate: "2024-09-15",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, report.ID)
	assert.Equal(t, "SE1001", report.StudentCode)
	assert.Equal(t, models.CampusHN, report.Campus)
	assert.Equal(t, lecturerHN.UserID, report.LecturerID)
	assert.Equal(t, models.ReportStatusDraft, report.Status)
	assert.Equal(t, models.DvsvStatusPending, report.DvsvStatus)
	assert.Equal(t, models.StudyStatusStudying, report.StudyStatus)
	assert.Equal(t, "15/09/2024", report.AssessmentDate)
	assert.Equal(t, 1, env.stats.count())

	feed := env.feed(t, models.CampusHN)
	require.Len(t, feed, 1)
	assert.Equal(t, models.NotificationReportCreated, feed[0].Type)
	assert.Equal(t, report.ID, feed[0].RelatedID)
	assert.Equal(t, "Lecturer Tran An created a report for Nguyen Van An", feed[0].Message)
}

func TestReportServiceCreateRejects(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	valid := dto.CreateReportRequest{StudentCode: "SE1", StudentName: "A", ClassName: "C", Subject: "S"}

	_, err := env.reports.Create(ctx, subjectHN, valid)
	assert.True(t, appErrors.Is(err, appErrors.ErrForbidden))

	bad := valid
	bad.Campus = "XX"
	_, err = env.reports.Create(ctx, lecturerHN, bad)
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))

	bad = valid
	bad.StudentName = ""
	_, err = env.reports.Create(ctx, lecturerHN, bad)
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))

	bad = valid
	bad.AssessmentDate = "15/09/2024"
	_, err = env.reports.Create(ctx, lecturerHN, bad)
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
}

func TestReportServiceUpdateKeepsLifecycleFields(t *testing.T) {
	env := newTestEnv(t)
	original := env.seed(t, "r1", lecturerHN, models.ReportStatusSubmitted)
	ctx := context.Background()

	changed := *original
	changed.Campus = models.CampusDN
	changed.LecturerID = "someone-else"
	changed.Status = models.ReportStatusFinalized
	changed.TeacherNote = "called parents"
	require.NoError(t, env.reports.Update(ctx, &changed))

	stored, err := env.store.GetReport(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, models.CampusHN, stored.Campus)
	assert.Equal(t, lecturerHN.UserID, stored.LecturerID)
	assert.Equal(t, models.ReportStatusSubmitted, stored.Status)
	assert.Equal(t, original.CreatedAt, stored.CreatedAt)
	assert.Equal(t, "called parents", stored.TeacherNote)
	assert.True(t, stored.UpdatedAt.After(original.UpdatedAt))
}

func TestReportServiceFinalizedGuard(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t, "r1", lecturerHN, models.ReportStatusFinalized)
	ctx := context.Background()

	_, err := env.reports.EditContent(ctx, lecturerHN, "r1", dto.UpdateReportRequest{
		StudentCode: "SE1", StudentName: "A", ClassName: "C", Subject: "S", TeacherNote: "late edit",
	})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrFinalized))

	err = env.reports.Delete(ctx, lecturerHN, "r1")
	assert.True(t, appErrors.Is(err, appErrors.ErrFinalized))

	stored, err := env.store.GetReport(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, "absent twice", stored.StatusDetail)
	assert.Empty(t, stored.TeacherNote)
}

func TestReportServiceGuardCanBeDisabled(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t, "r1", lecturerHN, models.ReportStatusFinalized)
	unguarded := NewReportService(env.store, nil, nil, ReportServiceConfig{GuardFinalized: false})

	report, err := unguarded.EditContent(context.Background(), lecturerHN, "r1", dto.UpdateReportRequest{
		StudentCode: "SE1", StudentName: "A", ClassName: "C", Subject: "S", TeacherNote: "late edit",
	})
	require.NoError(t, err)
	assert.Equal(t, "late edit", report.TeacherNote)
	assert.Equal(t, models.ReportStatusFinalized, report.Status)
}

func TestReportServiceEditContentOwnership(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t, "r1", lecturerHN, models.ReportStatusDraft)
	req := dto.UpdateReportRequest{StudentCode: "SE1", StudentName: "A", ClassName: "C", Subject: "S"}

	_, err := env.reports.EditContent(context.Background(), subjectHN, "r1", req)
	assert.True(t, appErrors.Is(err, appErrors.ErrForbidden))

	_, err = env.reports.EditContent(context.Background(), lecturerDN, "r1", req)
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))
}

func TestReportServiceDelete(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t, "r1", lecturerHN, models.ReportStatusDraft)
	ctx := context.Background()

	err := env.reports.Delete(ctx, lecturerHN2, "r1")
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))

	require.NoError(t, env.reports.Delete(ctx, lecturerHN, "r1"))
	_, err = env.reports.Get(ctx, lecturerHN, "r1")
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))
}

func TestReportServiceClearDrafts(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t, "r1", lecturerHN, models.ReportStatusDraft)
	env.seed(t, "r2", lecturerHN, models.ReportStatusDraft)
	env.seed(t, "r3", lecturerHN, models.ReportStatusSubmitted)
	env.seed(t, "r4", lecturerHN2, models.ReportStatusDraft)
	ctx := context.Background()

	removed, err := env.reports.ClearDrafts(ctx, lecturerHN)
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	remaining, err := env.reports.List(ctx, deptHead, dto.ReportQuery{})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"r3", "r4"}, reportIDs(remaining))

	_, err = env.reports.ClearDrafts(ctx, affairsHN)
	assert.True(t, appErrors.Is(err, appErrors.ErrForbidden))
}

func TestReportServiceBulkSetStatus(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t, "r1", lecturerHN, models.ReportStatusDraft)
	env.seed(t, "r2", lecturerHN, models.ReportStatusApproved)
	ctx := context.Background()

	result, err := env.reports.BulkSetStatus(ctx, []string{"r1", "r2", "r1"}, models.ReportStatusSubmitted)
	require.NoError(t, err)
	assert.Equal(t, []string{"r1"}, result.Updated)
	assert.Equal(t, []string{"r2"}, result.Skipped)

	_, err = env.reports.BulkSetStatus(ctx, []string{"r1"}, models.ReportStatusDraft)
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))

	result, err = env.reports.BulkSetStatus(ctx, []string{"r2"}, models.ReportStatusFinalized)
	require.NoError(t, err)
	assert.Equal(t, []string{"r2"}, result.Updated)
	assert.Equal(t, models.ReportStatusFinalized, env.status(t, "r2"))
}

func TestReportServiceSetCareStatus(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t, "r1", lecturerHN, models.ReportStatusFinalized)
	ctx := context.Background()

	report, err := env.reports.SetCareStatus(ctx, affairsHN, "r1", dto.CareRequest{
		Status: models.DvsvStatusSuccess,
		Note:   "student returned to class",
	})
	require.NoError(t, err)
	assert.Equal(t, models.DvsvStatusSuccess, report.DvsvStatus)
	assert.Equal(t, "student returned to class", report.DvsvNote)
	assert.Equal(t, models.ReportStatusFinalized, report.Status)

	logs, err := env.store.ListLogs(ctx, "r1", models.LogTypeDvsvNote)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, "student returned to class", logs[0].Content)

	_, err = env.reports.SetCareStatus(ctx, affairsDN, "r1", dto.CareRequest{Status: models.DvsvStatusFailed})
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))

	_, err = env.reports.SetCareStatus(ctx, lecturerHN, "r1", dto.CareRequest{Status: models.DvsvStatusFailed})
	assert.True(t, appErrors.Is(err, appErrors.ErrForbidden))

	_, err = env.reports.SetCareStatus(ctx, affairsHN, "r1", dto.CareRequest{Status: "unknown"})
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
}
