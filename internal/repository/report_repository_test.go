package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/HungtdFPI/TaskforceAF/internal/models"
)

var reportColumnNames = []string{"id", "lecturer_id", "campus", "student_code", "student_name", "class_name", "subject",
	"warn_10", "warn_15_17", "warn_20", "banned", "status_detail", "teacher_note", "dvsv_note", "dvsv_status",
	"study_status", "assessment_date", "status", "created_at", "updated_at"}

func newPostgresMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestReportRepositoryListFilters(t *testing.T) {
	db, mock, cleanup := newPostgresMock(t)
	defer cleanup()
	repo := NewReportRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows(reportColumnNames).
		AddRow("rep-1", "gv-1", "HN", "SE001", "Nguyen Van A", "SE1601", "PRF192", true, false, false, false,
			"absent", "", "", "pending", "studying", "01/09/2024", "draft", now, now)
	mock.ExpectQuery(regexp.QuoteMeta("FROM reports WHERE lecturer_id = $1 AND status IN ($2) ORDER BY created_at DESC")).
		WithArgs("gv-1", models.ReportStatusDraft).
		WillReturnRows(rows)

	reports, err := repo.ListReports(context.Background(), models.ReportFilter{
		LecturerID: "gv-1",
		Status:     []models.ReportStatus{models.ReportStatusDraft},
	})
	require.NoError(t, err)
	require.Len(t, reports, 1)
	require.Equal(t, models.CampusHN, reports[0].Campus)
	require.True(t, reports[0].Warn10)
	require.Equal(t, models.ReportStatusDraft, reports[0].Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReportRepositoryListCreatedRange(t *testing.T) {
	db, mock, cleanup := newPostgresMock(t)
	defer cleanup()
	repo := NewReportRepository(db)

	from := time.Date(2024, 9, 30, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 7)
	mock.ExpectQuery(regexp.QuoteMeta("FROM reports WHERE campus = $1 AND created_at >= $2 AND created_at < $3 ORDER BY created_at DESC")).
		WithArgs(models.CampusHN, from, to).
		WillReturnRows(sqlmock.NewRows(reportColumnNames))

	reports, err := repo.ListReports(context.Background(), models.ReportFilter{
		Campus:      models.CampusHN,
		CreatedFrom: from,
		CreatedTo:   to,
	})
	require.NoError(t, err)
	require.Empty(t, reports)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReportRepositoryGetNotFound(t *testing.T) {
	db, mock, cleanup := newPostgresMock(t)
	defer cleanup()
	repo := NewReportRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM reports WHERE id = $1")).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetReport(context.Background(), "missing")
	require.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReportRepositoryTransitionStatus(t *testing.T) {
	db, mock, cleanup := newPostgresMock(t)
	defer cleanup()
	repo := NewReportRepository(db)

	at := time.Date(2024, 9, 1, 8, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta("UPDATE reports SET status = $4, updated_at = $5 WHERE id = ANY($1) AND lecturer_id = $2 AND status IN ($3) RETURNING id")).
		WithArgs(sqlmock.AnyArg(), "gv-1", models.ReportStatusDraft, models.ReportStatusSubmitted, at).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("rep-1"))

	moved, err := repo.TransitionStatus(context.Background(), models.StatusTransition{
		IDs:        []string{"rep-1", "rep-2"},
		LecturerID: "gv-1",
		From:       models.ReportStatusDraft,
		To:         models.ReportStatusSubmitted,
		At:         at,
	})
	require.NoError(t, err)
	require.Equal(t, []string{"rep-1"}, moved)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReportRepositoryTransitionWithoutTargetsIsNoop(t *testing.T) {
	db, mock, cleanup := newPostgresMock(t)
	defer cleanup()
	repo := NewReportRepository(db)

	moved, err := repo.TransitionStatus(context.Background(), models.StatusTransition{
		From: models.ReportStatusDraft,
		To:   models.ReportStatusSubmitted,
	})
	require.NoError(t, err)
	require.Empty(t, moved)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReportRepositoryDeleteReportsRequiresFilter(t *testing.T) {
	db, mock, cleanup := newPostgresMock(t)
	defer cleanup()
	repo := NewReportRepository(db)

	_, err := repo.DeleteReports(context.Background(), models.ReportFilter{})
	require.Error(t, err)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM reports WHERE lecturer_id = $1 AND status IN ($2)")).
		WithArgs("gv-1", models.ReportStatusDraft).
		WillReturnResult(sqlmock.NewResult(0, 3))
	removed, err := repo.DeleteReports(context.Background(), models.ReportFilter{
		LecturerID: "gv-1",
		Status:     []models.ReportStatus{models.ReportStatusDraft},
	})
	require.NoError(t, err)
	require.Equal(t, 3, removed)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReportLogRepositoryListByType(t *testing.T) {
	db, mock, cleanup := newPostgresMock(t)
	defer cleanup()
	repo := NewReportLogRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "report_id", "user_id", "user_name", "type", "content", "created_at"}).
		AddRow("log-2", "rep-1", "gv-1", "Lecturer", "teacher_note", "second", now).
		AddRow("log-1", "rep-1", "gv-1", "Lecturer", "teacher_note", "first", now.Add(-time.Minute))
	mock.ExpectQuery(regexp.QuoteMeta("FROM report_logs WHERE report_id = $1 AND type = $2 ORDER BY created_at DESC")).
		WithArgs("rep-1", models.LogTypeTeacherNote).
		WillReturnRows(rows)

	logs, err := repo.ListLogs(context.Background(), "rep-1", models.LogTypeTeacherNote)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	require.Equal(t, "second", logs[0].Content)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestNotificationRepositoryInsertEvicts(t *testing.T) {
	db, mock, cleanup := newPostgresMock(t)
	defer cleanup()
	repo := NewNotificationRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO notifications")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM notifications WHERE id IN (")).
		WithArgs(50).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	n := &models.Notification{Campus: models.CampusHN, Title: "Report", Message: "created", Type: models.NotificationReportCreated}
	require.NoError(t, repo.InsertNotification(context.Background(), n, 50))
	require.NotEmpty(t, n.ID)
	require.NotNil(t, n.ReadBy)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestNotificationRepositoryListCampus(t *testing.T) {
	db, mock, cleanup := newPostgresMock(t)
	defer cleanup()
	repo := NewNotificationRepository(db)

	rows := sqlmock.NewRows([]string{"id", "campus", "title", "message", "type", "related_id", "read_by", "created_at"}).
		AddRow("n-1", "HN", "Report", "approved", "report_approved", "rep-1", "{gv-1,cnbm-1}", time.Now()).
		AddRow("n-2", "", "System", "global", "report_updated", nil, "{}", time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("FROM notifications WHERE campus = $1 OR campus = ''")).
		WithArgs("HN").
		WillReturnRows(rows)

	items, err := repo.ListNotifications(context.Background(), models.CampusHN)
	require.NoError(t, err)
	require.Len(t, items, 2)
	require.Equal(t, []string{"gv-1", "cnbm-1"}, items[0].ReadBy)
	require.Equal(t, "rep-1", items[0].RelatedID)
	require.Empty(t, items[1].ReadBy)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestNotificationRepositoryMarkReadIsIdempotent(t *testing.T) {
	db, mock, cleanup := newPostgresMock(t)
	defer cleanup()
	repo := NewNotificationRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE notifications SET read_by = array_append(read_by, $2)")).
		WithArgs("n-1", "gv-1").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS(SELECT 1 FROM notifications WHERE id = $1)")).
		WithArgs("n-1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	require.NoError(t, repo.MarkNotificationRead(context.Background(), "n-1", "gv-1"))

	mock.ExpectExec(regexp.QuoteMeta("UPDATE notifications SET read_by")).
		WithArgs("missing", "gv-1").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS")).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	require.ErrorIs(t, repo.MarkNotificationRead(context.Background(), "missing", "gv-1"), ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStoreEnsureSchema(t *testing.T) {
	db, mock, cleanup := newPostgresMock(t)
	defer cleanup()
	store := NewPostgresStore(db)

	for range schemaStatements {
		mock.ExpectExec("CREATE").WillReturnResult(sqlmock.NewResult(0, 0))
	}
	require.NoError(t, store.EnsureSchema(context.Background()))
	require.Equal(t, "postgres", store.Name())
	require.NoError(t, mock.ExpectationsWereMet())
}
