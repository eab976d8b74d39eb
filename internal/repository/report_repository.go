package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/HungtdFPI/TaskforceAF/internal/models"
)

const reportColumns = `id, lecturer_id, campus, student_code, student_name, class_name, subject,
       warn_10, warn_15_17, warn_20, banned, status_detail, teacher_note, dvsv_note, dvsv_status,
       study_status, assessment_date, status, created_at, updated_at`

// ReportRepository persists reports in PostgreSQL.
type ReportRepository struct {
	db *sqlx.DB
}

// NewReportRepository constructs the repository.
func NewReportRepository(db *sqlx.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

// ListReports returns reports matching the filter, newest first.
func (r *ReportRepository) ListReports(ctx context.Context, filter models.ReportFilter) ([]models.Report, error) {
	where, args := reportWhere(filter)
	query := "SELECT " + reportColumns + " FROM reports" + where + " ORDER BY created_at DESC, id DESC"

	var reports []models.Report
	if err := r.db.SelectContext(ctx, &reports, query, args...); err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	return reports, nil
}

// GetReport fetches a report by identifier.
func (r *ReportRepository) GetReport(ctx context.Context, id string) (*models.Report, error) {
	query := "SELECT " + reportColumns + " FROM reports WHERE id = $1"
	var report models.Report
	if err := r.db.GetContext(ctx, &report, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get report: %w", err)
	}
	return &report, nil
}

// InsertReport inserts a new report row.
func (r *ReportRepository) InsertReport(ctx context.Context, report *models.Report) error {
	if report.ID == "" {
		report.ID = uuid.NewString()
	}
	const query = `INSERT INTO reports
	(id, lecturer_id, campus, student_code, student_name, class_name, subject, warn_10, warn_15_17, warn_20, banned,
	 status_detail, teacher_note, dvsv_note, dvsv_status, study_status, assessment_date, status, created_at, updated_at)
	VALUES (:id, :lecturer_id, :campus, :student_code, :student_name, :class_name, :subject, :warn_10, :warn_15_17, :warn_20, :banned,
	 :status_detail, :teacher_note, :dvsv_note, :dvsv_status, :study_status, :assessment_date, :status, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, report); err != nil {
		return fmt.Errorf("insert report: %w", err)
	}
	return nil
}

// UpsertReport writes the full record keyed by id. Campus, owner and created_at are only set on
// insert.
func (r *ReportRepository) UpsertReport(ctx context.Context, report *models.Report) error {
	const query = `INSERT INTO reports
	(id, lecturer_id, campus, student_code, student_name, class_name, subject, warn_10, warn_15_17, warn_20, banned,
	 status_detail, teacher_note, dvsv_note, dvsv_status, study_status, assessment_date, status, created_at, updated_at)
	VALUES (:id, :lecturer_id, :campus, :student_code, :student_name, :class_name, :subject, :warn_10, :warn_15_17, :warn_20, :banned,
	 :status_detail, :teacher_note, :dvsv_note, :dvsv_status, :study_status, :assessment_date, :status, :created_at, :updated_at)
	ON CONFLICT (id) DO UPDATE SET
	 student_code = EXCLUDED.student_code,
	 student_name = EXCLUDED.student_name,
	 class_name = EXCLUDED.class_name,
	 subject = EXCLUDED.subject,
	 warn_10 = EXCLUDED.warn_10,
	 warn_15_17 = EXCLUDED.warn_15_17,
	 warn_20 = EXCLUDED.warn_20,
	 banned = EXCLUDED.banned,
	 status_detail = EXCLUDED.status_detail,
	 teacher_note = EXCLUDED.teacher_note,
	 dvsv_note = EXCLUDED.dvsv_note,
	 dvsv_status = EXCLUDED.dvsv_status,
	 study_status = EXCLUDED.study_status,
	 assessment_date = EXCLUDED.assessment_date,
	 status = EXCLUDED.status,
	 updated_at = EXCLUDED.updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, report); err != nil {
		return fmt.Errorf("upsert report: %w", err)
	}
	return nil
}

// DeleteReport removes a report by id.
func (r *ReportRepository) DeleteReport(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM reports WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete report: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check report delete rows: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteReports removes every report matching the filter.
func (r *ReportRepository) DeleteReports(ctx context.Context, filter models.ReportFilter) (int, error) {
	where, args := reportWhere(filter)
	if where == "" {
		return 0, fmt.Errorf("delete reports: refusing unfiltered delete")
	}
	result, err := r.db.ExecContext(ctx, "DELETE FROM reports"+where, args...)
	if err != nil {
		return 0, fmt.Errorf("delete reports: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("check reports delete rows: %w", err)
	}
	return int(rows), nil
}

// TransitionStatus moves every matching report in t.From to t.To in one statement.
func (r *ReportRepository) TransitionStatus(ctx context.Context, t models.StatusTransition) ([]string, error) {
	if targetsNothing(t) {
		return nil, nil
	}
	at := t.At
	if at.IsZero() {
		at = time.Now().UTC()
	}
	where, args := reportWhere(transitionFilter(t))
	args = append(args, t.To, at)
	query := fmt.Sprintf("UPDATE reports SET status = $%d, updated_at = $%d%s RETURNING id", len(args)-1, len(args), where)

	var ids []string
	if err := r.db.SelectContext(ctx, &ids, query, args...); err != nil {
		return nil, fmt.Errorf("transition reports %s->%s: %w", t.From, t.To, err)
	}
	return ids, nil
}

func reportWhere(filter models.ReportFilter) (string, []interface{}) {
	args := make([]interface{}, 0, 8)
	conditions := make([]string, 0, 8)
	if len(filter.IDs) > 0 {
		args = append(args, pq.Array(filter.IDs))
		conditions = append(conditions, fmt.Sprintf("id = ANY($%d)", len(args)))
	}
	if filter.LecturerID != "" {
		args = append(args, filter.LecturerID)
		conditions = append(conditions, fmt.Sprintf("lecturer_id = $%d", len(args)))
	}
	if filter.Campus != "" {
		args = append(args, filter.Campus)
		conditions = append(conditions, fmt.Sprintf("campus = $%d", len(args)))
	}
	if len(filter.Status) > 0 {
		placeholders := make([]string, len(filter.Status))
		for i, status := range filter.Status {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		conditions = append(conditions, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.ClassName != "" {
		args = append(args, filter.ClassName)
		conditions = append(conditions, fmt.Sprintf("class_name = $%d", len(args)))
	}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		conditions = append(conditions, fmt.Sprintf("(student_name ILIKE $%d OR student_code ILIKE $%d)", len(args), len(args)))
	}
	if !filter.CreatedFrom.IsZero() {
		args = append(args, filter.CreatedFrom)
		conditions = append(conditions, fmt.Sprintf("created_at >= $%d", len(args)))
	}
	if !filter.CreatedTo.IsZero() {
		args = append(args, filter.CreatedTo)
		conditions = append(conditions, fmt.Sprintf("created_at < $%d", len(args)))
	}
	if len(conditions) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}
