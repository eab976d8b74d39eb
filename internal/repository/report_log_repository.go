package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/HungtdFPI/TaskforceAF/internal/models"
)

// ReportLogRepository stores the append-only report log in PostgreSQL.
type ReportLogRepository struct {
	db *sqlx.DB
}

// NewReportLogRepository constructs the repository.
func NewReportLogRepository(db *sqlx.DB) *ReportLogRepository {
	return &ReportLogRepository{db: db}
}

// AppendLog inserts an audit entry.
func (r *ReportLogRepository) AppendLog(ctx context.Context, log *models.ReportLog) error {
	if log.ID == "" {
		log.ID = uuid.NewString()
	}
	if log.CreatedAt.IsZero() {
		log.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO report_logs (id, report_id, user_id, user_name, type, content, created_at)
	VALUES (:id, :report_id, :user_id, :user_name, :type, :content, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, log); err != nil {
		return fmt.Errorf("append report log: %w", err)
	}
	return nil
}

// ListLogs returns a report's logs newest first.
func (r *ReportLogRepository) ListLogs(ctx context.Context, reportID string, logType models.LogType) ([]models.ReportLog, error) {
	query := `SELECT id, report_id, user_id, user_name, type, content, created_at FROM report_logs WHERE report_id = $1`
	args := []interface{}{reportID}
	if logType != "" {
		query += " AND type = $2"
		args = append(args, logType)
	}
	query += " ORDER BY created_at DESC, id DESC"

	var logs []models.ReportLog
	if err := r.db.SelectContext(ctx, &logs, query, args...); err != nil {
		return nil, fmt.Errorf("list report logs: %w", err)
	}
	return logs, nil
}
