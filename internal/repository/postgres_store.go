package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// schemaStatements create the tables PostgresStore needs. They are idempotent.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS reports (
		id TEXT PRIMARY KEY,
		lecturer_id TEXT NOT NULL,
		campus TEXT NOT NULL,
		student_code TEXT NOT NULL,
		student_name TEXT NOT NULL,
		class_name TEXT NOT NULL DEFAULT '',
		subject TEXT NOT NULL DEFAULT '',
		warn_10 BOOLEAN NOT NULL DEFAULT FALSE,
		warn_15_17 BOOLEAN NOT NULL DEFAULT FALSE,
		warn_20 BOOLEAN NOT NULL DEFAULT FALSE,
		banned BOOLEAN NOT NULL DEFAULT FALSE,
		status_detail TEXT NOT NULL DEFAULT '',
		teacher_note TEXT NOT NULL DEFAULT '',
		dvsv_note TEXT NOT NULL DEFAULT '',
		dvsv_status TEXT NOT NULL DEFAULT 'pending',
		study_status TEXT NOT NULL DEFAULT 'studying',
		assessment_date TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL DEFAULT 'draft',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_reports_lecturer ON reports (lecturer_id)`,
	`CREATE INDEX IF NOT EXISTS idx_reports_campus_status ON reports (campus, status)`,
	`CREATE TABLE IF NOT EXISTS report_logs (
		id TEXT PRIMARY KEY,
		report_id TEXT NOT NULL,
		user_id TEXT NOT NULL,
		user_name TEXT NOT NULL DEFAULT '',
		type TEXT NOT NULL,
		content TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_report_logs_report ON report_logs (report_id, type, created_at DESC)`,
	`CREATE TABLE IF NOT EXISTS notifications (
		id TEXT PRIMARY KEY,
		campus TEXT NOT NULL DEFAULT '',
		title TEXT NOT NULL,
		message TEXT NOT NULL,
		type TEXT NOT NULL,
		related_id TEXT,
		read_by TEXT[] NOT NULL DEFAULT '{}',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_notifications_created ON notifications (created_at DESC)`,
}

// PostgresStore is the primary Store backed by PostgreSQL.
type PostgresStore struct {
	*ReportRepository
	*ReportLogRepository
	*NotificationRepository
	db *sqlx.DB
}

// NewPostgresStore composes the PostgreSQL repositories into a Store.
func NewPostgresStore(db *sqlx.DB) *PostgresStore {
	return &PostgresStore{
		ReportRepository:       NewReportRepository(db),
		ReportLogRepository:    NewReportLogRepository(db),
		NotificationRepository: NewNotificationRepository(db),
		db:                     db,
	}
}

// Name identifies the backend in logs and metrics.
func (s *PostgresStore) Name() string { return "postgres" }

// Ping checks connectivity; failures are reported as unavailable.
func (s *PostgresStore) Ping(ctx context.Context) error {
	if s.db == nil {
		return ErrStorageUnavailable
	}
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: postgres ping: %v", ErrStorageUnavailable, err)
	}
	return nil
}

// EnsureSchema creates the tables and indexes if they are missing.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}
