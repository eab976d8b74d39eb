package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/HungtdFPI/TaskforceAF/internal/models"
)

// NotificationRepository keeps the bounded notification queue in PostgreSQL.
type NotificationRepository struct {
	db *sqlx.DB
}

// NewNotificationRepository constructs the repository.
func NewNotificationRepository(db *sqlx.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

type notificationRow struct {
	ID        string         `db:"id"`
	Campus    string         `db:"campus"`
	Title     string         `db:"title"`
	Message   string         `db:"message"`
	Type      string         `db:"type"`
	RelatedID sql.NullString `db:"related_id"`
	ReadBy    pq.StringArray `db:"read_by"`
	CreatedAt time.Time      `db:"created_at"`
}

func (row notificationRow) model() models.Notification {
	readBy := []string(row.ReadBy)
	if readBy == nil {
		readBy = []string{}
	}
	return models.Notification{
		ID:        row.ID,
		Campus:    models.CampusCode(row.Campus),
		Title:     row.Title,
		Message:   row.Message,
		Type:      models.NotificationType(row.Type),
		RelatedID: row.RelatedID.String,
		ReadBy:    readBy,
		CreatedAt: row.CreatedAt,
	}
}

// InsertNotification stores n and trims the table to the newest retain rows.
func (r *NotificationRepository) InsertNotification(ctx context.Context, n *models.Notification, retain int) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	if n.ReadBy == nil {
		n.ReadBy = []string{}
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin notification insert: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	const insert = `INSERT INTO notifications (id, campus, title, message, type, related_id, read_by, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	related := sql.NullString{String: n.RelatedID, Valid: n.RelatedID != ""}
	if _, err := tx.ExecContext(ctx, insert, n.ID, string(n.Campus), n.Title, n.Message, string(n.Type), related, pq.Array(n.ReadBy), n.CreatedAt); err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}
	if retain > 0 {
		const evict = `DELETE FROM notifications WHERE id IN (
		SELECT id FROM notifications ORDER BY created_at DESC, id DESC OFFSET $1)`
		if _, err := tx.ExecContext(ctx, evict, retain); err != nil {
			return fmt.Errorf("evict notifications: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit notification insert: %w", err)
	}
	return nil
}

// ListNotifications returns notifications visible on campus, newest first.
func (r *NotificationRepository) ListNotifications(ctx context.Context, campus models.CampusCode) ([]models.Notification, error) {
	query := `SELECT id, campus, title, message, type, related_id, read_by, created_at FROM notifications`
	args := []interface{}{}
	if campus != "" {
		query += " WHERE campus = $1 OR campus = ''"
		args = append(args, string(campus))
	}
	query += " ORDER BY created_at DESC, id DESC"

	var rows []notificationRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	items := make([]models.Notification, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.model())
	}
	return items, nil
}

// MarkNotificationRead appends userID to read_by unless already present.
func (r *NotificationRepository) MarkNotificationRead(ctx context.Context, id, userID string) error {
	const query = `UPDATE notifications SET read_by = array_append(read_by, $2)
	WHERE id = $1 AND NOT ($2 = ANY(read_by))`
	result, err := r.db.ExecContext(ctx, query, id, userID)
	if err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check notification read rows: %w", err)
	}
	if rows > 0 {
		return nil
	}
	var exists bool
	if err := r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM notifications WHERE id = $1)`, id); err != nil {
		return fmt.Errorf("check notification exists: %w", err)
	}
	if !exists {
		return ErrNotFound
	}
	return nil
}
