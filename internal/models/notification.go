package models

import "time"

// NotificationType enumerates lifecycle events broadcast to a campus.
type NotificationType string

const (
	NotificationReportCreated  NotificationType = "report_created"
	NotificationReportUpdated  NotificationType = "report_updated"
	NotificationReportApproved NotificationType = "report_approved"
	NotificationReportRejected NotificationType = "report_rejected"
)

// Notification is a campus-scoped alert. An empty Campus means the alert is global.
type Notification struct {
	ID        string           `json:"id"`
	Campus    CampusCode       `json:"campus,omitempty"`
	Title     string           `json:"title"`
	Message   string           `json:"message"`
	Type      NotificationType `json:"type"`
	RelatedID string           `json:"related_id,omitempty"`
	ReadBy    []string         `json:"read_by"`
	CreatedAt time.Time        `json:"created_at"`
}

// ReadByUser reports whether userID has acknowledged the notification.
func (n Notification) ReadByUser(userID string) bool {
	for _, id := range n.ReadBy {
		if id == userID {
			return true
		}
	}
	return false
}

// VisibleOn reports whether the notification shows up for a campus filter. An empty filter
// sees everything; otherwise the campus must match or the notification must be global.
func (n Notification) VisibleOn(campus CampusCode) bool {
	return campus == "" || n.Campus == "" || n.Campus == campus
}

// CountUnread counts notifications userID has not read.
func CountUnread(items []Notification, userID string) int {
	unread := 0
	for _, n := range items {
		if !n.ReadByUser(userID) {
			unread++
		}
	}
	return unread
}
