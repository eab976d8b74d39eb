package dto

import "github.com/HungtdFPI/TaskforceAF/internal/models"

// NotificationFeed is what the notification bell polls for.
type NotificationFeed struct {
	Items          []models.Notification `json:"items"`
	Unread         int                   `json:"unread"`
	PollIntervalMs int64                 `json:"poll_interval_ms"`
}

// UnreadCount is the lightweight poll response.
type UnreadCount struct {
	Unread         int   `json:"unread"`
	PollIntervalMs int64 `json:"poll_interval_ms"`
}
