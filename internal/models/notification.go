package models

import "time"

type NotificationType string

const (
	NotificationSystem       NotificationType = "system"
	NotificationCourse       NotificationType = "course"
	NotificationCertificate  NotificationType = "certificate"
	NotificationSession      NotificationType = "session"
	NotificationAnnouncement NotificationType = "announcement"
)

// Notification is an append-only per-user message. Only the read flag is
// ever mutated after creation, and only by the display layer.
type Notification struct {
	ID          string           `json:"id"`
	RecipientID string           `json:"recipient_id"`
	Message     string           `json:"message"`
	CreatedAt   time.Time        `json:"created_at"`
	Read        bool             `json:"read"`
	Type        NotificationType `json:"type"`
	Link        string           `json:"link,omitempty"`
}
