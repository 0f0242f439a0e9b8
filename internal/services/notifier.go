package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/aedentek-pro/lms004/internal/models"
)

// Page identifiers the UI navigates to when a notification is clicked.
const (
	LinkSessions = "sessions"
	LinkLive     = "live"
)

type notificationAppender interface {
	AppendNotifications(ctx context.Context, notifications []models.Notification) error
}

// Notifier appends user-facing messages to the notification log. Records are
// never mutated by this service after creation; the display layer owns the
// read flag.
type Notifier struct {
	store notificationAppender
	now   func() time.Time
}

func NewNotifier(store notificationAppender) *Notifier {
	return &Notifier{store: store, now: time.Now}
}

func (n *Notifier) Build(recipientID, message string, typ models.NotificationType, link string) models.Notification {
	return models.Notification{
		ID:          uuid.NewString(),
		RecipientID: recipientID,
		Message:     message,
		CreatedAt:   n.now(),
		Read:        false,
		Type:        typ,
		Link:        link,
	}
}

func (n *Notifier) Send(ctx context.Context, recipientID, message string, typ models.NotificationType, link string) error {
	return n.store.AppendNotifications(ctx, []models.Notification{
		n.Build(recipientID, message, typ, link),
	})
}

func (n *Notifier) SendAll(ctx context.Context, notifications []models.Notification) error {
	if len(notifications) == 0 {
		return nil
	}
	return n.store.AppendNotifications(ctx, notifications)
}

// FormatSessionTime renders an instant the way notification messages embed it.
func FormatSessionTime(t time.Time) string {
	return t.Format("Jan 2, 2006 3:04 PM")
}
