package store

import (
	"context"

	"github.com/aedentek-pro/lms004/internal/models"
)

// Each collection follows full-collection read/overwrite semantics: GetX
// returns every record and SaveX replaces the whole collection. UpdateX is a
// read-modify-write executed under a single critical section; the mutate
// callback returns the new collection and whether anything changed, and no
// write happens when it reports false or returns an error.

type UserStore interface {
	GetUsers(ctx context.Context) ([]models.User, error)
	SaveUsers(ctx context.Context, users []models.User) error
}

type SessionStore interface {
	GetOneToOneSessions(ctx context.Context) ([]models.OneToOneSession, error)
	SaveOneToOneSessions(ctx context.Context, sessions []models.OneToOneSession) error
	UpdateOneToOneSessions(ctx context.Context, mutate func([]models.OneToOneSession) ([]models.OneToOneSession, bool, error)) error
}

type LiveSessionStore interface {
	GetLiveSessions(ctx context.Context) ([]models.LiveSession, error)
	SaveLiveSessions(ctx context.Context, sessions []models.LiveSession) error
	UpdateLiveSessions(ctx context.Context, mutate func([]models.LiveSession) ([]models.LiveSession, bool, error)) error
}

type NotificationStore interface {
	GetNotifications(ctx context.Context) ([]models.Notification, error)
	AppendNotifications(ctx context.Context, notifications []models.Notification) error
	UpdateNotifications(ctx context.Context, mutate func([]models.Notification) ([]models.Notification, bool, error)) error
}

type ChatStore interface {
	GetChatMessages(ctx context.Context) ([]models.ChatMessage, error)
	AppendChatMessage(ctx context.Context, message models.ChatMessage) error
}

// EntityStore is the durable persistence surface the rest of the service is
// wired against. Ready reports whether the store has finished its initial
// load; the reminder scheduler skips ticks until it does.
type EntityStore interface {
	UserStore
	SessionStore
	LiveSessionStore
	NotificationStore
	ChatStore
	Ready(ctx context.Context) bool
}

var (
	_ EntityStore = (*Postgres)(nil)
	_ EntityStore = (*Memory)(nil)
)
