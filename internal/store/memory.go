package store

import (
	"context"
	"sync"

	"github.com/aedentek-pro/lms004/internal/models"
)

// Memory is an in-process EntityStore. Mutations run under one mutex per
// store so read-modify-write cycles cannot interleave, mirroring the
// advisory-lock serialization of the Postgres implementation.
type Memory struct {
	mu            sync.Mutex
	users         []models.User
	sessions      []models.OneToOneSession
	liveSessions  []models.LiveSession
	notifications []models.Notification
	chatMessages  []models.ChatMessage
}

func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) Ready(context.Context) bool {
	return true
}

func (m *Memory) GetUsers(context.Context) ([]models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return cloneSlice(m.users), nil
}

func (m *Memory) SaveUsers(_ context.Context, users []models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users = cloneSlice(users)
	return nil
}

func (m *Memory) GetOneToOneSessions(context.Context) ([]models.OneToOneSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return cloneSlice(m.sessions), nil
}

func (m *Memory) SaveOneToOneSessions(_ context.Context, sessions []models.OneToOneSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions = cloneSlice(sessions)
	return nil
}

func (m *Memory) UpdateOneToOneSessions(
	_ context.Context,
	mutate func([]models.OneToOneSession) ([]models.OneToOneSession, bool, error),
) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	updated, changed, err := mutate(cloneSlice(m.sessions))
	if err != nil {
		return err
	}
	if changed {
		m.sessions = updated
	}
	return nil
}

func (m *Memory) GetLiveSessions(context.Context) ([]models.LiveSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return cloneLiveSessions(m.liveSessions), nil
}

func (m *Memory) SaveLiveSessions(_ context.Context, sessions []models.LiveSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.liveSessions = cloneLiveSessions(sessions)
	return nil
}

func (m *Memory) UpdateLiveSessions(
	_ context.Context,
	mutate func([]models.LiveSession) ([]models.LiveSession, bool, error),
) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	updated, changed, err := mutate(cloneLiveSessions(m.liveSessions))
	if err != nil {
		return err
	}
	if changed {
		m.liveSessions = updated
	}
	return nil
}

func (m *Memory) GetNotifications(context.Context) ([]models.Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return cloneSlice(m.notifications), nil
}

func (m *Memory) AppendNotifications(_ context.Context, notifications []models.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notifications = append(m.notifications, notifications...)
	return nil
}

func (m *Memory) UpdateNotifications(
	_ context.Context,
	mutate func([]models.Notification) ([]models.Notification, bool, error),
) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	updated, changed, err := mutate(cloneSlice(m.notifications))
	if err != nil {
		return err
	}
	if changed {
		m.notifications = updated
	}
	return nil
}

func (m *Memory) GetChatMessages(context.Context) ([]models.ChatMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return cloneSlice(m.chatMessages), nil
}

func (m *Memory) AppendChatMessage(_ context.Context, message models.ChatMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.chatMessages = append(m.chatMessages, message)
	return nil
}

func cloneSlice[T any](in []T) []T {
	out := make([]T, len(in))
	copy(out, in)
	return out
}

// cloneLiveSessions deep-copies attendee slices so callers cannot alias the
// stored collection.
func cloneLiveSessions(in []models.LiveSession) []models.LiveSession {
	out := make([]models.LiveSession, len(in))
	for i, session := range in {
		session.AttendeeIDs = cloneSlice(session.AttendeeIDs)
		out[i] = session
	}
	return out
}
