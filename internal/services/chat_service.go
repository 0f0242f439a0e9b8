package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/aedentek-pro/lms004/internal/models"
)

type chatStore interface {
	GetChatMessages(ctx context.Context) ([]models.ChatMessage, error)
	AppendChatMessage(ctx context.Context, message models.ChatMessage) error
}

// ChatService persists community chat messages. Delivery to connected
// clients is handled by the websocket hub.
type ChatService struct {
	store chatStore
	users userReader
}

func NewChatService(store chatStore, users userReader) *ChatService {
	return &ChatService{store: store, users: users}
}

func (s *ChatService) ListMessages(ctx context.Context) ([]models.ChatMessage, error) {
	return s.store.GetChatMessages(ctx)
}

func (s *ChatService) SendMessage(
	ctx context.Context,
	senderID string,
	text string,
) (*models.ChatMessage, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrInvalidInput
	}

	users, err := s.users.GetUsers(ctx)
	if err != nil {
		return nil, err
	}
	sender := findUser(users, senderID)
	if sender == nil {
		return nil, ErrUserNotFound
	}

	message := models.ChatMessage{
		ID:         uuid.NewString(),
		SenderID:   sender.ID,
		SenderName: sender.Name,
		Text:       text,
		CreatedAt:  time.Now(),
	}
	if err := s.store.AppendChatMessage(ctx, message); err != nil {
		return nil, err
	}
	return &message, nil
}
