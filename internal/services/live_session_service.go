package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/aedentek-pro/lms004/internal/models"
)

type liveSessionStore interface {
	GetLiveSessions(ctx context.Context) ([]models.LiveSession, error)
	UpdateLiveSessions(ctx context.Context, mutate func([]models.LiveSession) ([]models.LiveSession, bool, error)) error
}

type LiveSessionService struct {
	store    liveSessionStore
	users    userReader
	notifier *Notifier
}

func NewLiveSessionService(store liveSessionStore, users userReader, notifier *Notifier) *LiveSessionService {
	return &LiveSessionService{
		store:    store,
		users:    users,
		notifier: notifier,
	}
}

type CreateLiveSessionInput struct {
	Title        string
	Description  string
	InstructorID string
	DateTime     time.Time
	Price        *float64
}

func (s *LiveSessionService) CreateLiveSession(
	ctx context.Context,
	input CreateLiveSessionInput,
) (*models.LiveSession, error) {
	if strings.TrimSpace(input.Title) == "" || input.InstructorID == "" || input.DateTime.IsZero() {
		return nil, ErrInvalidInput
	}
	if input.Price != nil && *input.Price < 0 {
		return nil, ErrInvalidInput
	}

	users, err := s.users.GetUsers(ctx)
	if err != nil {
		return nil, err
	}
	instructor := findUser(users, input.InstructorID)
	if instructor == nil {
		return nil, ErrUserNotFound
	}
	if instructor.Role != models.RoleInstructor {
		return nil, ErrInvalidInput
	}

	session := models.LiveSession{
		ID:           uuid.NewString(),
		Title:        input.Title,
		Description:  input.Description,
		InstructorID: input.InstructorID,
		DateTime:     input.DateTime,
		Price:        input.Price,
		AttendeeIDs:  []string{},
	}
	err = s.store.UpdateLiveSessions(ctx, func(sessions []models.LiveSession) ([]models.LiveSession, bool, error) {
		return append(sessions, session), true, nil
	})
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (s *LiveSessionService) DeleteLiveSession(ctx context.Context, sessionID string) error {
	return s.store.UpdateLiveSessions(ctx, func(sessions []models.LiveSession) ([]models.LiveSession, bool, error) {
		kept := make([]models.LiveSession, 0, len(sessions))
		for _, session := range sessions {
			if session.ID != sessionID {
				kept = append(kept, session)
			}
		}
		if len(kept) == len(sessions) {
			return nil, false, ErrSessionNotFound
		}
		return kept, true, nil
	})
}

// Register appends a user to the attendee list. A user appears at most once
// no matter how many times registration is attempted.
func (s *LiveSessionService) Register(
	ctx context.Context,
	userID string,
	sessionID string,
) (*models.LiveSession, error) {
	if _, err := s.requireAttendee(ctx, userID); err != nil {
		return nil, err
	}

	var updated models.LiveSession
	err := s.store.UpdateLiveSessions(ctx, func(sessions []models.LiveSession) ([]models.LiveSession, bool, error) {
		i := indexOfLiveSession(sessions, sessionID)
		if i < 0 {
			return nil, false, ErrSessionNotFound
		}
		if sessions[i].Registered(userID) {
			return nil, false, ErrAlreadyRegistered
		}
		sessions[i].AttendeeIDs = append(sessions[i].AttendeeIDs, userID)
		updated = sessions[i]
		return sessions, true, nil
	})
	if err != nil {
		return nil, err
	}

	message := fmt.Sprintf("You have successfully registered for %q.", updated.Title)
	if err := s.notifier.Send(ctx, userID, message, models.NotificationSession, LinkLive); err != nil {
		return nil, err
	}

	return &updated, nil
}

// AttachRecording stores the recording URL on a session. The recording file
// itself lives in external storage.
func (s *LiveSessionService) AttachRecording(
	ctx context.Context,
	sessionID string,
	recordingURL string,
) (*models.LiveSession, error) {
	if strings.TrimSpace(recordingURL) == "" {
		return nil, ErrInvalidInput
	}

	var updated models.LiveSession
	err := s.store.UpdateLiveSessions(ctx, func(sessions []models.LiveSession) ([]models.LiveSession, bool, error) {
		i := indexOfLiveSession(sessions, sessionID)
		if i < 0 {
			return nil, false, ErrSessionNotFound
		}
		sessions[i].RecordingURL = &recordingURL
		updated = sessions[i]
		return sessions, true, nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

func (s *LiveSessionService) ListLiveSessions(ctx context.Context) ([]models.LiveSession, error) {
	return s.store.GetLiveSessions(ctx)
}

func (s *LiveSessionService) requireAttendee(ctx context.Context, userID string) (*models.User, error) {
	users, err := s.users.GetUsers(ctx)
	if err != nil {
		return nil, err
	}
	user := findUser(users, userID)
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

func indexOfLiveSession(sessions []models.LiveSession, id string) int {
	for i := range sessions {
		if sessions[i].ID == id {
			return i
		}
	}
	return -1
}
