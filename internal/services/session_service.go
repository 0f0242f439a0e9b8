package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/aedentek-pro/lms004/internal/models"
)

var (
	ErrForbidden          = errors.New("forbidden")
	ErrSchedulingConflict = errors.New("scheduling conflict")
	ErrInvalidTransition  = errors.New("invalid state transition")
	ErrInvalidInput       = errors.New("invalid input")
	ErrSessionNotFound    = errors.New("session not found")
	ErrUserNotFound       = errors.New("user not found")
	ErrAlreadyRegistered  = errors.New("already registered")
)

// ConflictBuffer is the minimum separation between two scheduled sessions
// sharing a participant. The window is symmetric around the proposed time.
const ConflictBuffer = time.Hour

type sessionStore interface {
	GetOneToOneSessions(ctx context.Context) ([]models.OneToOneSession, error)
	UpdateOneToOneSessions(ctx context.Context, mutate func([]models.OneToOneSession) ([]models.OneToOneSession, bool, error)) error
}

type userReader interface {
	GetUsers(ctx context.Context) ([]models.User, error)
}

type SessionService struct {
	store    sessionStore
	users    userReader
	notifier *Notifier
}

func NewSessionService(store sessionStore, users userReader, notifier *Notifier) *SessionService {
	return &SessionService{
		store:    store,
		users:    users,
		notifier: notifier,
	}
}

type CreateSessionInput struct {
	StudentID     string
	InstructorID  string
	DateTime      time.Time
	RequestedByID string
}

func (s *SessionService) CreateSession(
	ctx context.Context,
	input CreateSessionInput,
) (*models.OneToOneSession, error) {
	if input.StudentID == "" || input.InstructorID == "" || input.DateTime.IsZero() {
		return nil, ErrInvalidInput
	}
	if input.StudentID == input.InstructorID {
		return nil, ErrInvalidInput
	}
	if input.RequestedByID != input.StudentID && input.RequestedByID != input.InstructorID {
		return nil, ErrForbidden
	}

	users, err := s.users.GetUsers(ctx)
	if err != nil {
		return nil, err
	}
	student := findUser(users, input.StudentID)
	instructor := findUser(users, input.InstructorID)
	if student == nil || instructor == nil {
		return nil, ErrUserNotFound
	}
	if student.Role != models.RoleStudent || instructor.Role != models.RoleInstructor {
		return nil, ErrInvalidInput
	}

	session := models.OneToOneSession{
		ID:            uuid.NewString(),
		StudentID:     input.StudentID,
		InstructorID:  input.InstructorID,
		DateTime:      input.DateTime,
		Status:        models.SessionPending,
		RequestedByID: input.RequestedByID,
	}

	// The conflict check and the insert run inside one critical section so
	// two concurrent requests cannot both pass the check.
	err = s.store.UpdateOneToOneSessions(ctx, func(sessions []models.OneToOneSession) ([]models.OneToOneSession, bool, error) {
		if hasConflict(sessions, input.StudentID, input.InstructorID, input.DateTime) {
			return nil, false, ErrSchedulingConflict
		}
		return append(sessions, session), true, nil
	})
	if err != nil {
		return nil, err
	}

	requester := student
	if input.RequestedByID == instructor.ID {
		requester = instructor
	}
	recipientID := session.Counterpart(requester.ID)
	message := fmt.Sprintf(
		"New 1-on-1 session request from %s for %s.",
		requester.Name,
		FormatSessionTime(session.DateTime),
	)
	if err := s.notifier.Send(ctx, recipientID, message, models.NotificationSession, LinkSessions); err != nil {
		return nil, err
	}

	return &session, nil
}

func (s *SessionService) AcceptSession(
	ctx context.Context,
	actorID string,
	sessionID string,
) (*models.OneToOneSession, error) {
	return s.resolveRequest(ctx, actorID, sessionID, models.SessionScheduled)
}

func (s *SessionService) RejectSession(
	ctx context.Context,
	actorID string,
	sessionID string,
) (*models.OneToOneSession, error) {
	return s.resolveRequest(ctx, actorID, sessionID, models.SessionRejected)
}

// resolveRequest applies the non-requester's decision on a pending session
// and notifies the requester.
func (s *SessionService) resolveRequest(
	ctx context.Context,
	actorID string,
	sessionID string,
	nextStatus models.SessionStatus,
) (*models.OneToOneSession, error) {
	actor, err := s.requireUser(ctx, actorID)
	if err != nil {
		return nil, err
	}

	var updated models.OneToOneSession
	err = s.store.UpdateOneToOneSessions(ctx, func(sessions []models.OneToOneSession) ([]models.OneToOneSession, bool, error) {
		i := indexOfSession(sessions, sessionID)
		if i < 0 {
			return nil, false, ErrSessionNotFound
		}
		session := sessions[i]
		if !session.Participant(actorID) {
			return nil, false, ErrForbidden
		}
		if session.RequestedByID == actorID {
			return nil, false, ErrForbidden
		}
		if !models.CanTransition(session.Status, nextStatus) {
			return nil, false, ErrInvalidTransition
		}
		sessions[i].Status = nextStatus
		updated = sessions[i]
		return sessions, true, nil
	})
	if err != nil {
		return nil, err
	}

	verb := "confirmed"
	if nextStatus == models.SessionRejected {
		verb = "rejected"
	}
	message := fmt.Sprintf(
		"%s has %s your session request for %s.",
		actor.Name,
		verb,
		FormatSessionTime(updated.DateTime),
	)
	if err := s.notifier.Send(ctx, updated.RequestedByID, message, models.NotificationSession, LinkSessions); err != nil {
		return nil, err
	}

	return &updated, nil
}

func (s *SessionService) CancelSession(
	ctx context.Context,
	actorID string,
	sessionID string,
) (*models.OneToOneSession, error) {
	actor, err := s.requireUser(ctx, actorID)
	if err != nil {
		return nil, err
	}

	var updated models.OneToOneSession
	var priorStatus models.SessionStatus
	err = s.store.UpdateOneToOneSessions(ctx, func(sessions []models.OneToOneSession) ([]models.OneToOneSession, bool, error) {
		i := indexOfSession(sessions, sessionID)
		if i < 0 {
			return nil, false, ErrSessionNotFound
		}
		session := sessions[i]
		if !session.Participant(actorID) {
			return nil, false, ErrForbidden
		}
		// A pending request may only be withdrawn by whoever made it.
		if session.Status == models.SessionPending && session.RequestedByID != actorID {
			return nil, false, ErrForbidden
		}
		if !models.CanTransition(session.Status, models.SessionCanceled) {
			return nil, false, ErrInvalidTransition
		}
		priorStatus = session.Status
		sessions[i].Status = models.SessionCanceled
		updated = sessions[i]
		return sessions, true, nil
	})
	if err != nil {
		return nil, err
	}

	recipientID := updated.Counterpart(actorID)
	var message string
	if priorStatus == models.SessionPending {
		message = fmt.Sprintf(
			"%s has withdrawn the session request for %s.",
			actor.Name,
			FormatSessionTime(updated.DateTime),
		)
	} else {
		message = fmt.Sprintf(
			"Your session with %s for %s has been canceled.",
			actor.Name,
			FormatSessionTime(updated.DateTime),
		)
	}
	if err := s.notifier.Send(ctx, recipientID, message, models.NotificationSession, LinkSessions); err != nil {
		return nil, err
	}

	return &updated, nil
}

// CompleteSession marks a scheduled session completed. There is no automatic
// transition; either party calls this after the start time has passed.
func (s *SessionService) CompleteSession(
	ctx context.Context,
	actorID string,
	sessionID string,
) (*models.OneToOneSession, error) {
	if _, err := s.requireUser(ctx, actorID); err != nil {
		return nil, err
	}

	var updated models.OneToOneSession
	err := s.store.UpdateOneToOneSessions(ctx, func(sessions []models.OneToOneSession) ([]models.OneToOneSession, bool, error) {
		i := indexOfSession(sessions, sessionID)
		if i < 0 {
			return nil, false, ErrSessionNotFound
		}
		session := sessions[i]
		if !session.Participant(actorID) {
			return nil, false, ErrForbidden
		}
		if !models.CanTransition(session.Status, models.SessionCompleted) {
			return nil, false, ErrInvalidTransition
		}
		if session.DateTime.After(time.Now()) {
			return nil, false, ErrInvalidTransition
		}
		sessions[i].Status = models.SessionCompleted
		updated = sessions[i]
		return sessions, true, nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

func (s *SessionService) ListSessions(
	ctx context.Context,
	actorID string,
	role string,
) ([]models.OneToOneSession, error) {
	sessions, err := s.store.GetOneToOneSessions(ctx)
	if err != nil {
		return nil, err
	}
	if role == models.RoleAdmin {
		return sessions, nil
	}

	own := make([]models.OneToOneSession, 0, len(sessions))
	for _, session := range sessions {
		if session.Participant(actorID) {
			own = append(own, session)
		}
	}
	return own, nil
}

// hasConflict reports whether the proposed (student, instructor, time) triple
// collides with an existing scheduled session. Pending requests never block.
func hasConflict(sessions []models.OneToOneSession, studentID, instructorID string, dateTime time.Time) bool {
	for _, session := range sessions {
		if session.Status != models.SessionScheduled {
			continue
		}
		if session.StudentID != studentID && session.InstructorID != instructorID {
			continue
		}
		diff := dateTime.Sub(session.DateTime)
		if diff < 0 {
			diff = -diff
		}
		if diff < ConflictBuffer {
			return true
		}
	}
	return false
}

func (s *SessionService) requireUser(ctx context.Context, userID string) (*models.User, error) {
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

func findUser(users []models.User, id string) *models.User {
	for i := range users {
		if users[i].ID == id {
			return &users[i]
		}
	}
	return nil
}

func indexOfSession(sessions []models.OneToOneSession, id string) int {
	for i := range sessions {
		if sessions[i].ID == id {
			return i
		}
	}
	return -1
}
