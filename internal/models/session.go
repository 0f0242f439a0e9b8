package models

import "time"

type SessionStatus string

const (
	SessionPending   SessionStatus = "pending"
	SessionScheduled SessionStatus = "scheduled"
	SessionCompleted SessionStatus = "completed"
	SessionCanceled  SessionStatus = "canceled"
	SessionRejected  SessionStatus = "rejected"
)

// OneToOneSession is a private coaching slot between one student and one
// instructor. Canceled and rejected sessions are retained, never deleted.
type OneToOneSession struct {
	ID            string        `json:"id"`
	StudentID     string        `json:"student_id"`
	InstructorID  string        `json:"instructor_id"`
	DateTime      time.Time     `json:"date_time"`
	Status        SessionStatus `json:"status"`
	RequestedByID string        `json:"requested_by_id"`
	ReminderSent  bool          `json:"reminder_sent"`
}

func (s SessionStatus) Valid() bool {
	switch s {
	case SessionPending, SessionScheduled, SessionCompleted, SessionCanceled, SessionRejected:
		return true
	default:
		return false
	}
}

func (s SessionStatus) Terminal() bool {
	switch s {
	case SessionCompleted, SessionCanceled, SessionRejected:
		return true
	default:
		return false
	}
}

var sessionTransitions = map[SessionStatus]map[SessionStatus]bool{
	SessionPending: {
		SessionScheduled: true,
		SessionRejected:  true,
		SessionCanceled:  true,
	},
	SessionScheduled: {
		SessionCanceled:  true,
		SessionCompleted: true,
	},
}

// CanTransition reports whether a session may move from one status to
// another. Terminal statuses have no outgoing transitions.
func CanTransition(from, to SessionStatus) bool {
	return sessionTransitions[from][to]
}

// Participant reports whether the given user is the student or the
// instructor of the session.
func (s *OneToOneSession) Participant(userID string) bool {
	return s.StudentID == userID || s.InstructorID == userID
}

// Counterpart returns the other party of the session relative to userID.
func (s *OneToOneSession) Counterpart(userID string) string {
	if s.StudentID == userID {
		return s.InstructorID
	}
	return s.StudentID
}
