package models

import "time"

// LiveSession is a scheduled group webinar. Unlike one-to-one sessions it has
// no status machine: it either exists or has been deleted.
type LiveSession struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	InstructorID string    `json:"instructor_id"`
	DateTime     time.Time `json:"date_time"`
	Price        *float64  `json:"price,omitempty"`
	AttendeeIDs  []string  `json:"attendee_ids"`
	RecordingURL *string   `json:"recording_url,omitempty"`
	ReminderSent bool      `json:"reminder_sent"`
}

// Registered reports whether the user is already on the attendee list.
func (s *LiveSession) Registered(userID string) bool {
	for _, id := range s.AttendeeIDs {
		if id == userID {
			return true
		}
	}
	return false
}
