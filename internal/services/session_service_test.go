package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aedentek-pro/lms004/internal/models"
	"github.com/aedentek-pro/lms004/internal/store"
)

func newSessionFixture(t *testing.T) (*SessionService, *store.Memory) {
	t.Helper()
	st := store.NewMemory()
	if err := st.SaveUsers(context.Background(), []models.User{
		{ID: "student-1", Name: "Sam Rivera", Email: "sam@example.com", Role: models.RoleStudent},
		{ID: "student-2", Name: "Dana Cole", Email: "dana@example.com", Role: models.RoleStudent},
		{ID: "instructor-1", Name: "Priya Nair", Email: "priya@example.com", Role: models.RoleInstructor},
		{ID: "admin-1", Name: "Root", Email: "root@example.com", Role: models.RoleAdmin},
	}); err != nil {
		t.Fatalf("SaveUsers: %v", err)
	}
	return NewSessionService(st, st, NewNotifier(st)), st
}

func TestCreateSessionStartsPendingAndNotifiesCounterpart(t *testing.T) {
	ctx := context.Background()
	service, st := newSessionFixture(t)
	when := time.Date(2026, 9, 10, 15, 0, 0, 0, time.UTC)

	session, err := service.CreateSession(ctx, CreateSessionInput{
		StudentID:     "student-1",
		InstructorID:  "instructor-1",
		DateTime:      when,
		RequestedByID: "student-1",
	})
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	if session.Status != models.SessionPending {
		t.Fatalf("expected pending status, got %q", session.Status)
	}
	if session.RequestedByID != "student-1" {
		t.Fatalf("expected requester student-1, got %q", session.RequestedByID)
	}

	notifications, err := st.GetNotifications(ctx)
	if err != nil {
		t.Fatalf("GetNotifications: %v", err)
	}
	if len(notifications) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(notifications))
	}
	n := notifications[0]
	if n.RecipientID != "instructor-1" {
		t.Fatalf("expected instructor notified, got %q", n.RecipientID)
	}
	want := "New 1-on-1 session request from Sam Rivera for Sep 10, 2026 3:00 PM."
	if n.Message != want {
		t.Fatalf("expected message %q, got %q", want, n.Message)
	}
	if n.Read {
		t.Fatal("new notification must start unread")
	}
}

func TestCreateSessionRejectsSelfScheduling(t *testing.T) {
	service, _ := newSessionFixture(t)

	_, err := service.CreateSession(context.Background(), CreateSessionInput{
		StudentID:     "instructor-1",
		InstructorID:  "instructor-1",
		DateTime:      time.Now().Add(24 * time.Hour),
		RequestedByID: "instructor-1",
	})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestCreateSessionRequiresRequesterParticipation(t *testing.T) {
	service, _ := newSessionFixture(t)

	_, err := service.CreateSession(context.Background(), CreateSessionInput{
		StudentID:     "student-1",
		InstructorID:  "instructor-1",
		DateTime:      time.Now().Add(24 * time.Hour),
		RequestedByID: "student-2",
	})
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestCreateSessionValidatesRoles(t *testing.T) {
	service, _ := newSessionFixture(t)

	// Two students cannot form a 1-on-1 session.
	_, err := service.CreateSession(context.Background(), CreateSessionInput{
		StudentID:     "student-1",
		InstructorID:  "student-2",
		DateTime:      time.Now().Add(24 * time.Hour),
		RequestedByID: "student-1",
	})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestCreateSessionDetectsInstructorConflict(t *testing.T) {
	ctx := context.Background()
	service, st := newSessionFixture(t)
	when := time.Date(2026, 9, 10, 15, 0, 0, 0, time.UTC)

	if err := st.SaveOneToOneSessions(ctx, []models.OneToOneSession{{
		ID:            "existing",
		StudentID:     "student-2",
		InstructorID:  "instructor-1",
		DateTime:      when.Add(30 * time.Minute),
		Status:        models.SessionScheduled,
		RequestedByID: "student-2",
	}}); err != nil {
		t.Fatalf("SaveOneToOneSessions: %v", err)
	}

	_, err := service.CreateSession(ctx, CreateSessionInput{
		StudentID:     "student-1",
		InstructorID:  "instructor-1",
		DateTime:      when,
		RequestedByID: "student-1",
	})
	if !errors.Is(err, ErrSchedulingConflict) {
		t.Fatalf("expected ErrSchedulingConflict, got %v", err)
	}

	sessions, err := st.GetOneToOneSessions(ctx)
	if err != nil {
		t.Fatalf("GetOneToOneSessions: %v", err)
	}
	if len(sessions) != 1 {
		t.Fatalf("conflicting request must not be stored, got %d sessions", len(sessions))
	}
}

func TestCreateSessionAllowsExactBufferSeparation(t *testing.T) {
	ctx := context.Background()
	service, st := newSessionFixture(t)
	when := time.Date(2026, 9, 10, 15, 0, 0, 0, time.UTC)

	if err := st.SaveOneToOneSessions(ctx, []models.OneToOneSession{{
		ID:            "existing",
		StudentID:     "student-2",
		InstructorID:  "instructor-1",
		DateTime:      when.Add(ConflictBuffer),
		Status:        models.SessionScheduled,
		RequestedByID: "student-2",
	}}); err != nil {
		t.Fatalf("SaveOneToOneSessions: %v", err)
	}

	if _, err := service.CreateSession(ctx, CreateSessionInput{
		StudentID:     "student-1",
		InstructorID:  "instructor-1",
		DateTime:      when,
		RequestedByID: "student-1",
	}); err != nil {
		t.Fatalf("sessions exactly one buffer apart must not conflict: %v", err)
	}
}

func TestCreateSessionIgnoresPendingWhenCheckingConflicts(t *testing.T) {
	ctx := context.Background()
	service, st := newSessionFixture(t)
	when := time.Date(2026, 9, 10, 15, 0, 0, 0, time.UTC)

	if err := st.SaveOneToOneSessions(ctx, []models.OneToOneSession{{
		ID:            "pending-request",
		StudentID:     "student-2",
		InstructorID:  "instructor-1",
		DateTime:      when,
		Status:        models.SessionPending,
		RequestedByID: "student-2",
	}}); err != nil {
		t.Fatalf("SaveOneToOneSessions: %v", err)
	}

	if _, err := service.CreateSession(ctx, CreateSessionInput{
		StudentID:     "student-1",
		InstructorID:  "instructor-1",
		DateTime:      when,
		RequestedByID: "student-1",
	}); err != nil {
		t.Fatalf("pending requests must not block new requests: %v", err)
	}
}

func TestAcceptSessionSchedulesAndNotifiesRequester(t *testing.T) {
	ctx := context.Background()
	service, st := newSessionFixture(t)
	when := time.Date(2026, 9, 10, 15, 0, 0, 0, time.UTC)

	created, err := service.CreateSession(ctx, CreateSessionInput{
		StudentID:     "student-1",
		InstructorID:  "instructor-1",
		DateTime:      when,
		RequestedByID: "student-1",
	})
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}

	accepted, err := service.AcceptSession(ctx, "instructor-1", created.ID)
	if err != nil {
		t.Fatalf("AcceptSession: %v", err)
	}
	if accepted.Status != models.SessionScheduled {
		t.Fatalf("expected scheduled status, got %q", accepted.Status)
	}

	notifications, err := st.GetNotifications(ctx)
	if err != nil {
		t.Fatalf("GetNotifications: %v", err)
	}
	last := notifications[len(notifications)-1]
	if last.RecipientID != "student-1" {
		t.Fatalf("expected requester notified, got %q", last.RecipientID)
	}
	want := "Priya Nair has confirmed your session request for Sep 10, 2026 3:00 PM."
	if last.Message != want {
		t.Fatalf("expected message %q, got %q", want, last.Message)
	}
}

func TestAcceptSessionRejectsRequester(t *testing.T) {
	ctx := context.Background()
	service, _ := newSessionFixture(t)

	created, err := service.CreateSession(ctx, CreateSessionInput{
		StudentID:     "student-1",
		InstructorID:  "instructor-1",
		DateTime:      time.Now().Add(48 * time.Hour),
		RequestedByID: "student-1",
	})
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}

	if _, err := service.AcceptSession(ctx, "student-1", created.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("requester accepting own request: expected ErrForbidden, got %v", err)
	}
}

func TestAcceptSessionTwiceIsInvalidTransition(t *testing.T) {
	ctx := context.Background()
	service, _ := newSessionFixture(t)

	created, err := service.CreateSession(ctx, CreateSessionInput{
		StudentID:     "student-1",
		InstructorID:  "instructor-1",
		DateTime:      time.Now().Add(48 * time.Hour),
		RequestedByID: "student-1",
	})
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	if _, err := service.AcceptSession(ctx, "instructor-1", created.ID); err != nil {
		t.Fatalf("AcceptSession: %v", err)
	}

	if _, err := service.AcceptSession(ctx, "instructor-1", created.ID); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition on second accept, got %v", err)
	}
}

func TestRejectSessionNotifiesRequester(t *testing.T) {
	ctx := context.Background()
	service, st := newSessionFixture(t)
	when := time.Date(2026, 9, 10, 15, 0, 0, 0, time.UTC)

	created, err := service.CreateSession(ctx, CreateSessionInput{
		StudentID:     "student-1",
		InstructorID:  "instructor-1",
		DateTime:      when,
		RequestedByID: "student-1",
	})
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}

	rejected, err := service.RejectSession(ctx, "instructor-1", created.ID)
	if err != nil {
		t.Fatalf("RejectSession: %v", err)
	}
	if rejected.Status != models.SessionRejected {
		t.Fatalf("expected rejected status, got %q", rejected.Status)
	}

	notifications, err := st.GetNotifications(ctx)
	if err != nil {
		t.Fatalf("GetNotifications: %v", err)
	}
	last := notifications[len(notifications)-1]
	want := "Priya Nair has rejected your session request for Sep 10, 2026 3:00 PM."
	if last.Message != want {
		t.Fatalf("expected message %q, got %q", want, last.Message)
	}
}

func TestCancelPendingSessionOnlyByRequester(t *testing.T) {
	ctx := context.Background()
	service, st := newSessionFixture(t)
	when := time.Date(2026, 9, 10, 15, 0, 0, 0, time.UTC)

	created, err := service.CreateSession(ctx, CreateSessionInput{
		StudentID:     "student-1",
		InstructorID:  "instructor-1",
		DateTime:      when,
		RequestedByID: "student-1",
	})
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}

	if _, err := service.CancelSession(ctx, "instructor-1", created.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("counterpart canceling pending request: expected ErrForbidden, got %v", err)
	}

	canceled, err := service.CancelSession(ctx, "student-1", created.ID)
	if err != nil {
		t.Fatalf("CancelSession: %v", err)
	}
	if canceled.Status != models.SessionCanceled {
		t.Fatalf("expected canceled status, got %q", canceled.Status)
	}

	notifications, err := st.GetNotifications(ctx)
	if err != nil {
		t.Fatalf("GetNotifications: %v", err)
	}
	last := notifications[len(notifications)-1]
	if last.RecipientID != "instructor-1" {
		t.Fatalf("expected counterpart notified, got %q", last.RecipientID)
	}
	want := "Sam Rivera has withdrawn the session request for Sep 10, 2026 3:00 PM."
	if last.Message != want {
		t.Fatalf("expected message %q, got %q", want, last.Message)
	}
}

func TestCancelScheduledSessionNotifiesCounterpart(t *testing.T) {
	ctx := context.Background()
	service, st := newSessionFixture(t)
	when := time.Date(2026, 9, 10, 15, 0, 0, 0, time.UTC)

	created, err := service.CreateSession(ctx, CreateSessionInput{
		StudentID:     "student-1",
		InstructorID:  "instructor-1",
		DateTime:      when,
		RequestedByID: "student-1",
	})
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	if _, err := service.AcceptSession(ctx, "instructor-1", created.ID); err != nil {
		t.Fatalf("AcceptSession: %v", err)
	}

	if _, err := service.CancelSession(ctx, "instructor-1", created.ID); err != nil {
		t.Fatalf("CancelSession: %v", err)
	}

	notifications, err := st.GetNotifications(ctx)
	if err != nil {
		t.Fatalf("GetNotifications: %v", err)
	}
	last := notifications[len(notifications)-1]
	if last.RecipientID != "student-1" {
		t.Fatalf("expected student notified, got %q", last.RecipientID)
	}
	want := "Your session with Priya Nair for Sep 10, 2026 3:00 PM has been canceled."
	if last.Message != want {
		t.Fatalf("expected message %q, got %q", want, last.Message)
	}
}

func TestCancelCompletedSessionIsInvalidTransition(t *testing.T) {
	ctx := context.Background()
	service, st := newSessionFixture(t)

	if err := st.SaveOneToOneSessions(ctx, []models.OneToOneSession{{
		ID:            "done",
		StudentID:     "student-1",
		InstructorID:  "instructor-1",
		DateTime:      time.Now().Add(-2 * time.Hour),
		Status:        models.SessionCompleted,
		RequestedByID: "student-1",
	}}); err != nil {
		t.Fatalf("SaveOneToOneSessions: %v", err)
	}

	if _, err := service.CancelSession(ctx, "student-1", "done"); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestCompleteSessionRequiresStartTimePassed(t *testing.T) {
	ctx := context.Background()
	service, st := newSessionFixture(t)

	if err := st.SaveOneToOneSessions(ctx, []models.OneToOneSession{
		{
			ID:            "future",
			StudentID:     "student-1",
			InstructorID:  "instructor-1",
			DateTime:      time.Now().Add(3 * time.Hour),
			Status:        models.SessionScheduled,
			RequestedByID: "student-1",
		},
		{
			ID:            "past",
			StudentID:     "student-1",
			InstructorID:  "instructor-1",
			DateTime:      time.Now().Add(-3 * time.Hour),
			Status:        models.SessionScheduled,
			RequestedByID: "student-1",
		},
	}); err != nil {
		t.Fatalf("SaveOneToOneSessions: %v", err)
	}

	if _, err := service.CompleteSession(ctx, "instructor-1", "future"); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("completing a future session: expected ErrInvalidTransition, got %v", err)
	}

	completed, err := service.CompleteSession(ctx, "instructor-1", "past")
	if err != nil {
		t.Fatalf("CompleteSession: %v", err)
	}
	if completed.Status != models.SessionCompleted {
		t.Fatalf("expected completed status, got %q", completed.Status)
	}
}

func TestListSessionsFiltersByParticipation(t *testing.T) {
	ctx := context.Background()
	service, st := newSessionFixture(t)

	if err := st.SaveOneToOneSessions(ctx, []models.OneToOneSession{
		{ID: "mine", StudentID: "student-1", InstructorID: "instructor-1", Status: models.SessionScheduled, RequestedByID: "student-1"},
		{ID: "theirs", StudentID: "student-2", InstructorID: "instructor-1", Status: models.SessionPending, RequestedByID: "student-2"},
	}); err != nil {
		t.Fatalf("SaveOneToOneSessions: %v", err)
	}

	own, err := service.ListSessions(ctx, "student-1", models.RoleStudent)
	if err != nil {
		t.Fatalf("ListSessions: %v", err)
	}
	if len(own) != 1 || own[0].ID != "mine" {
		t.Fatalf("expected only own session, got %+v", own)
	}

	all, err := service.ListSessions(ctx, "admin-1", models.RoleAdmin)
	if err != nil {
		t.Fatalf("ListSessions: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected admin to see all sessions, got %d", len(all))
	}

	both, err := service.ListSessions(ctx, "instructor-1", models.RoleInstructor)
	if err != nil {
		t.Fatalf("ListSessions: %v", err)
	}
	if len(both) != 2 {
		t.Fatalf("expected instructor to see both sessions, got %d", len(both))
	}
}
