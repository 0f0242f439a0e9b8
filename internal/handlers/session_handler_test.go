package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/aedentek-pro/lms004/internal/models"
	"github.com/aedentek-pro/lms004/internal/services"
)

type stubSessionService struct {
	createResult *models.OneToOneSession
	createErr    error
	listResult   []models.OneToOneSession
	listErr      error
	applyResult  *models.OneToOneSession
	applyErr     error

	lastCreateInput services.CreateSessionInput
	lastActorID     string
	lastRole        string
	lastSessionID   string
}

func (s *stubSessionService) CreateSession(_ context.Context, input services.CreateSessionInput) (*models.OneToOneSession, error) {
	s.lastCreateInput = input
	return s.createResult, s.createErr
}

func (s *stubSessionService) AcceptSession(_ context.Context, actorID, sessionID string) (*models.OneToOneSession, error) {
	s.lastActorID = actorID
	s.lastSessionID = sessionID
	return s.applyResult, s.applyErr
}

func (s *stubSessionService) RejectSession(_ context.Context, actorID, sessionID string) (*models.OneToOneSession, error) {
	s.lastActorID = actorID
	s.lastSessionID = sessionID
	return s.applyResult, s.applyErr
}

func (s *stubSessionService) CancelSession(_ context.Context, actorID, sessionID string) (*models.OneToOneSession, error) {
	s.lastActorID = actorID
	s.lastSessionID = sessionID
	return s.applyResult, s.applyErr
}

func (s *stubSessionService) CompleteSession(_ context.Context, actorID, sessionID string) (*models.OneToOneSession, error) {
	s.lastActorID = actorID
	s.lastSessionID = sessionID
	return s.applyResult, s.applyErr
}

func (s *stubSessionService) ListSessions(_ context.Context, actorID, role string) ([]models.OneToOneSession, error) {
	s.lastActorID = actorID
	s.lastRole = role
	return s.listResult, s.listErr
}

func newSessionTestApp(handler *SessionHandler, userID, role string) *fiber.App {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("user_id", userID)
		c.Locals("role", role)
		return c.Next()
	})
	app.Post("/api/v1/sessions", handler.CreateSession)
	app.Get("/api/v1/sessions", handler.ListSessions)
	app.Post("/api/v1/sessions/:id/accept", handler.AcceptSession)
	app.Post("/api/v1/sessions/:id/cancel", handler.CancelSession)
	return app
}

func TestCreateSessionReturnsCreated(t *testing.T) {
	when := time.Date(2026, 9, 10, 15, 0, 0, 0, time.UTC)
	service := &stubSessionService{
		createResult: &models.OneToOneSession{
			ID:            "s-1",
			StudentID:     "student-1",
			InstructorID:  "instructor-1",
			DateTime:      when,
			Status:        models.SessionPending,
			RequestedByID: "student-1",
		},
	}
	app := newSessionTestApp(&SessionHandler{service: service}, "student-1", models.RoleStudent)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions", strings.NewReader(`{
		"student_id": "student-1",
		"instructor_id": "instructor-1",
		"date_time": "2026-09-10T15:00:00Z"
	}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	if service.lastCreateInput.RequestedByID != "student-1" {
		t.Fatalf("expected requester from token, got %q", service.lastCreateInput.RequestedByID)
	}
	if !service.lastCreateInput.DateTime.Equal(when) {
		t.Fatalf("expected parsed timestamp %v, got %v", when, service.lastCreateInput.DateTime)
	}

	var body struct {
		Session models.OneToOneSession `json:"session"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if body.Session.Status != models.SessionPending {
		t.Fatalf("expected pending session in response, got %q", body.Session.Status)
	}
}

func TestCreateSessionRejectsMalformedTimestamp(t *testing.T) {
	service := &stubSessionService{}
	app := newSessionTestApp(&SessionHandler{service: service}, "student-1", models.RoleStudent)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions", strings.NewReader(`{
		"student_id": "student-1",
		"instructor_id": "instructor-1",
		"date_time": "next tuesday"
	}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestCreateSessionReturnsConflict(t *testing.T) {
	service := &stubSessionService{createErr: services.ErrSchedulingConflict}
	app := newSessionTestApp(&SessionHandler{service: service}, "student-1", models.RoleStudent)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions", strings.NewReader(`{
		"student_id": "student-1",
		"instructor_id": "instructor-1",
		"date_time": "2026-09-10T15:00:00Z"
	}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409, got %d", resp.StatusCode)
	}

	var body struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !strings.Contains(body.Error, "Scheduling conflict") {
		t.Fatalf("expected conflict message, got %q", body.Error)
	}
}

func TestAcceptSessionForwardsActorAndID(t *testing.T) {
	service := &stubSessionService{
		applyResult: &models.OneToOneSession{ID: "s-9", Status: models.SessionScheduled},
	}
	app := newSessionTestApp(&SessionHandler{service: service}, "instructor-1", models.RoleInstructor)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions/s-9/accept", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if service.lastActorID != "instructor-1" || service.lastSessionID != "s-9" {
		t.Fatalf("expected actor instructor-1 and session s-9, got %q and %q", service.lastActorID, service.lastSessionID)
	}
}

func TestCancelSessionMapsInvalidTransition(t *testing.T) {
	service := &stubSessionService{applyErr: services.ErrInvalidTransition}
	app := newSessionTestApp(&SessionHandler{service: service}, "student-1", models.RoleStudent)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions/s-9/cancel", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", resp.StatusCode)
	}
}

func TestListSessionsForwardsRole(t *testing.T) {
	service := &stubSessionService{
		listResult: []models.OneToOneSession{{ID: "s-1", Status: models.SessionScheduled}},
	}
	app := newSessionTestApp(&SessionHandler{service: service}, "admin-1", models.RoleAdmin)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/sessions", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if service.lastRole != models.RoleAdmin {
		t.Fatalf("expected admin role forwarded, got %q", service.lastRole)
	}
}

func TestMapServiceErrorStatuses(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{services.ErrInvalidInput, http.StatusBadRequest},
		{services.ErrForbidden, http.StatusForbidden},
		{services.ErrSchedulingConflict, http.StatusConflict},
		{services.ErrAlreadyRegistered, http.StatusConflict},
		{services.ErrInvalidTransition, http.StatusUnprocessableEntity},
		{services.ErrSessionNotFound, http.StatusNotFound},
		{services.ErrUserNotFound, http.StatusNotFound},
		{errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		app := fiber.New()
		app.Get("/", func(c *fiber.Ctx) error {
			return mapServiceError(c, tc.err)
		})

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		resp, err := app.Test(req)
		if err != nil {
			t.Fatalf("app.Test: %v", err)
		}
		resp.Body.Close()

		if resp.StatusCode != tc.want {
			t.Fatalf("error %v: expected %d, got %d", tc.err, tc.want, resp.StatusCode)
		}
	}
}
