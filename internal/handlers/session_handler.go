package handlers

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/aedentek-pro/lms004/internal/models"
	"github.com/aedentek-pro/lms004/internal/services"
)

type SessionHandler struct {
	service sessionApplicationService
}

type sessionApplicationService interface {
	CreateSession(ctx context.Context, input services.CreateSessionInput) (*models.OneToOneSession, error)
	AcceptSession(ctx context.Context, actorID, sessionID string) (*models.OneToOneSession, error)
	RejectSession(ctx context.Context, actorID, sessionID string) (*models.OneToOneSession, error)
	CancelSession(ctx context.Context, actorID, sessionID string) (*models.OneToOneSession, error)
	CompleteSession(ctx context.Context, actorID, sessionID string) (*models.OneToOneSession, error)
	ListSessions(ctx context.Context, actorID, role string) ([]models.OneToOneSession, error)
}

func NewSessionHandler(service *services.SessionService) *SessionHandler {
	return &SessionHandler{service: service}
}

type createSessionRequest struct {
	StudentID    string `json:"student_id"`
	InstructorID string `json:"instructor_id"`
	DateTime     string `json:"date_time"`
}

func (h *SessionHandler) CreateSession(c *fiber.Ctx) error {
	actorID, ok := c.Locals("user_id").(string)
	if !ok || actorID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	var req createSessionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	dateTime, err := time.Parse(time.RFC3339, strings.TrimSpace(req.DateTime))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "date_time must be a valid RFC3339 timestamp"})
	}

	session, err := h.service.CreateSession(c.Context(), services.CreateSessionInput{
		StudentID:     req.StudentID,
		InstructorID:  req.InstructorID,
		DateTime:      dateTime,
		RequestedByID: actorID,
	})
	if err != nil {
		return mapServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"session": session})
}

func (h *SessionHandler) ListSessions(c *fiber.Ctx) error {
	actorID, ok := c.Locals("user_id").(string)
	if !ok || actorID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}
	role, _ := c.Locals("role").(string)

	sessions, err := h.service.ListSessions(c.Context(), actorID, role)
	if err != nil {
		return mapServiceError(c, err)
	}

	return c.JSON(fiber.Map{"sessions": sessions})
}

func (h *SessionHandler) AcceptSession(c *fiber.Ctx) error {
	return h.transition(c, h.service.AcceptSession)
}

func (h *SessionHandler) RejectSession(c *fiber.Ctx) error {
	return h.transition(c, h.service.RejectSession)
}

func (h *SessionHandler) CancelSession(c *fiber.Ctx) error {
	return h.transition(c, h.service.CancelSession)
}

func (h *SessionHandler) CompleteSession(c *fiber.Ctx) error {
	return h.transition(c, h.service.CompleteSession)
}

func (h *SessionHandler) transition(
	c *fiber.Ctx,
	apply func(ctx context.Context, actorID, sessionID string) (*models.OneToOneSession, error),
) error {
	actorID, ok := c.Locals("user_id").(string)
	if !ok || actorID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	sessionID := strings.TrimSpace(c.Params("id"))
	if sessionID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Session id is required"})
	}

	session, err := apply(c.Context(), actorID, sessionID)
	if err != nil {
		return mapServiceError(c, err)
	}

	return c.JSON(fiber.Map{"session": session})
}

func mapServiceError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, services.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	case errors.Is(err, services.ErrSchedulingConflict):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Scheduling conflict detected. The instructor or student is unavailable at this time."})
	case errors.Is(err, services.ErrAlreadyRegistered):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "You are already registered for this session."})
	case errors.Is(err, services.ErrInvalidTransition):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, services.ErrSessionNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Session not found"})
	case errors.Is(err, services.ErrUserNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "User not found"})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to process request"})
	}
}
