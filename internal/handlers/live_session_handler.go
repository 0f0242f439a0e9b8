package handlers

import (
	"context"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/aedentek-pro/lms004/internal/models"
	"github.com/aedentek-pro/lms004/internal/services"
)

type LiveSessionHandler struct {
	service liveSessionApplicationService
}

type liveSessionApplicationService interface {
	CreateLiveSession(ctx context.Context, input services.CreateLiveSessionInput) (*models.LiveSession, error)
	DeleteLiveSession(ctx context.Context, sessionID string) error
	Register(ctx context.Context, userID, sessionID string) (*models.LiveSession, error)
	AttachRecording(ctx context.Context, sessionID, recordingURL string) (*models.LiveSession, error)
	ListLiveSessions(ctx context.Context) ([]models.LiveSession, error)
}

func NewLiveSessionHandler(service *services.LiveSessionService) *LiveSessionHandler {
	return &LiveSessionHandler{service: service}
}

type createLiveSessionRequest struct {
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	InstructorID string   `json:"instructor_id"`
	DateTime     string   `json:"date_time"`
	Price        *float64 `json:"price"`
}

type attachRecordingRequest struct {
	RecordingURL string `json:"recording_url"`
}

func (h *LiveSessionHandler) CreateLiveSession(c *fiber.Ctx) error {
	actorID, role := actor(c)
	if actorID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}
	if role != models.RoleInstructor && role != models.RoleAdmin {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}

	var req createLiveSessionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	dateTime, err := time.Parse(time.RFC3339, strings.TrimSpace(req.DateTime))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "date_time must be a valid RFC3339 timestamp"})
	}

	// Instructors schedule for themselves; admins may schedule on behalf of
	// any instructor.
	instructorID := actorID
	if role == models.RoleAdmin {
		instructorID = req.InstructorID
	}

	session, err := h.service.CreateLiveSession(c.Context(), services.CreateLiveSessionInput{
		Title:        req.Title,
		Description:  req.Description,
		InstructorID: instructorID,
		DateTime:     dateTime,
		Price:        req.Price,
	})
	if err != nil {
		return mapServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"live_session": session})
}

func (h *LiveSessionHandler) ListLiveSessions(c *fiber.Ctx) error {
	sessions, err := h.service.ListLiveSessions(c.Context())
	if err != nil {
		return mapServiceError(c, err)
	}
	return c.JSON(fiber.Map{"live_sessions": sessions})
}

func (h *LiveSessionHandler) DeleteLiveSession(c *fiber.Ctx) error {
	actorID, role := actor(c)
	if actorID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}
	if role != models.RoleInstructor && role != models.RoleAdmin {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}

	sessionID := strings.TrimSpace(c.Params("id"))
	if sessionID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Session id is required"})
	}

	if err := h.service.DeleteLiveSession(c.Context(), sessionID); err != nil {
		return mapServiceError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *LiveSessionHandler) Register(c *fiber.Ctx) error {
	actorID, _ := actor(c)
	if actorID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	sessionID := strings.TrimSpace(c.Params("id"))
	if sessionID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Session id is required"})
	}

	session, err := h.service.Register(c.Context(), actorID, sessionID)
	if err != nil {
		return mapServiceError(c, err)
	}
	return c.JSON(fiber.Map{"live_session": session})
}

func (h *LiveSessionHandler) AttachRecording(c *fiber.Ctx) error {
	actorID, role := actor(c)
	if actorID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}
	if role != models.RoleInstructor && role != models.RoleAdmin {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}

	sessionID := strings.TrimSpace(c.Params("id"))
	if sessionID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Session id is required"})
	}

	var req attachRecordingRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	session, err := h.service.AttachRecording(c.Context(), sessionID, req.RecordingURL)
	if err != nil {
		return mapServiceError(c, err)
	}
	return c.JSON(fiber.Map{"live_session": session})
}

func actor(c *fiber.Ctx) (string, string) {
	actorID, _ := c.Locals("user_id").(string)
	role, _ := c.Locals("role").(string)
	return actorID, role
}
