package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/aedentek-pro/lms004/internal/models"
	"github.com/aedentek-pro/lms004/internal/store"
)

// NotificationHandler serves the display layer: listing a user's
// notifications and flipping their read flag. The core never mutates a
// notification after it is appended.
type NotificationHandler struct {
	store store.NotificationStore
}

func NewNotificationHandler(st store.NotificationStore) *NotificationHandler {
	return &NotificationHandler{store: st}
}

func (h *NotificationHandler) ListNotifications(c *fiber.Ctx) error {
	actorID, _ := actor(c)
	if actorID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	notifications, err := h.store.GetNotifications(c.Context())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to load notifications"})
	}

	own := make([]models.Notification, 0, len(notifications))
	for _, notification := range notifications {
		if notification.RecipientID == actorID {
			own = append(own, notification)
		}
	}
	return c.JSON(fiber.Map{"notifications": own})
}

func (h *NotificationHandler) MarkRead(c *fiber.Ctx) error {
	actorID, _ := actor(c)
	if actorID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	notificationID := strings.TrimSpace(c.Params("id"))
	if notificationID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Notification id is required"})
	}

	found := false
	err := h.store.UpdateNotifications(c.Context(), func(notifications []models.Notification) ([]models.Notification, bool, error) {
		for i := range notifications {
			if notifications[i].ID != notificationID || notifications[i].RecipientID != actorID {
				continue
			}
			found = true
			if notifications[i].Read {
				return nil, false, nil
			}
			notifications[i].Read = true
			return notifications, true, nil
		}
		return nil, false, nil
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update notification"})
	}
	if !found {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Notification not found"})
	}
	return c.SendStatus(fiber.StatusNoContent)
}
