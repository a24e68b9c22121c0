package notify

import (
	"log/slog"
	"strings"

	"github.com/gofiber/fiber/v2"
)

type Handler struct {
	notifier Notifier
}

func NewHandler(notifier Notifier) *Handler {
	return &Handler{notifier: notifier}
}

func (h *Handler) RegisterPublicRoutes(app *fiber.App) {
	app.Post("/api/contact", h.contact)
}

func (h *Handler) contact(c *fiber.Ctx) error {
	payload := new(ContactNotice)
	if err := c.BodyParser(payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Invalid request body"})
	}

	for _, v := range []string{payload.Name, payload.Email, payload.Subject, payload.Message} {
		if strings.TrimSpace(v) == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "All fields are required."})
		}
	}

	if err := h.notifier.ContactMessage(c.UserContext(), *payload); err != nil {
		slog.ErrorContext(c.UserContext(), "failed to forward contact message", "path", c.Path(), "err", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Failed to send message. Please try again later."})
	}

	return c.JSON(fiber.Map{"message": "Your message has been sent successfully!"})
}
