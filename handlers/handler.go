package handlers

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"messenger/services"
)

// Handler serves the HTTP API on top of the services.
type Handler struct {
	Sessions    *services.SessionIssuer
	Users       *services.UserStore
	Memberships *services.MembershipService
	Messages    *services.MessagingService
	Audit       *services.Auditor
	Log         *zap.Logger
}

var errorStatus = []struct {
	err    error
	status int
}{
	{services.ErrValidation, fiber.StatusBadRequest},
	{services.ErrCodeExpiredOrMissing, fiber.StatusBadRequest},
	{services.ErrCodeMismatch, fiber.StatusBadRequest},
	{services.ErrAdminProtected, fiber.StatusBadRequest},
	{services.ErrUnauthorized, fiber.StatusUnauthorized},
	{services.ErrForbidden, fiber.StatusForbidden},
	{services.ErrNotFound, fiber.StatusNotFound},
	{services.ErrUserNotFound, fiber.StatusNotFound},
}

// fail writes err as a JSON error body. Errors outside the service taxonomy
// are logged and reported as a generic 500.
func (h *Handler) fail(c *fiber.Ctx, err error) error {
	for _, e := range errorStatus {
		if errors.Is(err, e.err) {
			return c.Status(e.status).JSON(fiber.Map{"error": err.Error()})
		}
	}

	h.Log.Error("request failed",
		zap.String("method", c.Method()),
		zap.String("path", c.Path()),
		zap.Error(err))
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": "Internal server error",
	})
}

// parseID parses a required uuid field. A malformed value is reported
// wrapped in malformed.
func parseID(raw, field string, malformed error) (uuid.UUID, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return uuid.Nil, fmt.Errorf("%w: %s is required", services.ErrValidation, field)
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: invalid %s", malformed, field)
	}
	return id, nil
}

func badBody(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"error": "Invalid request body",
	})
}
