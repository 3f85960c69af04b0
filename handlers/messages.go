package handlers

import (
	"github.com/gofiber/fiber/v2"

	"messenger/middleware"
	"messenger/models"
	"messenger/services"
)

// SendMessage sends a direct message to another user
func (h *Handler) SendMessage(c *fiber.Ctx) error {
	var input models.SendMessageInput
	if err := c.BodyParser(&input); err != nil {
		return badBody(c)
	}

	receiverID, err := parseID(input.ReceiverID, "receiver_id", services.ErrNotFound)
	if err != nil {
		return h.fail(c, err)
	}

	if _, err := h.Messages.SendDirect(c.UserContext(), middleware.GetUserID(c), receiverID, input.Text); err != nil {
		return h.fail(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Message sent successfully",
	})
}

// ChatHistory returns the conversation with the user in ?user_id=
func (h *Handler) ChatHistory(c *fiber.Ctx) error {
	otherID, err := parseID(c.Query("user_id"), "user_id", services.ErrValidation)
	if err != nil {
		return h.fail(c, err)
	}

	history, err := h.Messages.DirectHistory(c.UserContext(), middleware.GetUserID(c), otherID)
	if err != nil {
		return h.fail(c, err)
	}

	return c.JSON(history)
}

// RecentChats returns the users the caller has exchanged messages with
func (h *Handler) RecentChats(c *fiber.Ctx) error {
	users, err := h.Messages.RecentChats(c.UserContext(), middleware.GetUserID(c))
	if err != nil {
		return h.fail(c, err)
	}

	responses := make([]models.UserResponse, len(users))
	for i, u := range users {
		responses[i] = u.ToResponse()
	}

	return c.JSON(responses)
}
