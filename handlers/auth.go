package handlers

import (
	"github.com/gofiber/fiber/v2"

	"messenger/middleware"
	"messenger/models"
	"messenger/services"
)

// RequestCode creates the user on first sight and issues a login code.
// The code is echoed back until SMS delivery exists.
func (h *Handler) RequestCode(c *fiber.Ctx) error {
	var req models.LoginInput
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}

	issued, err := h.Sessions.RequestCode(c.UserContext(), req.Phone, req.Username)
	if err != nil {
		return h.fail(c, err)
	}

	return c.JSON(fiber.Map{
		"message": "OTP generated",
		"otp":     issued.Code,
		"phone":   issued.Phone,
	})
}

// VerifyCode exchanges a login code for an access/refresh token pair
func (h *Handler) VerifyCode(c *fiber.Ctx) error {
	var req models.VerifyInput
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}

	session, err := h.Sessions.VerifyCode(c.UserContext(), req.Phone, req.OTP)
	if err != nil {
		return h.fail(c, err)
	}

	h.Audit.Record(c.UserContext(), services.AuditEntry{
		ActorID:   session.User.ID,
		ActorName: session.User.Name,
		Action:    models.AuditActionLogin,
		IPAddress: c.IP(),
	})

	return c.JSON(session.Tokens)
}

// RefreshToken issues a new access token for a refresh token
func (h *Handler) RefreshToken(c *fiber.Ctx) error {
	var req models.RefreshInput
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}

	access, userID, err := h.Sessions.Refresh(c.UserContext(), req.Refresh)
	if err != nil {
		return h.fail(c, err)
	}

	h.Audit.Record(c.UserContext(), services.AuditEntry{
		ActorID:   userID,
		Action:    models.AuditActionTokenRefresh,
		IPAddress: c.IP(),
	})

	return c.JSON(fiber.Map{"access_token": access})
}

// GetCurrentUser returns the currently authenticated user
func (h *Handler) GetCurrentUser(c *fiber.Ctx) error {
	user, err := h.Users.Get(c.UserContext(), middleware.GetUserID(c))
	if err != nil {
		return h.fail(c, err)
	}

	return c.JSON(user.ToProfile())
}

// ListUsers returns everyone except the caller, optionally filtered by name
func (h *Handler) ListUsers(c *fiber.Ctx) error {
	users, err := h.Users.List(c.UserContext(), middleware.GetUserID(c), c.Query("search"))
	if err != nil {
		return h.fail(c, err)
	}

	responses := make([]models.UserResponse, len(users))
	for i, u := range users {
		responses[i] = u.ToResponse()
	}

	return c.JSON(responses)
}
