package handlers

import (
	"github.com/gofiber/fiber/v2"
)

// Register mounts the API under /api. authRequired guards every route that
// needs a caller identity.
func (h *Handler) Register(app *fiber.App, authRequired fiber.Handler) {
	api := app.Group("/api")

	api.Get("/health", Health)

	// Public routes
	auth := api.Group("/auth")
	auth.Post("/login", h.RequestCode)
	auth.Post("/verify-otp", h.VerifyCode)
	auth.Post("/token/refresh", h.RefreshToken)

	// Protected routes. Middleware is attached per prefix so unknown /api
	// paths still 404.
	api.Get("/user", authRequired, h.GetCurrentUser)
	api.Get("/users", authRequired, h.ListUsers)
	api.Get("/audit/actions", authRequired, GetAuditActions)

	chat := api.Group("/chat", authRequired)
	chat.Post("/send", h.SendMessage)
	chat.Get("/history", h.ChatHistory)
	chat.Get("/recent", h.RecentChats)

	groups := chat.Group("/groups")
	groups.Post("/create", h.CreateGroup)
	groups.Post("/add-member", h.AddMember)
	groups.Post("/remove", h.RemoveMember)
	groups.Post("/send-message", h.SendGroupMessage)
	groups.Get("/history", h.GroupHistory)
	groups.Get("/my-groups", h.MyGroups)
	groups.Get("/:id/members", h.GroupMembers)
	groups.Get("/:id/audit", h.ListGroupAudit)
	groups.Delete("/:id", h.DeleteGroup)
}

// Health reports liveness
func Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}
