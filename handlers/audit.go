package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"messenger/middleware"
	"messenger/models"
	"messenger/services"
)

// ListGroupAudit returns a group's audit log (group admin only)
func (h *Handler) ListGroupAudit(c *fiber.Ctx) error {
	groupID, err := parseID(c.Params("id"), "group id", services.ErrNotFound)
	if err != nil {
		return h.fail(c, err)
	}

	if _, err := h.Memberships.RequireAdmin(c.UserContext(), groupID, middleware.GetUserID(c)); err != nil {
		return h.fail(c, err)
	}

	page, _ := strconv.Atoi(c.Query("page"))
	limit, _ := strconv.Atoi(c.Query("limit"))

	result, err := h.Audit.ListForGroup(c.UserContext(), services.AuditQuery{
		GroupID: groupID,
		Action:  c.Query("action"),
		Page:    page,
		Limit:   limit,
	})
	if err != nil {
		return h.fail(c, err)
	}

	responses := make([]models.AuditLogResponse, len(result.Logs))
	for i, log := range result.Logs {
		responses[i] = log.ToResponse()
	}

	return c.JSON(fiber.Map{
		"logs":  responses,
		"total": result.Total,
		"page":  result.Page,
		"limit": result.Limit,
	})
}

// GetAuditActions returns available audit actions for filtering
func GetAuditActions(c *fiber.Ctx) error {
	actions := make([]string, len(models.AuditActions))
	for i, a := range models.AuditActions {
		actions[i] = string(a)
	}

	return c.JSON(actions)
}
