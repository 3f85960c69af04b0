package handlers

import (
	"fmt"

	"github.com/gofiber/fiber/v2"

	"messenger/middleware"
	"messenger/models"
	"messenger/services"
)

// CreateGroup creates a group with the caller as its admin
func (h *Handler) CreateGroup(c *fiber.Ctx) error {
	var input models.GroupInput
	if err := c.BodyParser(&input); err != nil {
		return badBody(c)
	}

	created, err := h.Memberships.CreateGroup(c.UserContext(), middleware.GetUserID(c), input.Name)
	if err != nil {
		return h.fail(c, err)
	}

	h.Audit.Record(c.UserContext(), services.AuditEntry{
		ActorID:   created.Creator.ID,
		ActorName: created.Creator.Name,
		Action:    models.AuditActionGroupCreate,
		Group:     &created.Group,
		IPAddress: c.IP(),
	})

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"group_id":   created.Group.ID,
		"group_name": created.Group.Name,
		"created_by": created.Creator.Name,
		"role":       created.Role.Label(),
	})
}

// AddMember adds a user to a group (group admin only)
func (h *Handler) AddMember(c *fiber.Ctx) error {
	var input models.MembershipInput
	if err := c.BodyParser(&input); err != nil {
		return badBody(c)
	}

	groupID, err := parseID(input.GroupID, "group_id", services.ErrNotFound)
	if err != nil {
		return h.fail(c, err)
	}
	userID, err := parseID(input.UserID, "user_id", services.ErrNotFound)
	if err != nil {
		return h.fail(c, err)
	}

	requesterID := middleware.GetUserID(c)
	added, err := h.Memberships.AddMember(c.UserContext(), requesterID, groupID, userID)
	if err != nil {
		return h.fail(c, err)
	}

	if added.Existing {
		return c.JSON(fiber.Map{"message": "User already a member"})
	}

	requester := h.requesterName(c)
	h.Audit.Record(c.UserContext(), services.AuditEntry{
		ActorID:   requesterID,
		ActorName: requester,
		Action:    models.AuditActionMemberAdd,
		Group:     added.Group,
		Details:   "Added member: " + added.User.Name,
		IPAddress: c.IP(),
	})

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"group_id":     added.Group.ID,
		"group_name":   added.Group.Name,
		"member_id":    added.User.ID,
		"member_added": added.User.Name,
		"member_role":  added.Membership.Role.Label(),
		"added_by":     fmt.Sprintf("%s (%s)", requester, models.RoleAdmin.Label()),
		"added_at":     added.Membership.JoinedAt,
	})
}

// RemoveMember removes a non-admin member from a group (group admin only)
func (h *Handler) RemoveMember(c *fiber.Ctx) error {
	var input models.MembershipInput
	if err := c.BodyParser(&input); err != nil {
		return badBody(c)
	}

	groupID, err := parseID(input.GroupID, "group_id", services.ErrNotFound)
	if err != nil {
		return h.fail(c, err)
	}
	userID, err := parseID(input.UserID, "user_id", services.ErrNotFound)
	if err != nil {
		return h.fail(c, err)
	}

	requesterID := middleware.GetUserID(c)
	removed, err := h.Memberships.RemoveMember(c.UserContext(), requesterID, groupID, userID)
	if err != nil {
		return h.fail(c, err)
	}

	requester := h.requesterName(c)
	h.Audit.Record(c.UserContext(), services.AuditEntry{
		ActorID:   requesterID,
		ActorName: requester,
		Action:    models.AuditActionMemberRemove,
		Group:     removed.Group,
		Details:   "Removed member: " + removed.User.Name,
		IPAddress: c.IP(),
	})

	return c.JSON(fiber.Map{
		"group_name":     removed.Group.Name,
		"removed_id":     removed.User.ID,
		"removed_member": removed.User.Name,
		"removed_by":     fmt.Sprintf("%s (%s)", requester, models.RoleAdmin.Label()),
	})
}

// DeleteGroup deletes a group with its members and messages (group admin only)
func (h *Handler) DeleteGroup(c *fiber.Ctx) error {
	groupID, err := parseID(c.Params("id"), "group id", services.ErrNotFound)
	if err != nil {
		return h.fail(c, err)
	}

	requesterID := middleware.GetUserID(c)
	group, err := h.Memberships.DeleteGroup(c.UserContext(), requesterID, groupID)
	if err != nil {
		return h.fail(c, err)
	}

	h.Audit.Record(c.UserContext(), services.AuditEntry{
		ActorID:   requesterID,
		ActorName: h.requesterName(c),
		Action:    models.AuditActionGroupDelete,
		Group:     group,
		IPAddress: c.IP(),
	})

	return c.SendStatus(fiber.StatusNoContent)
}

// SendGroupMessage posts a message to a group the caller belongs to
func (h *Handler) SendGroupMessage(c *fiber.Ctx) error {
	var input models.SendGroupMessageInput
	if err := c.BodyParser(&input); err != nil {
		return badBody(c)
	}

	groupID, err := parseID(input.GroupID, "group_id", services.ErrNotFound)
	if err != nil {
		return h.fail(c, err)
	}

	if _, err := h.Messages.SendGroup(c.UserContext(), middleware.GetUserID(c), groupID, input.Text); err != nil {
		return h.fail(c, err)
	}

	return c.JSON(fiber.Map{"message": "Message sent"})
}

// GroupHistory returns a group's messages (members only)
func (h *Handler) GroupHistory(c *fiber.Ctx) error {
	groupID, err := parseID(c.Query("group_id"), "group_id", services.ErrNotFound)
	if err != nil {
		return h.fail(c, err)
	}

	history, err := h.Messages.GroupHistory(c.UserContext(), middleware.GetUserID(c), groupID)
	if err != nil {
		return h.fail(c, err)
	}

	return c.JSON(history)
}

// MyGroups returns every group the caller belongs to
func (h *Handler) MyGroups(c *fiber.Ctx) error {
	groups, err := h.Memberships.MyGroups(c.UserContext(), middleware.GetUserID(c))
	if err != nil {
		return h.fail(c, err)
	}

	return c.JSON(groups)
}

// GroupMembers lists a group's members (members only)
func (h *Handler) GroupMembers(c *fiber.Ctx) error {
	groupID, err := parseID(c.Params("id"), "group id", services.ErrNotFound)
	if err != nil {
		return h.fail(c, err)
	}

	members, err := h.Memberships.Members(c.UserContext(), middleware.GetUserID(c), groupID)
	if err != nil {
		return h.fail(c, err)
	}

	return c.JSON(members)
}

// requesterName is best effort; audit and response text fall back to "".
func (h *Handler) requesterName(c *fiber.Ctx) string {
	user, err := h.Users.Get(c.UserContext(), middleware.GetUserID(c))
	if err != nil {
		return ""
	}
	return user.Name
}
