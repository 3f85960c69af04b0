package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"messenger/models"
)

// MembershipService owns groups and their memberships. Every group has a
// founding admin membership created with it, and admin memberships cannot
// be removed.
//
// Admin checks run in the same transaction as the mutation they guard.
type MembershipService struct {
	db  *gorm.DB
	log *zap.Logger
	now func() time.Time
}

func NewMembershipService(db *gorm.DB, log *zap.Logger) *MembershipService {
	return &MembershipService{db: db, log: log, now: time.Now}
}

type CreatedGroup struct {
	Group   models.Group
	Creator *models.User
	Role    models.MemberRole
}

type AddedMember struct {
	Group      *models.Group
	User       *models.User
	Membership models.GroupMember
	// Existing is set when the user was already a member; nothing changed.
	Existing bool
}

type RemovedMember struct {
	Group *models.Group
	User  *models.User
}

// CreateGroup creates a group with requester as its founding admin.
func (s *MembershipService) CreateGroup(ctx context.Context, requester uuid.UUID, name string) (*CreatedGroup, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: group name required", ErrValidation)
	}
	if len(name) > 100 {
		return nil, fmt.Errorf("%w: group name must be at most 100 characters", ErrValidation)
	}

	var out CreatedGroup
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		creator, err := getUser(tx, requester)
		if err != nil {
			return err
		}

		now := s.now().UTC()
		group := models.Group{Name: name, CreatedBy: requester, CreatedAt: now}
		if err := tx.Create(&group).Error; err != nil {
			return err
		}

		founder := models.GroupMember{
			GroupID:  group.ID,
			UserID:   requester,
			Role:     models.RoleAdmin,
			JoinedAt: now,
		}
		if err := tx.Create(&founder).Error; err != nil {
			return err
		}

		out = CreatedGroup{Group: group, Creator: creator, Role: models.RoleAdmin}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("group created", zap.String("group_id", out.Group.ID.String()), zap.String("creator_id", requester.String()))
	return &out, nil
}

// AddMember adds target to the group as a member. Adding an existing member
// returns the existing row with Existing set.
func (s *MembershipService) AddMember(ctx context.Context, requester, groupID, target uuid.UUID) (*AddedMember, error) {
	var out AddedMember
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		group, err := s.requireAdmin(tx, groupID, requester, "add members")
		if err != nil {
			return err
		}

		user, err := getUser(tx, target)
		if err != nil {
			return err
		}

		membership := models.GroupMember{
			GroupID:  groupID,
			UserID:   target,
			Role:     models.RoleMember,
			JoinedAt: s.now().UTC(),
		}
		result := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "group_id"}, {Name: "user_id"}},
			DoNothing: true,
		}).Create(&membership)
		if result.Error != nil {
			return result.Error
		}

		out = AddedMember{Group: group, User: user}
		if result.RowsAffected == 0 {
			existing, err := findMembership(tx, groupID, target)
			if err != nil {
				return err
			}
			out.Membership = *existing
			out.Existing = true
			return nil
		}
		out.Membership = membership
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// RemoveMember deletes target's membership. Admin memberships are refused
// with ErrAdminProtected.
func (s *MembershipService) RemoveMember(ctx context.Context, requester, groupID, target uuid.UUID) (*RemovedMember, error) {
	var out RemovedMember
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		group, err := s.requireAdmin(tx, groupID, requester, "remove members")
		if err != nil {
			return err
		}

		membership, err := findMembership(tx, groupID, target)
		if err != nil {
			return err
		}
		if membership.Role == models.RoleAdmin {
			return ErrAdminProtected
		}

		user, err := getUser(tx, target)
		if err != nil {
			return err
		}

		if err := tx.Delete(membership).Error; err != nil {
			return err
		}
		out = RemovedMember{Group: group, User: user}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteGroup removes a group with its messages and memberships. Only a
// group admin may delete it.
func (s *MembershipService) DeleteGroup(ctx context.Context, requester, groupID uuid.UUID) (*models.Group, error) {
	var deleted *models.Group
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		group, err := s.requireAdmin(tx, groupID, requester, "delete the group")
		if err != nil {
			return err
		}
		if err := tx.Where("group_id = ?", groupID).Delete(&models.GroupMessage{}).Error; err != nil {
			return err
		}
		if err := tx.Where("group_id = ?", groupID).Delete(&models.GroupMember{}).Error; err != nil {
			return err
		}
		if err := tx.Delete(group).Error; err != nil {
			return err
		}
		deleted = group
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("group deleted", zap.String("group_id", groupID.String()), zap.String("actor_id", requester.String()))
	return deleted, nil
}

func (s *MembershipService) IsMember(ctx context.Context, groupID, userID uuid.UUID) (bool, error) {
	return hasMembership(s.db.WithContext(ctx), groupID, userID, "")
}

func (s *MembershipService) IsAdmin(ctx context.Context, groupID, userID uuid.UUID) (bool, error) {
	return hasMembership(s.db.WithContext(ctx), groupID, userID, models.RoleAdmin)
}

// Group loads a group by id.
func (s *MembershipService) Group(ctx context.Context, groupID uuid.UUID) (*models.Group, error) {
	return getGroup(s.db.WithContext(ctx), groupID)
}

// RequireMember loads the group and checks that userID belongs to it.
func (s *MembershipService) RequireMember(ctx context.Context, groupID, userID uuid.UUID) (*models.Group, error) {
	tx := s.db.WithContext(ctx)
	group, err := getGroup(tx, groupID)
	if err != nil {
		return nil, err
	}
	ok, err := hasMembership(tx, groupID, userID, "")
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: not a group member", ErrForbidden)
	}
	return group, nil
}

// RequireAdmin loads the group and checks that userID is one of its admins.
func (s *MembershipService) RequireAdmin(ctx context.Context, groupID, userID uuid.UUID) (*models.Group, error) {
	return s.requireAdmin(s.db.WithContext(ctx), groupID, userID, "view this")
}

// MyGroups lists every group requester belongs to, oldest membership first.
func (s *MembershipService) MyGroups(ctx context.Context, requester uuid.UUID) ([]models.GroupSummary, error) {
	var rows []struct {
		ID   uuid.UUID
		Name string
		Role models.MemberRole
	}
	err := s.db.WithContext(ctx).
		Table("group_members").
		Select("chat_groups.id AS id, chat_groups.name AS name, group_members.role AS role").
		Joins("JOIN chat_groups ON chat_groups.id = group_members.group_id").
		Where("group_members.user_id = ?", requester).
		Order("group_members.joined_at").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make([]models.GroupSummary, len(rows))
	for i, r := range rows {
		out[i] = models.GroupSummary{ID: r.ID, Name: r.Name, IsAdmin: r.Role == models.RoleAdmin}
	}
	return out, nil
}

// Members lists a group's members. Only members may list them.
func (s *MembershipService) Members(ctx context.Context, requester, groupID uuid.UUID) ([]models.MemberResponse, error) {
	if _, err := s.RequireMember(ctx, groupID, requester); err != nil {
		return nil, err
	}

	var rows []struct {
		ID   uuid.UUID
		Name string
		Role models.MemberRole
	}
	err := s.db.WithContext(ctx).
		Table("group_members").
		Select("users.id AS id, users.name AS name, group_members.role AS role").
		Joins("JOIN users ON users.id = group_members.user_id").
		Where("group_members.group_id = ?", groupID).
		Order("group_members.joined_at").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make([]models.MemberResponse, len(rows))
	for i, r := range rows {
		out[i] = models.MemberResponse{ID: r.ID, Username: r.Name, IsAdmin: r.Role == models.RoleAdmin}
	}
	return out, nil
}

// AdminIDs returns the ids of the group's current admins.
func (s *MembershipService) AdminIDs(ctx context.Context, groupID uuid.UUID) (map[uuid.UUID]bool, error) {
	var ids []uuid.UUID
	err := s.db.WithContext(ctx).Model(&models.GroupMember{}).
		Where("group_id = ? AND role = ?", groupID, models.RoleAdmin).
		Pluck("user_id", &ids).Error
	if err != nil {
		return nil, err
	}
	out := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		out[id] = true
	}
	return out, nil
}

func (s *MembershipService) requireAdmin(tx *gorm.DB, groupID, userID uuid.UUID, action string) (*models.Group, error) {
	group, err := getGroup(tx, groupID)
	if err != nil {
		return nil, err
	}
	ok, err := hasMembership(tx, groupID, userID, models.RoleAdmin)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: only group admin can %s", ErrForbidden, action)
	}
	return group, nil
}

func getGroup(tx *gorm.DB, id uuid.UUID) (*models.Group, error) {
	var group models.Group
	err := tx.Where("id = ?", id).First(&group).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: group", ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &group, nil
}

func findMembership(tx *gorm.DB, groupID, userID uuid.UUID) (*models.GroupMember, error) {
	var m models.GroupMember
	err := tx.Where("group_id = ? AND user_id = ?", groupID, userID).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: membership", ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// hasMembership reports whether a membership row exists, optionally with a role.
func hasMembership(tx *gorm.DB, groupID, userID uuid.UUID, role models.MemberRole) (bool, error) {
	query := tx.Model(&models.GroupMember{}).Where("group_id = ? AND user_id = ?", groupID, userID)
	if role != "" {
		query = query.Where("role = ?", role)
	}
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
