package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type MemberRole string

const (
	RoleAdmin  MemberRole = "admin"
	RoleMember MemberRole = "member"
)

// Label is the human-readable role name shown to clients.
func (r MemberRole) Label() string {
	if r == RoleAdmin {
		return "Group Admin"
	}
	return "Member"
}

type Group struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name      string    `gorm:"size:100;not null" json:"name"`
	CreatedBy uuid.UUID `gorm:"type:uuid;not null;index" json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
}

func (Group) TableName() string {
	return "chat_groups"
}

func (g *Group) BeforeCreate(tx *gorm.DB) error {
	if g.ID == uuid.Nil {
		g.ID = uuid.New()
	}
	return nil
}

// GroupMember is unique per (group, user).
type GroupMember struct {
	ID       uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	GroupID  uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_group_user" json:"group_id"`
	UserID   uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_group_user;index" json:"user_id"`
	Role     MemberRole `gorm:"size:10;not null;default:member" json:"role"`
	JoinedAt time.Time  `json:"joined_at"`
}

func (m *GroupMember) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

type GroupInput struct {
	Name string `json:"name"`
}

// MembershipInput is the body of add-member and remove-member requests
type MembershipInput struct {
	GroupID string `json:"group_id"`
	UserID  string `json:"user_id"`
}

type GroupSummary struct {
	ID      uuid.UUID `json:"id"`
	Name    string    `json:"name"`
	IsAdmin bool      `json:"is_admin"`
}

type MemberResponse struct {
	ID       uuid.UUID `json:"id"`
	Username string    `json:"username"`
	IsAdmin  bool      `json:"is_admin"`
}
