package models

import (
	"time"

	"github.com/google/uuid"
)

type AuditAction string

const (
	AuditActionLogin        AuditAction = "login"
	AuditActionTokenRefresh AuditAction = "token_refresh"
	AuditActionGroupCreate  AuditAction = "group_create"
	AuditActionGroupDelete  AuditAction = "group_delete"
	AuditActionMemberAdd    AuditAction = "member_add"
	AuditActionMemberRemove AuditAction = "member_remove"
)

// AuditActions lists every action in the order clients should offer them as filters.
var AuditActions = []AuditAction{
	AuditActionLogin,
	AuditActionTokenRefresh,
	AuditActionGroupCreate,
	AuditActionGroupDelete,
	AuditActionMemberAdd,
	AuditActionMemberRemove,
}

type AuditLog struct {
	ID        uint        `gorm:"primaryKey" json:"id"`
	ActorID   uuid.UUID   `gorm:"type:uuid;index" json:"actor_id"`
	ActorName string      `json:"actor_name"`
	Action    AuditAction `gorm:"index" json:"action"`
	GroupID   *uuid.UUID  `gorm:"type:uuid;index" json:"group_id,omitempty"`
	GroupName string      `json:"group_name,omitempty"`
	Details   string      `json:"details,omitempty"`
	IPAddress string      `json:"ip_address"`
	CreatedAt time.Time   `gorm:"index" json:"created_at"`
}

// AuditLogResponse is the response format for audit logs
type AuditLogResponse struct {
	ID        uint        `json:"id"`
	ActorID   uuid.UUID   `json:"actor_id"`
	ActorName string      `json:"actor_name"`
	Action    AuditAction `json:"action"`
	GroupID   *uuid.UUID  `json:"group_id,omitempty"`
	GroupName string      `json:"group_name,omitempty"`
	Details   string      `json:"details,omitempty"`
	IPAddress string      `json:"ip_address"`
	CreatedAt time.Time   `json:"created_at"`
}

func (a *AuditLog) ToResponse() AuditLogResponse {
	return AuditLogResponse{
		ID:        a.ID,
		ActorID:   a.ActorID,
		ActorName: a.ActorName,
		Action:    a.Action,
		GroupID:   a.GroupID,
		GroupName: a.GroupName,
		Details:   a.Details,
		IPAddress: a.IPAddress,
		CreatedAt: a.CreatedAt,
	}
}
