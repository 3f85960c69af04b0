package services

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"messenger/models"
)

// AuditEntry describes one recorded action.
type AuditEntry struct {
	ActorID   uuid.UUID
	ActorName string
	Action    models.AuditAction
	Group     *models.Group
	Details   string
	IPAddress string
}

type Auditor struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewAuditor(db *gorm.DB, log *zap.Logger) *Auditor {
	return &Auditor{db: db, log: log}
}

// Record writes an audit entry. A failed write is logged and otherwise
// ignored so it never fails the audited request.
func (a *Auditor) Record(ctx context.Context, e AuditEntry) {
	if err := a.RecordSync(ctx, e); err != nil {
		a.log.Warn("audit write failed",
			zap.String("action", string(e.Action)),
			zap.String("actor_id", e.ActorID.String()),
			zap.Error(err))
	}
}

// RecordSync writes an audit entry and returns any storage error.
func (a *Auditor) RecordSync(ctx context.Context, e AuditEntry) error {
	entry := models.AuditLog{
		ActorID:   e.ActorID,
		ActorName: e.ActorName,
		Action:    e.Action,
		Details:   e.Details,
		IPAddress: e.IPAddress,
	}
	if e.Group != nil {
		id := e.Group.ID
		entry.GroupID = &id
		entry.GroupName = e.Group.Name
	}
	return a.db.WithContext(ctx).Create(&entry).Error
}

// AuditQuery filters a group's audit log.
type AuditQuery struct {
	GroupID uuid.UUID
	Action  string
	Page    int
	Limit   int
}

// AuditPage is one page of a group's audit log. Page and Limit are the
// values actually used after clamping.
type AuditPage struct {
	Logs  []models.AuditLog
	Total int64
	Page  int
	Limit int
}

// ListForGroup returns one page of a group's audit log, newest first. Page
// defaults to 1 and Limit to 50, capped at 100.
func (a *Auditor) ListForGroup(ctx context.Context, q AuditQuery) (*AuditPage, error) {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 || q.Limit > 100 {
		q.Limit = 50
	}

	query := a.db.WithContext(ctx).Model(&models.AuditLog{}).Where("group_id = ?", q.GroupID)
	if q.Action != "" {
		query = query.Where("action = ?", q.Action)
	}

	page := &AuditPage{Page: q.Page, Limit: q.Limit}
	if err := query.Session(&gorm.Session{}).Count(&page.Total).Error; err != nil {
		return nil, err
	}

	err := query.Order("created_at DESC").Order("id DESC").
		Offset((q.Page - 1) * q.Limit).Limit(q.Limit).
		Find(&page.Logs).Error
	if err != nil {
		return nil, err
	}
	return page, nil
}
