package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"messenger/models"
)

// MessagingService records and lists direct and group messages. Messages are
// append-only. Histories are returned in full, oldest first.
type MessagingService struct {
	db          *gorm.DB
	memberships *MembershipService
	now         func() time.Time
}

func NewMessagingService(db *gorm.DB, memberships *MembershipService) *MessagingService {
	return &MessagingService{db: db, memberships: memberships, now: time.Now}
}

// SendDirect stores a message from sender to receiver. Any authenticated
// user may message any other.
func (s *MessagingService) SendDirect(ctx context.Context, sender, receiver uuid.UUID, text string) (*models.Message, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: receiver_id and text are required", ErrValidation)
	}

	tx := s.db.WithContext(ctx)
	if _, err := getUser(tx, receiver); err != nil {
		return nil, err
	}

	msg := models.Message{
		SenderID:   sender,
		ReceiverID: receiver,
		Text:       text,
		Timestamp:  s.now().UTC(),
	}
	if err := tx.Create(&msg).Error; err != nil {
		return nil, err
	}
	return &msg, nil
}

// DirectHistory lists the messages exchanged between requester and other.
func (s *MessagingService) DirectHistory(ctx context.Context, requester, other uuid.UUID) ([]models.HistoryEntry, error) {
	var rows []struct {
		SenderID  uuid.UUID
		Sender    string
		Text      string
		Timestamp time.Time
	}
	err := s.db.WithContext(ctx).
		Table("messages").
		Select("messages.sender_id AS sender_id, users.name AS sender, messages.text AS text, messages.timestamp AS timestamp").
		Joins("JOIN users ON users.id = messages.sender_id").
		Where("(messages.sender_id = ? AND messages.receiver_id = ?) OR (messages.sender_id = ? AND messages.receiver_id = ?)",
			requester, other, other, requester).
		Order("messages.timestamp").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make([]models.HistoryEntry, len(rows))
	for i, r := range rows {
		out[i] = models.HistoryEntry{SenderID: r.SenderID, Sender: r.Sender, Text: r.Text, Time: r.Timestamp}
	}
	return out, nil
}

// SendGroup stores a message in a group. The sender must be a member.
func (s *MessagingService) SendGroup(ctx context.Context, sender, groupID uuid.UUID, text string) (*models.GroupMessage, error) {
	if _, err := s.memberships.RequireMember(ctx, groupID, sender); err != nil {
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: text is required", ErrValidation)
	}

	msg := models.GroupMessage{
		GroupID:   groupID,
		SenderID:  sender,
		Text:      text,
		Timestamp: s.now().UTC(),
	}
	if err := s.db.WithContext(ctx).Create(&msg).Error; err != nil {
		return nil, err
	}
	return &msg, nil
}

// GroupHistory lists a group's messages for a member. Each entry carries
// whether its sender is an admin now, not when the message was sent.
func (s *MessagingService) GroupHistory(ctx context.Context, requester, groupID uuid.UUID) ([]models.HistoryEntry, error) {
	if _, err := s.memberships.RequireMember(ctx, groupID, requester); err != nil {
		return nil, err
	}

	var rows []struct {
		SenderID  uuid.UUID
		Sender    string
		Text      string
		Timestamp time.Time
	}
	err := s.db.WithContext(ctx).
		Table("group_messages").
		Select("group_messages.sender_id AS sender_id, users.name AS sender, group_messages.text AS text, group_messages.timestamp AS timestamp").
		Joins("JOIN users ON users.id = group_messages.sender_id").
		Where("group_messages.group_id = ?", groupID).
		Order("group_messages.timestamp").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	admins, err := s.memberships.AdminIDs(ctx, groupID)
	if err != nil {
		return nil, err
	}

	out := make([]models.HistoryEntry, len(rows))
	for i, r := range rows {
		isAdmin := admins[r.SenderID]
		out[i] = models.HistoryEntry{SenderID: r.SenderID, Sender: r.Sender, IsAdmin: &isAdmin, Text: r.Text, Time: r.Timestamp}
	}
	return out, nil
}

// RecentChats returns every user requester has exchanged a direct message
// with, most recent conversation first.
func (s *MessagingService) RecentChats(ctx context.Context, requester uuid.UUID) ([]models.User, error) {
	var messages []models.Message
	err := s.db.WithContext(ctx).
		Where("sender_id = ? OR receiver_id = ?", requester, requester).
		Order("timestamp DESC").
		Find(&messages).Error
	if err != nil {
		return nil, err
	}

	seen := make(map[uuid.UUID]bool)
	var ids []uuid.UUID
	for _, m := range messages {
		other := m.SenderID
		if other == requester {
			other = m.ReceiverID
		}
		if other == requester || seen[other] {
			continue
		}
		seen[other] = true
		ids = append(ids, other)
	}
	if len(ids) == 0 {
		return []models.User{}, nil
	}

	var users []models.User
	if err := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]models.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}

	out := make([]models.User, 0, len(ids))
	for _, id := range ids {
		if u, ok := byID[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}
