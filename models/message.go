package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Message is a direct message between two users. Rows are never updated.
type Message struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	SenderID   uuid.UUID `gorm:"type:uuid;not null;index" json:"sender_id"`
	ReceiverID uuid.UUID `gorm:"type:uuid;not null;index" json:"receiver_id"`
	Text       string    `gorm:"type:text;not null" json:"text"`
	Timestamp  time.Time `gorm:"not null;index" json:"time"`
}

func (m *Message) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

type GroupMessage struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	GroupID   uuid.UUID `gorm:"type:uuid;not null;index" json:"group_id"`
	SenderID  uuid.UUID `gorm:"type:uuid;not null" json:"sender_id"`
	Text      string    `gorm:"type:text;not null" json:"text"`
	Timestamp time.Time `gorm:"not null;index" json:"time"`
}

func (m *GroupMessage) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

type SendMessageInput struct {
	ReceiverID string `json:"receiver_id"`
	Text       string `json:"text"`
}

type SendGroupMessageInput struct {
	GroupID string `json:"group_id"`
	Text    string `json:"text"`
}

// HistoryEntry is one row of a direct or group history listing
type HistoryEntry struct {
	SenderID uuid.UUID `json:"sender_id"`
	Sender   string    `json:"sender"`
	IsAdmin  *bool     `json:"is_admin,omitempty"`
	Text     string    `json:"text"`
	Time     time.Time `json:"time"`
}
