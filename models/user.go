package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type User struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Phone     string    `gorm:"size:15;uniqueIndex;not null" json:"phone"`
	Name      string    `gorm:"not null;default:''" json:"username"`
	Active    bool      `gorm:"not null;default:true" json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// UserResponse is the public view of a user
type UserResponse struct {
	ID       uuid.UUID `json:"id"`
	Username string    `json:"username"`
}

func (u *User) ToResponse() UserResponse {
	return UserResponse{
		ID:       u.ID,
		Username: u.Name,
	}
}

// ProfileResponse is what a user sees about themselves
type ProfileResponse struct {
	ID        uuid.UUID `json:"id"`
	Phone     string    `json:"phone"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"created_at"`
}

func (u *User) ToProfile() ProfileResponse {
	return ProfileResponse{
		ID:        u.ID,
		Phone:     u.Phone,
		Username:  u.Name,
		CreatedAt: u.CreatedAt,
	}
}

// LoginInput is the body of a code request
type LoginInput struct {
	Phone    string `json:"phone"`
	Username string `json:"username"`
}

// VerifyInput is the body of a code verification
type VerifyInput struct {
	Phone string `json:"phone"`
	OTP   string `json:"otp"`
}

type RefreshInput struct {
	Refresh string `json:"refresh"`
}
