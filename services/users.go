package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"messenger/models"
)

const maxPhoneLength = 15

// UserStore persists users keyed by id, unique by phone.
type UserStore struct {
	db  *gorm.DB
	now func() time.Time
}

func NewUserStore(db *gorm.DB) *UserStore {
	return &UserStore{db: db, now: time.Now}
}

// UpsertByPhone returns the user with phone, creating it with name if unseen.
// An existing user is left untouched. The unique index on phone settles
// concurrent first logins: the losing insert is ignored and the row re-read.
func (s *UserStore) UpsertByPhone(ctx context.Context, phone, name string) (*models.User, bool, error) {
	user := models.User{
		Phone:     phone,
		Name:      name,
		Active:    true,
		CreatedAt: s.now().UTC(),
	}

	result := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "phone"}}, DoNothing: true}).
		Create(&user)
	if result.Error != nil {
		return nil, false, result.Error
	}
	if result.RowsAffected == 1 {
		return &user, true, nil
	}

	existing, err := s.FindByPhone(ctx, phone)
	if err != nil {
		return nil, false, err
	}
	return existing, false, nil
}

func (s *UserStore) FindByPhone(ctx context.Context, phone string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("phone = ?", phone).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *UserStore) Get(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return getUser(s.db.WithContext(ctx), id)
}

// List returns every user except exclude, optionally filtered by a
// case-insensitive substring of the display name.
func (s *UserStore) List(ctx context.Context, exclude uuid.UUID, search string) ([]models.User, error) {
	query := s.db.WithContext(ctx).Where("id <> ?", exclude)
	if search = strings.TrimSpace(search); search != "" {
		query = query.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(search)+"%")
	}

	var users []models.User
	if err := query.Order("name").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func getUser(tx *gorm.DB, id uuid.UUID) (*models.User, error) {
	var user models.User
	err := tx.Where("id = ?", id).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: user", ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}
