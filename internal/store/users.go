package store

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/foodgram/backend/internal/models"
)

type UserStore struct {
	db *gorm.DB
}

func NewUserStore(db *gorm.DB) *UserStore {
	return &UserStore{db: db}
}

func (s *UserStore) Create(ctx context.Context, user *models.User) error {
	return translate(s.db.WithContext(ctx).Create(user).Error, "create user")
}

func (s *UserStore) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, translate(err, "get user")
	}
	return &user, nil
}

func (s *UserStore) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("LOWER(email) = LOWER(?)", email).First(&user).Error; err != nil {
		return nil, translate(err, "get user by email")
	}
	return &user, nil
}

// Taken reports which of username and email already belong to some user.
func (s *UserStore) Taken(ctx context.Context, username, email string) (usernameTaken, emailTaken bool, err error) {
	var users []models.User
	err = s.db.WithContext(ctx).
		Select("username", "email").
		Where("username = ? OR LOWER(email) = LOWER(?)", username, email).
		Find(&users).Error
	if err != nil {
		return false, false, translate(err, "check user uniqueness")
	}
	for _, u := range users {
		if u.Username == username {
			usernameTaken = true
		}
		if strings.EqualFold(u.Email, email) {
			emailTaken = true
		}
	}
	return usernameTaken, emailTaken, nil
}

func (s *UserStore) List(ctx context.Context, offset, limit int) ([]models.User, int64, error) {
	var total int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Count(&total).Error; err != nil {
		return nil, 0, translate(err, "count users")
	}
	var users []models.User
	err := s.db.WithContext(ctx).Order("id").Offset(offset).Limit(limit).Find(&users).Error
	if err != nil {
		return nil, 0, translate(err, "list users")
	}
	return users, total, nil
}

func (s *UserStore) UpdatePassword(ctx context.Context, id uint, hash string) error {
	return s.updateColumn(ctx, id, "password_hash", hash)
}

func (s *UserStore) UpdateAvatar(ctx context.Context, id uint, avatar string) error {
	return s.updateColumn(ctx, id, "avatar", avatar)
}

func (s *UserStore) updateColumn(ctx context.Context, id uint, column string, value interface{}) error {
	res := s.db.WithContext(ctx).Session(&gorm.Session{SkipHooks: true}).
		Model(&models.User{}).Where("id = ?", id).Update(column, value)
	if res.Error != nil {
		return translate(res.Error, "update user "+column)
	}
	if res.RowsAffected == 0 {
		return translate(gorm.ErrRecordNotFound, "update user "+column)
	}
	return nil
}
