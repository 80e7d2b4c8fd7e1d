// Package repository implements the data access layer for the application.
package repository

import (
	"context"
	"errors"
	"time"

	"fitcraft/internal/database"
	"fitcraft/internal/models"

	"gorm.io/gorm"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	CreateWithProfile(ctx context.Context, user *models.User, profile *models.Profile) error
	UpdateLastLogin(ctx context.Context, id uint, at time.Time) error
	Delete(ctx context.Context, id uint) error
}

type userRepository struct {
	db      *gorm.DB
	replica *gorm.DB
}

// NewUserRepository returns a new UserRepository implementation.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db, replica: database.GetReadDB()}
}

func (r *userRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := reader(ctx, r.db, r.replica).Preload("Profile").First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("User", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &user, nil
}

// GetByEmail matches case-insensitively and returns nil, nil when no user has the address.
func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).
		Preload("Profile").
		Where("LOWER(email) = LOWER(?)", email).
		First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &user, nil
}

// CreateWithProfile inserts the user and its profile atomically.
func (r *userRepository) CreateWithProfile(ctx context.Context, user *models.User, profile *models.Profile) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Profile").Create(user).Error; err != nil {
			return err
		}
		profile.UserID = user.ID
		return tx.Create(profile).Error
	})
	if err != nil {
		user.ID = 0
		profile.ID = 0
		profile.UserID = 0
		if isUniqueConstraintError(err) {
			return models.NewFieldError("email", "Email already registered.")
		}
		return models.NewInternalError(err)
	}

	user.Profile = profile
	return nil
}

func (r *userRepository) UpdateLastLogin(ctx context.Context, id uint, at time.Time) error {
	if err := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Update("last_login_at", at).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *userRepository) Delete(ctx context.Context, id uint) error {
	if err := r.db.WithContext(ctx).Delete(&models.User{}, id).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}
