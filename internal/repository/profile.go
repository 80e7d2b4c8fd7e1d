package repository

import (
	"context"
	"errors"

	"fitcraft/internal/cache"
	"fitcraft/internal/models"

	"gorm.io/gorm"
)

// ProfileRepository defines persistence operations for profiles.
type ProfileRepository interface {
	GetByUserID(ctx context.Context, userID uint) (*models.Profile, error)
	Update(ctx context.Context, userID uint, changes map[string]any) (*models.Profile, error)
}

type profileRepository struct {
	db *gorm.DB
}

// NewProfileRepository returns a new ProfileRepository implementation.
func NewProfileRepository(db *gorm.DB) ProfileRepository {
	return &profileRepository{db: db}
}

func (r *profileRepository) GetByUserID(ctx context.Context, userID uint) (*models.Profile, error) {
	var profile models.Profile
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&profile).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Profile", userID)
		}
		return nil, models.NewInternalError(err)
	}
	return &profile, nil
}

// Update applies column changes to the user's profile and returns the stored row.
// Cached feeds embed the author's name and avatar, so they are invalidated too.
func (r *profileRepository) Update(ctx context.Context, userID uint, changes map[string]any) (*models.Profile, error) {
	if len(changes) > 0 {
		res := r.db.WithContext(ctx).Model(&models.Profile{}).Where("user_id = ?", userID).Updates(changes)
		if res.Error != nil {
			return nil, models.NewInternalError(res.Error)
		}
		if res.RowsAffected == 0 {
			return nil, models.NewNotFoundError("Profile", userID)
		}
		cache.InvalidateFeed(ctx, userID)
	}
	return r.GetByUserID(ctx, userID)
}
