package repository

import (
	"context"

	"artfeed/internal/models"

	"gorm.io/gorm"
)

// ProfileRepository defines persistence operations for profiles.
type ProfileRepository interface {
	GetByUserID(ctx context.Context, userID uint) (*models.Profile, error)
	Create(ctx context.Context, profile *models.Profile) error
	Update(ctx context.Context, profile *models.Profile) error
	UpdateImage(ctx context.Context, userID uint, image string) error
	DeleteByUserID(ctx context.Context, userID uint) error
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
	if err := r.db.WithContext(ctx).
		Preload("User").
		Where("user_id = ?", userID).
		First(&profile).Error; err != nil {
		return nil, translateReadError(err, "Profile for user", userID)
	}
	return &profile, nil
}

func (r *profileRepository) Create(ctx context.Context, profile *models.Profile) error {
	return translateWriteError(r.db.WithContext(ctx).Omit("User").Create(profile).Error)
}

func (r *profileRepository) Update(ctx context.Context, profile *models.Profile) error {
	return translateWriteError(r.db.WithContext(ctx).Omit("User").Save(profile).Error)
}

// UpdateImage writes only the image column so concurrent edits to the other
// profile fields are kept.
func (r *profileRepository) UpdateImage(ctx context.Context, userID uint, image string) error {
	res := r.db.WithContext(ctx).Model(&models.Profile{}).
		Where("user_id = ?", userID).
		Update("image", image)
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Profile for user", userID)
	}
	return nil
}

func (r *profileRepository) DeleteByUserID(ctx context.Context, userID uint) error {
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&models.Profile{}).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}
