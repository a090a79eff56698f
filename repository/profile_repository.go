package repository

import (
	"context"

	"gorm.io/gorm"

	"BeatWave/model"
)

// ProfileRepository defines the interface for profile data operations.
// One profile exists per user; it is created together with the account and
// never deleted on its own.
type ProfileRepository interface {
	Create(ctx context.Context, profile *model.Profile) error
	GetByUserID(ctx context.Context, userID int64) (*model.Profile, error)
	Update(ctx context.Context, profile *model.Profile) error
	UpdateAvatar(ctx context.Context, userID int64, avatarPath string) error
}

// gormProfileRepository is the GORM implementation.
type gormProfileRepository struct {
	db *gorm.DB
}

// NewGormProfileRepository creates a GORM-backed profile repository.
func NewGormProfileRepository(db *gorm.DB) ProfileRepository {
	return &gormProfileRepository{db: db}
}

// Create inserts a new profile.
func (r *gormProfileRepository) Create(ctx context.Context, profile *model.Profile) error {
	return r.db.WithContext(ctx).Create(profile).Error
}

// GetByUserID fetches the profile owned by a user. Returns (nil, nil) when
// absent.
func (r *gormProfileRepository) GetByUserID(ctx context.Context, userID int64) (*model.Profile, error) {
	var profile model.Profile
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		First(&profile).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &profile, nil
}

// Update saves the mutable profile fields.
func (r *gormProfileRepository) Update(ctx context.Context, profile *model.Profile) error {
	return r.db.WithContext(ctx).Model(&model.Profile{}).
		Where("user_id = ?", profile.UserID).
		Updates(map[string]interface{}{
			"bio":        profile.Bio,
			"website":    profile.Website,
			"instagram":  profile.Instagram,
			"twitter":    profile.Twitter,
			"soundcloud": profile.Soundcloud,
		}).Error
}

// UpdateAvatar stores a new avatar object path.
func (r *gormProfileRepository) UpdateAvatar(ctx context.Context, userID int64, avatarPath string) error {
	return r.db.WithContext(ctx).Model(&model.Profile{}).
		Where("user_id = ?", userID).
		Update("avatar_path", avatarPath).Error
}
