package repository

import (
	"context"

	"github.com/zfogg/screams/backend/internal/events"
	"github.com/zfogg/screams/backend/internal/models"
	"gorm.io/gorm"
)

// CreateUser inserts a profile. ErrDuplicate when the handle or email is taken.
func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	if user == nil || user.Handle == "" || user.UserID == "" {
		return ErrInvalidInput
	}
	return s.transact(ctx, func(tx *gorm.DB, changes *changeSet) error {
		if err := tx.Create(user).Error; err != nil {
			return translate(err, "create user")
		}
		return changes.record(events.Created, models.CollectionUsers, user.Handle, nil, user)
	})
}

// GetUser loads a profile by handle
func (s *Store) GetUser(ctx context.Context, handle string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("handle = ?", handle).First(&user).Error; err != nil {
		return nil, translate(err, "get user")
	}
	return &user, nil
}

// GetUserByUID loads the profile owned by an identity
func (s *Store) GetUserByUID(ctx context.Context, uid string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("user_id = ?", uid).First(&user).Error; err != nil {
		return nil, translate(err, "get user by uid")
	}
	return &user, nil
}

// HandleExists reports whether a profile uses handle
func (s *Store) HandleExists(ctx context.Context, handle string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.User{}).Where("handle = ?", handle).Count(&count).Error
	return count > 0, translate(err, "check handle")
}

// UpdateUserDetails applies the non-empty fields of details
func (s *Store) UpdateUserDetails(ctx context.Context, handle string, details models.UserDetails) (*models.User, error) {
	return s.updateUser(ctx, handle, details.Updates())
}

// UpdateUserImage points the profile at a new image. The users/updated event it produces
// drives the author image propagation.
func (s *Store) UpdateUserImage(ctx context.Context, handle, imageURL string) (*models.User, error) {
	return s.updateUser(ctx, handle, map[string]any{"image_url": imageURL})
}

// SetUserVerified flips the verification flag on the profile owned by uid
func (s *Store) SetUserVerified(ctx context.Context, uid string, verified bool) (*models.User, error) {
	user, err := s.GetUserByUID(ctx, uid)
	if err != nil {
		return nil, err
	}
	return s.updateUser(ctx, user.Handle, map[string]any{"is_verified": verified})
}

func (s *Store) updateUser(ctx context.Context, handle string, updates map[string]any) (*models.User, error) {
	var user *models.User
	err := s.transact(ctx, func(tx *gorm.DB, changes *changeSet) error {
		var before models.User
		if err := tx.Where("handle = ?", handle).First(&before).Error; err != nil {
			return translate(err, "get user")
		}
		if len(updates) == 0 {
			user = &before
			return nil
		}
		if err := tx.Model(&models.User{}).Where("handle = ?", handle).Updates(updates).Error; err != nil {
			return translate(err, "update user")
		}

		var after models.User
		if err := tx.Where("handle = ?", handle).First(&after).Error; err != nil {
			return translate(err, "reload user")
		}
		user = &after
		return changes.record(events.Updated, models.CollectionUsers, handle, &before, &after)
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}
