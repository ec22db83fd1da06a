package bootstrap

import (
	"context"

	"artfeed/internal/cache"
	"artfeed/internal/models"
	"artfeed/internal/repository"

	"gorm.io/gorm"
)

// SetAdmin grants or revokes admin rights for username and reports whether
// anything changed.
func SetAdmin(ctx context.Context, db *gorm.DB, username string, admin bool) (bool, error) {
	users := repository.NewUserRepository(db)
	user, err := users.GetByUsername(ctx, username)
	if err != nil {
		return false, err
	}
	if user == nil {
		return false, models.NewNotFoundError("User", username)
	}
	if user.IsAdmin == admin {
		return false, nil
	}

	user.IsAdmin = admin
	if err := users.Update(ctx, user); err != nil {
		return false, err
	}
	cache.InvalidateAccount(ctx, user.ID, user.Username)
	return true, nil
}

// ListAdmins returns every admin user ordered by id.
func ListAdmins(ctx context.Context, db *gorm.DB) ([]models.User, error) {
	var admins []models.User
	if err := db.WithContext(ctx).Where("is_admin = ?", true).Order("id").Find(&admins).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return admins, nil
}
