package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/findmyridesa/provider-admin/app/models"
	"github.com/findmyridesa/provider-admin/internal/pkg/apperrors"
)

// adminRegistryRepository implements the AdminRegistryRepository interface
type adminRegistryRepository struct {
	db *gorm.DB
}

// NewAdminRegistryRepository creates a new admin registry repository instance
func NewAdminRegistryRepository(db *gorm.DB) AdminRegistryRepository {
	return &adminRegistryRepository{db: db}
}

// IsRegistered reports whether the user is listed in the admin registry
func (r *adminRegistryRepository) IsRegistered(ctx context.Context, userID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Admin{}).Where("user_id = ?", userID).Count(&count).Error
	if err != nil {
		return false, apperrors.Transport("query admin registry", err)
	}
	return count > 0, nil
}

// Register adds a user to the admin registry
func (r *adminRegistryRepository) Register(ctx context.Context, userID uint, grantedBy string) error {
	admin := &models.Admin{UserID: userID, GrantedBy: grantedBy}
	return apperrors.Transport("register admin", r.db.WithContext(ctx).Create(admin).Error)
}
