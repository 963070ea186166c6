package repository

import (
	"context"
	"time"

	"github.com/findmyridesa/provider-admin/app/models"
)

// ProviderQuery scopes a provider listing.
type ProviderQuery struct {
	// Status filters on the lifecycle status; empty means every provider.
	Status string
	Limit  int64
	// Ordered sorts by createdAt descending.
	Ordered bool
}

// ReviewCursor marks the last review of the previous page.
type ReviewCursor struct {
	CreatedAt time.Time
	ID        string
}

// ProviderRepository defines provider access on the document store
type ProviderRepository interface {
	Count(ctx context.Context, status string) (int64, error)
	List(ctx context.Context, q ProviderQuery) ([]models.Provider, error)
	ListByStatus(ctx context.Context, status string) ([]models.Provider, error)
	GetByID(ctx context.Context, id string) (*models.Provider, error)
	Update(ctx context.Context, id string, fields map[string]interface{}) error
}

// ReviewRepository defines read access to provider reviews
type ReviewRepository interface {
	ListByProvider(ctx context.Context, providerID string, pageSize int64, after *ReviewCursor) ([]models.Review, error)
}

// ActivityLogRepository defines the append-only audit trail
type ActivityLogRepository interface {
	Append(ctx context.Context, entry *models.ActivityLog) error
	Recent(ctx context.Context, limit int64) ([]models.ActivityLog, error)
}

// UserRepository defines admin account lookups
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	TouchLastLogin(ctx context.Context, id uint, at time.Time) error
}

// AdminRegistryRepository defines the separate admin registry
type AdminRegistryRepository interface {
	IsRegistered(ctx context.Context, userID uint) (bool, error)
	Register(ctx context.Context, userID uint, grantedBy string) error
}

// Repositories struct holds all repository instances
type Repositories struct {
	Provider      ProviderRepository
	Review        ReviewRepository
	ActivityLog   ActivityLogRepository
	User          UserRepository
	AdminRegistry AdminRegistryRepository
}
