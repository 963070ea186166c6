package repository

import (
	"sync"

	"go.mongodb.org/mongo-driver/mongo"
	"gorm.io/gorm"
)

// NewRepositories wires document store and SQL backed repositories.
func NewRepositories(db *gorm.DB, docs *mongo.Database) *Repositories {
	return &Repositories{
		Provider:      NewProviderRepository(docs),
		Review:        NewReviewRepository(docs),
		ActivityLog:   NewActivityLogRepository(docs),
		User:          NewUserRepository(db),
		AdminRegistry: NewAdminRegistryRepository(db),
	}
}

// Factory manages repository instances and ensures they are singletons
type Factory struct {
	db    *gorm.DB
	docs  *mongo.Database
	repos *Repositories
	once  sync.Once
}

// NewFactory creates a new repository factory
func NewFactory(db *gorm.DB, docs *mongo.Database) *Factory {
	return &Factory{
		db:   db,
		docs: docs,
	}
}

// GetRepositories returns a singleton instance of all repositories
func (f *Factory) GetRepositories() *Repositories {
	f.once.Do(func() {
		f.repos = NewRepositories(f.db, f.docs)
	})
	return f.repos
}

// Global factory instance
var globalFactory *Factory
var factoryOnce sync.Once

// InitializeFactory initializes the global repository factory
func InitializeFactory(db *gorm.DB, docs *mongo.Database) {
	factoryOnce.Do(func() {
		globalFactory = NewFactory(db, docs)
	})
}

// GetGlobalFactory returns the global repository factory instance
func GetGlobalFactory() *Factory {
	if globalFactory == nil {
		panic("Repository factory not initialized. Call InitializeFactory first.")
	}
	return globalFactory
}

// GetGlobalRepositories returns the global repositories instance
func GetGlobalRepositories() *Repositories {
	return GetGlobalFactory().GetRepositories()
}
