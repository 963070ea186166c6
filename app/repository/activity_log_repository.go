package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/findmyridesa/provider-admin/app/models"
	"github.com/findmyridesa/provider-admin/internal/pkg/apperrors"
)

// activityLogRepository implements the ActivityLogRepository interface
type activityLogRepository struct {
	coll *mongo.Collection
}

// NewActivityLogRepository creates a new activity log repository instance
func NewActivityLogRepository(docs *mongo.Database) ActivityLogRepository {
	return &activityLogRepository{coll: docs.Collection(models.ActivityLogCollection)}
}

// Append inserts a new audit entry. Entries are never updated.
func (r *activityLogRepository) Append(ctx context.Context, entry *models.ActivityLog) error {
	if _, err := r.coll.InsertOne(ctx, entry); err != nil {
		return apperrors.Transport("append activity log", err)
	}
	return nil
}

// Recent returns the newest entries first.
func (r *activityLogRepository) Recent(ctx context.Context, limit int64) ([]models.ActivityLog, error) {
	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: -1}})
	if limit > 0 {
		opts.SetLimit(limit)
	}
	cur, err := r.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, apperrors.Transport("find activity logs", err)
	}
	var logs []models.ActivityLog
	if err := cur.All(ctx, &logs); err != nil {
		return nil, apperrors.Transport("decode activity logs", err)
	}
	return logs, nil
}
