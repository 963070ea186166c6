package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/findmyridesa/provider-admin/app/models"
	"github.com/findmyridesa/provider-admin/internal/pkg/apperrors"
)

// reviewRepository implements the ReviewRepository interface
type reviewRepository struct {
	coll *mongo.Collection
}

// NewReviewRepository creates a new review repository instance
func NewReviewRepository(docs *mongo.Database) ReviewRepository {
	return &reviewRepository{coll: docs.Collection(models.ReviewCollection)}
}

// reviewPageFilter selects the reviews of a provider that come after the
// cursor in (createdAt desc, _id desc) order.
//
// Review ids are decoded into strings, so an ObjectID reaches the cursor as
// its hex form. Mongo only compares ids of the same BSON type, so a hex id
// is matched both as an ObjectID and as a string.
func reviewPageFilter(providerID string, after *ReviewCursor) bson.M {
	filter := bson.M{"providerId": providerID}
	if after == nil {
		return filter
	}
	or := bson.A{bson.M{"createdAt": bson.M{"$lt": after.CreatedAt}}}
	if oid, err := primitive.ObjectIDFromHex(after.ID); err == nil {
		or = append(or, bson.M{"createdAt": after.CreatedAt, "_id": bson.M{"$lt": oid}})
	}
	or = append(or, bson.M{"createdAt": after.CreatedAt, "_id": bson.M{"$lt": after.ID}})
	filter["$or"] = or
	return filter
}

// ListByProvider returns one page of reviews, newest first.
func (r *reviewRepository) ListByProvider(ctx context.Context, providerID string, pageSize int64, after *ReviewCursor) ([]models.Review, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(pageSize)

	cur, err := r.coll.Find(ctx, reviewPageFilter(providerID, after), opts)
	if err != nil {
		return nil, apperrors.Transport("find reviews", err)
	}
	var reviews []models.Review
	if err := cur.All(ctx, &reviews); err != nil {
		return nil, apperrors.Transport("decode reviews", err)
	}
	return reviews, nil
}
