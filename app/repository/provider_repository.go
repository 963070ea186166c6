package repository

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/findmyridesa/provider-admin/app/models"
	"github.com/findmyridesa/provider-admin/internal/pkg/apperrors"
)

// providerRepository implements the ProviderRepository interface
type providerRepository struct {
	coll *mongo.Collection
}

// NewProviderRepository creates a new provider repository instance
func NewProviderRepository(docs *mongo.Database) ProviderRepository {
	return &providerRepository{coll: docs.Collection(models.ProviderCollection)}
}

func statusFilter(status string) bson.M {
	if status == "" {
		return bson.M{}
	}
	return bson.M{"status": status}
}

func providerFindOptions(q ProviderQuery) *options.FindOptions {
	opts := options.Find()
	if q.Ordered {
		opts.SetSort(bson.D{{Key: "createdAt", Value: -1}})
	}
	if q.Limit > 0 {
		opts.SetLimit(q.Limit)
	}
	return opts
}

// Count returns the number of providers, optionally restricted to a status.
func (r *providerRepository) Count(ctx context.Context, status string) (int64, error) {
	var (
		n   int64
		err error
	)
	if status == "" {
		n, err = r.coll.EstimatedDocumentCount(ctx)
	} else {
		n, err = r.coll.CountDocuments(ctx, statusFilter(status))
	}
	if err != nil {
		return 0, apperrors.Transport("count providers", err)
	}
	return n, nil
}

// List returns providers matching q.
func (r *providerRepository) List(ctx context.Context, q ProviderQuery) ([]models.Provider, error) {
	return r.find(ctx, statusFilter(q.Status), providerFindOptions(q))
}

// ListByStatus returns every provider with the given status.
func (r *providerRepository) ListByStatus(ctx context.Context, status string) ([]models.Provider, error) {
	return r.find(ctx, statusFilter(status), options.Find())
}

func (r *providerRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]models.Provider, error) {
	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, apperrors.Transport("find providers", err)
	}
	var providers []models.Provider
	if err := cur.All(ctx, &providers); err != nil {
		return nil, apperrors.Transport("decode providers", err)
	}
	for i := range providers {
		providers[i].Normalize()
	}
	return providers, nil
}

// GetByID retrieves a provider by its document id
func (r *providerRepository) GetByID(ctx context.Context, id string) (*models.Provider, error) {
	var p models.Provider
	err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&p)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apperrors.NewNotFoundError("provider", id)
	}
	if err != nil {
		return nil, apperrors.Transport("find provider", err)
	}
	p.Normalize()
	return &p, nil
}

// Update merges fields into the stored provider. Fields not named are kept.
func (r *providerRepository) Update(ctx context.Context, id string, fields map[string]interface{}) error {
	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": fields})
	if err != nil {
		return apperrors.Transport("update provider", err)
	}
	if res.MatchedCount == 0 {
		return apperrors.NewNotFoundError("provider", id)
	}
	return nil
}
