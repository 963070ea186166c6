package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestStatusFilter(t *testing.T) {
	assert.Equal(t, bson.M{}, statusFilter(""))
	assert.Equal(t, bson.M{"status": "pending"}, statusFilter("pending"))
}

func TestProviderFindOptions(t *testing.T) {
	ordered := providerFindOptions(ProviderQuery{Status: "active", Limit: 20, Ordered: true})
	require.NotNil(t, ordered.Limit)
	assert.Equal(t, int64(20), *ordered.Limit)
	assert.Equal(t, bson.D{{Key: "createdAt", Value: -1}}, ordered.Sort)

	fallback := providerFindOptions(ProviderQuery{Status: "active", Limit: 20})
	assert.Nil(t, fallback.Sort)
	assert.Equal(t, int64(20), *fallback.Limit)

	unlimited := providerFindOptions(ProviderQuery{})
	assert.Nil(t, unlimited.Limit)
}

func TestReviewPageFilter(t *testing.T) {
	assert.Equal(t, bson.M{"providerId": "p1"}, reviewPageFilter("p1", nil))

	ts := time.Date(2024, 2, 1, 8, 0, 0, 0, time.UTC)
	filter := reviewPageFilter("p1", &ReviewCursor{CreatedAt: ts, ID: "r9"})
	assert.Equal(t, "p1", filter["providerId"])
	assert.Equal(t, bson.A{
		bson.M{"createdAt": bson.M{"$lt": ts}},
		bson.M{"createdAt": ts, "_id": bson.M{"$lt": "r9"}},
	}, filter["$or"])
}

func TestReviewPageFilterObjectID(t *testing.T) {
	ts := time.Date(2024, 2, 1, 8, 0, 0, 0, time.UTC)
	oid := primitive.NewObjectIDFromTimestamp(ts)

	filter := reviewPageFilter("p1", &ReviewCursor{CreatedAt: ts, ID: oid.Hex()})
	assert.Equal(t, bson.A{
		bson.M{"createdAt": bson.M{"$lt": ts}},
		bson.M{"createdAt": ts, "_id": bson.M{"$lt": oid}},
		bson.M{"createdAt": ts, "_id": bson.M{"$lt": oid.Hex()}},
	}, filter["$or"])
}
