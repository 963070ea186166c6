// Package docstore connects to the MongoDB database holding the providers,
// reviews and activity_logs collections.
package docstore

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"

	"github.com/findmyridesa/provider-admin/internal/pkg/env"
)

const maxRetries = 5
const retryDelay = 5 * time.Second

var (
	client *mongo.Client
	db     *mongo.Database
)

// SetupDocStore connects to MongoDB, retrying while the server comes up.
func SetupDocStore(log *zap.Logger) {
	uri := env.GetEnv("MONGO_URI", "mongodb://localhost:27017")
	name := env.GetEnv("MONGO_DATABASE", "provideradmin")

	var err error
	for i := 0; i < maxRetries; i++ {
		client, err = connect(uri)
		if err == nil {
			db = client.Database(name)
			log.Info("connected to document store", zap.String("database", name))
			return
		}

		log.Warn("failed to connect to document store",
			zap.Int("attempt", i+1), zap.Int("max", maxRetries), zap.Error(err))
		if i < maxRetries-1 {
			time.Sleep(retryDelay)
		}
	}

	panic(fmt.Errorf("document store unavailable: %w", err))
}

func connect(uri string) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	c, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	if err := c.Ping(ctx, readpref.Primary()); err != nil {
		_ = c.Disconnect(context.Background())
		return nil, err
	}
	return c, nil
}

// GetDB returns the connected database, or nil before SetupDocStore ran.
func GetDB() *mongo.Database {
	return db
}

// Close disconnects the client.
func Close(ctx context.Context) error {
	if client == nil {
		return nil
	}
	return client.Disconnect(ctx)
}
