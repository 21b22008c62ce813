package database

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/apifoundry/apifoundry/internal/config"
)

const usersCollection = "users"

// Connect opens the directory database described by cfg and verifies it with
// a ping before returning. The caller owns the client and must Disconnect it
// on shutdown; cfg.Timeout bounds both the dial and the ping.
func Connect(ctx context.Context, cfg config.MongoDBConfig) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("connect to mongodb: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}
	return client, nil
}

// Users returns the user directory collection within the configured database.
func Users(client *mongo.Client, cfg config.MongoDBConfig) *mongo.Collection {
	return client.Database(cfg.Database).Collection(usersCollection)
}
