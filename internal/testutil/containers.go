// Package testutil starts throwaway MongoDB and Redis instances for
// integration tests.
package testutil

import (
	"context"
	"testing"

	"github.com/brokerkit/agent-portal/internal/redisclient"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/mongodb"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// skipWithoutDocker skips integration tests in -short mode or when no
// container runtime is reachable
func skipWithoutDocker(t *testing.T) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)
}

// StartMongo runs a MongoDB container and returns a database named name
func StartMongo(t *testing.T, name string) *mongo.Database {
	t.Helper()
	skipWithoutDocker(t)
	ctx := context.Background()

	container, err := mongodb.Run(ctx,
		"mongo:7.0",
		mongodb.WithUsername("root"),
		mongodb.WithPassword("password"),
	)
	require.NoError(t, err, "Failed to start MongoDB container")
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	uri, err := container.ConnectionString(ctx)
	require.NoError(t, err, "Failed to get MongoDB connection string")

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	require.NoError(t, err, "Failed to connect to MongoDB")
	t.Cleanup(func() { _ = client.Disconnect(context.Background()) })

	require.NoError(t, client.Ping(ctx, nil), "Failed to ping MongoDB")
	return client.Database(name)
}

// StartRedis runs a Redis container and returns a traced client for it
func StartRedis(t *testing.T) *redisclient.Client {
	t.Helper()
	skipWithoutDocker(t)
	ctx := context.Background()

	container, err := tcredis.Run(ctx, "redis:7-alpine")
	require.NoError(t, err, "Failed to start Redis container")
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	uri, err := container.ConnectionString(ctx)
	require.NoError(t, err, "Failed to get Redis connection string")

	opts, err := redis.ParseURL(uri)
	require.NoError(t, err, "Failed to parse Redis connection string")

	raw := redis.NewClient(opts)
	t.Cleanup(func() { _ = raw.Close() })

	client := redisclient.NewClient(raw)
	require.NoError(t, client.Ping(ctx).Err(), "Failed to ping Redis")
	return client
}

// CleanupDatabase drops all collections in db
func CleanupDatabase(t *testing.T, db *mongo.Database) {
	t.Helper()
	ctx := context.Background()
	collections, err := db.ListCollectionNames(ctx, map[string]interface{}{})
	require.NoError(t, err, "Failed to list collections")

	for _, collection := range collections {
		require.NoError(t, db.Collection(collection).Drop(ctx), "Failed to drop collection %s", collection)
	}
}
