package config

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/brokerkit/agent-portal/internal/logging"
	"github.com/brokerkit/agent-portal/internal/redisclient"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.opentelemetry.io/contrib/instrumentation/go.mongodb.org/mongo-driver/mongo/otelmongo"
	"go.uber.org/zap"
)

var (
	// MongoDB client
	MongoDB *mongo.Database
	// Redis client
	Redis *redisclient.Client
)

// Index names used by the progress and tenant collections
const (
	ProgressKeyIndex = "user_email_1_page_type_1_step_id_1"
	TenantIDIndex    = "id_1"
)

// InitMongoDB initializes the MongoDB connection
func InitMongoDB() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	opts := options.Client().
		ApplyURI(AppConfig.MongoURI).
		SetMonitor(otelmongo.NewMonitor()).
		SetMaxPoolSize(50).
		SetMinPoolSize(5).
		SetMaxConnIdleTime(5 * time.Minute).
		SetRetryWrites(true).
		SetRetryReads(true)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		return fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	MongoDB = client.Database(AppConfig.MongoDatabase)

	if err := EnsureIndexes(ctx, MongoDB); err != nil {
		logging.Logger.Error("failed to ensure indexes on startup", zap.Error(err))
	}
	startIndexMaintenance()

	logging.Logger.Info("connected to MongoDB",
		zap.String("uri", maskMongoURI(AppConfig.MongoURI)),
		zap.String("database", AppConfig.MongoDatabase),
	)
	return nil
}

// InitRedis initializes the Redis connection. A failed ping is logged, not
// returned: the service runs without cache until Redis comes back.
func InitRedis() {
	redisClient := redis.NewClient(&redis.Options{
		Addr:         AppConfig.RedisURI,
		Password:     AppConfig.RedisPassword,
		DB:           AppConfig.RedisDB,
		DialTimeout:  AppConfig.RedisDialTimeout,
		ReadTimeout:  AppConfig.RedisReadTimeout,
		WriteTimeout: AppConfig.RedisWriteTimeout,
		PoolSize:     AppConfig.RedisPoolSize,
		MinIdleConns: AppConfig.RedisMinIdleConns,
	})

	Redis = redisclient.NewClient(redisClient)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := Redis.Ping(ctx).Err(); err != nil {
		logging.Logger.Error("failed to connect to Redis",
			zap.String("uri", AppConfig.RedisURI),
			zap.Error(err))
		return
	}

	logging.Logger.Info("connected to Redis", zap.String("uri", AppConfig.RedisURI))
}

// maskMongoURI masks the credentials in a MongoDB URI
func maskMongoURI(uri string) string {
	at := strings.LastIndex(uri, "@")
	if at == -1 {
		return uri
	}
	scheme := "mongodb://"
	if strings.HasPrefix(uri, "mongodb+srv://") {
		scheme = "mongodb+srv://"
	}
	return scheme + "****:****@" + uri[at+1:]
}

// EnsureIndexes creates the indexes the service relies on if they are missing
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	logger := logging.Logger.Named("database")

	progress := mongo.IndexModel{
		Keys: bson.D{
			{Key: "user_email", Value: 1},
			{Key: "page_type", Value: 1},
			{Key: "step_id", Value: 1},
		},
		Options: options.Index().SetName(ProgressKeyIndex).SetUnique(true),
	}
	if err := ensureIndex(ctx, logger, db.Collection(AppConfig.ProgressCollection), progress); err != nil {
		return err
	}

	tenants := mongo.IndexModel{
		Keys:    bson.D{{Key: "id", Value: 1}},
		Options: options.Index().SetName(TenantIDIndex).SetUnique(true),
	}
	if err := ensureIndex(ctx, logger, db.Collection(AppConfig.TenantCollection), tenants); err != nil {
		return err
	}

	logger.Debug("all required indexes verified")
	return nil
}

// ensureIndex creates one index unless an index with the same name exists
func ensureIndex(ctx context.Context, logger *logging.SafeLogger, collection *mongo.Collection, model mongo.IndexModel) error {
	name := *model.Options.Name

	cursor, err := collection.Indexes().List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list indexes on %s: %w", collection.Name(), err)
	}
	defer cursor.Close(ctx)

	for cursor.Next(ctx) {
		var index bson.M
		if err := cursor.Decode(&index); err != nil {
			continue
		}
		if existing, ok := index["name"].(string); ok && existing == name {
			return nil
		}
	}

	if _, err := collection.Indexes().CreateOne(ctx, model); err != nil {
		// Another instance may have won the race
		if mongo.IsDuplicateKeyError(err) {
			return nil
		}
		return fmt.Errorf("failed to create index %s on %s: %w", name, collection.Name(), err)
	}

	logger.Info("created index",
		zap.String("collection", collection.Name()),
		zap.String("index", name))
	return nil
}

// startIndexMaintenance periodically re-checks indexes
func startIndexMaintenance() {
	if AppConfig.IndexMaintenanceInterval <= 0 {
		return
	}
	logger := logging.Logger.Named("database")

	go func() {
		ticker := time.NewTicker(AppConfig.IndexMaintenanceInterval)
		defer ticker.Stop()

		for range ticker.C {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			if err := EnsureIndexes(ctx, MongoDB); err != nil {
				logger.Error("periodic index check failed", zap.Error(err))
			}
			cancel()
		}
	}()

	logger.Info("started index maintenance routine",
		zap.Duration("interval", AppConfig.IndexMaintenanceInterval))
}
