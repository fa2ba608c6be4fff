package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/brokerkit/agent-portal/internal/config"
	"github.com/brokerkit/agent-portal/internal/logging"
	"github.com/brokerkit/agent-portal/internal/models"
	"github.com/brokerkit/agent-portal/internal/observability"
	"github.com/brokerkit/agent-portal/internal/redisclient"
	"github.com/brokerkit/agent-portal/internal/utils"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// ProgressService persists checklist completion per (user, page, step)
type ProgressService struct {
	collection *mongo.Collection
	cache      *redisclient.Client
	cacheTTL   time.Duration
	logger     *logging.SafeLogger
}

// NewProgressService creates a progress service. cache may be nil.
func NewProgressService(database *mongo.Database, collection string, cache *redisclient.Client, cacheTTL time.Duration, logger *logging.SafeLogger) *ProgressService {
	return &ProgressService{
		collection: database.Collection(collection),
		cache:      cache,
		cacheTTL:   cacheTTL,
		logger:     logger.Named("progress_service"),
	}
}

// ProgressServiceInstance is the global progress service
var ProgressServiceInstance *ProgressService

// InitProgressService initializes the global progress service from the app config
func InitProgressService() {
	ProgressServiceInstance = NewProgressService(
		config.MongoDB,
		config.AppConfig.ProgressCollection,
		config.Redis,
		config.AppConfig.ProgressCacheTTL,
		logging.Logger,
	)
	logging.Logger.Info("progress service initialized",
		zap.String("collection", config.AppConfig.ProgressCollection))
}

// progressCacheKey is the read-through cache key of one user's page
func progressCacheKey(email, pageType string) string {
	return fmt.Sprintf("progress:%s:%s", email, pageType)
}

// Load returns the completion flags of every step the user touched on a
// page. An empty email means no identity yet and yields an empty result.
func (s *ProgressService) Load(ctx context.Context, userEmail, pageType string) ([]models.StepState, error) {
	email := models.NormalizeEmail(userEmail)
	if email == "" {
		return []models.StepState{}, nil
	}
	pageType = strings.TrimSpace(pageType)
	if err := models.ValidateProgressScope(email, pageType); err != nil {
		return nil, err
	}

	cacheKey := progressCacheKey(email, pageType)
	if steps, ok := s.readCache(ctx, cacheKey); ok {
		return steps, nil
	}

	ctx, span, finish := utils.TraceDatabaseOperation(ctx, "find", s.collection.Name(), true)
	defer finish()

	filter := bson.M{"user_email": email, "page_type": pageType}
	opts := options.Find().
		SetSort(bson.D{{Key: "step_id", Value: 1}}).
		SetProjection(bson.M{"step_id": 1, "completed": 1})

	cursor, err := s.collection.Find(ctx, filter, opts)
	if err != nil {
		utils.RecordErrorInSpan(span, err, map[string]interface{}{"page_type": pageType})
		observability.DatabaseOperations.WithLabelValues("progress_find", "error").Inc()
		s.logger.Error("failed to load progress",
			zap.String("email", observability.MaskEmail(email)),
			zap.String("page_type", pageType),
			zap.Error(err))
		return nil, fmt.Errorf("failed to load progress: %w", err)
	}
	defer cursor.Close(ctx)

	var records []models.ProgressRecord
	if err := cursor.All(ctx, &records); err != nil {
		observability.DatabaseOperations.WithLabelValues("progress_find", "error").Inc()
		return nil, fmt.Errorf("failed to decode progress: %w", err)
	}
	observability.DatabaseOperations.WithLabelValues("progress_find", "success").Inc()

	steps := make([]models.StepState, 0, len(records))
	for _, record := range records {
		steps = append(steps, models.StepState{StepID: record.StepID, Completed: record.Completed})
	}
	utils.AddSpanAttribute(span, "progress.steps", len(steps))

	s.writeCache(ctx, cacheKey, steps)
	return steps, nil
}

// toggleUpdate flips completed server-side. A missing record starts as
// not completed, so the first toggle stores true.
func toggleUpdate(tenantID string) mongo.Pipeline {
	set := bson.D{
		{Key: "completed", Value: bson.D{{Key: "$not", Value: bson.A{
			bson.D{{Key: "$ifNull", Value: bson.A{"$completed", false}}},
		}}}},
		{Key: "created_at", Value: bson.D{{Key: "$ifNull", Value: bson.A{"$created_at", "$$NOW"}}}},
		{Key: "updated_at", Value: "$$NOW"},
	}
	if tenantID != "" {
		set = append(set, bson.E{Key: "tenant_id", Value: tenantID})
	}
	return mongo.Pipeline{{{Key: "$set", Value: set}}}
}

// Toggle flips the completion flag of one step and returns the stored value
func (s *ProgressService) Toggle(ctx context.Context, tenantID, userEmail, pageType, stepID string) (*models.ProgressRecord, error) {
	return s.write(ctx, "toggle", userEmail, pageType, stepID, func() interface{} {
		return toggleUpdate(tenantID)
	})
}

// Set stores an explicit completion flag for one step
func (s *ProgressService) Set(ctx context.Context, tenantID, userEmail, pageType, stepID string, completed bool) (*models.ProgressRecord, error) {
	return s.write(ctx, "set", userEmail, pageType, stepID, func() interface{} {
		now := time.Now().UTC()
		set := bson.M{"completed": completed, "updated_at": now}
		if tenantID != "" {
			set["tenant_id"] = tenantID
		}
		return bson.M{
			"$set":         set,
			"$setOnInsert": bson.M{"created_at": now},
		}
	})
}

// write upserts the record keyed by (email, page, step). Only that record is
// touched, and the page cache is dropped afterwards.
func (s *ProgressService) write(ctx context.Context, kind, userEmail, pageType, stepID string, update func() interface{}) (*models.ProgressRecord, error) {
	email := models.NormalizeEmail(userEmail)
	pageType = strings.TrimSpace(pageType)
	stepID = strings.TrimSpace(stepID)
	if err := models.ValidateProgressKey(email, pageType, stepID); err != nil {
		return nil, err
	}

	filter := bson.M{"user_email": email, "page_type": pageType, "step_id": stepID}

	ctx, span, finish := utils.TraceDatabaseUpsert(ctx, s.collection.Name(), filter)
	defer finish()
	utils.AddSpanAttribute(span, "progress.kind", kind)

	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var record models.ProgressRecord
	err := s.collection.FindOneAndUpdate(ctx, filter, update(), opts).Decode(&record)
	if mongo.IsDuplicateKeyError(err) {
		// Two first writes raced on the unique key; the loser retries as an update
		err = s.collection.FindOneAndUpdate(ctx, filter, update(), opts).Decode(&record)
	}
	if err != nil {
		utils.RecordErrorInSpan(span, err, map[string]interface{}{"progress.step_id": stepID})
		observability.ProgressWrites.WithLabelValues(kind, "error").Inc()
		s.logger.Error("failed to write progress",
			zap.String("kind", kind),
			zap.String("email", observability.MaskEmail(email)),
			zap.String("page_type", pageType),
			zap.String("step_id", stepID),
			zap.Error(err))
		return nil, fmt.Errorf("%w: %v", models.ErrPersistenceWriteFailed, err)
	}

	observability.ProgressWrites.WithLabelValues(kind, "success").Inc()
	utils.AddSpanAttribute(span, "progress.completed", record.Completed)
	s.invalidateCache(ctx, progressCacheKey(email, pageType))

	return &record, nil
}

func (s *ProgressService) readCache(ctx context.Context, key string) ([]models.StepState, bool) {
	if s.cache == nil {
		return nil, false
	}

	ctx, _, finish := utils.TraceCacheOperation(ctx, "get", key)
	defer finish()

	cached, err := s.cache.Get(ctx, key).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.logger.Warn("progress cache read failed", zap.Error(err))
		}
		observability.CacheHits.WithLabelValues("progress_load", "miss").Inc()
		return nil, false
	}

	var steps []models.StepState
	if err := json.Unmarshal([]byte(cached), &steps); err != nil {
		s.logger.Warn("failed to unmarshal cached progress", zap.Error(err))
		observability.CacheHits.WithLabelValues("progress_load", "miss").Inc()
		return nil, false
	}

	observability.CacheHits.WithLabelValues("progress_load", "hit").Inc()
	return steps, true
}

func (s *ProgressService) writeCache(ctx context.Context, key string, steps []models.StepState) {
	if s.cache == nil {
		return
	}
	data, err := json.Marshal(steps)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, string(data), s.cacheTTL).Err(); err != nil {
		s.logger.Warn("failed to cache progress", zap.Error(err))
	}
}

func (s *ProgressService) invalidateCache(ctx context.Context, key string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, key).Err(); err != nil {
		s.logger.Warn("failed to invalidate progress cache",
			zap.String("cache_key", key),
			zap.Error(err))
	}
}
