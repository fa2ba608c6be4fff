package tenant

import (
	"context"
	"fmt"
	"sort"

	"github.com/brokerkit/agent-portal/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// All returns a copy of every registered tenant sorted by id
func (r *Registry) All() []models.TenantConfig {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tenants := make([]models.TenantConfig, 0, len(r.tenants))
	for _, t := range r.tenants {
		tenants = append(tenants, *t)
	}
	sort.Slice(tenants, func(i, j int) bool { return tenants[i].ID < tenants[j].ID })
	return tenants
}

// StoreCollection upserts tenants into a MongoDB collection keyed by id and
// returns how many documents were inserted or changed
func StoreCollection(ctx context.Context, collection *mongo.Collection, tenants []models.TenantConfig) (int64, error) {
	if len(tenants) == 0 {
		return 0, nil
	}

	writes := make([]mongo.WriteModel, 0, len(tenants))
	for _, t := range tenants {
		writes = append(writes, mongo.NewReplaceOneModel().
			SetFilter(bson.M{"id": t.ID}).
			SetReplacement(t).
			SetUpsert(true))
	}

	result, err := collection.BulkWrite(ctx, writes, options.BulkWrite().SetOrdered(false))
	if err != nil {
		return 0, fmt.Errorf("failed to store tenants: %w", err)
	}
	return result.UpsertedCount + result.ModifiedCount, nil
}
