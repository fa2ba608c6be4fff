package main

import (
	"context"
	"log"
	"time"

	"github.com/brokerkit/agent-portal/internal/config"
	"github.com/brokerkit/agent-portal/internal/logging"
	"github.com/brokerkit/agent-portal/internal/tenant"
	"go.uber.org/zap"
)

// Seeds the tenants collection from TENANTS_FILE so that every API instance
// loads the same tenant set from MongoDB.
func main() {
	if err := config.LoadConfig(); err != nil {
		log.Fatal("Failed to load config:", err)
	}

	if err := logging.InitLogger(); err != nil {
		log.Fatal("Failed to initialize logger:", err)
	}
	defer logging.Logger.Sync()

	if config.AppConfig.TenantsFile == "" {
		logging.Logger.Fatal("TENANTS_FILE is required")
	}

	if err := config.InitMongoDB(); err != nil {
		logging.Logger.Fatal("failed to initialize MongoDB", zap.Error(err))
	}

	registry, err := tenant.NewRegistry(tenant.DefaultTenant(config.AppConfig.DefaultTenantID, config.AppConfig.TenantHosts))
	if err != nil {
		logging.Logger.Fatal("invalid default tenant", zap.Error(err))
	}

	loaded, err := registry.LoadFile(config.AppConfig.TenantsFile)
	if err != nil {
		logging.Logger.Fatal("failed to load tenants file",
			zap.String("path", config.AppConfig.TenantsFile),
			zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	stored, err := tenant.StoreCollection(ctx, config.MongoDB.Collection(config.AppConfig.TenantCollection), registry.All())
	if err != nil {
		logging.Logger.Fatal("failed to store tenants", zap.Error(err))
	}

	logging.Logger.Info("tenant sync finished",
		zap.Int("loaded", loaded),
		zap.Int64("stored", stored),
		zap.String("collection", config.AppConfig.TenantCollection))
}
