package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/brokerkit/agent-portal/internal/config"
	"github.com/brokerkit/agent-portal/internal/handlers"
	"github.com/brokerkit/agent-portal/internal/logging"
	"github.com/brokerkit/agent-portal/internal/observability"
	"github.com/brokerkit/agent-portal/internal/services"
	"github.com/brokerkit/agent-portal/internal/session"
	"github.com/brokerkit/agent-portal/internal/tenant"
	"github.com/brokerkit/agent-portal/internal/utils/httpclient"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// @title           Agent Portal API
// @version         1.0
// @description     Tenant resolution, end-user session discovery and onboarding checklist progress for the agent portal.

// @contact.name   Platform Team
// @contact.email  platform@brokerkit.dev

// @host      localhost:8080
// @BasePath  /v1

// @tag.name tenant
// @tag.description Tenant resolution

// @tag.name session
// @tag.description Identity discovery for the current page

// @tag.name progress
// @tag.description Onboarding checklist progress

// @tag.name health
// @tag.description Health check operations

func main() {
	if err := logging.InitLogger(); err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	defer logging.Logger.Sync()

	if err := config.LoadConfig(); err != nil {
		logging.Logger.Fatal("failed to load config", zap.Error(err))
	}

	observability.InitTracer(config.AppConfig)
	defer observability.ShutdownTracer()

	if err := config.InitMongoDB(); err != nil {
		logging.Logger.Fatal("failed to initialize MongoDB", zap.Error(err))
	}
	config.InitRedis()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	registry, err := tenant.LoadRegistry(ctx, config.AppConfig, config.MongoDB)
	cancel()
	if err != nil {
		logging.Logger.Fatal("failed to load tenants", zap.Error(err))
	}
	logging.Logger.Info("tenants loaded", zap.Int("count", registry.Len()))

	pool := httpclient.NewHTTPClientPool(20, config.AppConfig.VendorHTTPTimeout)
	defer pool.Close()

	services.InitProgressService()
	sessions := session.NewService(config.Redis, pool, session.OptionsFromConfig(config.AppConfig))

	if config.AppConfig.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := newRouter(routerDeps{
		resolver: tenant.NewResolver(registry),
		sessions: sessions,
		progress: services.ProgressServiceInstance,
		checks: map[string]handlers.Pinger{
			"mongodb": func(ctx context.Context) error { return config.MongoDB.Client().Ping(ctx, nil) },
			"redis":   func(ctx context.Context) error { return config.Redis.Ping(ctx).Err() },
		},
		allowedOrigins: config.AppConfig.CORSAllowedOrigins,
	})

	// A session resolve may legitimately hold the connection for SessionMaxWait
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", config.AppConfig.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: config.AppConfig.SessionMaxWait + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logging.Logger.Info("starting server",
			zap.Int("port", config.AppConfig.Port),
			zap.String("environment", config.AppConfig.Environment),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.Logger.Fatal("failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logging.Logger.Info("shutting down server...")
	ctx, cancel = context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logging.Logger.Fatal("server forced to shutdown", zap.Error(err))
	}

	logging.Logger.Info("server exited gracefully")
}
