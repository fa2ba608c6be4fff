package main

import (
	"time"

	"github.com/brokerkit/agent-portal/internal/handlers"
	"github.com/brokerkit/agent-portal/internal/logging"
	"github.com/brokerkit/agent-portal/internal/middleware"
	"github.com/brokerkit/agent-portal/internal/tenant"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/brokerkit/agent-portal/docs"
)

type routerDeps struct {
	resolver       *tenant.Resolver
	sessions       handlers.SessionService
	progress       handlers.ProgressService
	checks         map[string]handlers.Pinger
	allowedOrigins []string
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", middleware.HeaderRequestID, tenant.HeaderTenantID, handlers.HeaderVendorToken},
		ExposeHeaders: []string{middleware.HeaderRequestID, "Retry-After"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}

func newRouter(deps routerDeps) *gin.Engine {
	router := gin.New()
	router.Use(
		gin.Recovery(),
		middleware.RequestID(),
		middleware.RequestTiming(),
		middleware.RequestTracker(),
		cors.New(corsConfig(deps.allowedOrigins)),
	)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	v1 := router.Group("/v1")
	{
		v1.GET("/health", handlers.NewHealthHandlers(deps.checks).HealthCheck)

		scoped := v1.Group("")
		scoped.Use(middleware.Tenant(deps.resolver))

		scoped.GET("/tenant", handlers.GetTenant)

		sessionHandlers := handlers.NewSessionHandlers(deps.sessions, logging.Logger)
		scoped.POST("/session/resolve", sessionHandlers.ResolveSession)
		scoped.PUT("/session/:client_id/storage", sessionHandlers.SyncStorage)

		progressHandlers := handlers.NewProgressHandlers(deps.progress, logging.Logger)
		scoped.GET("/progress", progressHandlers.GetProgress)
		scoped.POST("/progress", progressHandlers.SetProgress)
		scoped.POST("/progress/toggle", progressHandlers.ToggleProgress)
	}

	return router
}
