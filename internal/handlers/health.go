package handlers

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/brokerkit/agent-portal/internal/observability"
	"github.com/brokerkit/agent-portal/internal/utils"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Pinger checks one dependency
type Pinger func(ctx context.Context) error

// HealthHandlers reports dependency health
type HealthHandlers struct {
	checks map[string]Pinger
}

// NewHealthHandlers creates health handlers for the named dependency checks
func NewHealthHandlers(checks map[string]Pinger) *HealthHandlers {
	return &HealthHandlers{checks: checks}
}

// HealthCheck godoc
// @Summary Health check
// @Description Pings MongoDB and Redis and reports the status of each
// @Tags health
// @Produce json
// @Success 200 {object} HealthResponse "All dependencies are healthy"
// @Failure 503 {object} HealthResponse "At least one dependency is unavailable"
// @Router /health [get]
func (h *HealthHandlers) HealthCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	health := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now(),
		Services:  make(map[string]string, len(h.checks)),
	}

	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		spanCtx, span, finish := utils.TraceExternalService(ctx, name, "ping")
		err := h.checks[name](spanCtx)
		if err != nil {
			utils.RecordErrorInSpan(span, err, map[string]interface{}{"service.status": "unhealthy"})
			observability.Logger().Warn("dependency unhealthy",
				zap.String("service", name),
				zap.Error(err))
			health.Status = "unhealthy"
			health.Services[name] = "unhealthy"
		} else {
			health.Services[name] = "healthy"
		}
		finish()
	}

	if health.Status != "healthy" {
		c.JSON(http.StatusServiceUnavailable, health)
		return
	}
	c.JSON(http.StatusOK, health)
}
