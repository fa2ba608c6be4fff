package middleware

import (
	"strconv"

	"github.com/brokerkit/agent-portal/internal/observability"
	"github.com/brokerkit/agent-portal/internal/tenant"
	"github.com/gin-gonic/gin"
)

// Tenant resolves the tenant of every request and stores it in the gin
// context. An unknown tenant never fails the request: the default is used.
func Tenant(resolver *tenant.Resolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		t, fallback := resolver.ResolveOrDefault(c.Request)
		tenant.SetContext(c, t, fallback)
		observability.TenantResolutions.WithLabelValues(t.ID, strconv.FormatBool(fallback)).Inc()
		c.Next()
	}
}
