package tenant

import (
	"github.com/brokerkit/agent-portal/internal/models"
	"github.com/gin-gonic/gin"
)

const (
	contextKey         = "tenant"
	contextFallbackKey = "tenant_fallback"
)

// SetContext stores the resolved tenant on the gin context
func SetContext(c *gin.Context, t *models.TenantConfig, fallback bool) {
	c.Set(contextKey, t)
	c.Set(contextFallbackKey, fallback)
}

// FromContext returns the tenant stored by the tenant middleware. The bool
// reports whether the default tenant was substituted.
func FromContext(c *gin.Context) (*models.TenantConfig, bool) {
	value, exists := c.Get(contextKey)
	if !exists {
		return nil, false
	}
	t, ok := value.(*models.TenantConfig)
	if !ok {
		return nil, false
	}
	return t, c.GetBool(contextFallbackKey)
}
