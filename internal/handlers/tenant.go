package handlers

import (
	"net/http"

	"github.com/brokerkit/agent-portal/internal/tenant"
	"github.com/gin-gonic/gin"
)

// GetTenant godoc
// @Summary Current tenant
// @Description Returns the public view of the tenant resolved for this request. Unknown tenants resolve to the default one with fallback set.
// @Tags tenant
// @Produce json
// @Param X-Tenant-ID header string false "Tenant id"
// @Param tenant query string false "Tenant id"
// @Success 200 {object} models.TenantResponse
// @Failure 500 {object} ErrorResponse "Tenant middleware not installed"
// @Router /tenant [get]
func GetTenant(c *gin.Context) {
	t, fallback := tenant.FromContext(c)
	if t == nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "tenant not resolved"})
		return
	}
	c.JSON(http.StatusOK, t.ToResponse(fallback))
}
