package tenant

import (
	"net/http"
	"strings"

	"github.com/brokerkit/agent-portal/internal/logging"
	"github.com/brokerkit/agent-portal/internal/models"
	"go.uber.org/zap"
)

// Request inputs consulted when resolving a tenant
const (
	HeaderTenantID = "X-Tenant-ID"
	QueryTenantID  = "tenant"
)

// Resolver maps an incoming request onto a tenant
type Resolver struct {
	registry *Registry
	logger   *logging.SafeLogger
}

// NewResolver creates a resolver backed by the registry
func NewResolver(registry *Registry) *Resolver {
	return &Resolver{
		registry: registry,
		logger:   logging.Logger.Named("tenant"),
	}
}

// Registry returns the backing registry
func (r *Resolver) Registry() *Registry {
	return r.registry
}

// Resolve looks at the tenant header, the tenant query parameter and the
// request host, in that order.
func (r *Resolver) Resolve(req *http.Request) (*models.TenantConfig, error) {
	if id := strings.TrimSpace(req.Header.Get(HeaderTenantID)); id != "" {
		if t, ok := r.registry.Get(id); ok {
			return t, nil
		}
	}
	if id := strings.TrimSpace(req.URL.Query().Get(QueryTenantID)); id != "" {
		if t, ok := r.registry.Get(id); ok {
			return t, nil
		}
	}
	if t, ok := r.registry.ByHost(req.Host); ok {
		return t, nil
	}
	return nil, models.ErrTenantNotFound
}

// ResolveOrDefault never fails: an unknown tenant degrades to the default
// one. The bool reports whether the fallback was used.
func (r *Resolver) ResolveOrDefault(req *http.Request) (*models.TenantConfig, bool) {
	t, err := r.Resolve(req)
	if err == nil {
		return t, false
	}

	r.logger.Warn("tenant not resolved, using default",
		zap.String("host", req.Host),
		zap.String("tenant_header", req.Header.Get(HeaderTenantID)),
		zap.String("default_tenant", r.registry.defaultID))
	return r.registry.Default(), true
}
