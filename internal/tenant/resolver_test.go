package tenant

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/brokerkit/agent-portal/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestResolver(t *testing.T) *Resolver {
	t.Helper()
	registry := newTestRegistry(t)
	require.NoError(t, registry.Register(models.TenantConfig{
		ID:           "acme",
		AuthProvider: models.AuthProviderMemberSpace,
		Hosts:        []string{"acme.test"},
	}))
	require.NoError(t, registry.Register(models.TenantConfig{
		ID:    "coastal",
		Hosts: []string{"coastal.test"},
	}))
	return NewResolver(registry)
}

func TestResolve_Order(t *testing.T) {
	resolver := newTestResolver(t)

	tests := []struct {
		name   string
		target string
		host   string
		header string
		want   string
	}{
		{"header wins over host", "/v1/tenant", "acme.test", "coastal", "coastal"},
		{"query wins over host", "/v1/tenant?tenant=coastal", "acme.test", "", "coastal"},
		{"unknown header falls through to host", "/v1/tenant", "acme.test:8080", "nope", "acme"},
		{"host only", "/v1/tenant", "coastal.test", "", "coastal"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.target, nil)
			req.Host = tt.host
			if tt.header != "" {
				req.Header.Set(HeaderTenantID, tt.header)
			}

			got, err := resolver.Resolve(req)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.ID)
		})
	}
}

func TestResolve_NotFound(t *testing.T) {
	resolver := newTestResolver(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/tenant", nil)
	req.Host = "unknown.test"

	_, err := resolver.Resolve(req)
	assert.ErrorIs(t, err, models.ErrTenantNotFound)
}

func TestResolveOrDefault(t *testing.T) {
	resolver := newTestResolver(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/tenant", nil)
	req.Host = "unknown.test"

	got, fallback := resolver.ResolveOrDefault(req)
	require.NotNil(t, got)
	assert.True(t, fallback)
	assert.Equal(t, "default", got.ID)

	req.Host = "acme.test"
	got, fallback = resolver.ResolveOrDefault(req)
	assert.False(t, fallback)
	assert.Equal(t, "acme", got.ID)
}
