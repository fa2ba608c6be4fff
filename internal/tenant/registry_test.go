package tenant

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/brokerkit/agent-portal/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	registry, err := NewRegistry(DefaultTenant("default", []string{"portal.local"}))
	require.NoError(t, err)
	return registry
}

func TestNewRegistry_RegistersDefault(t *testing.T) {
	registry := newTestRegistry(t)

	def := registry.Default()
	require.NotNil(t, def)
	assert.Equal(t, "default", def.ID)
	assert.Equal(t, models.AuthProviderOther, def.AuthProvider)
	assert.Equal(t, 1, registry.Len())
}

func TestRegister_NormalizesTenant(t *testing.T) {
	registry := newTestRegistry(t)

	err := registry.Register(models.TenantConfig{
		ID:           " acme ",
		AuthProvider: "MemberSpace",
		Hosts:        []string{"Acme-Realty.com:443", ""},
		Branding:     models.Branding{SupportPhone: "(201) 555-0123"},
	})
	require.NoError(t, err)

	acme, ok := registry.Get("acme")
	require.True(t, ok)
	assert.Equal(t, "acme", acme.DisplayName)
	assert.Equal(t, models.AuthProviderMemberSpace, acme.AuthProvider)
	assert.Equal(t, []string{"acme-realty.com"}, acme.Hosts)
	assert.Equal(t, "+12015550123", acme.Branding.SupportPhone)

	byHost, ok := registry.ByHost("ACME-REALTY.COM:8443")
	require.True(t, ok)
	assert.Equal(t, "acme", byHost.ID)
}

func TestRegister_InvalidTenant(t *testing.T) {
	registry := newTestRegistry(t)

	err := registry.Register(models.TenantConfig{ID: "  "})
	assert.ErrorIs(t, err, models.ErrInvalidTenant)

	err = registry.Register(models.TenantConfig{ID: "broken", Branding: models.Branding{SupportPhone: "12"}})
	assert.ErrorIs(t, err, models.ErrInvalidTenant)

	_, ok := registry.Get("broken")
	assert.False(t, ok)
}

func TestRegister_ReplacesHosts(t *testing.T) {
	registry := newTestRegistry(t)

	require.NoError(t, registry.Register(models.TenantConfig{ID: "acme", Hosts: []string{"old.acme.test"}}))
	require.NoError(t, registry.Register(models.TenantConfig{ID: "acme", Hosts: []string{"new.acme.test"}}))

	_, ok := registry.ByHost("old.acme.test")
	assert.False(t, ok)
	_, ok = registry.ByHost("new.acme.test")
	assert.True(t, ok)
}

func TestLoadFile(t *testing.T) {
	registry := newTestRegistry(t)

	path := filepath.Join(t.TempDir(), "tenants.json")
	content := `[
		{"id": "acme", "display_name": "Acme Realty", "auth_provider": "memberspace",
		 "hosts": ["acme.test"], "member_accessor": "getMemberInfo",
		 "features": {"save_to_profile": true}},
		{"id": "", "display_name": "no id"},
		{"id": "coastal", "auth_provider": "supabase"}
	]`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	n, err := registry.LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	acme, ok := registry.Get("acme")
	require.True(t, ok)
	assert.Equal(t, "getMemberInfo", acme.MemberAccessor)
	assert.True(t, acme.FeatureEnabled(models.FeatureSaveToProfile))

	coastal, ok := registry.Get("coastal")
	require.True(t, ok)
	assert.Equal(t, models.AuthProviderOther, coastal.AuthProvider)
}

func TestLoadFile_Errors(t *testing.T) {
	registry := newTestRegistry(t)

	_, err := registry.LoadFile(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))
	_, err = registry.LoadFile(path)
	assert.Error(t, err)
}

func TestNormalizeHost(t *testing.T) {
	tests := map[string]string{
		"Portal.Example.com":      "portal.example.com",
		"portal.example.com:8080": "portal.example.com",
		"portal.example.com.":     "portal.example.com",
		"[::1]:8080":              "[::1]",
		"[::1]":                   "[::1]",
		"  ":                      "",
	}
	for in, want := range tests {
		assert.Equal(t, want, normalizeHost(in), in)
	}
}
