package tenant

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/brokerkit/agent-portal/internal/config"
	"github.com/brokerkit/agent-portal/internal/logging"
	"github.com/brokerkit/agent-portal/internal/models"
	"github.com/nyaruka/phonenumbers"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// defaultPhoneRegion is used for support phones written without a country code
const defaultPhoneRegion = "US"

// Registry holds every known tenant. It is filled once at startup and only
// read afterwards.
type Registry struct {
	mu        sync.RWMutex
	tenants   map[string]*models.TenantConfig
	hosts     map[string]string
	defaultID string
}

// NewRegistry creates a registry whose fallback is the given tenant
func NewRegistry(fallback models.TenantConfig) (*Registry, error) {
	r := &Registry{
		tenants:   make(map[string]*models.TenantConfig),
		hosts:     make(map[string]string),
		defaultID: fallback.ID,
	}
	if err := r.Register(fallback); err != nil {
		return nil, err
	}
	return r, nil
}

// DefaultTenant builds the hardcoded tenant used when nothing else resolves
func DefaultTenant(id string, hosts []string) models.TenantConfig {
	return models.TenantConfig{
		ID:           id,
		DisplayName:  "Agent Portal",
		AuthProvider: models.AuthProviderOther,
		Hosts:        hosts,
		Branding: models.Branding{
			PrimaryColor:   "#1f3a5f",
			SecondaryColor: "#f2a900",
		},
		Features: map[string]bool{
			models.FeatureProgressTracking: true,
		},
	}
}

// Register validates and stores a tenant, replacing any tenant with the same id
func (r *Registry) Register(t models.TenantConfig) error {
	t.ID = strings.TrimSpace(t.ID)
	if t.ID == "" {
		return fmt.Errorf("%w: missing id", models.ErrInvalidTenant)
	}
	if t.DisplayName == "" {
		t.DisplayName = t.ID
	}
	t.AuthProvider = models.ParseAuthProvider(string(t.AuthProvider))

	if t.Branding.SupportPhone != "" {
		phone, err := normalizePhone(t.Branding.SupportPhone)
		if err != nil {
			return fmt.Errorf("%w: tenant %s: %v", models.ErrInvalidTenant, t.ID, err)
		}
		t.Branding.SupportPhone = phone
	}

	hosts := make([]string, 0, len(t.Hosts))
	for _, h := range t.Hosts {
		if h = normalizeHost(h); h != "" {
			hosts = append(hosts, h)
		}
	}
	t.Hosts = hosts

	r.mu.Lock()
	defer r.mu.Unlock()

	if previous, ok := r.tenants[t.ID]; ok {
		for _, h := range previous.Hosts {
			delete(r.hosts, h)
		}
	}
	r.tenants[t.ID] = &t
	for _, h := range hosts {
		r.hosts[h] = t.ID
	}
	return nil
}

// Get returns the tenant with the given id
func (r *Registry) Get(id string) (*models.TenantConfig, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tenants[strings.TrimSpace(id)]
	return t, ok
}

// ByHost returns the tenant serving the given host
func (r *Registry) ByHost(host string) (*models.TenantConfig, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.hosts[normalizeHost(host)]
	if !ok {
		return nil, false
	}
	t, ok := r.tenants[id]
	return t, ok
}

// Default returns the fallback tenant
func (r *Registry) Default() *models.TenantConfig {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.tenants[r.defaultID]
}

// Len returns the number of registered tenants
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tenants)
}

// LoadFile registers every tenant of a JSON array file. Invalid entries are
// skipped and logged.
func (r *Registry) LoadFile(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("failed to read tenants file: %w", err)
	}

	var tenants []models.TenantConfig
	if err := json.Unmarshal(data, &tenants); err != nil {
		return 0, fmt.Errorf("failed to parse tenants file: %w", err)
	}

	return r.registerAll(tenants, "file"), nil
}

// LoadCollection registers every tenant stored in a MongoDB collection
func (r *Registry) LoadCollection(ctx context.Context, collection *mongo.Collection) (int, error) {
	cursor, err := collection.Find(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("failed to query tenants: %w", err)
	}
	defer cursor.Close(ctx)

	var tenants []models.TenantConfig
	if err := cursor.All(ctx, &tenants); err != nil {
		return 0, fmt.Errorf("failed to decode tenants: %w", err)
	}

	return r.registerAll(tenants, "mongodb"), nil
}

func (r *Registry) registerAll(tenants []models.TenantConfig, source string) int {
	loaded := 0
	for _, t := range tenants {
		if err := r.Register(t); err != nil {
			logging.Logger.Warn("skipping tenant",
				zap.String("source", source),
				zap.String("tenant_id", t.ID),
				zap.Error(err))
			continue
		}
		loaded++
	}
	return loaded
}

// LoadRegistry builds the registry from the built-in default tenant, the
// optional tenants file and the optional tenants collection, in that order.
// Failures of the optional sources are logged, never fatal.
func LoadRegistry(ctx context.Context, cfg *config.Config, db *mongo.Database) (*Registry, error) {
	registry, err := NewRegistry(DefaultTenant(cfg.DefaultTenantID, cfg.TenantHosts))
	if err != nil {
		return nil, err
	}

	if cfg.TenantsFile != "" {
		n, err := registry.LoadFile(cfg.TenantsFile)
		if err != nil {
			logging.Logger.Error("failed to load tenants file",
				zap.String("path", cfg.TenantsFile),
				zap.Error(err))
		} else {
			logging.Logger.Info("loaded tenants from file", zap.Int("count", n))
		}
	}

	if db != nil && cfg.TenantCollection != "" {
		n, err := registry.LoadCollection(ctx, db.Collection(cfg.TenantCollection))
		if err != nil {
			logging.Logger.Error("failed to load tenants collection",
				zap.String("collection", cfg.TenantCollection),
				zap.Error(err))
		} else {
			logging.Logger.Info("loaded tenants from mongodb", zap.Int("count", n))
		}
	}

	return registry, nil
}

// normalizePhone formats a phone number as E.164
func normalizePhone(raw string) (string, error) {
	num, err := phonenumbers.Parse(raw, defaultPhoneRegion)
	if err != nil {
		return "", fmt.Errorf("invalid support phone: %w", err)
	}
	if !phonenumbers.IsValidNumber(num) {
		return "", fmt.Errorf("invalid support phone %q", raw)
	}
	return phonenumbers.Format(num, phonenumbers.E164), nil
}

// normalizeHost lowercases a host and strips any port
func normalizeHost(host string) string {
	host = strings.ToLower(strings.TrimSpace(host))
	if i := strings.LastIndex(host, ":"); i != -1 && !strings.Contains(host[i:], "]") {
		host = host[:i]
	}
	return strings.TrimSuffix(host, ".")
}
