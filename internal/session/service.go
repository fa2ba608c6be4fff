package session

import (
	"context"
	"fmt"
	"time"

	"github.com/brokerkit/agent-portal/internal/config"
	"github.com/brokerkit/agent-portal/internal/logging"
	"github.com/brokerkit/agent-portal/internal/models"
	"github.com/brokerkit/agent-portal/internal/observability"
	"github.com/brokerkit/agent-portal/internal/redisclient"
	"github.com/brokerkit/agent-portal/internal/utils"
	"github.com/brokerkit/agent-portal/internal/utils/httpclient"
	"go.uber.org/zap"
)

// IdentityFeatures are switched off while no identity is resolved
var IdentityFeatures = []string{
	models.FeatureSaveToProfile,
	models.FeatureProgressTracking,
}

// Options tunes the polling loop and the storage mirror
type Options struct {
	Interval      time.Duration
	MaxWait       time.Duration
	StorageTTL    time.Duration
	SubstringScan bool
}

// OptionsFromConfig reads the session settings of the application config
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Interval:      cfg.SessionPollInterval,
		MaxWait:       cfg.SessionMaxWait,
		StorageTTL:    cfg.SessionStorageTTL,
		SubstringScan: cfg.SessionSubstringScan,
	}
}

// Service resolves end-user identities for tenants
type Service struct {
	redis  *redisclient.Client
	pool   *httpclient.HTTPClientPool
	opts   Options
	logger *logging.SafeLogger
}

// NewService creates a session service. redis may be nil, in which case the
// storage fallback and the email cache are skipped.
func NewService(redis *redisclient.Client, pool *httpclient.HTTPClientPool, opts Options) *Service {
	return &Service{
		redis:  redis,
		pool:   pool,
		opts:   opts,
		logger: logging.Logger.Named("session"),
	}
}

// Probes builds the ordered probe list for one resolution: the tenant
// accessor, then the generic accessors, then mirrored browser storage.
func (s *Service) Probes(t *models.TenantConfig, req models.SessionResolveRequest, vendorToken string) []IdentityProbe {
	var object VendorObject
	switch {
	case len(req.Vendor) > 0:
		object = MapVendorObject(req.Vendor)
	case t.MemberSourceURL != "":
		object = NewHTTPVendorObject(t.MemberSourceURL, vendorToken, s.pool, s.opts.Interval/2)
	}

	var probes []IdentityProbe
	if object != nil {
		if t.MemberAccessor != "" {
			probes = append(probes, NewTenantAccessorProbe(object, t.MemberAccessor))
		}
		probes = append(probes, NewGenericAccessorProbe(object))
	}

	if s.redis != nil && req.ClientID != "" {
		probes = append(probes, NewStorageProbe(s.stores(req.ClientID), s.opts.SubstringScan))
	}
	return probes
}

func (s *Service) stores(clientID string) []KVStore {
	return []KVStore{
		NewRedisStore(s.redis, clientID, models.StorageScopeLocal, s.opts.StorageTTL),
		NewRedisStore(s.redis, clientID, models.StorageScopeSession, s.opts.StorageTTL),
	}
}

// NewResolverFor wires a resolver for the tenant
func (s *Service) NewResolverFor(t *models.TenantConfig, probes []IdentityProbe) *Resolver {
	return NewResolver(t.AuthProvider, probes, s.opts.Interval, s.opts.MaxWait)
}

// Resolve discovers the current user. It never fails: an unresolved
// identity is reported through the state and the disabled features.
func (s *Service) Resolve(ctx context.Context, t *models.TenantConfig, req models.SessionResolveRequest, vendorToken string) models.SessionResolveResponse {
	ctx, span, finish := utils.TraceOperation(ctx, "session.resolve", map[string]interface{}{
		"tenant.id":            t.ID,
		"tenant.auth_provider": string(t.AuthProvider),
	})
	defer finish()

	resolver := s.NewResolverFor(t, s.Probes(t, req, vendorToken))
	defer resolver.Stop()

	result := resolver.Resolve(ctx)

	utils.AddSpanAttribute(span, "session.state", string(result.State))
	utils.AddSpanAttribute(span, "session.attempts", result.Attempts)
	observability.SessionResolutions.WithLabelValues(t.ID, string(result.State), result.Source).Inc()
	observability.SessionResolutionDuration.WithLabelValues(string(result.State)).Observe(result.Elapsed.Seconds())

	response := models.SessionResolveResponse{
		TenantID:         t.ID,
		State:            result.State,
		User:             result.User,
		Source:           result.Source,
		Attempts:         result.Attempts,
		ElapsedMS:        result.Elapsed.Milliseconds(),
		FeaturesDisabled: []string{},
	}

	if result.State != models.ResolutionResolved {
		response.FeaturesDisabled = append(response.FeaturesDisabled, IdentityFeatures...)
		if result.State == models.ResolutionTimedOut {
			s.logger.Warn("identity unresolved",
				zap.String("tenant_id", t.ID),
				zap.Int("attempts", result.Attempts))
		}
		return response
	}

	s.cacheEmail(ctx, req.ClientID, result.User)
	return response
}

// cacheEmail remembers the last resolved email in the client's local storage mirror
func (s *Service) cacheEmail(ctx context.Context, clientID string, user *models.ResolvedUser) {
	if s.redis == nil || clientID == "" || user == nil || user.Email == "" {
		return
	}
	store := NewRedisStore(s.redis, clientID, models.StorageScopeLocal, s.opts.StorageTTL)
	if err := store.Set(ctx, LastResolvedEmailKey, user.Email); err != nil {
		s.logger.Warn("failed to cache resolved email",
			zap.String("email", observability.MaskEmail(user.Email)),
			zap.Error(err))
	}
}

// SyncStorage mirrors one browser storage scope so the storage probe can read it
func (s *Service) SyncStorage(ctx context.Context, clientID, scope string, entries map[string]string) (*models.StorageSyncResponse, error) {
	if err := ValidateClientID(clientID); err != nil {
		return nil, err
	}
	if err := ValidateScope(scope); err != nil {
		return nil, err
	}
	if s.redis == nil {
		return nil, models.ErrPersistenceWriteFailed
	}

	store := NewRedisStore(s.redis, clientID, scope, s.opts.StorageTTL)
	if err := store.Replace(ctx, entries); err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrPersistenceWriteFailed, err)
	}

	return &models.StorageSyncResponse{
		ClientID: clientID,
		Scope:    scope,
		Keys:     len(entries),
	}, nil
}
