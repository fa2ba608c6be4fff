package session

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"sync"
	"time"

	"github.com/brokerkit/agent-portal/internal/models"
	"github.com/brokerkit/agent-portal/internal/redisclient"
	"github.com/redis/go-redis/v9"
)

// LastResolvedEmailKey caches the email of the last identity resolved for a client
const LastResolvedEmailKey = "last_resolved_email"

var clientIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,128}$`)

// ValidateClientID checks the opaque id the browser uses for its storage mirror
func ValidateClientID(clientID string) error {
	if !clientIDPattern.MatchString(clientID) {
		return models.ErrInvalidClientID
	}
	return nil
}

// ValidateScope checks a storage scope name
func ValidateScope(scope string) error {
	switch scope {
	case models.StorageScopeLocal, models.StorageScopeSession:
		return nil
	}
	return models.ErrInvalidScope
}

// KVStore is a read view of one browser storage scope
type KVStore interface {
	Scope() string
	Keys(ctx context.Context) ([]string, error)
	Get(ctx context.Context, key string) (string, bool, error)
}

// WritableStore can also cache values
type WritableStore interface {
	KVStore
	Set(ctx context.Context, key, value string) error
}

var (
	_ WritableStore = (*MapStore)(nil)
	_ WritableStore = (*RedisStore)(nil)
)

// MapStore is an in-memory KVStore
type MapStore struct {
	scope string
	mu    sync.RWMutex
	data  map[string]string
}

// NewMapStore creates an in-memory store holding a copy of entries
func NewMapStore(scope string, entries map[string]string) *MapStore {
	data := make(map[string]string, len(entries))
	for k, v := range entries {
		data[k] = v
	}
	return &MapStore{scope: scope, data: data}
}

func (s *MapStore) Scope() string { return s.scope }

func (s *MapStore) Keys(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.data))
	for k := range s.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

func (s *MapStore) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data[key]
	return v, ok, nil
}

func (s *MapStore) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = value
	return nil
}

// RedisStore mirrors one browser storage scope of one client in a Redis hash
type RedisStore struct {
	client *redisclient.Client
	key    string
	scope  string
	ttl    time.Duration
}

// NewRedisStore creates the mirror of (clientID, scope)
func NewRedisStore(client *redisclient.Client, clientID, scope string, ttl time.Duration) *RedisStore {
	return &RedisStore{
		client: client,
		key:    StorageKey(clientID, scope),
		scope:  scope,
		ttl:    ttl,
	}
}

// StorageKey is the Redis key of a mirrored storage scope
func StorageKey(clientID, scope string) string {
	return fmt.Sprintf("session:storage:%s:%s", clientID, scope)
}

func (s *RedisStore) Scope() string { return s.scope }

func (s *RedisStore) Keys(ctx context.Context) ([]string, error) {
	keys, err := s.client.HKeys(ctx, s.key).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list %s storage keys: %w", s.scope, err)
	}
	sort.Strings(keys)
	return keys, nil
}

func (s *RedisStore) Get(ctx context.Context, key string) (string, bool, error) {
	value, err := s.client.HGet(ctx, s.key, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read %s storage key: %w", s.scope, err)
	}
	return value, true, nil
}

func (s *RedisStore) Set(ctx context.Context, key, value string) error {
	if err := s.client.HSet(ctx, s.key, key, value).Err(); err != nil {
		return fmt.Errorf("failed to write %s storage key: %w", s.scope, err)
	}
	if s.ttl > 0 {
		if err := s.client.Expire(ctx, s.key, s.ttl).Err(); err != nil {
			return fmt.Errorf("failed to refresh %s storage ttl: %w", s.scope, err)
		}
	}
	return nil
}

// Replace swaps the whole mirrored scope for entries
func (s *RedisStore) Replace(ctx context.Context, entries map[string]string) error {
	if err := s.client.ReplaceHash(ctx, s.key, entries, s.ttl); err != nil {
		return fmt.Errorf("failed to mirror %s storage: %w", s.scope, err)
	}
	return nil
}
