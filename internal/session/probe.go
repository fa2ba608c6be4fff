package session

import (
	"context"
	"fmt"
	"strings"

	"github.com/brokerkit/agent-portal/internal/models"
)

// IdentityProbe is one way of discovering the signed-in user. Callers depend
// on this interface only, never on the vendor object itself.
type IdentityProbe interface {
	// Name identifies the probe in results and logs.
	Name() string
	// TryGetIdentity returns models.ErrNoIdentity when nothing is found yet.
	TryGetIdentity(ctx context.Context) (*models.ResolvedUser, error)
}

// GenericAccessors are tried on every vendor object after the tenant-specific one
var GenericAccessors = []string{
	"getMember",
	"getUser",
	"currentMember",
	"member",
	"user",
	"memberInfo",
	"currentUser",
}

// CandidateStorageKeys are the storage keys checked before any substring
// scan. LastResolvedEmailKey is never one of them: a cached email is not
// proof of a current session.
var CandidateStorageKeys = []string{
	"ms_member",
	"memberspace_member",
	"ms-member-data",
	"member",
	"user",
	"auth_user",
	"currentUser",
}

// storageKeyHints are matched against every key when the substring scan is on
var storageKeyHints = []string{"member", "user", "auth"}

// AccessorProbe asks a vendor object for the user through a list of accessors
type AccessorProbe struct {
	name      string
	object    VendorObject
	accessors []string
}

// NewTenantAccessorProbe probes the tenant-specific accessor
func NewTenantAccessorProbe(object VendorObject, accessor string) *AccessorProbe {
	return &AccessorProbe{name: "vendor:" + accessor, object: object, accessors: []string{accessor}}
}

// NewGenericAccessorProbe probes the generic accessor list
func NewGenericAccessorProbe(object VendorObject) *AccessorProbe {
	return &AccessorProbe{name: "vendor:generic", object: object, accessors: GenericAccessors}
}

func (p *AccessorProbe) Name() string { return p.name }

func (p *AccessorProbe) TryGetIdentity(ctx context.Context) (*models.ResolvedUser, error) {
	if r, ok := p.object.(Refresher); ok {
		if err := r.Refresh(ctx); err != nil {
			return nil, err
		}
	}

	for _, accessor := range p.accessors {
		value, ok, err := p.object.Lookup(ctx, accessor)
		if err != nil {
			return nil, fmt.Errorf("accessor %s: %w", accessor, err)
		}
		if !ok {
			continue
		}
		if user, ok := Normalize(value); ok {
			return user, nil
		}
	}
	return nil, models.ErrNoIdentity
}

// StorageProbe looks for a persisted identity in mirrored browser storage
type StorageProbe struct {
	stores        []KVStore
	candidateKeys []string
	substringScan bool
}

// NewStorageProbe scans stores in order. With substringScan set, every key
// containing member, user or auth is also tried after the candidate keys.
func NewStorageProbe(stores []KVStore, substringScan bool) *StorageProbe {
	return &StorageProbe{
		stores:        stores,
		candidateKeys: CandidateStorageKeys,
		substringScan: substringScan,
	}
}

func (p *StorageProbe) Name() string { return "storage" }

func (p *StorageProbe) TryGetIdentity(ctx context.Context) (*models.ResolvedUser, error) {
	for _, store := range p.stores {
		user, err := p.scanStore(ctx, store)
		if err != nil {
			return nil, err
		}
		if user != nil {
			return user, nil
		}
	}
	return nil, models.ErrNoIdentity
}

func (p *StorageProbe) scanStore(ctx context.Context, store KVStore) (*models.ResolvedUser, error) {
	checked := make(map[string]bool, len(p.candidateKeys))
	for _, key := range p.candidateKeys {
		checked[key] = true
		value, ok, err := store.Get(ctx, key)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		if user, ok := Normalize(value); ok {
			return user, nil
		}
	}

	if !p.substringScan {
		return nil, nil
	}

	keys, err := store.Keys(ctx)
	if err != nil {
		return nil, err
	}
	for _, key := range keys {
		if checked[key] || key == LastResolvedEmailKey || !matchesStorageHint(key) {
			continue
		}
		value, ok, err := store.Get(ctx, key)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		if user, ok := Normalize(value); ok {
			return user, nil
		}
	}
	return nil, nil
}

func matchesStorageHint(key string) bool {
	lower := strings.ToLower(key)
	for _, hint := range storageKeyHints {
		if strings.Contains(lower, hint) {
			return true
		}
	}
	return false
}
