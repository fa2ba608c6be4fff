package models

import "strings"

// AuthProvider identifies how a tenant authenticates its end users
type AuthProvider string

const (
	// AuthProviderMemberSpace discovers identity by polling the vendor script
	AuthProviderMemberSpace AuthProvider = "memberspace"
	// AuthProviderOther covers every provider that issues its own session
	AuthProviderOther AuthProvider = "other"
)

// ParseAuthProvider maps free-form config values onto a known provider.
// Anything unrecognized is treated as AuthProviderOther.
func ParseAuthProvider(value string) AuthProvider {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "memberspace", "member_space", "ms":
		return AuthProviderMemberSpace
	default:
		return AuthProviderOther
	}
}

// IsPolling reports whether identity must be discovered by polling
func (p AuthProvider) IsPolling() bool {
	return p == AuthProviderMemberSpace
}

// Branding holds the default look of a tenant's portal
type Branding struct {
	PrimaryColor   string `bson:"primary_color" json:"primary_color"`
	SecondaryColor string `bson:"secondary_color" json:"secondary_color"`
	LogoURL        string `bson:"logo_url" json:"logo_url"`
	SupportEmail   string `bson:"support_email" json:"support_email"`
	SupportPhone   string `bson:"support_phone" json:"support_phone"`
}

// TenantConfig identifies one deployment of the portal
type TenantConfig struct {
	ID           string          `bson:"id" json:"id"`
	DisplayName  string          `bson:"display_name" json:"display_name"`
	AuthProvider AuthProvider    `bson:"auth_provider" json:"auth_provider"`
	Hosts        []string        `bson:"hosts" json:"hosts"`
	Branding     Branding        `bson:"branding" json:"branding"`
	Features     map[string]bool `bson:"features" json:"features"`

	// MemberAccessor is the tenant-specific accessor tried first on the
	// vendor object, e.g. "getMemberInfo".
	MemberAccessor string `bson:"member_accessor" json:"member_accessor,omitempty"`
	// MemberSourceURL is where the vendor member document can be fetched.
	MemberSourceURL string `bson:"member_source_url" json:"member_source_url,omitempty"`
}

// FeatureEnabled reports whether a feature flag is on for the tenant
func (t *TenantConfig) FeatureEnabled(name string) bool {
	if t == nil || t.Features == nil {
		return false
	}
	return t.Features[name]
}

// TenantResponse is the public view of a tenant
type TenantResponse struct {
	ID           string          `json:"id"`
	DisplayName  string          `json:"display_name"`
	AuthProvider AuthProvider    `json:"auth_provider"`
	Branding     Branding        `json:"branding"`
	Features     map[string]bool `json:"features"`
	Fallback     bool            `json:"fallback"`
}

// ToResponse builds the public view of the tenant
func (t *TenantConfig) ToResponse(fallback bool) TenantResponse {
	features := t.Features
	if features == nil {
		features = map[string]bool{}
	}
	return TenantResponse{
		ID:           t.ID,
		DisplayName:  t.DisplayName,
		AuthProvider: t.AuthProvider,
		Branding:     t.Branding,
		Features:     features,
		Fallback:     fallback,
	}
}
