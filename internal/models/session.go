package models

// ResolutionState is the state of one session resolution
type ResolutionState string

const (
	ResolutionIdle          ResolutionState = "idle"
	ResolutionPolling       ResolutionState = "polling"
	ResolutionResolved      ResolutionState = "resolved"
	ResolutionTimedOut      ResolutionState = "timed_out"
	ResolutionNotApplicable ResolutionState = "not_applicable"
	ResolutionCancelled     ResolutionState = "cancelled"
)

// Terminal reports whether no further transition can happen
func (s ResolutionState) Terminal() bool {
	switch s {
	case ResolutionResolved, ResolutionTimedOut, ResolutionNotApplicable, ResolutionCancelled:
		return true
	}
	return false
}

// Storage scopes mirrored from the browser
const (
	StorageScopeLocal   = "local"
	StorageScopeSession = "session"
)

// Features that need a resolved identity and are switched off otherwise
const (
	FeatureSaveToProfile    = "save_to_profile"
	FeatureProgressTracking = "progress_tracking"
)

// SessionResolveRequest asks the service to discover the current user
type SessionResolveRequest struct {
	ClientID string `json:"client_id" binding:"required"`
	// Vendor is an optional snapshot of the vendor's global object taken by
	// the page; when absent the tenant's member source URL is polled.
	Vendor map[string]interface{} `json:"vendor,omitempty"`
}

// SessionResolveResponse reports the outcome of a resolution
type SessionResolveResponse struct {
	TenantID         string          `json:"tenant_id"`
	State            ResolutionState `json:"state"`
	User             *ResolvedUser   `json:"user,omitempty"`
	Source           string          `json:"source,omitempty"`
	Attempts         int             `json:"attempts"`
	ElapsedMS        int64           `json:"elapsed_ms"`
	FeaturesDisabled []string        `json:"features_disabled"`
}

// StorageSyncRequest mirrors one browser storage scope
type StorageSyncRequest struct {
	Scope   string            `json:"scope" binding:"required"`
	Entries map[string]string `json:"entries"`
}

// StorageSyncResponse acknowledges a storage mirror
type StorageSyncResponse struct {
	ClientID string `json:"client_id"`
	Scope    string `json:"scope"`
	Keys     int    `json:"keys"`
}
