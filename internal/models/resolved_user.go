package models

// ResolvedUser is the canonical identity derived from a third-party session.
// It is rebuilt on every page load and never persisted.
type ResolvedUser struct {
	ID           string                 `json:"id"`
	Email        string                 `json:"email"`
	Name         string                 `json:"name"`
	FirstName    string                 `json:"first_name,omitempty"`
	LastName     string                 `json:"last_name,omitempty"`
	CustomFields map[string]interface{} `json:"custom_fields,omitempty"`
}
