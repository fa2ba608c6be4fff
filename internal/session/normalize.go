package session

import (
	"encoding/json"
	"fmt"
	"net/mail"
	"strconv"
	"strings"

	"github.com/brokerkit/agent-portal/internal/models"
)

// Field-name variants seen on vendor member objects, in priority order
var (
	idFields        = []string{"id", "_id", "memberId", "member_id", "uid", "sub"}
	emailFields     = []string{"email", "emailAddress", "email_address", "mail"}
	nameFields      = []string{"name", "displayName", "display_name", "fullName", "full_name"}
	firstNameFields = []string{"firstName", "first_name", "given_name", "givenName"}
	lastNameFields  = []string{"lastName", "last_name", "family_name", "familyName", "surname"}
	customFields    = []string{"customFields", "custom_fields", "metadata"}
	wrapperFields   = []string{"member", "user", "data", "currentMember", "currentUser"}
)

// maxUnwrapDepth bounds how deep wrapper objects are followed
const maxUnwrapDepth = 4

// Normalize maps whatever shape the vendor returned onto a ResolvedUser.
// The bool is false when the value carries neither an id nor an email.
func Normalize(value interface{}) (*models.ResolvedUser, bool) {
	return normalize(value, 0)
}

func normalize(value interface{}, depth int) (*models.ResolvedUser, bool) {
	if depth > maxUnwrapDepth {
		return nil, false
	}

	switch v := value.(type) {
	case nil:
		return nil, false
	case *models.ResolvedUser:
		if v == nil || (v.ID == "" && v.Email == "") {
			return nil, false
		}
		return v, true
	case models.ResolvedUser:
		return normalize(&v, depth)
	case string:
		return normalizeString(v, depth)
	case []byte:
		return normalizeString(string(v), depth)
	case map[string]string:
		m := make(map[string]interface{}, len(v))
		for key, val := range v {
			m[key] = val
		}
		return normalizeMap(m, depth)
	case map[string]interface{}:
		return normalizeMap(v, depth)
	default:
		return nil, false
	}
}

func normalizeString(raw string, depth int) (*models.ResolvedUser, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "null" || raw == "undefined" {
		return nil, false
	}

	if strings.HasPrefix(raw, "{") {
		var decoded map[string]interface{}
		if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
			return nil, false
		}
		return normalize(decoded, depth+1)
	}

	// A bare string is only an identity if it is an email address
	if email, ok := parseEmail(raw); ok {
		return &models.ResolvedUser{Email: email, Name: email}, true
	}
	return nil, false
}

func normalizeMap(m map[string]interface{}, depth int) (*models.ResolvedUser, bool) {
	id := firstString(m, idFields)
	email, _ := parseEmail(firstString(m, emailFields))

	if id == "" && email == "" {
		for _, key := range wrapperFields {
			if inner, ok := m[key]; ok {
				if user, ok := normalize(inner, depth+1); ok {
					return user, true
				}
			}
		}
		return nil, false
	}

	user := &models.ResolvedUser{
		ID:        id,
		Email:     email,
		FirstName: firstString(m, firstNameFields),
		LastName:  firstString(m, lastNameFields),
	}

	user.Name = firstString(m, nameFields)
	if user.Name == "" {
		user.Name = strings.TrimSpace(user.FirstName + " " + user.LastName)
	}
	if user.Name == "" {
		user.Name = email
	}

	for _, key := range customFields {
		fields, ok := m[key].(map[string]interface{})
		if !ok {
			continue
		}
		if user.CustomFields == nil {
			user.CustomFields = make(map[string]interface{}, len(fields))
		}
		for k, v := range fields {
			if _, exists := user.CustomFields[k]; !exists {
				user.CustomFields[k] = v
			}
		}
	}

	return user, true
}

// firstString returns the first non-empty scalar among the candidate keys
func firstString(m map[string]interface{}, keys []string) string {
	for _, key := range keys {
		switch v := m[key].(type) {
		case string:
			if s := strings.TrimSpace(v); s != "" {
				return s
			}
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64)
		case int:
			return strconv.Itoa(v)
		case int64:
			return strconv.FormatInt(v, 10)
		case json.Number:
			return v.String()
		case fmt.Stringer:
			if s := strings.TrimSpace(v.String()); s != "" {
				return s
			}
		}
	}
	return ""
}

// parseEmail validates and lowercases a bare email address
func parseEmail(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.ContainsAny(raw, " <>") {
		return "", false
	}
	addr, err := mail.ParseAddress(raw)
	if err != nil {
		return "", false
	}
	return models.NormalizeEmail(addr.Address), true
}
