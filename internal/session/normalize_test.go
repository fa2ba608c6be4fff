package session

import (
	"testing"

	"github.com/brokerkit/agent-portal/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input interface{}
		want  *models.ResolvedUser
	}{
		{
			name:  "canonical fields",
			input: map[string]interface{}{"id": "m1", "email": "Agent@Example.com", "name": "Ann Agent"},
			want:  &models.ResolvedUser{ID: "m1", Email: "agent@example.com", Name: "Ann Agent"},
		},
		{
			name: "vendor variants",
			input: map[string]interface{}{
				"memberId":     float64(42),
				"emailAddress": "ann@example.com",
				"first_name":   "Ann",
				"surname":      "Agent",
			},
			want: &models.ResolvedUser{ID: "42", Email: "ann@example.com", Name: "Ann Agent", FirstName: "Ann", LastName: "Agent"},
		},
		{
			name:  "name falls back to email",
			input: map[string]interface{}{"mail": "solo@example.com"},
			want:  &models.ResolvedUser{Email: "solo@example.com", Name: "solo@example.com"},
		},
		{
			name:  "wrapped in member",
			input: map[string]interface{}{"member": map[string]interface{}{"_id": "abc", "email": "w@example.com"}},
			want:  &models.ResolvedUser{ID: "abc", Email: "w@example.com", Name: "w@example.com"},
		},
		{
			name:  "json string",
			input: `{"data":{"sub":"u-1","email":"json@example.com","displayName":"Jay"}}`,
			want:  &models.ResolvedUser{ID: "u-1", Email: "json@example.com", Name: "Jay"},
		},
		{
			name:  "bare email string",
			input: " Bare@Example.com ",
			want:  &models.ResolvedUser{Email: "bare@example.com", Name: "bare@example.com"},
		},
		{
			name:  "string map",
			input: map[string]string{"uid": "s1", "given_name": "Sam"},
			want:  &models.ResolvedUser{ID: "s1", Name: "Sam", FirstName: "Sam"},
		},
		{
			name:  "invalid email is dropped but id kept",
			input: map[string]interface{}{"id": "x", "email": "not-an-email"},
			want:  &models.ResolvedUser{ID: "x"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Normalize(tt.input)
			require.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalize_NotAnIdentity(t *testing.T) {
	inputs := map[string]interface{}{
		"nil":            nil,
		"empty map":      map[string]interface{}{},
		"no id or email": map[string]interface{}{"name": "Nobody"},
		"plain string":   "hello",
		"null string":    "null",
		"broken json":    `{"id":`,
		"number":         42,
		"empty user":     &models.ResolvedUser{Name: "x"},
		"wrapper of nothing": map[string]interface{}{
			"user": map[string]interface{}{"name": "Nobody"},
		},
	}

	for name, input := range inputs {
		t.Run(name, func(t *testing.T) {
			user, ok := Normalize(input)
			assert.False(t, ok)
			assert.Nil(t, user)
		})
	}
}

func TestNormalize_CustomFields(t *testing.T) {
	user, ok := Normalize(map[string]interface{}{
		"id":            "m1",
		"customFields":  map[string]interface{}{"brokerage": "Acme", "license": "123"},
		"metadata":      map[string]interface{}{"brokerage": "Ignored", "team": "North"},
		"unrelated_key": "kept out",
	})
	require.True(t, ok)
	assert.Equal(t, map[string]interface{}{
		"brokerage": "Acme",
		"license":   "123",
		"team":      "North",
	}, user.CustomFields)
}

func TestNormalize_DepthLimit(t *testing.T) {
	var value interface{} = map[string]interface{}{"id": "deep"}
	for i := 0; i < maxUnwrapDepth+2; i++ {
		value = map[string]interface{}{"data": value}
	}

	_, ok := Normalize(value)
	assert.False(t, ok)
}
