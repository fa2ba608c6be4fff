package progress

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/brokerkit/agent-portal/internal/models"
	"github.com/brokerkit/agent-portal/internal/utils/httpclient"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	pool := httpclient.NewHTTPClientPool(2, time.Second)
	t.Cleanup(pool.Close)
	return NewClient(server.URL+"/", "acme", pool)
}

func TestClient_Load(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/v1/progress", r.URL.Path)
		assert.Equal(t, "a@example.com", r.URL.Query().Get("userEmail"))
		assert.Equal(t, "dotloop-setup", r.URL.Query().Get("pageType"))
		assert.Equal(t, "acme", r.Header.Get(HeaderTenantID))

		_ = json.NewEncoder(w).Encode(models.ProgressListResponse{
			UserEmail: "a@example.com",
			PageType:  "dotloop-setup",
			Steps:     []models.StepState{{StepID: "1", Completed: true}},
		})
	})

	steps, err := client.Load(context.Background(), "a@example.com", "dotloop-setup")
	require.NoError(t, err)
	assert.Equal(t, []models.StepState{{StepID: "1", Completed: true}}, steps)
}

func TestClient_Toggle(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/progress/toggle", r.URL.Path)

		var body models.ProgressWriteRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, models.StepID("2"), body.StepID)
		assert.Nil(t, body.Completed)

		_ = json.NewEncoder(w).Encode(models.ProgressWriteResponse{StepID: "2", Completed: true})
	})

	completed, err := client.Toggle(context.Background(), "a@example.com", "dotloop-setup", "2")
	require.NoError(t, err)
	assert.True(t, completed)
}

func TestClient_Set(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/progress", r.URL.Path)

		var body models.ProgressWriteRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		if !assert.NotNil(t, body.Completed) {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		assert.False(t, *body.Completed)

		_ = json.NewEncoder(w).Encode(models.ProgressWriteResponse{StepID: string(body.StepID), Completed: *body.Completed})
	})

	completed, err := client.Set(context.Background(), "a@example.com", "dotloop-setup", "2", false)
	require.NoError(t, err)
	assert.False(t, completed)
}

func TestClient_WriteFailures(t *testing.T) {
	t.Run("server unavailable is a persistence failure", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"error":"progress could not be saved, please retry"}`))
		})

		_, err := client.Toggle(context.Background(), "a@example.com", "dotloop-setup", "2")
		assert.ErrorIs(t, err, models.ErrPersistenceWriteFailed)
	})

	t.Run("validation error is returned as is", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"invalid user email"}`))
		})

		_, err := client.Toggle(context.Background(), "nope", "dotloop-setup", "2")
		require.Error(t, err)
		assert.NotErrorIs(t, err, models.ErrPersistenceWriteFailed)

		apiErr, ok := err.(*APIError)
		require.True(t, ok)
		assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
		assert.Equal(t, "invalid user email", apiErr.Message)
	})

	t.Run("unreachable server", func(t *testing.T) {
		server := httptest.NewServer(http.NotFoundHandler())
		server.Close()

		client := NewClient(server.URL, "", nil)
		_, err := client.Toggle(context.Background(), "a@example.com", "dotloop-setup", "2")
		assert.ErrorIs(t, err, models.ErrPersistenceWriteFailed)
	})
}

func TestChecklist_WithClientRevertsOnServerError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			_ = json.NewEncoder(w).Encode(models.ProgressListResponse{Steps: []models.StepState{{StepID: "2", Completed: true}}})
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	c := NewChecklist(client, "dotloop-setup")
	require.NoError(t, c.SetUser(context.Background(), "a@example.com"))
	require.True(t, c.Completed("2"))

	completed, err := c.Toggle(context.Background(), "2")
	assert.ErrorIs(t, err, models.ErrPersistenceWriteFailed)
	assert.True(t, completed)
	assert.True(t, c.Completed("2"))
	assert.Equal(t, ToggleRolledBack, c.State("2"))
}
