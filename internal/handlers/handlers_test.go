package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/brokerkit/agent-portal/internal/logging"
	"github.com/brokerkit/agent-portal/internal/middleware"
	"github.com/brokerkit/agent-portal/internal/models"
	"github.com/brokerkit/agent-portal/internal/tenant"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeSessionService struct {
	lastTenant *models.TenantConfig
	lastReq    models.SessionResolveRequest
	lastToken  string
	syncErr    error
}

func (f *fakeSessionService) Resolve(_ context.Context, t *models.TenantConfig, req models.SessionResolveRequest, token string) models.SessionResolveResponse {
	f.lastTenant, f.lastReq, f.lastToken = t, req, token
	if !t.AuthProvider.IsPolling() {
		return models.SessionResolveResponse{
			TenantID:         t.ID,
			State:            models.ResolutionNotApplicable,
			FeaturesDisabled: []string{models.FeatureSaveToProfile},
		}
	}
	return models.SessionResolveResponse{
		TenantID:         t.ID,
		State:            models.ResolutionResolved,
		User:             &models.ResolvedUser{ID: "m1", Email: "m1@example.com"},
		Source:           "vendor:generic",
		Attempts:         1,
		FeaturesDisabled: []string{},
	}
}

func (f *fakeSessionService) SyncStorage(_ context.Context, clientID, scope string, entries map[string]string) (*models.StorageSyncResponse, error) {
	if f.syncErr != nil {
		return nil, f.syncErr
	}
	return &models.StorageSyncResponse{ClientID: clientID, Scope: scope, Keys: len(entries)}, nil
}

type fakeProgressService struct {
	records  map[string]*models.ProgressRecord
	writeErr error
}

func newFakeProgressService() *fakeProgressService {
	return &fakeProgressService{records: make(map[string]*models.ProgressRecord)}
}

func (f *fakeProgressService) Load(_ context.Context, email, pageType string) ([]models.StepState, error) {
	if email == "" {
		return []models.StepState{}, nil
	}
	if err := models.ValidateProgressScope(email, pageType); err != nil {
		return nil, err
	}
	steps := []models.StepState{}
	for _, r := range f.records {
		if r.UserEmail == email && r.PageType == pageType {
			steps = append(steps, models.StepState{StepID: r.StepID, Completed: r.Completed})
		}
	}
	return steps, nil
}

func (f *fakeProgressService) upsert(tenantID, email, pageType, stepID string, next func(bool) bool) (*models.ProgressRecord, error) {
	if err := models.ValidateProgressKey(email, pageType, stepID); err != nil {
		return nil, err
	}
	if f.writeErr != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrPersistenceWriteFailed, f.writeErr)
	}
	key := email + "|" + pageType + "|" + stepID
	r, ok := f.records[key]
	if !ok {
		r = &models.ProgressRecord{UserEmail: email, PageType: pageType, StepID: stepID, CreatedAt: time.Now()}
		f.records[key] = r
	}
	r.Completed = next(r.Completed)
	r.TenantID = tenantID
	r.UpdatedAt = time.Now()
	return r, nil
}

func (f *fakeProgressService) Toggle(_ context.Context, tenantID, email, pageType, stepID string) (*models.ProgressRecord, error) {
	return f.upsert(tenantID, email, pageType, stepID, func(c bool) bool { return !c })
}

func (f *fakeProgressService) Set(_ context.Context, tenantID, email, pageType, stepID string, completed bool) (*models.ProgressRecord, error) {
	return f.upsert(tenantID, email, pageType, stepID, func(bool) bool { return completed })
}

func newTestRouter(t *testing.T, sessions SessionService, progress ProgressService, checks map[string]Pinger) *gin.Engine {
	t.Helper()
	registry, err := tenant.NewRegistry(tenant.DefaultTenant("default", nil))
	require.NoError(t, err)
	require.NoError(t, registry.Register(models.TenantConfig{
		ID:           "acme",
		AuthProvider: models.AuthProviderMemberSpace,
		Hosts:        []string{"acme.test"},
	}))

	router := gin.New()
	v1 := router.Group("/v1")
	v1.GET("/health", NewHealthHandlers(checks).HealthCheck)

	scoped := v1.Group("")
	scoped.Use(middleware.Tenant(tenant.NewResolver(registry)))
	scoped.GET("/tenant", GetTenant)

	sessionHandlers := NewSessionHandlers(sessions, logging.Logger)
	scoped.POST("/session/resolve", sessionHandlers.ResolveSession)
	scoped.PUT("/session/:client_id/storage", sessionHandlers.SyncStorage)

	progressHandlers := NewProgressHandlers(progress, logging.Logger)
	scoped.GET("/progress", progressHandlers.GetProgress)
	scoped.POST("/progress", progressHandlers.SetProgress)
	scoped.POST("/progress/toggle", progressHandlers.ToggleProgress)
	return router
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body interface{}, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), out), w.Body.String())
}

func TestHealthCheck(t *testing.T) {
	healthy := func(context.Context) error { return nil }
	broken := func(context.Context) error { return errors.New("connection refused") }

	router := newTestRouter(t, &fakeSessionService{}, newFakeProgressService(), map[string]Pinger{"mongodb": healthy, "redis": healthy})
	w := doJSON(t, router, http.MethodGet, "/v1/health", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	router = newTestRouter(t, &fakeSessionService{}, newFakeProgressService(), map[string]Pinger{"mongodb": healthy, "redis": broken})
	w = doJSON(t, router, http.MethodGet, "/v1/health", nil, nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	var health HealthResponse
	decode(t, w, &health)
	assert.Equal(t, "unhealthy", health.Status)
	assert.Equal(t, map[string]string{"mongodb": "healthy", "redis": "unhealthy"}, health.Services)
}

func TestGetTenant(t *testing.T) {
	router := newTestRouter(t, &fakeSessionService{}, newFakeProgressService(), nil)

	w := doJSON(t, router, http.MethodGet, "/v1/tenant?tenant=acme", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var resp models.TenantResponse
	decode(t, w, &resp)
	assert.Equal(t, "acme", resp.ID)
	assert.False(t, resp.Fallback)

	w = doJSON(t, router, http.MethodGet, "/v1/tenant", nil, map[string]string{tenant.HeaderTenantID: "ghost"})
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &resp)
	assert.Equal(t, "default", resp.ID)
	assert.True(t, resp.Fallback)
}

func TestResolveSession(t *testing.T) {
	sessions := &fakeSessionService{}
	router := newTestRouter(t, sessions, newFakeProgressService(), nil)

	w := doJSON(t, router, http.MethodPost, "/v1/session/resolve",
		map[string]interface{}{"client_id": "c-1", "vendor": map[string]interface{}{"user": map[string]interface{}{"id": "m1"}}},
		map[string]string{tenant.HeaderTenantID: "acme", HeaderVendorToken: "tok"})
	require.Equal(t, http.StatusOK, w.Code)

	var resp models.SessionResolveResponse
	decode(t, w, &resp)
	assert.Equal(t, models.ResolutionResolved, resp.State)
	assert.Equal(t, "m1@example.com", resp.User.Email)
	assert.Equal(t, "tok", sessions.lastToken)
	assert.Equal(t, "c-1", sessions.lastReq.ClientID)
	assert.NotNil(t, sessions.lastReq.Vendor)
}

func TestResolveSession_UnknownTenantDegrades(t *testing.T) {
	router := newTestRouter(t, &fakeSessionService{}, newFakeProgressService(), nil)

	w := doJSON(t, router, http.MethodPost, "/v1/session/resolve", map[string]string{"client_id": "c-1"}, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp models.SessionResolveResponse
	decode(t, w, &resp)
	assert.Equal(t, "default", resp.TenantID)
	assert.Equal(t, models.ResolutionNotApplicable, resp.State)
	assert.Contains(t, resp.FeaturesDisabled, models.FeatureSaveToProfile)
}

func TestResolveSession_MissingClientID(t *testing.T) {
	router := newTestRouter(t, &fakeSessionService{}, newFakeProgressService(), nil)

	w := doJSON(t, router, http.MethodPost, "/v1/session/resolve", map[string]string{}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSyncStorage(t *testing.T) {
	sessions := &fakeSessionService{}
	router := newTestRouter(t, sessions, newFakeProgressService(), nil)

	body := models.StorageSyncRequest{Scope: models.StorageScopeLocal, Entries: map[string]string{"ms_member": "{}"}}
	w := doJSON(t, router, http.MethodPut, "/v1/session/c-1/storage", body, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var resp models.StorageSyncResponse
	decode(t, w, &resp)
	assert.Equal(t, 1, resp.Keys)

	sessions.syncErr = models.ErrInvalidScope
	w = doJSON(t, router, http.MethodPut, "/v1/session/c-1/storage", body, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	sessions.syncErr = fmt.Errorf("%w: redis down", models.ErrPersistenceWriteFailed)
	w = doJSON(t, router, http.MethodPut, "/v1/session/c-1/storage", body, nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "1", w.Header().Get("Retry-After"))
}

func TestProgressEndpoints(t *testing.T) {
	progress := newFakeProgressService()
	router := newTestRouter(t, &fakeSessionService{}, progress, nil)
	headers := map[string]string{tenant.HeaderTenantID: "acme"}

	toggle := models.ProgressWriteRequest{UserEmail: "agent@example.com", PageType: "dotloop-setup", StepID: "2"}

	w := doJSON(t, router, http.MethodPost, "/v1/progress/toggle", toggle, headers)
	require.Equal(t, http.StatusOK, w.Code)
	var write models.ProgressWriteResponse
	decode(t, w, &write)
	assert.True(t, write.Completed)

	w = doJSON(t, router, http.MethodPost, "/v1/progress/toggle", toggle, headers)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &write)
	assert.False(t, write.Completed)

	completed := true
	set := toggle
	set.StepID = "3"
	set.Completed = &completed
	w = doJSON(t, router, http.MethodPost, "/v1/progress", set, headers)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "acme", progress.records["agent@example.com|dotloop-setup|3"].TenantID)

	w = doJSON(t, router, http.MethodGet, "/v1/progress?userEmail=Agent@Example.com&pageType=dotloop-setup", nil, headers)
	require.Equal(t, http.StatusOK, w.Code)
	var list models.ProgressListResponse
	decode(t, w, &list)
	assert.Equal(t, "agent@example.com", list.UserEmail)
	assert.ElementsMatch(t, []models.StepState{
		{StepID: "2", Completed: false},
		{StepID: "3", Completed: true},
	}, list.Steps)
}

func TestProgressEndpoints_NumericStepID(t *testing.T) {
	progress := newFakeProgressService()
	router := newTestRouter(t, &fakeSessionService{}, progress, nil)

	w := doJSON(t, router, http.MethodPost, "/v1/progress/toggle",
		json.RawMessage(`{"userEmail":"u@example.com","pageType":"dotloop-setup","stepId":2}`), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var write models.ProgressWriteResponse
	decode(t, w, &write)
	assert.Equal(t, "2", write.StepID)
	assert.True(t, write.Completed)

	w = doJSON(t, router, http.MethodPost, "/v1/progress",
		json.RawMessage(`{"userEmail":"u@example.com","pageType":"dotloop-setup","stepId":3,"completed":true}`), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = doJSON(t, router, http.MethodGet, "/v1/progress?userEmail=u@example.com&pageType=dotloop-setup", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list models.ProgressListResponse
	decode(t, w, &list)
	assert.ElementsMatch(t, []models.StepState{
		{StepID: "2", Completed: true},
		{StepID: "3", Completed: true},
	}, list.Steps)

	w = doJSON(t, router, http.MethodPost, "/v1/progress/toggle",
		json.RawMessage(`{"userEmail":"u@example.com","pageType":"dotloop-setup","stepId":2.5}`), nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestProgressEndpoints_Errors(t *testing.T) {
	progress := newFakeProgressService()
	router := newTestRouter(t, &fakeSessionService{}, progress, nil)

	w := doJSON(t, router, http.MethodGet, "/v1/progress?pageType=dotloop-setup", nil, nil)
	require.Equal(t, http.StatusOK, w.Code, "no identity yet is not an error")
	var list models.ProgressListResponse
	decode(t, w, &list)
	assert.Empty(t, list.Steps)

	w = doJSON(t, router, http.MethodPost, "/v1/progress", models.ProgressWriteRequest{UserEmail: "a@example.com", PageType: "p", StepID: "1"}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code, "completed is required on set")

	w = doJSON(t, router, http.MethodPost, "/v1/progress/toggle", models.ProgressWriteRequest{UserEmail: "nope", PageType: "p", StepID: "1"}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	progress.writeErr = errors.New("mongo unavailable")
	w = doJSON(t, router, http.MethodPost, "/v1/progress/toggle", models.ProgressWriteRequest{UserEmail: "a@example.com", PageType: "p", StepID: "1"}, nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	var errResp ErrorResponse
	decode(t, w, &errResp)
	assert.Equal(t, retryableWriteMessage, errResp.Error)
	assert.Empty(t, progress.records, "failed write touches nothing")
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, statusFor(fmt.Errorf("wrapped: %w", models.ErrInvalidStepID)))
	assert.Equal(t, http.StatusServiceUnavailable, statusFor(models.ErrPersistenceWriteFailed))
	assert.Equal(t, http.StatusInternalServerError, statusFor(errors.New("boom")))
}
