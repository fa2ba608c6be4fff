package handlers

import (
	"context"
	"net/http"

	"github.com/brokerkit/agent-portal/internal/logging"
	"github.com/brokerkit/agent-portal/internal/models"
	"github.com/brokerkit/agent-portal/internal/tenant"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// HeaderVendorToken forwards the caller's vendor session token to the
// tenant's member source
const HeaderVendorToken = "X-Vendor-Token"

// SessionService is what the session handlers need from the session layer
type SessionService interface {
	Resolve(ctx context.Context, t *models.TenantConfig, req models.SessionResolveRequest, vendorToken string) models.SessionResolveResponse
	SyncStorage(ctx context.Context, clientID, scope string, entries map[string]string) (*models.StorageSyncResponse, error)
}

// SessionHandlers exposes identity resolution over HTTP
type SessionHandlers struct {
	service SessionService
	logger  *logging.SafeLogger
}

// NewSessionHandlers creates session handlers
func NewSessionHandlers(service SessionService, logger *logging.SafeLogger) *SessionHandlers {
	return &SessionHandlers{
		service: service,
		logger:  logger.Named("session_handlers"),
	}
}

// ResolveSession godoc
// @Summary Resolve the current user
// @Description Polls the tenant's identity sources until a user is found or the wait limit passes. An unresolved identity is not an error: the response lists the features to disable.
// @Tags session
// @Accept json
// @Produce json
// @Param X-Tenant-ID header string false "Tenant id"
// @Param X-Vendor-Token header string false "Vendor session token forwarded to the member source"
// @Param data body models.SessionResolveRequest true "Client id and optional vendor snapshot"
// @Success 200 {object} models.SessionResolveResponse
// @Failure 400 {object} ErrorResponse "Invalid request body"
// @Router /session/resolve [post]
func (h *SessionHandlers) ResolveSession(c *gin.Context) {
	var req models.SessionResolveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request body: " + err.Error()})
		return
	}

	t, _ := tenant.FromContext(c)
	if t == nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "tenant not resolved"})
		return
	}

	resp := h.service.Resolve(c.Request.Context(), t, req, c.GetHeader(HeaderVendorToken))

	h.logger.Debug("session resolved",
		zap.String("tenant_id", t.ID),
		zap.String("state", string(resp.State)),
		zap.String("source", resp.Source),
		zap.Int("attempts", resp.Attempts))

	c.JSON(http.StatusOK, resp)
}

// SyncStorage godoc
// @Summary Mirror browser storage
// @Description Replaces the server-side copy of one browser storage scope (local or session) so that the storage fallback can find a persisted identity
// @Tags session
// @Accept json
// @Produce json
// @Param client_id path string true "Opaque browser client id"
// @Param data body models.StorageSyncRequest true "Scope and entries"
// @Success 200 {object} models.StorageSyncResponse
// @Failure 400 {object} ErrorResponse "Invalid client id, scope or body"
// @Failure 503 {object} ErrorResponse "Storage mirror unavailable, retry"
// @Router /session/{client_id}/storage [put]
func (h *SessionHandlers) SyncStorage(c *gin.Context) {
	var req models.StorageSyncRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request body: " + err.Error()})
		return
	}

	resp, err := h.service.SyncStorage(c.Request.Context(), c.Param("client_id"), req.Scope, req.Entries)
	if err != nil {
		if statusFor(err) != http.StatusBadRequest {
			h.logger.Error("failed to mirror storage",
				zap.String("scope", req.Scope),
				zap.Error(err))
		}
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
