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

// ProgressService is what the progress handlers need from the store
type ProgressService interface {
	Load(ctx context.Context, userEmail, pageType string) ([]models.StepState, error)
	Toggle(ctx context.Context, tenantID, userEmail, pageType, stepID string) (*models.ProgressRecord, error)
	Set(ctx context.Context, tenantID, userEmail, pageType, stepID string, completed bool) (*models.ProgressRecord, error)
}

// ProgressHandlers exposes checklist progress over HTTP
type ProgressHandlers struct {
	service ProgressService
	logger  *logging.SafeLogger
}

// NewProgressHandlers creates progress handlers
func NewProgressHandlers(service ProgressService, logger *logging.SafeLogger) *ProgressHandlers {
	return &ProgressHandlers{
		service: service,
		logger:  logger.Named("progress_handlers"),
	}
}

// GetProgress godoc
// @Summary Load checklist progress
// @Description Returns the completion flag of every step the user touched on a page. Without userEmail the list is empty.
// @Tags progress
// @Produce json
// @Param userEmail query string false "User email"
// @Param pageType query string true "Checklist page"
// @Success 200 {object} models.ProgressListResponse
// @Failure 400 {object} ErrorResponse "Invalid email or page type"
// @Failure 500 {object} ErrorResponse
// @Router /progress [get]
func (h *ProgressHandlers) GetProgress(c *gin.Context) {
	email := models.NormalizeEmail(c.Query("userEmail"))
	pageType := c.Query("pageType")

	steps, err := h.service.Load(c.Request.Context(), email, pageType)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.ProgressListResponse{
		UserEmail: email,
		PageType:  pageType,
		Steps:     steps,
	})
}

// SetProgress godoc
// @Summary Set step completion
// @Description Stores an explicit completion flag for one step, creating the record on first write
// @Tags progress
// @Accept json
// @Produce json
// @Param X-Tenant-ID header string false "Tenant id"
// @Param data body models.ProgressWriteRequest true "Step and completion flag"
// @Success 200 {object} models.ProgressWriteResponse
// @Failure 400 {object} ErrorResponse "Invalid body"
// @Failure 503 {object} ErrorResponse "Write failed, retry"
// @Router /progress [post]
func (h *ProgressHandlers) SetProgress(c *gin.Context) {
	var req models.ProgressWriteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request body: " + err.Error()})
		return
	}
	if req.Completed == nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "completed is required"})
		return
	}

	record, err := h.service.Set(c.Request.Context(), tenantID(c), req.UserEmail, req.PageType, string(req.StepID), *req.Completed)
	h.respondWrite(c, "set", record, err)
}

// ToggleProgress godoc
// @Summary Toggle step completion
// @Description Flips the completion flag of one step atomically. The first toggle creates the record as completed.
// @Tags progress
// @Accept json
// @Produce json
// @Param X-Tenant-ID header string false "Tenant id"
// @Param data body models.ProgressWriteRequest true "Step to flip"
// @Success 200 {object} models.ProgressWriteResponse
// @Failure 400 {object} ErrorResponse "Invalid body"
// @Failure 503 {object} ErrorResponse "Write failed, retry"
// @Router /progress/toggle [post]
func (h *ProgressHandlers) ToggleProgress(c *gin.Context) {
	var req models.ProgressWriteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request body: " + err.Error()})
		return
	}

	record, err := h.service.Toggle(c.Request.Context(), tenantID(c), req.UserEmail, req.PageType, string(req.StepID))
	h.respondWrite(c, "toggle", record, err)
}

func (h *ProgressHandlers) respondWrite(c *gin.Context, kind string, record *models.ProgressRecord, err error) {
	if err != nil {
		if statusFor(err) != http.StatusBadRequest {
			h.logger.Warn("progress write failed",
				zap.String("kind", kind),
				zap.Error(err))
		}
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.ProgressWriteResponse{
		UserEmail: record.UserEmail,
		PageType:  record.PageType,
		StepID:    record.StepID,
		Completed: record.Completed,
		UpdatedAt: record.UpdatedAt,
	})
}

// tenantID returns the resolved tenant id, or empty without tenant middleware
func tenantID(c *gin.Context) string {
	if t, _ := tenant.FromContext(c); t != nil {
		return t.ID
	}
	return ""
}
