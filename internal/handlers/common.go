package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/brokerkit/agent-portal/internal/models"
	"github.com/gin-gonic/gin"
)

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Error string `json:"error"`
}

// HealthResponse reports the state of the service dependencies
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Services  map[string]string `json:"services"`
}

// retryableWriteMessage is shown to callers when a write could not be persisted
const retryableWriteMessage = "progress could not be saved, please retry"

var validationErrors = []error{
	models.ErrInvalidEmail,
	models.ErrInvalidPageType,
	models.ErrInvalidStepID,
	models.ErrInvalidClientID,
	models.ErrInvalidScope,
}

// statusFor maps service errors onto HTTP status codes
func statusFor(err error) int {
	for _, target := range validationErrors {
		if errors.Is(err, target) {
			return http.StatusBadRequest
		}
	}
	if errors.Is(err, models.ErrPersistenceWriteFailed) {
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// respondError writes err with the matching status. Write failures get a
// retryable message instead of the raw cause.
func respondError(c *gin.Context, err error) {
	status := statusFor(err)
	switch status {
	case http.StatusBadRequest:
		c.JSON(status, ErrorResponse{Error: err.Error()})
	case http.StatusServiceUnavailable:
		c.Header("Retry-After", "1")
		c.JSON(status, ErrorResponse{Error: retryableWriteMessage})
	default:
		c.JSON(status, ErrorResponse{Error: "internal server error"})
	}
}
