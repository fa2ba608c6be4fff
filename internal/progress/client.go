package progress

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/brokerkit/agent-portal/internal/models"
	"github.com/brokerkit/agent-portal/internal/utils/httpclient"
)

// HeaderTenantID carries the tenant on progress API calls
const HeaderTenantID = "X-Tenant-ID"

// APIError is a non-retryable rejection from the progress API
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("progress api returned %d: %s", e.StatusCode, e.Message)
}

// Client talks to the progress endpoints of the portal API
type Client struct {
	baseURL  string
	tenantID string
	pool     *httpclient.HTTPClientPool
}

// NewClient creates a client for the API at baseURL. pool may be nil.
func NewClient(baseURL, tenantID string, pool *httpclient.HTTPClientPool) *Client {
	if pool == nil {
		pool = httpclient.GetGlobalPool()
	}
	return &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		tenantID: tenantID,
		pool:     pool,
	}
}

// Load fetches the stored steps of one page
func (c *Client) Load(ctx context.Context, userEmail, pageType string) ([]models.StepState, error) {
	query := url.Values{}
	query.Set("userEmail", userEmail)
	query.Set("pageType", pageType)

	var out models.ProgressListResponse
	if err := c.do(ctx, http.MethodGet, "/v1/progress?"+query.Encode(), nil, &out); err != nil {
		return nil, fmt.Errorf("failed to load progress: %w", err)
	}
	if out.Steps == nil {
		out.Steps = []models.StepState{}
	}
	return out.Steps, nil
}

// Toggle flips one step on the server and returns the stored value
func (c *Client) Toggle(ctx context.Context, userEmail, pageType, stepID string) (bool, error) {
	body := models.ProgressWriteRequest{UserEmail: userEmail, PageType: pageType, StepID: models.StepID(stepID)}

	var out models.ProgressWriteResponse
	if err := c.write(ctx, "/v1/progress/toggle", body, &out); err != nil {
		return false, err
	}
	return out.Completed, nil
}

// Set stores an explicit completion flag
func (c *Client) Set(ctx context.Context, userEmail, pageType, stepID string, completed bool) (bool, error) {
	body := models.ProgressWriteRequest{UserEmail: userEmail, PageType: pageType, StepID: models.StepID(stepID), Completed: &completed}

	var out models.ProgressWriteResponse
	if err := c.write(ctx, "/v1/progress", body, &out); err != nil {
		return false, err
	}
	return out.Completed, nil
}

// write posts body. Transport failures and 5xx answers wrap
// models.ErrPersistenceWriteFailed.
func (c *Client) write(ctx context.Context, path string, body interface{}, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode progress write: %w", err)
	}
	err = c.do(ctx, http.MethodPost, path, payload, out)
	if err == nil {
		return nil
	}
	if apiErr, ok := err.(*APIError); ok && apiErr.StatusCode < http.StatusInternalServerError {
		return err
	}
	return fmt.Errorf("%w: %v", models.ErrPersistenceWriteFailed, err)
}

func (c *Client) do(ctx context.Context, method, path string, payload []byte, out interface{}) error {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.tenantID != "" {
		req.Header.Set(HeaderTenantID, c.tenantID)
	}

	resp, err := c.pool.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var apiErr struct {
			Error string `json:"error"`
		}
		_ = json.Unmarshal(data, &apiErr)
		if apiErr.Error == "" {
			apiErr.Error = http.StatusText(resp.StatusCode)
		}
		return &APIError{StatusCode: resp.StatusCode, Message: apiErr.Error}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
