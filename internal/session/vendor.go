package session

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/brokerkit/agent-portal/internal/utils/httpclient"
)

// VendorObject is the narrow view this package has of the vendor's global
// session object. Missing accessors are not errors.
type VendorObject interface {
	// Lookup returns the value exposed under accessor. ok is false when the
	// accessor does not exist or holds nothing yet.
	Lookup(ctx context.Context, accessor string) (value interface{}, ok bool, err error)
}

// Refresher is implemented by vendor objects that must be re-read before
// each polling attempt.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// MapVendorObject is a snapshot of the vendor object taken by the page
type MapVendorObject map[string]interface{}

// Lookup walks dotted accessors such as "data.member"
func (m MapVendorObject) Lookup(_ context.Context, accessor string) (interface{}, bool, error) {
	value, ok := lookupPath(m, accessor)
	return value, ok, nil
}

// lookupPath resolves a dotted path inside nested maps
func lookupPath(doc map[string]interface{}, path string) (interface{}, bool) {
	if doc == nil || path == "" {
		return nil, false
	}

	var current interface{} = doc
	for _, part := range strings.Split(path, ".") {
		m, ok := current.(map[string]interface{})
		if !ok {
			return nil, false
		}
		current, ok = m[part]
		if !ok {
			return nil, false
		}
	}
	if current == nil {
		return nil, false
	}
	return current, true
}

// HTTPVendorObject reads the vendor member document from an HTTP endpoint.
// The document is fetched at most once per maxAge so that several probes
// in the same attempt share one request.
type HTTPVendorObject struct {
	url    string
	token  string
	pool   *httpclient.HTTPClientPool
	maxAge time.Duration

	mu        sync.Mutex
	doc       map[string]interface{}
	fetchedAt time.Time
}

// NewHTTPVendorObject creates a vendor object backed by url. token, when
// set, is forwarded as a bearer credential.
func NewHTTPVendorObject(url, token string, pool *httpclient.HTTPClientPool, maxAge time.Duration) *HTTPVendorObject {
	if pool == nil {
		pool = httpclient.GetGlobalPool()
	}
	return &HTTPVendorObject{
		url:    url,
		token:  token,
		pool:   pool,
		maxAge: maxAge,
	}
}

// Refresh fetches the member document unless the cached one is fresh.
// 204, 401 and 404 mean "not signed in yet" and leave an empty document.
func (o *HTTPVendorObject) Refresh(ctx context.Context) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if !o.fetchedAt.IsZero() && time.Since(o.fetchedAt) < o.maxAge {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, o.url, nil)
	if err != nil {
		return fmt.Errorf("failed to build vendor request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if o.token != "" {
		req.Header.Set("Authorization", "Bearer "+o.token)
	}

	resp, err := o.pool.Do(req)
	if err != nil {
		return fmt.Errorf("vendor request failed: %w", err)
	}
	defer resp.Body.Close()

	o.fetchedAt = time.Now()
	o.doc = nil

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNoContent, http.StatusUnauthorized, http.StatusNotFound:
		return nil
	default:
		return fmt.Errorf("vendor returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("failed to read vendor response: %w", err)
	}
	var doc map[string]interface{}
	if err := json.Unmarshal(body, &doc); err != nil {
		return fmt.Errorf("failed to decode vendor response: %w", err)
	}
	o.doc = doc
	return nil
}

// Lookup reads an accessor from the last fetched document
func (o *HTTPVendorObject) Lookup(_ context.Context, accessor string) (interface{}, bool, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	value, ok := lookupPath(o.doc, accessor)
	return value, ok, nil
}
