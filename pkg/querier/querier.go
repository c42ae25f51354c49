// Package querier is the HTTP client for the auth core service. All recipe
// packages reach the core through it; it owns the base URL, the api key
// header and tenant-scoped path construction.
package querier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// DefaultTenantID is the tenant used when a request carries no tenant id.
const DefaultTenantID = "public"

// Querier is a client for the auth core API.
type Querier struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
}

// Config holds configuration for the querier.
type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// New creates a new Querier.
func New(cfg Config) *Querier {
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &Querier{
		BaseURL: cfg.BaseURL,
		APIKey:  cfg.APIKey,
		HTTPClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// TenantPath prefixes a core path with the tenant id, defaulting to the
// public tenant when none is given.
func TenantPath(tenantID, path string) string {
	if tenantID == "" {
		tenantID = DefaultTenantID
	}
	return "/" + url.PathEscape(tenantID) + path
}

// APIError is a non-2xx response from the core.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("core API error %d: %s", e.StatusCode, e.Body)
}

// SendGet performs a GET against the core and decodes the JSON response
// into out.
func (q *Querier) SendGet(ctx context.Context, path string, queryParams map[string]string, out any) error {
	u, err := url.Parse(q.BaseURL + path)
	if err != nil {
		return err
	}
	if len(queryParams) > 0 {
		query := u.Query()
		for k, v := range queryParams {
			query.Set(k, v)
		}
		u.RawQuery = query.Encode()
	}
	return q.doRequest(ctx, http.MethodGet, u.String(), nil, out)
}

// SendPost performs a POST with a JSON body against the core and decodes the
// JSON response into out.
func (q *Querier) SendPost(ctx context.Context, path string, body any, out any) error {
	return q.doRequest(ctx, http.MethodPost, q.BaseURL+path, body, out)
}

// SendPut performs a PUT with a JSON body against the core and decodes the
// JSON response into out.
func (q *Querier) SendPut(ctx context.Context, path string, body any, out any) error {
	return q.doRequest(ctx, http.MethodPut, q.BaseURL+path, body, out)
}

func (q *Querier) doRequest(ctx context.Context, method, fullURL string, body any, out any) error {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		bodyReader = bytes.NewBuffer(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, bodyReader)
	if err != nil {
		return err
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if q.APIKey != "" {
		req.Header.Set("api-key", q.APIKey)
	}

	resp, err := q.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		respBody, _ := io.ReadAll(resp.Body)
		return &APIError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	if out != nil && resp.StatusCode != http.StatusNoContent {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return err
		}
	}

	return nil
}
