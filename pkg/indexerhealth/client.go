package indexerhealth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Client calls one indexer-manager instance's health endpoints.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

// NewClient creates a Client for one indexer-manager instance.
func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	return &Client{httpClient: &http.Client{Timeout: timeout}, baseURL: baseURL, apiKey: apiKey}
}

func (c *Client) get(ctx context.Context, path string, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("X-Api-Key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("calling indexer-manager %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("indexer-manager %s returned HTTP %d", path, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(dst)
}

// ListIndexers calls GET /api/v1/indexer.
func (c *Client) ListIndexers(ctx context.Context) ([]IndexerInfo, error) {
	var out []IndexerInfo
	err := c.get(ctx, "/api/v1/indexer", &out)
	return out, err
}

// ListIndexerStatus calls GET /api/v1/indexerstatus.
func (c *Client) ListIndexerStatus(ctx context.Context) ([]IndexerStatus, error) {
	var out []IndexerStatus
	err := c.get(ctx, "/api/v1/indexerstatus", &out)
	return out, err
}
