// Package dispatcher implements the throttle-and-rate-limit-aware search
// dispatcher: resolving a connector, building its HTTP client, and executing
// one of the three search verbs it exposes.
package dispatcher

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/quietloop/orchestrator/pkg/orcherr"
)

// ConnectorClient calls the four verbs a backend connector exposes.
type ConnectorClient struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

// NewConnectorClient creates a client for one connector instance.
func NewConnectorClient(baseURL, apiKey string, timeout time.Duration) *ConnectorClient {
	return &ConnectorClient{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		apiKey:     apiKey,
	}
}

// CommandResponse is the shared shape every command verb returns.
type CommandResponse struct {
	ID     int    `json:"id"`
	Status string `json:"status"`
}

type commandRequest struct {
	Name         string `json:"name"`
	EpisodeIDs   []int  `json:"episodeIds,omitempty"`
	SeriesID     int    `json:"seriesId,omitempty"`
	SeasonNumber int    `json:"seasonNumber,omitempty"`
	MovieIDs     []int  `json:"movieIds,omitempty"`
}

func (c *ConnectorClient) command(ctx context.Context, body commandRequest) (CommandResponse, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return CommandResponse{}, fmt.Errorf("marshalling command: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/command", bytes.NewReader(payload))
	if err != nil {
		return CommandResponse{}, fmt.Errorf("building command request: %w", err)
	}
	req.Header.Set("X-Api-Key", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return CommandResponse{}, classifyDoErr(err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusTooManyRequests {
		retryAfter := parseRetryAfter(resp.Header.Get("Retry-After"))
		return CommandResponse{}, orcherr.NewRateLimitError("connector returned 429", retryAfter)
	}
	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return CommandResponse{}, orcherr.NewAuthenticationError(fmt.Sprintf("connector returned HTTP %d", resp.StatusCode))
	}
	if resp.StatusCode >= 500 {
		return CommandResponse{}, orcherr.NewServerError(fmt.Sprintf("connector returned HTTP %d", resp.StatusCode), resp.StatusCode)
	}
	if resp.StatusCode >= 400 {
		return CommandResponse{}, orcherr.NewValidationError(fmt.Sprintf("connector returned HTTP %d", resp.StatusCode))
	}

	var result CommandResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return CommandResponse{}, fmt.Errorf("decoding command response: %w", err)
	}
	return result, nil
}

// SendEpisodeSearch dispatches an EpisodeSearch command.
func (c *ConnectorClient) SendEpisodeSearch(ctx context.Context, episodeIDs []int) (CommandResponse, error) {
	return c.command(ctx, commandRequest{Name: "EpisodeSearch", EpisodeIDs: episodeIDs})
}

// SendSeasonSearch dispatches a SeasonSearch command.
func (c *ConnectorClient) SendSeasonSearch(ctx context.Context, seriesID, seasonNumber int) (CommandResponse, error) {
	return c.command(ctx, commandRequest{Name: "SeasonSearch", SeriesID: seriesID, SeasonNumber: seasonNumber})
}

// SendMoviesSearch dispatches a MoviesSearch command.
func (c *ConnectorClient) SendMoviesSearch(ctx context.Context, movieIDs []int) (CommandResponse, error) {
	return c.command(ctx, commandRequest{Name: "MoviesSearch", MovieIDs: movieIDs})
}

// Ping checks connector liveness.
func (c *ConnectorClient) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/", nil)
	if err != nil {
		return fmt.Errorf("building ping request: %w", err)
	}
	req.Header.Set("X-Api-Key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return classifyDoErr(err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 500 {
		return orcherr.NewServerError(fmt.Sprintf("connector returned HTTP %d", resp.StatusCode), resp.StatusCode)
	}
	return nil
}

func classifyDoErr(err error) error {
	if netErr, ok := err.(interface{ Timeout() bool }); ok && netErr.Timeout() {
		return orcherr.NewTimeoutError("connector request timed out", err)
	}
	return orcherr.NewNetworkError("connector request failed", err)
}

func parseRetryAfter(header string) time.Duration {
	if header == "" {
		return 0
	}
	var seconds int
	if _, err := fmt.Sscanf(header, "%d", &seconds); err != nil || seconds <= 0 {
		return 0
	}
	return time.Duration(seconds) * time.Second
}
