// Package connector manages the identity and lifecycle of backend connectors
// (Sonarr/Radarr/Whisparr-shaped media managers of type A/B/C).
package connector

import "time"

// Type identifies the connector's backend flavor.
type Type string

const (
	TypeA Type = "A"
	TypeB Type = "B"
	TypeC Type = "C"
)

// HealthStatus is the connector's last-observed liveness.
type HealthStatus string

const (
	HealthHealthy   HealthStatus = "healthy"
	HealthDegraded  HealthStatus = "degraded"
	HealthUnhealthy HealthStatus = "unhealthy"
	HealthOffline   HealthStatus = "offline"
)

// Connector is a registered backend instance.
type Connector struct {
	ID                    string
	Name                  string
	Type                  Type
	BaseURL               string
	APIKeyEncrypted       string
	HealthStatus          HealthStatus
	QueuePaused           bool
	RateLimitPerMinute    int
	RateLimitPauseSeconds int
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// CreateRequest is the JSON body for POST /api/v1/connectors.
type CreateRequest struct {
	Name                  string `json:"name" validate:"required,min=1"`
	Type                  string `json:"type" validate:"required,oneof=A B C"`
	BaseURL               string `json:"base_url" validate:"required,url"`
	APIKey                string `json:"api_key" validate:"required"`
	RateLimitPerMinute    int    `json:"rate_limit_per_minute" validate:"omitempty,min=1"`
	RateLimitPauseSeconds int    `json:"rate_limit_pause_seconds" validate:"omitempty,min=1"`
}

// UpdateRequest is the JSON body for PUT /api/v1/connectors/:id.
type UpdateRequest struct {
	Name                  string `json:"name" validate:"required,min=1"`
	BaseURL               string `json:"base_url" validate:"required,url"`
	RateLimitPerMinute    int    `json:"rate_limit_per_minute" validate:"omitempty,min=1"`
	RateLimitPauseSeconds int    `json:"rate_limit_pause_seconds" validate:"omitempty,min=1"`
}

// Response is the JSON response for a single connector. The API key is never
// echoed back in decrypted form.
type Response struct {
	ID                    string       `json:"id"`
	Name                  string       `json:"name"`
	Type                  Type         `json:"type"`
	BaseURL               string       `json:"base_url"`
	HealthStatus          HealthStatus `json:"health_status"`
	QueuePaused           bool         `json:"queue_paused"`
	RateLimitPerMinute    int          `json:"rate_limit_per_minute"`
	RateLimitPauseSeconds int          `json:"rate_limit_pause_seconds"`
	CreatedAt             time.Time    `json:"created_at"`
	UpdatedAt             time.Time    `json:"updated_at"`
}

func ToResponse(c Connector) Response {
	return Response{
		ID:                    c.ID,
		Name:                  c.Name,
		Type:                  c.Type,
		BaseURL:               c.BaseURL,
		HealthStatus:          c.HealthStatus,
		QueuePaused:           c.QueuePaused,
		RateLimitPerMinute:    c.RateLimitPerMinute,
		RateLimitPauseSeconds: c.RateLimitPauseSeconds,
		CreatedAt:             c.CreatedAt,
		UpdatedAt:             c.UpdatedAt,
	}
}
