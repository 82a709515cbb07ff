// Package apikey issues and manages API keys for the inbound rate-limited
// variant of the throttle (spec.md 4.F): independently-limited keys external
// callers of the orchestrator's admin API can use instead of the shared
// admin key.
package apikey

import (
	"time"

	"github.com/google/uuid"
)

// CreateRequest is the JSON body for POST /api/v1/api-keys.
type CreateRequest struct {
	Name           string `json:"name" validate:"required,min=1"`
	LimitPerMinute *int   `json:"limit_per_minute" validate:"omitempty,min=1"`
}

// Response is the JSON response for a single API key. The raw key is never
// echoed back after creation.
type Response struct {
	ID             uuid.UUID  `json:"id"`
	Name           string     `json:"name"`
	LimitPerMinute *int       `json:"limit_per_minute,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	RevokedAt      *time.Time `json:"revoked_at,omitempty"`
}

// CreateResponse includes the raw key, shown only once at creation.
type CreateResponse struct {
	Response
	RawKey string `json:"raw_key"`
}

// Row mirrors one api_keys table row.
type Row struct {
	ID             uuid.UUID
	Name           string
	KeyHash        string
	LimitPerMinute *int
	CreatedAt      time.Time
	RevokedAt      *time.Time
}

// ToResponse converts a Row to its public DTO.
func (r Row) ToResponse() Response {
	return Response{
		ID:             r.ID,
		Name:           r.Name,
		LimitPerMinute: r.LimitPerMinute,
		CreatedAt:      r.CreatedAt,
		RevokedAt:      r.RevokedAt,
	}
}
