package notify

// CreateChannelRequest is the JSON body for POST /api/v1/channels.
type CreateChannelRequest struct {
	Name                  string         `json:"name" validate:"required,min=1"`
	Type                  string         `json:"type" validate:"required,oneof=webhook chatA chatB chatC email"`
	Config                map[string]any `json:"config"`
	SensitiveConfig       map[string]string `json:"sensitive_config"`
	Enabled               bool           `json:"enabled"`
	EnabledEvents         []string       `json:"enabled_events"`
	BatchingEnabled       bool           `json:"batching_enabled"`
	BatchingWindowSeconds int            `json:"batching_window_seconds" validate:"omitempty,min=1"`
	QuietHoursEnabled     bool           `json:"quiet_hours_enabled"`
	QuietHoursStart       *string        `json:"quiet_hours_start" validate:"omitempty,len=5"`
	QuietHoursEnd         *string        `json:"quiet_hours_end" validate:"omitempty,len=5"`
	QuietHoursTimezone    string         `json:"quiet_hours_timezone"`
}

// UpdateChannelRequest is the JSON body for PUT /api/v1/channels/:id.
type UpdateChannelRequest struct {
	Name                  string   `json:"name" validate:"required,min=1"`
	Config                map[string]any `json:"config"`
	Enabled               bool     `json:"enabled"`
	EnabledEvents         []string `json:"enabled_events"`
	BatchingEnabled       bool     `json:"batching_enabled"`
	BatchingWindowSeconds int      `json:"batching_window_seconds" validate:"omitempty,min=1"`
	QuietHoursEnabled     bool     `json:"quiet_hours_enabled"`
	QuietHoursStart       *string  `json:"quiet_hours_start" validate:"omitempty,len=5"`
	QuietHoursEnd         *string  `json:"quiet_hours_end" validate:"omitempty,len=5"`
	QuietHoursTimezone    string   `json:"quiet_hours_timezone"`
}

// ChannelResponse is the JSON response for a channel. Sensitive config is
// never echoed back.
type ChannelResponse struct {
	ID                    string         `json:"id"`
	Name                  string         `json:"name"`
	Type                  ChannelType    `json:"type"`
	Config                map[string]any `json:"config"`
	Enabled               bool           `json:"enabled"`
	EnabledEvents         []string       `json:"enabled_events"`
	BatchingEnabled       bool           `json:"batching_enabled"`
	BatchingWindowSeconds int            `json:"batching_window_seconds"`
	QuietHoursEnabled     bool           `json:"quiet_hours_enabled"`
	QuietHoursStart       *string        `json:"quiet_hours_start,omitempty"`
	QuietHoursEnd         *string        `json:"quiet_hours_end,omitempty"`
	QuietHoursTimezone    string         `json:"quiet_hours_timezone"`
}

// ToChannelResponse converts a Channel to its public DTO.
func ToChannelResponse(c Channel) ChannelResponse {
	return ChannelResponse{
		ID:                    c.ID,
		Name:                  c.Name,
		Type:                  c.Type,
		Config:                c.Config,
		Enabled:               c.Enabled,
		EnabledEvents:         c.EnabledEvents,
		BatchingEnabled:       c.BatchingEnabled,
		BatchingWindowSeconds: c.BatchingWindowSeconds,
		QuietHoursEnabled:     c.QuietHoursEnabled,
		QuietHoursStart:       c.QuietHoursStart,
		QuietHoursEnd:         c.QuietHoursEnd,
		QuietHoursTimezone:    c.QuietHoursTimezone,
	}
}
