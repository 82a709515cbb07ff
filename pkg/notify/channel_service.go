package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/quietloop/orchestrator/pkg/crypto"
)

// ChannelManager provides channel CRUD for the admin API, encrypting
// sensitive config fields at rest the same way Service decrypts them.
type ChannelManager struct {
	store     *ChannelStore
	secretBox *crypto.Box
}

// NewChannelManager creates a ChannelManager.
func NewChannelManager(store *ChannelStore, secretBox *crypto.Box) *ChannelManager {
	return &ChannelManager{store: store, secretBox: secretBox}
}

func (m *ChannelManager) encryptSensitiveConfig(sensitive map[string]string) (string, error) {
	if len(sensitive) == 0 {
		return "", nil
	}
	plaintext, err := json.Marshal(sensitive)
	if err != nil {
		return "", fmt.Errorf("encoding sensitive config: %w", err)
	}
	encrypted, err := m.secretBox.Encrypt(string(plaintext))
	if err != nil {
		return "", fmt.Errorf("encrypting sensitive config: %w", err)
	}
	return encrypted, nil
}

// Create inserts a new notification channel, encrypting its sensitive config.
func (m *ChannelManager) Create(ctx context.Context, req CreateChannelRequest) (Channel, error) {
	encrypted, err := m.encryptSensitiveConfig(req.SensitiveConfig)
	if err != nil {
		return Channel{}, err
	}

	c := Channel{
		Name:                     req.Name,
		Type:                     ChannelType(req.Type),
		Config:                   req.Config,
		SensitiveConfigEncrypted: encrypted,
		Enabled:                  req.Enabled,
		EnabledEvents:            req.EnabledEvents,
		BatchingEnabled:          req.BatchingEnabled,
		BatchingWindowSeconds:    req.BatchingWindowSeconds,
		QuietHoursEnabled:        req.QuietHoursEnabled,
		QuietHoursStart:          req.QuietHoursStart,
		QuietHoursEnd:            req.QuietHoursEnd,
		QuietHoursTimezone:       req.QuietHoursTimezone,
	}
	if c.BatchingWindowSeconds == 0 {
		c.BatchingWindowSeconds = 300
	}
	return m.store.Create(ctx, c)
}

// Get returns a single channel.
func (m *ChannelManager) Get(ctx context.Context, id uuid.UUID) (Channel, error) {
	return m.store.Get(ctx, id)
}

// List returns every channel.
func (m *ChannelManager) List(ctx context.Context) ([]Channel, error) {
	return m.store.List(ctx)
}

// Update updates a channel's editable fields. Sensitive config is left
// untouched; operators re-create the channel to rotate credentials.
func (m *ChannelManager) Update(ctx context.Context, id uuid.UUID, req UpdateChannelRequest) (Channel, error) {
	c := Channel{
		Name:                  req.Name,
		Config:                req.Config,
		Enabled:               req.Enabled,
		EnabledEvents:         req.EnabledEvents,
		BatchingEnabled:       req.BatchingEnabled,
		BatchingWindowSeconds: req.BatchingWindowSeconds,
		QuietHoursEnabled:     req.QuietHoursEnabled,
		QuietHoursStart:       req.QuietHoursStart,
		QuietHoursEnd:         req.QuietHoursEnd,
		QuietHoursTimezone:    req.QuietHoursTimezone,
	}
	if c.BatchingWindowSeconds == 0 {
		c.BatchingWindowSeconds = 300
	}
	return m.store.Update(ctx, id, c)
}

// Delete removes a channel.
func (m *ChannelManager) Delete(ctx context.Context, id uuid.UUID) error {
	return m.store.Delete(ctx, id)
}
