package notify

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/quietloop/orchestrator/pkg/aggregate"
	"github.com/quietloop/orchestrator/pkg/crypto"
	"github.com/quietloop/orchestrator/pkg/retry"
)

// Service dispatches domain events to configured notification channels.
type Service struct {
	channels    *ChannelStore
	history     *HistoryStore
	secretBox   *crypto.Box
	retryConfig retry.Config
}

// NewService creates a notification dispatch Service.
func NewService(channels *ChannelStore, history *HistoryStore, secretBox *crypto.Box) *Service {
	return &Service{channels: channels, history: history, secretBox: secretBox, retryConfig: retry.Config{
		MaxRetries: 2,
		BaseDelay:  time.Second,
		MaxDelay:   10 * time.Second,
		Multiplier: 2,
		Jitter:     true,
	}}
}

// decryptSensitiveConfig decrypts a channel's SensitiveConfigEncrypted blob
// (stored as iv:tag:ciphertext over a JSON object) into a flat string map.
func (s *Service) decryptSensitiveConfig(encrypted string) (map[string]string, error) {
	if encrypted == "" {
		return map[string]string{}, nil
	}
	plaintext, err := s.secretBox.Decrypt(encrypted)
	if err != nil {
		return nil, err
	}
	var out map[string]string
	if err := json.Unmarshal([]byte(plaintext), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Dispatch builds a payload for (eventType, eventData), fans it out in
// parallel to every enabled channel, and aggregates the outcomes.
func (s *Service) Dispatch(ctx context.Context, eventType EventType, eventData map[string]any, now time.Time) (DispatchResult, error) {
	payload := aggregate.BuildPayload(string(eventType), eventData, now)
	p := Payload{
		EventType: eventType,
		Title:     payload.Title,
		Message:   payload.Message,
		Color:     payload.Color,
		URL:       payload.URL,
		Fields:    payload.Fields,
		EventData: eventData,
		Timestamp: now,
	}

	channels, err := s.channels.ListEnabledForEvent(ctx, eventType)
	if err != nil {
		return DispatchResult{}, err
	}

	result := DispatchResult{EventType: eventType}
	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)

	for _, channel := range channels {
		channel := channel
		g.Go(func() error {
			r, suppressed, batched := s.dispatchOne(gctx, channel, p, now)
			mu.Lock()
			defer mu.Unlock()
			if suppressed {
				result.QuietHoursSuppressed++
				return nil
			}
			if batched {
				result.Batched++
				return nil
			}
			result.Results = append(result.Results, r)
			return nil
		})
	}
	_ = g.Wait()

	return result, nil
}

// dispatchOne evaluates quiet-hours and batching for one channel, sending
// immediately only when neither applies.
func (s *Service) dispatchOne(ctx context.Context, channel Channel, payload Payload, now time.Time) (Result, bool, bool) {
	eventData, _ := json.Marshal(payload.EventData)

	if channel.QuietHoursEnabled && isInQuietHours(channel, now) {
		_, _ = s.history.Create(ctx, mustParseUUID(channel.ID), payload.EventType, eventData, HistoryPending)
		return Result{}, true, false
	}
	if channel.BatchingEnabled {
		_, _ = s.history.Create(ctx, mustParseUUID(channel.ID), payload.EventType, eventData, HistoryPending)
		return Result{}, false, true
	}

	historyID, err := s.history.Create(ctx, mustParseUUID(channel.ID), payload.EventType, eventData, HistoryPending)
	if err != nil {
		return Result{Success: false, ChannelID: channel.ID, ChannelType: channel.Type, Error: err.Error()}, false, false
	}

	r := s.send(ctx, channel, payload)
	if r.Success {
		sentAt := now
		if r.SentAt != nil {
			sentAt = *r.SentAt
		}
		_ = s.history.MarkSent(ctx, historyID, sentAt)
	} else {
		_ = s.history.MarkFailed(ctx, historyID, r.Error)
	}
	return r, false, false
}

// send delivers payload to channel via its sender, retrying retryable
// failures per the common sender policy.
func (s *Service) send(ctx context.Context, channel Channel, payload Payload) Result {
	sender := senderForType(channel.Type)
	if sender == nil {
		return Result{Success: false, ChannelID: channel.ID, ChannelType: channel.Type, Error: "unknown channel type"}
	}

	sensitiveConfig, err := s.decryptSensitiveConfig(channel.SensitiveConfigEncrypted)
	if err != nil {
		return Result{Success: false, ChannelID: channel.ID, ChannelType: channel.Type, Error: err.Error()}
	}

	var result Result
	_ = retry.WithRetry(ctx, s.retryConfig, func(ctx context.Context) error {
		result = sender.Send(ctx, channel, sensitiveConfig, payload)
		if result.Success {
			return nil
		}
		return classifyResultErr(result)
	})
	return result
}

// TestChannel sends a canned test payload to a single channel, bypassing
// quiet hours and batching.
func (s *Service) TestChannel(ctx context.Context, channel Channel) Result {
	sender := senderForType(channel.Type)
	if sender == nil {
		return Result{Success: false, ChannelID: channel.ID, ChannelType: channel.Type, Error: "unknown channel type"}
	}
	sensitiveConfig, err := s.decryptSensitiveConfig(channel.SensitiveConfigEncrypted)
	if err != nil {
		return Result{Success: false, ChannelID: channel.ID, ChannelType: channel.Type, Error: err.Error()}
	}
	return sender.Test(ctx, channel, sensitiveConfig)
}
