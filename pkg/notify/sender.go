package notify

import (
	"context"
	"time"

	"github.com/quietloop/orchestrator/pkg/orcherr"
)

// Sender delivers a Payload to one channel type.
type Sender interface {
	Send(ctx context.Context, channel Channel, sensitiveConfig map[string]string, payload Payload) Result
	Test(ctx context.Context, channel Channel, sensitiveConfig map[string]string) Result
}

// senderTimeout is the common timeout applied by every sender's HTTP client.
const senderTimeout = 30 * time.Second

func testPayload() Payload {
	return Payload{
		EventType: EventAppStarted,
		Title:     "Test notification",
		Message:   "This is a test notification from the orchestrator.",
		Color:     DefaultColor,
		Timestamp: time.Now().UTC(),
	}
}

func senderForType(t ChannelType) Sender {
	switch t {
	case ChannelWebhook:
		return webhookSender{}
	case ChannelChatA:
		return chatASender{}
	case ChannelChatB:
		return chatBSender{}
	case ChannelChatC:
		return chatCSender{}
	case ChannelEmail:
		return emailSender{}
	default:
		return nil
	}
}

func resultError(channel Channel, err error, startedAt time.Time) Result {
	category := string(orcherr.CategoryUnknown)
	if oe, ok := orcherr.As(err); ok {
		category = string(oe.Category)
	}
	return Result{
		Success:     false,
		ChannelID:   channel.ID,
		ChannelType: channel.Type,
		Error:       err.Error(),
		Category:    category,
		DurationMs:  time.Since(startedAt).Milliseconds(),
	}
}

func resultSuccess(channel Channel, statusCode int, startedAt, sentAt time.Time) Result {
	return Result{
		Success:     true,
		ChannelID:   channel.ID,
		ChannelType: channel.Type,
		SentAt:      &sentAt,
		StatusCode:  statusCode,
		DurationMs:  time.Since(startedAt).Milliseconds(),
	}
}
