package notify

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/slack-go/slack"

	"github.com/quietloop/orchestrator/pkg/orcherr"
)

const maxChatBFields = 10

type chatBSender struct{}

func (chatBSender) buildMessage(payload Payload) *slack.WebhookMessage {
	blocks := []slack.Block{
		slack.NewHeaderBlock(slack.NewTextBlockObject(slack.PlainTextType, payload.Title, false, false)),
		slack.NewSectionBlock(slack.NewTextBlockObject(slack.MarkdownType, payload.Message, false, false), nil, nil),
	}

	if len(payload.Fields) > 0 {
		names := make([]string, 0, len(payload.Fields))
		for name := range payload.Fields {
			names = append(names, name)
		}
		sort.Strings(names)
		if len(names) > maxChatBFields {
			names = names[:maxChatBFields]
		}
		fieldObjs := make([]*slack.TextBlockObject, 0, len(names))
		for _, name := range names {
			fieldObjs = append(fieldObjs, slack.NewTextBlockObject(slack.MarkdownType,
				fmt.Sprintf("*%s*\n%s", name, payload.Fields[name]), false, false))
		}
		blocks = append(blocks, slack.NewSectionBlock(nil, fieldObjs, nil))
	}

	if payload.URL != "" {
		button := slack.NewButtonBlockElement("view_details", payload.URL,
			slack.NewTextBlockObject(slack.PlainTextType, "View Details", false, false))
		button.URL = payload.URL
		blocks = append(blocks, slack.NewActionBlock("actions", button))
	}

	footer := slack.NewContextBlock("footer",
		slack.NewTextBlockObject(slack.MarkdownType, payload.Timestamp.UTC().Format(time.RFC3339), false, false))
	blocks = append(blocks, footer)

	return &slack.WebhookMessage{
		Text:   payload.Message,
		Blocks: &slack.Blocks{BlockSet: blocks},
	}
}

func (s chatBSender) Send(ctx context.Context, channel Channel, sensitiveConfig map[string]string, payload Payload) Result {
	started := time.Now()
	url, _ := channel.Config["url"].(string)
	if url == "" {
		return resultError(channel, orcherr.NewConfigurationError("chatB channel missing webhook url"), started)
	}

	msg := s.buildMessage(payload)
	if err := slack.PostWebhookContext(ctx, url, msg); err != nil {
		return resultError(channel, orcherr.NewNetworkError("chatB webhook post failed", err), started)
	}
	return resultSuccess(channel, 200, started, time.Now().UTC())
}

func (s chatBSender) Test(ctx context.Context, channel Channel, sensitiveConfig map[string]string) Result {
	return s.Send(ctx, channel, sensitiveConfig, testPayload())
}
