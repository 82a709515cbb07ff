package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/quietloop/orchestrator/pkg/orcherr"
)

type chatAEmbedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline,omitempty"`
}

type chatAEmbed struct {
	Title       string            `json:"title"`
	Description string            `json:"description"`
	URL         string            `json:"url,omitempty"`
	Timestamp   string            `json:"timestamp"`
	Color       int               `json:"color"`
	Fields      []chatAEmbedField `json:"fields,omitempty"`
}

type chatABody struct {
	Embeds []chatAEmbed `json:"embeds"`
}

// colorToInt converts a "#rrggbb" hex color to its integer value.
func colorToInt(hex string) int {
	hex = strings.TrimPrefix(hex, "#")
	v, err := strconv.ParseInt(hex, 16, 64)
	if err != nil {
		return 0
	}
	return int(v)
}

type chatASender struct{}

func (chatASender) Send(ctx context.Context, channel Channel, sensitiveConfig map[string]string, payload Payload) Result {
	started := time.Now()
	url, _ := channel.Config["url"].(string)
	if url == "" {
		return resultError(channel, orcherr.NewConfigurationError("chatA channel missing webhook url"), started)
	}

	color := payload.Color
	if color == "" {
		if c, ok := EventColors[payload.EventType]; ok {
			color = c
		} else {
			color = DefaultColor
		}
	}

	embed := chatAEmbed{
		Title:       payload.Title,
		Description: payload.Message,
		URL:         payload.URL,
		Timestamp:   payload.Timestamp.UTC().Format(time.RFC3339),
		Color:       colorToInt(color),
	}
	for name, value := range payload.Fields {
		embed.Fields = append(embed.Fields, chatAEmbedField{Name: name, Value: value, Inline: true})
	}

	raw, err := json.Marshal(chatABody{Embeds: []chatAEmbed{embed}})
	if err != nil {
		return resultError(channel, orcherr.NewValidationError("encoding chatA body"), started)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(raw))
	if err != nil {
		return resultError(channel, orcherr.NewValidationError("building chatA request"), started)
	}
	req.Header.Set("Content-Type", "application/json")

	client := &http.Client{Timeout: senderTimeout}
	resp, err := client.Do(req)
	if err != nil {
		return resultError(channel, classifyHTTPErr(err), started)
	}
	defer func() { _ = resp.Body.Close() }()

	now := time.Now().UTC()
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return resultSuccess(channel, resp.StatusCode, started, now)
	}
	return resultError(channel, classifyStatusErr(resp.StatusCode), started)
}

func (s chatASender) Test(ctx context.Context, channel Channel, sensitiveConfig map[string]string) Result {
	return s.Send(ctx, channel, sensitiveConfig, testPayload())
}
