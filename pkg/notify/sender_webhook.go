package notify

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/quietloop/orchestrator/pkg/orcherr"
)

// webhookBody is the generic webhook JSON body, exactly as spec'd.
type webhookBody struct {
	EventType EventType         `json:"event_type"`
	Title     string            `json:"title"`
	Message   string            `json:"message"`
	Timestamp time.Time         `json:"timestamp"`
	Fields    map[string]string `json:"fields,omitempty"`
	Color     string            `json:"color,omitempty"`
	URL       string            `json:"url,omitempty"`
	EventData map[string]any    `json:"event_data,omitempty"`
}

type webhookSender struct{}

// webhookSignature computes X-Signature = HMAC-SHA256(secret, timestamp + "." + rawBody) in lowercase hex.
func webhookSignature(secret, timestamp string, rawBody []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(timestamp))
	mac.Write([]byte("."))
	mac.Write(rawBody)
	return hex.EncodeToString(mac.Sum(nil))
}

func (webhookSender) buildRequest(channel Channel, sensitiveConfig map[string]string, payload Payload) (*http.Request, error) {
	url, _ := channel.Config["url"].(string)
	if url == "" {
		return nil, orcherr.NewConfigurationError("webhook channel missing url")
	}
	method, _ := channel.Config["method"].(string)
	if method == "" {
		method = http.MethodPost
	}

	body := webhookBody{
		EventType: payload.EventType,
		Title:     payload.Title,
		Message:   payload.Message,
		Timestamp: payload.Timestamp,
		Fields:    payload.Fields,
		Color:     payload.Color,
		URL:       payload.URL,
		EventData: payload.EventData,
	}
	raw, err := json.Marshal(body)
	if err != nil {
		return nil, orcherr.NewValidationError(fmt.Sprintf("encoding webhook body: %v", err))
	}

	req, err := http.NewRequest(method, url, bytes.NewReader(raw))
	if err != nil {
		return nil, orcherr.NewValidationError(fmt.Sprintf("building webhook request: %v", err))
	}
	req.Header.Set("Content-Type", "application/json")

	if secret := sensitiveConfig["signingSecret"]; secret != "" {
		sigHeader, _ := channel.Config["signatureHeader"].(string)
		if sigHeader == "" {
			sigHeader = "X-Signature"
		}
		tsHeader, _ := channel.Config["timestampHeader"].(string)
		if tsHeader == "" {
			tsHeader = "X-Timestamp"
		}
		ts := strconv.FormatInt(time.Now().Unix(), 10)
		req.Header.Set(tsHeader, ts)
		req.Header.Set(sigHeader, webhookSignature(secret, ts, raw))
	}
	return req, nil
}

func (s webhookSender) Send(ctx context.Context, channel Channel, sensitiveConfig map[string]string, payload Payload) Result {
	started := time.Now()
	req, err := s.buildRequest(channel, sensitiveConfig, payload)
	if err != nil {
		return resultError(channel, err, started)
	}
	req = req.WithContext(ctx)

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

func (s webhookSender) Test(ctx context.Context, channel Channel, sensitiveConfig map[string]string) Result {
	return s.Send(ctx, channel, sensitiveConfig, testPayload())
}
