package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/quietloop/orchestrator/pkg/orcherr"
)

type chatCRequest struct {
	ChatID                string `json:"chat_id"`
	Text                  string `json:"text"`
	ParseMode             string `json:"parse_mode"`
	DisableWebPagePreview bool   `json:"disable_web_page_preview"`
	DisableNotification   bool   `json:"disable_notification"`
}

var chatCMarkdownV2Escaper = strings.NewReplacer(
	"_", "\\_", "*", "\\*", "[", "\\[", "]", "\\]", "(", "\\(", ")", "\\)",
	"~", "\\~", "`", "\\`", ">", "\\>", "#", "\\#", "+", "\\+", "-", "\\-",
	"=", "\\=", "|", "\\|", "{", "\\{", "}", "\\}", ".", "\\.", "!", "\\!",
)

var chatCHTMLEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

func escapeChatCText(parseMode, text string) string {
	switch parseMode {
	case "MarkdownV2":
		return chatCMarkdownV2Escaper.Replace(text)
	case "HTML":
		return chatCHTMLEscaper.Replace(text)
	default:
		return text
	}
}

type chatCSender struct{}

func (chatCSender) Send(ctx context.Context, channel Channel, sensitiveConfig map[string]string, payload Payload) Result {
	started := time.Now()
	apiBase, _ := channel.Config["apiBase"].(string)
	if apiBase == "" {
		apiBase = "https://api.telegram.org"
	}
	chatID, _ := channel.Config["chatId"].(string)
	token := sensitiveConfig["botToken"]
	if chatID == "" || token == "" {
		return resultError(channel, orcherr.NewConfigurationError("chatC channel missing chatId or botToken"), started)
	}
	parseMode, _ := channel.Config["parseMode"].(string)
	if parseMode == "" {
		parseMode = "HTML"
	}

	text := fmt.Sprintf("%s\n%s", escapeChatCText(parseMode, payload.Title), escapeChatCText(parseMode, payload.Message))
	body := chatCRequest{
		ChatID:                chatID,
		Text:                  text,
		ParseMode:             parseMode,
		DisableWebPagePreview: true,
	}
	raw, err := json.Marshal(body)
	if err != nil {
		return resultError(channel, orcherr.NewValidationError("encoding chatC body"), started)
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", apiBase, token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(raw))
	if err != nil {
		return resultError(channel, orcherr.NewValidationError("building chatC request"), started)
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

func (s chatCSender) Test(ctx context.Context, channel Channel, sensitiveConfig map[string]string) Result {
	return s.Send(ctx, channel, sensitiveConfig, testPayload())
}
