package notify

import (
	"bytes"
	"context"
	"fmt"
	"mime"
	"net/smtp"
	"sort"
	"strings"
	"time"

	"github.com/quietloop/orchestrator/pkg/orcherr"
)

type emailSender struct{}

func (emailSender) buildMessage(channel Channel, sensitiveConfig map[string]string, payload Payload) ([]byte, string, error) {
	from, _ := channel.Config["from"].(string)
	to, _ := channel.Config["to"].(string)
	if from == "" || to == "" {
		return nil, "", orcherr.NewConfigurationError("email channel missing from or to")
	}
	subjectPrefix, _ := channel.Config["subjectPrefix"].(string)
	subject := payload.Title
	if subjectPrefix != "" {
		subject = subjectPrefix + " " + subject
	}

	color := payload.Color
	if color == "" {
		color = DefaultColor
	}

	var rows strings.Builder
	names := make([]string, 0, len(payload.Fields))
	for name := range payload.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(&rows, "<tr><td><strong>%s</strong></td><td>%s</td></tr>", name, payload.Fields[name])
	}

	button := ""
	if payload.URL != "" {
		button = fmt.Sprintf(`<p><a href="%s" style="display:inline-block;padding:8px 16px;background:%s;color:#fff;text-decoration:none;border-radius:4px;">View Details</a></p>`, payload.URL, color)
	}

	html := fmt.Sprintf(`<html><body>
<div style="border-top:4px solid %s;padding:16px;">
<h2>%s</h2>
<p>%s</p>
<table>%s</table>
%s
</div>
</body></html>`, color, payload.Title, payload.Message, rows.String(), button)

	plain := payload.Title + "\n\n" + payload.Message
	for _, name := range names {
		plain += fmt.Sprintf("\n%s: %s", name, payload.Fields[name])
	}
	if payload.URL != "" {
		plain += "\n\n" + payload.URL
	}

	boundary := "orchestrator-boundary"
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "From: %s\r\n", from)
	fmt.Fprintf(&buf, "To: %s\r\n", to)
	fmt.Fprintf(&buf, "Subject: %s\r\n", mime.QEncoding.Encode("UTF-8", subject))
	fmt.Fprintf(&buf, "MIME-Version: 1.0\r\n")
	fmt.Fprintf(&buf, "Content-Type: multipart/alternative; boundary=%s\r\n\r\n", boundary)
	fmt.Fprintf(&buf, "--%s\r\nContent-Type: text/plain; charset=UTF-8\r\n\r\n%s\r\n\r\n", boundary, plain)
	fmt.Fprintf(&buf, "--%s\r\nContent-Type: text/html; charset=UTF-8\r\n\r\n%s\r\n\r\n", boundary, html)
	fmt.Fprintf(&buf, "--%s--\r\n", boundary)

	return buf.Bytes(), to, nil
}

func (s emailSender) Send(ctx context.Context, channel Channel, sensitiveConfig map[string]string, payload Payload) Result {
	started := time.Now()
	host, _ := channel.Config["host"].(string)
	if host == "" {
		return resultError(channel, orcherr.NewConfigurationError("email channel missing host"), started)
	}
	port, _ := channel.Config["port"].(float64)
	if port == 0 {
		port = 587
	}

	msg, to, err := s.buildMessage(channel, sensitiveConfig, payload)
	if err != nil {
		return resultError(channel, err, started)
	}
	from, _ := channel.Config["from"].(string)

	var auth smtp.Auth
	username := sensitiveConfig["username"]
	password := sensitiveConfig["password"]
	if username != "" {
		auth = smtp.PlainAuth("", username, password, host)
	}

	addr := fmt.Sprintf("%s:%d", host, int(port))
	done := make(chan error, 1)
	go func() {
		done <- smtp.SendMail(addr, auth, from, strings.Split(to, ","), msg)
	}()

	select {
	case <-ctx.Done():
		return resultError(channel, orcherr.NewTimeoutError("smtp send cancelled", ctx.Err()), started)
	case err := <-done:
		if err != nil {
			return resultError(channel, orcherr.NewNetworkError("smtp send failed", err), started)
		}
		return resultSuccess(channel, 0, started, time.Now().UTC())
	}
}

func (s emailSender) Test(ctx context.Context, channel Channel, sensitiveConfig map[string]string) Result {
	return s.Send(ctx, channel, sensitiveConfig, testPayload())
}
