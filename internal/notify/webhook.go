package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
)

// Webhook posts best-effort audit messages to a Discord webhook URL.
// Failures are logged and swallowed; callers never see them.
type Webhook struct {
	url    string
	client *http.Client
}

// NewWebhook wires a webhook notifier; returns nil when no URL is configured.
func NewWebhook(url string) *Webhook {
	url = strings.TrimSpace(url)
	if url == "" {
		return nil
	}
	return &Webhook{
		url:    url,
		client: &http.Client{Timeout: 5 * time.Second},
	}
}

type webhookEmbed struct {
	Title     string              `json:"title"`
	Color     int                 `json:"color"`
	Timestamp string              `json:"timestamp"`
	Fields    []webhookEmbedField `json:"fields"`
}

type webhookEmbedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

type webhookPayload struct {
	Embeds []webhookEmbed `json:"embeds"`
}

// AdminAction notifies the webhook about an admin mutation.
func (w *Webhook) AdminAction(ctx context.Context, action, target, actor string) {
	if w == nil {
		return
	}
	payload := webhookPayload{
		Embeds: []webhookEmbed{{
			Title:     "Admin action: " + action,
			Color:     0xE67E22,
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Fields: []webhookEmbedField{
				{Name: "Target", Value: orDash(target), Inline: true},
				{Name: "Actor", Value: orDash(actor), Inline: true},
			},
		}},
	}
	w.send(ctx, payload)
}

func (w *Webhook) send(ctx context.Context, payload webhookPayload) {
	body, errMarshal := json.Marshal(payload)
	if errMarshal != nil {
		log.WithError(errMarshal).Warn("webhook: marshal payload failed")
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}
	req, errReq := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if errReq != nil {
		log.WithError(errReq).Warn("webhook: build request failed")
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, errDo := w.client.Do(req)
	if errDo != nil {
		log.WithError(errDo).Warn("webhook: post failed")
		return
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode >= 300 {
		log.Warnf("webhook: post returned status %d", resp.StatusCode)
	}
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
