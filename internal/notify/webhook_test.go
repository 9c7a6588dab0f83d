package notify

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestNewWebhookEmptyURL(t *testing.T) {
	t.Parallel()

	if w := NewWebhook("  "); w != nil {
		t.Fatalf("expected nil webhook for empty URL")
	}
	// A nil webhook must be safe to call.
	var w *Webhook
	w.AdminAction(context.Background(), "ban", "hw", "owner")
}

func TestAdminActionPostsEmbed(t *testing.T) {
	t.Parallel()

	received := make(chan []byte, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		received <- body
		rw.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	w := NewWebhook(srv.URL)
	w.AdminAction(context.Background(), "ban", "hw-1", "owner-1")

	body := <-received
	var payload struct {
		Embeds []struct {
			Title  string `json:"title"`
			Fields []struct {
				Name  string `json:"name"`
				Value string `json:"value"`
			} `json:"fields"`
		} `json:"embeds"`
	}
	if errUnmarshal := json.Unmarshal(body, &payload); errUnmarshal != nil {
		t.Fatalf("unmarshal: %v", errUnmarshal)
	}
	if len(payload.Embeds) != 1 || !strings.Contains(payload.Embeds[0].Title, "ban") {
		t.Fatalf("payload = %s", body)
	}
}

func TestAdminActionSwallowsFailures(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		rw.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	w := NewWebhook(srv.URL)
	// Must not panic or surface the failure.
	w.AdminAction(context.Background(), "reset", "hw-2", "owner-1")

	srv.Close()
	w.AdminAction(context.Background(), "reset", "hw-3", "owner-1")
}
