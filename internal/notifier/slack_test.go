package notifier

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestSlackConfigValidation(t *testing.T) {
	tests := []struct {
		name    string
		config  SlackConfig
		wantErr string
	}{
		{"empty config", SlackConfig{}, "webhook URL is required"},
		{"http URL rejected", SlackConfig{WebhookURL: "http://hooks.slack.com/services/xxx"}, "webhook URL must use HTTPS"},
		{"valid config", SlackConfig{WebhookURL: "https://hooks.slack.com/services/T00/B00/xxx"}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestSlackNotifierSend(t *testing.T) {
	var received slackMessage

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST method, got %s", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("expected Content-Type application/json, got %s", ct)
		}
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &received); err != nil {
			t.Errorf("failed to unmarshal payload: %v", err)
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	}))
	defer server.Close()

	// Plain HTTP test server; Validate is bypassed on purpose.
	notifier := &SlackNotifier{
		config:     SlackConfig{WebhookURL: server.URL},
		httpClient: server.Client(),
	}

	msg := &Message{Subject: "Welcome to Projectboard!", Summary: "New sign-up: Aaron Sumner <aaron@example.com>"}
	if err := notifier.Send(context.Background(), msg); err != nil {
		t.Fatalf("Send failed: %v", err)
	}

	if received.Text != msg.Summary {
		t.Errorf("Text = %q, want %q", received.Text, msg.Summary)
	}
	if len(received.Blocks) != 3 || received.Blocks[0].Type != "header" {
		t.Fatalf("unexpected blocks: %+v", received.Blocks)
	}
	if received.Blocks[0].Text.Text != "Welcome to Projectboard!" {
		t.Errorf("header = %q", received.Blocks[0].Text.Text)
	}
}

func TestSlackNotifierSkipsWithoutSummary(t *testing.T) {
	notifier := &SlackNotifier{config: SlackConfig{WebhookURL: "https://invalid.example"}, httpClient: http.DefaultClient}
	if err := notifier.Send(context.Background(), &Message{Subject: "x"}); err != nil {
		t.Errorf("Send without summary should be a no-op, got %v", err)
	}
}

func TestSlackNotifierHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte("invalid_payload"))
	}))
	defer server.Close()

	notifier := &SlackNotifier{config: SlackConfig{WebhookURL: server.URL}, httpClient: server.Client()}
	err := notifier.Send(context.Background(), &Message{Summary: "x"})
	if err == nil || !strings.Contains(err.Error(), "invalid_payload") {
		t.Errorf("expected API error, got %v", err)
	}
}

func TestSlackNotifierContextCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	notifier := &SlackNotifier{config: SlackConfig{WebhookURL: server.URL}, httpClient: server.Client()}
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if err := notifier.Send(ctx, &Message{Summary: "x"}); err == nil {
		t.Error("expected error from cancelled context")
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		max  int
		want string
	}{
		{"short", 10, "short"},
		{"exactly10!", 10, "exactly10!"},
		{"this is too long", 10, "this is..."},
		{"héllo wörld", 8, "héllo..."},
	}
	for _, tt := range tests {
		if got := truncate(tt.in, tt.max); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.max, got, tt.want)
		}
	}
}
