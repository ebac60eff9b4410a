package notifier

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/good-yellow-bee/projectboard/internal/models"
)

// dispatcherMockNotifier is a test notifier that can be configured to fail.
type dispatcherMockNotifier struct {
	name      string
	shouldErr bool
	sent      []*Message
}

func (m *dispatcherMockNotifier) Name() string {
	return m.name
}

func (m *dispatcherMockNotifier) Send(ctx context.Context, msg *Message) error {
	m.sent = append(m.sent, msg)
	if m.shouldErr {
		return errors.New("mock send error")
	}
	return nil
}

func (m *dispatcherMockNotifier) Close() error {
	return nil
}

func newTestDispatcher(t *testing.T, max int) *Dispatcher {
	t.Helper()
	d, err := NewDispatcher(RateLimitConfig{MaxPerWindow: max, Window: time.Minute, Enabled: true})
	if err != nil {
		t.Fatalf("NewDispatcher: %v", err)
	}
	return d
}

func TestDispatcherSendWelcome(t *testing.T) {
	d := newTestDispatcher(t, 10)
	mock := &dispatcherMockNotifier{name: "mock"}
	d.Register(mock)

	user := &models.User{FirstName: "Aaron", LastName: "Sumner", Email: "aaron@example.com"}
	if err := d.SendWelcome(context.Background(), user); err != nil {
		t.Fatalf("SendWelcome: %v", err)
	}

	if len(mock.sent) != 1 {
		t.Fatalf("sent %d messages, want 1", len(mock.sent))
	}
	msg := mock.sent[0]
	if len(msg.To) != 1 || msg.To[0] != "aaron@example.com" {
		t.Errorf("To = %v", msg.To)
	}
	if !strings.Contains(msg.Plain, "Hi Aaron,") {
		t.Errorf("plain body missing greeting: %q", msg.Plain)
	}
	if !strings.Contains(msg.HTML, "Welcome to Projectboard, Aaron!") {
		t.Errorf("html body missing greeting: %q", msg.HTML)
	}
	if msg.Summary != "New sign-up: Aaron Sumner <aaron@example.com>" {
		t.Errorf("Summary = %q", msg.Summary)
	}
}

func TestWelcomeEscapesHTML(t *testing.T) {
	tmpl, err := LoadTemplates()
	if err != nil {
		t.Fatalf("LoadTemplates: %v", err)
	}
	msg, err := tmpl.Welcome(&models.User{FirstName: "<b>Eve</b>", Email: "eve@example.com"})
	if err != nil {
		t.Fatalf("Welcome: %v", err)
	}
	if strings.Contains(msg.HTML, "<b>Eve</b>") {
		t.Error("html body should escape user input")
	}
}

func TestDispatcherRefundsTokenOnAllFailures(t *testing.T) {
	d := newTestDispatcher(t, 2)
	d.Register(&dispatcherMockNotifier{name: "failing", shouldErr: true})

	for i := 0; i < 3; i++ {
		if err := d.Dispatch(context.Background(), &Message{Subject: "x"}); err == nil {
			t.Fatal("expected error from failing notifier")
		}
	}
	if got := d.RateLimitStats().CurrentCount; got != 0 {
		t.Errorf("current count = %d, want 0", got)
	}
}

func TestDispatcherKeepsTokenOnPartialSuccess(t *testing.T) {
	d := newTestDispatcher(t, 2)
	d.Register(&dispatcherMockNotifier{name: "failing", shouldErr: true})
	d.Register(&dispatcherMockNotifier{name: "ok"})

	if err := d.Dispatch(context.Background(), &Message{Subject: "x"}); err == nil {
		t.Error("expected the failing notifier's error")
	}
	if got := d.RateLimitStats().CurrentCount; got != 1 {
		t.Errorf("current count = %d, want 1", got)
	}
}

func TestDispatcherRateLimited(t *testing.T) {
	d := newTestDispatcher(t, 1)
	d.Register(&dispatcherMockNotifier{name: "ok"})

	if err := d.Dispatch(context.Background(), &Message{}); err != nil {
		t.Fatalf("first dispatch: %v", err)
	}
	if err := d.Dispatch(context.Background(), &Message{}); !errors.Is(err, ErrRateLimited) {
		t.Errorf("second dispatch: got %v, want ErrRateLimited", err)
	}
}

func TestDispatcherNoNotifiers(t *testing.T) {
	d := newTestDispatcher(t, 1)
	if err := d.Dispatch(context.Background(), &Message{}); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if got := d.RateLimitStats().CurrentCount; got != 0 {
		t.Errorf("current count = %d, want 0", got)
	}
}

func TestDispatcherClose(t *testing.T) {
	d := newTestDispatcher(t, 1)
	d.Register(LogNotifier{})
	if _, ok := d.Get("log"); !ok {
		t.Fatal("log notifier should be registered")
	}
	if err := d.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if _, ok := d.Get("log"); ok {
		t.Error("notifiers should be cleared after Close")
	}
}
