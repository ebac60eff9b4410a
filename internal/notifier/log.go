package notifier

import (
	"context"
	"log"
	"strings"
)

// LogNotifier writes messages to the process log. It is the fallback when
// no mail server is configured.
type LogNotifier struct{}

// Name returns "log".
func (LogNotifier) Name() string { return "log" }

// Send logs the subject and recipients.
func (LogNotifier) Send(_ context.Context, msg *Message) error {
	log.Printf("notification: %q to %s", msg.Subject, strings.Join(msg.To, ", "))
	return nil
}

// Close is a no-op.
func (LogNotifier) Close() error { return nil }
