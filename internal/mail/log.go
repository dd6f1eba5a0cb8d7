package mail

import (
	"context"

	"github.com/timmy/hrnotify/internal/logger"
)

// LogTransport only logs messages. It is the default so that a fresh
// checkout never emails real people.
type LogTransport struct{}

// NewLogTransport creates a dry-run transport.
func NewLogTransport() *LogTransport {
	return &LogTransport{}
}

// Deliver logs the message and reports success.
func (t *LogTransport) Deliver(ctx context.Context, recipient, subject, htmlBody string) error {
	if recipient == "" {
		return ErrNoRecipient
	}
	logger.FromContext(ctx).WithFields(logger.Fields{
		logger.FieldRecipient: recipient,
		"subject":             subject,
		"body_bytes":          len(htmlBody),
	}).Info("Dry run: notification not sent")
	return nil
}
