// Package mail provides the delivery transports used by the dispatch engine.
package mail

import (
	"context"
	"errors"
	"fmt"

	"github.com/timmy/hrnotify/internal/config"
)

// ErrNoRecipient is returned when a message has no recipient address.
var ErrNoRecipient = errors.New("mail: no recipient")

// Transport delivers one HTML message.
type Transport interface {
	Deliver(ctx context.Context, recipient, subject, htmlBody string) error
}

// NewTransport builds the transport selected by cfg.Transport.
func NewTransport(cfg *config.MailConfig) (Transport, error) {
	switch cfg.Transport {
	case "smtp":
		if cfg.SMTP.Host == "" {
			return nil, fmt.Errorf("mail: smtp transport requires a host")
		}
		return NewSMTPTransport(&SMTPConfig{
			Host:     cfg.SMTP.Host,
			Port:     cfg.SMTP.Port,
			Username: cfg.SMTP.Username,
			Password: cfg.SMTP.Password,
			From:     cfg.SMTP.From,
		}), nil
	case "http":
		if cfg.HTTP.Endpoint == "" {
			return nil, fmt.Errorf("mail: http transport requires an endpoint")
		}
		return NewHTTPTransport(&HTTPConfig{
			Endpoint: cfg.HTTP.Endpoint,
			APIKey:   cfg.HTTP.APIKey,
			From:     cfg.HTTP.From,
			Timeout:  cfg.HTTP.Timeout,
		}), nil
	case "log", "":
		return NewLogTransport(), nil
	default:
		return nil, fmt.Errorf("mail: unknown transport %q", cfg.Transport)
	}
}
