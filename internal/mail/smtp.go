package mail

import (
	"context"
	"fmt"

	gomail "gopkg.in/mail.v2"
)

// SMTPConfig holds SMTP server settings.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// SMTPTransport sends HTML email over SMTP with STARTTLS when offered.
// Each delivery opens its own connection so workers share no state.
type SMTPTransport struct {
	dialer *gomail.Dialer
	from   string
}

// NewSMTPTransport creates an SMTP transport.
func NewSMTPTransport(cfg *SMTPConfig) *SMTPTransport {
	from := cfg.From
	if from == "" {
		from = cfg.Username
	}
	return &SMTPTransport{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   from,
	}
}

// Deliver sends one message.
func (t *SMTPTransport) Deliver(ctx context.Context, recipient, subject, htmlBody string) error {
	if recipient == "" {
		return ErrNoRecipient
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	message := gomail.NewMessage()
	message.SetHeader("From", t.from)
	message.SetHeader("To", recipient)
	message.SetHeader("Subject", subject)
	message.SetBody("text/html", htmlBody)

	if err := t.dialer.DialAndSend(message); err != nil {
		return fmt.Errorf("smtp send to %s: %w", recipient, err)
	}
	return nil
}
