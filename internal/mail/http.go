package mail

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// HTTPConfig holds settings for a transactional mail HTTP API.
type HTTPConfig struct {
	Endpoint string
	APIKey   string
	From     string
	Timeout  time.Duration
}

// HTTPTransport posts messages as JSON to a transactional mail API.
type HTTPTransport struct {
	client   *resty.Client
	endpoint string
	from     string
}

type sendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

type sendResponse struct {
	ID      string `json:"id,omitempty"`
	Message string `json:"message,omitempty"`
}

// NewHTTPTransport creates an HTTP mail transport.
func NewHTTPTransport(cfg *HTTPConfig) *HTTPTransport {
	client := resty.New()
	client.SetHeader("Authorization", "Bearer "+cfg.APIKey)
	client.SetHeader("Content-Type", "application/json")

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	client.SetTimeout(timeout)

	return &HTTPTransport{
		client:   client,
		endpoint: cfg.Endpoint,
		from:     cfg.From,
	}
}

// Deliver sends one message.
func (t *HTTPTransport) Deliver(ctx context.Context, recipient, subject, htmlBody string) error {
	if recipient == "" {
		return ErrNoRecipient
	}

	var resp sendResponse
	httpResp, err := t.client.R().
		SetContext(ctx).
		SetBody(sendRequest{
			From:    t.from,
			To:      []string{recipient},
			Subject: subject,
			HTML:    htmlBody,
		}).
		SetResult(&resp).
		SetError(&resp).
		Post(t.endpoint)
	if err != nil {
		return fmt.Errorf("failed to call mail API: %w", err)
	}

	if httpResp.IsError() {
		if resp.Message != "" {
			return fmt.Errorf("mail API error: %s", resp.Message)
		}
		return fmt.Errorf("mail API error: status %d", httpResp.StatusCode())
	}

	return nil
}
