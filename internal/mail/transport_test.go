package mail

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/timmy/hrnotify/internal/config"
)

func TestNewTransport(t *testing.T) {
	testCases := []struct {
		name    string
		cfg     config.MailConfig
		want    Transport
		wantErr bool
	}{
		{name: "default is dry run", cfg: config.MailConfig{}, want: &LogTransport{}},
		{name: "log", cfg: config.MailConfig{Transport: "log"}, want: &LogTransport{}},
		{name: "smtp", cfg: config.MailConfig{Transport: "smtp", SMTP: config.SMTPConfig{Host: "smtp.example.com", Port: 587}}, want: &SMTPTransport{}},
		{name: "smtp without host", cfg: config.MailConfig{Transport: "smtp"}, wantErr: true},
		{name: "http", cfg: config.MailConfig{Transport: "http", HTTP: config.HTTPMailConfig{Endpoint: "http://localhost"}}, want: &HTTPTransport{}},
		{name: "http without endpoint", cfg: config.MailConfig{Transport: "http"}, wantErr: true},
		{name: "unknown", cfg: config.MailConfig{Transport: "pigeon"}, wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := NewTransport(&tc.cfg)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.IsType(t, tc.want, got)
		})
	}
}

func TestSMTPTransport_FromFallsBackToUsername(t *testing.T) {
	tr := NewSMTPTransport(&SMTPConfig{Host: "smtp.example.com", Port: 587, Username: "rh@example.com"})
	assert.Equal(t, "rh@example.com", tr.from)
}

func TestTransports_RejectEmptyRecipient(t *testing.T) {
	ctx := context.Background()
	transports := map[string]Transport{
		"log":  NewLogTransport(),
		"smtp": NewSMTPTransport(&SMTPConfig{Host: "smtp.example.com", Port: 587}),
		"http": NewHTTPTransport(&HTTPConfig{Endpoint: "http://localhost"}),
	}
	for name, tr := range transports {
		t.Run(name, func(t *testing.T) {
			assert.True(t, errors.Is(tr.Deliver(ctx, "", "s", "b"), ErrNoRecipient))
		})
	}
}

func TestHTTPTransport_Deliver(t *testing.T) {
	var got sendRequest
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"msg-1"}`))
	}))
	defer srv.Close()

	tr := NewHTTPTransport(&HTTPConfig{Endpoint: srv.URL, APIKey: "key", From: "rh@example.com"})
	err := tr.Deliver(context.Background(), "ana@example.com", "Alert", "<p>hi</p>")

	require.NoError(t, err)
	assert.Equal(t, "Bearer key", auth)
	assert.Equal(t, sendRequest{
		From:    "rh@example.com",
		To:      []string{"ana@example.com"},
		Subject: "Alert",
		HTML:    "<p>hi</p>",
	}, got)
}

func TestHTTPTransport_APIError(t *testing.T) {
	testCases := []struct {
		name    string
		body    string
		wantMsg string
	}{
		{name: "with message", body: `{"message":"mailbox unavailable"}`, wantMsg: "mail API error: mailbox unavailable"},
		{name: "without message", body: `{}`, wantMsg: "mail API error: status 422"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnprocessableEntity)
				w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			tr := NewHTTPTransport(&HTTPConfig{Endpoint: srv.URL})
			err := tr.Deliver(context.Background(), "ana@example.com", "Alert", "<p>hi</p>")
			require.Error(t, err)
			assert.Equal(t, tc.wantMsg, err.Error())
		})
	}
}
