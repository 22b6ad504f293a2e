// Package mail delivers transactional email through the external mail
// microservice. The service exposes a single POST endpoint accepting
// {email, subject, body}; anything non-2xx is a delivery failure.
package mail

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/wekeza/investment-platform/internal/api/metrics"
)

const requestTimeout = 10 * time.Second

// HTTPMailer posts mail to the external mail microservice.
type HTTPMailer struct {
	url    string
	client *http.Client
}

func NewHTTPMailer(url string) *HTTPMailer {
	return &HTTPMailer{
		url:    url,
		client: &http.Client{Timeout: requestTimeout},
	}
}

type mailRequest struct {
	Email   string `json:"email"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

func (m *HTTPMailer) Send(ctx context.Context, to, subject, body string) error {
	start := time.Now()
	err := m.send(ctx, to, subject, body)
	metrics.MailSendDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.MailSendsTotal.WithLabelValues("error").Inc()
		return err
	}
	metrics.MailSendsTotal.WithLabelValues("ok").Inc()
	return nil
}

func (m *HTTPMailer) send(ctx context.Context, to, subject, body string) error {
	payload, err := json.Marshal(mailRequest{Email: to, Subject: subject, Body: body})
	if err != nil {
		return fmt.Errorf("marshal mail request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build mail request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.client.Do(req)
	if err != nil {
		return fmt.Errorf("mail service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("mail service: unexpected status %d", resp.StatusCode)
	}
	return nil
}

// LogMailer writes mail to the log instead of delivering it. Used in
// development when no mail service is configured, so OTPs remain readable.
type LogMailer struct {
	log zerolog.Logger
}

func NewLogMailer(log zerolog.Logger) *LogMailer {
	return &LogMailer{log: log}
}

func (m *LogMailer) Send(_ context.Context, to, subject, body string) error {
	m.log.Info().
		Str("to", to).
		Str("subject", subject).
		Str("body", body).
		Msg("mail (log only)")
	metrics.MailSendsTotal.WithLabelValues("ok").Inc()
	return nil
}
