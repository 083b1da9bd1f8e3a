// Package mailer sends the booking confirmation email through the Brevo
// transactional email API.
package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/iliyamo/theatre-ticketing/internal/metrics"
	"github.com/iliyamo/theatre-ticketing/internal/queue"
)

// DefaultEndpoint is Brevo's transactional email endpoint.
const DefaultEndpoint = "https://api.brevo.com/v3/smtp/email"

// Config holds the Brevo credentials and sender identity.  An empty APIKey
// or FromEmail disables sending.
type Config struct {
	APIKey     string
	FromEmail  string
	FromName   string
	BackendURL string // public base URL used to build the QR image link
	Endpoint   string
	Timeout    time.Duration
}

// Enabled reports whether enough configuration is present to send.
func (c Config) Enabled() bool { return c.APIKey != "" && c.FromEmail != "" }

// Mailer renders and sends confirmation emails.
type Mailer struct {
	cfg    Config
	client *http.Client
	log    logrus.FieldLogger
}

// New returns a Mailer.  Zero Endpoint and Timeout take the defaults.
func New(cfg Config, log logrus.FieldLogger) *Mailer {
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.FromName == "" {
		cfg.FromName = "Theatre Booking"
	}
	cfg.BackendURL = strings.TrimRight(cfg.BackendURL, "/")
	return &Mailer{cfg: cfg, client: &http.Client{Timeout: cfg.Timeout}, log: log}
}

type contact struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email"`
}

type sendRequest struct {
	Sender      contact   `json:"sender"`
	To          []contact `json:"to"`
	Subject     string    `json:"subject"`
	HTMLContent string    `json:"htmlContent"`
}

type sendResponse struct {
	MessageID string `json:"messageId"`
}

// SendConfirmation emails the ticket holder.  It matches queue.Handler so
// it can be plugged straight into a Consumer or Dispatcher.  When the
// mailer is not configured the email is skipped and nil is returned.
func (m *Mailer) SendConfirmation(ctx context.Context, ev queue.TicketRegisteredEvent) error {
	log := m.log.WithFields(logrus.Fields{"ticket_id": ev.TicketID, "email": ev.Email})
	if !m.cfg.Enabled() {
		log.Info("email not configured (BREVO_API_KEY/BREVO_FROM_EMAIL not set), skipping confirmation email")
		metrics.Emails.WithLabelValues("skipped").Inc()
		return nil
	}
	html, err := renderConfirmation(ev, m.qrURL(ev.TicketID))
	if err != nil {
		metrics.Emails.WithLabelValues("failed").Inc()
		return fmt.Errorf("render email: %w", err)
	}
	eventName := ev.EventName
	if eventName == "" {
		eventName = "Theatre Event"
	}
	payload, err := json.Marshal(sendRequest{
		Sender:      contact{Name: m.cfg.FromName, Email: m.cfg.FromEmail},
		To:          []contact{{Name: ev.Name, Email: ev.Email}},
		Subject:     "Booking Confirmed: " + eventName,
		HTMLContent: html,
	})
	if err != nil {
		metrics.Emails.WithLabelValues("failed").Inc()
		return err
	}
	id, err := m.post(ctx, payload)
	if err != nil {
		metrics.Emails.WithLabelValues("failed").Inc()
		return fmt.Errorf("send email to %s: %w", ev.Email, err)
	}
	metrics.Emails.WithLabelValues("sent").Inc()
	log.WithField("message_id", id).Info("confirmation email sent")
	return nil
}

func (m *Mailer) post(ctx context.Context, payload []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.cfg.Endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("api-key", m.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	resp, err := m.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if resp.StatusCode/100 != 2 {
		return "", fmt.Errorf("brevo returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	var out sendResponse
	_ = json.Unmarshal(body, &out)
	return out.MessageID, nil
}

func (m *Mailer) qrURL(ticketID string) string {
	if m.cfg.BackendURL == "" {
		return ""
	}
	return m.cfg.BackendURL + "/api/ticket/" + ticketID + "/qr"
}
