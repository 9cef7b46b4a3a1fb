package notify

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/nugget/mqttwatch/internal/config"
)

// smsAPIBase is the gateway REST endpoint. The wire contract is a form
// POST of Body, MessagingServiceSid and To with basic auth sid:token.
const smsAPIBase = "https://api.twilio.com/2010-04-01"

// SMSClient sends notification texts through the SMS gateway. SMS is
// optional: when credentials are missing or explicitly disabled, every
// Send logs a warning and returns nil so the pipeline is unaffected.
type SMSClient struct {
	cfg    config.SMSConfig
	base   string
	http   *http.Client
	logger *slog.Logger
}

// NewSMSClient creates the gateway client. Availability is logged once
// at startup.
func NewSMSClient(cfg config.SMSConfig, logger *slog.Logger) *SMSClient {
	if logger == nil {
		logger = slog.Default()
	}
	c := &SMSClient{
		cfg:    cfg,
		base:   smsAPIBase,
		http:   &http.Client{Timeout: 30 * time.Second},
		logger: logger,
	}
	if cfg.Available() {
		logger.Info("sms gateway configured", "service", cfg.Service)
	} else {
		logger.Info("sms gateway disabled or missing credentials, sms notifications will be skipped")
	}
	return c
}

// Send delivers one SMS. Returns nil without sending when the gateway
// is unavailable.
func (c *SMSClient) Send(ctx context.Context, to, body string) error {
	if !c.cfg.Available() {
		c.logger.Warn("sms send skipped, gateway unavailable", "to", to)
		return nil
	}

	form := url.Values{}
	form.Set("Body", body)
	form.Set("MessagingServiceSid", c.cfg.Service)
	form.Set("To", to)

	endpoint := fmt.Sprintf("%s/Accounts/%s/Messages.json", c.base, url.PathEscape(c.cfg.SID))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("build sms request: %w", err)
	}
	req.SetBasicAuth(c.cfg.SID, c.cfg.Token)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("sms gateway request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("sms gateway returned %s: %s", resp.Status, strings.TrimSpace(string(snippet)))
	}

	c.logger.Debug("sms sent", "to", to, "bytes", len(body))
	return nil
}
