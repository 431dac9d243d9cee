// Package notifications delivers request outcome messages and real-time
// event fan-out.
package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// SMSSender sends a single text message to a phone number.
type SMSSender interface {
	Send(ctx context.Context, to, body string) error
}

// TwilioConfig carries the credentials and sender identity for the Twilio
// Messages API.
type TwilioConfig struct {
	AccountSID string
	AuthToken  string
	FromNumber string
	// BaseURL overrides the API endpoint, used by tests.
	BaseURL string
}

// TwilioSender posts messages to the Twilio REST API.
type TwilioSender struct {
	cfg    TwilioConfig
	client *http.Client
}

// NewTwilioSender creates a Twilio-backed SMSSender. The HTTP client carries
// a hard timeout so a slow carrier API can never stall a dispatch goroutine.
func NewTwilioSender(cfg TwilioConfig) *TwilioSender {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.twilio.com"
	}
	return &TwilioSender{
		cfg:    cfg,
		client: &http.Client{Timeout: 5 * time.Second},
	}
}

func (t *TwilioSender) Send(ctx context.Context, to, body string) error {
	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Messages.json", t.cfg.BaseURL, t.cfg.AccountSID)

	form := url.Values{}
	form.Set("To", to)
	form.Set("From", t.cfg.FromNumber)
	form.Set("Body", body)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(t.cfg.AccountSID, t.cfg.AuthToken)

	resp, err := t.client.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 300 {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("twilio responded %d: %s", resp.StatusCode, strings.TrimSpace(string(payload)))
	}
	return nil
}

// NormalizePhone prefixes a stored number with the default country code when
// it has no leading +. Separators are stripped first.
func NormalizePhone(phone, defaultCountryCode string) string {
	cleaned := strings.NewReplacer(" ", "", "-", "", "(", "", ")", "").Replace(strings.TrimSpace(phone))
	if cleaned == "" {
		return ""
	}
	if strings.HasPrefix(cleaned, "+") {
		return cleaned
	}
	return defaultCountryCode + cleaned
}
