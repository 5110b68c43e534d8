package delivery

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pquerna/otp/totp"
)

const defaultWebhookTimeout = 10 * time.Second

// HeaderTOTP carries the time-based one-time password on webhook requests.
const HeaderTOTP = "X-TOTP"

type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// WebhookError is returned when the remote side answers with a non-2xx status.
type WebhookError struct {
	URL        string
	StatusCode int
	Body       string
}

func (e *WebhookError) Error() string {
	return fmt.Sprintf("webhook %s: unexpected status %d: %s", e.URL, e.StatusCode, e.Body)
}

// WebhookConfig controls webhook delivery.
type WebhookConfig struct {
	Timeout    time.Duration
	TOTPSecret string
	HTTPClient *http.Client
}

// WebhookSender POSTs updates to webhook clients.
type WebhookSender struct {
	client httpDoer
	secret string
	now    func() time.Time
}

// NewWebhookSender builds a sender. Without a TOTP secret the header is omitted.
func NewWebhookSender(cfg WebhookConfig) *WebhookSender {
	var client httpDoer = cfg.HTTPClient
	if cfg.HTTPClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultWebhookTimeout
		}
		client = &http.Client{Timeout: timeout}
	}
	return &WebhookSender{
		client: client,
		secret: cfg.TOTPSecret,
		now:    time.Now,
	}
}

// Send delivers u to url. Errors are returned for the caller to log; there is
// no inline retry.
func (w *WebhookSender) Send(ctx context.Context, url string, u Update) error {
	body, err := json.Marshal(u)
	if err != nil {
		return fmt.Errorf("encode webhook payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Cache-Control", "no-cache")
	if w.secret != "" {
		code, err := totp.GenerateCode(w.secret, w.now())
		if err != nil {
			return fmt.Errorf("generate totp: %w", err)
		}
		req.Header.Set(HeaderTOTP, code)
	}

	resp, err := w.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &WebhookError{URL: url, StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(snippet))}
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
