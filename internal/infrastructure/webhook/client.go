package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sngm3741/portfolio-services/api/internal/intake/domain"
)

// Format selects the JSON shape of the outbound payload.
type Format string

const (
	FormatDiscord Format = "discord"
	FormatSlack   Format = "slack"
)

const defaultTimeout = 5 * time.Second

// ParseFormat はフォーマット名を正規化し、未知の値は Discord として扱う。
func ParseFormat(raw string) Format {
	switch Format(strings.ToLower(strings.TrimSpace(raw))) {
	case FormatSlack:
		return FormatSlack
	default:
		return FormatDiscord
	}
}

// Client posts notifications to an incoming-webhook URL. Exactly one HTTP
// request is made per Deliver call; there is no retry.
type Client struct {
	httpClient *http.Client
	format     Format
}

// NewClient returns a webhook client. A nil httpClient gets a default one with a bounded timeout.
func NewClient(httpClient *http.Client, format Format) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	if format == "" {
		format = FormatDiscord
	}
	return &Client{httpClient: httpClient, format: format}
}

// Deliver posts notification as JSON to destination. Any non-2xx status is an error.
func (c *Client) Deliver(ctx context.Context, destination string, notification domain.Notification) error {
	destination = strings.TrimSpace(destination)
	if destination == "" {
		return errors.New("destination is empty")
	}

	body, err := json.Marshal(c.payload(notification))
	if err != nil {
		return fmt.Errorf("webhook ペイロードの作成に失敗: %w", err)
	}

	timeout := c.httpClient.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if ctx == nil {
		ctx = context.Background()
	}
	ctxWithTimeout, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctxWithTimeout, http.MethodPost, destination, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("webhook リクエストの作成に失敗: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("webhook リクエストに失敗: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		message, _ := io.ReadAll(io.LimitReader(res.Body, 1<<12))
		return fmt.Errorf("webhook がエラーを返却: status=%d body=%s", res.StatusCode, strings.TrimSpace(string(message)))
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(res.Body, 1<<16))

	return nil
}

func (c *Client) payload(notification domain.Notification) map[string]any {
	if c.format == FormatSlack {
		return map[string]any{"text": notification.Content}
	}
	return map[string]any{"content": notification.Content}
}
