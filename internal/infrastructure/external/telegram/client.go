// Package telegram implements a thin Telegram Bot API wrapper. The monitor
// only ever pushes messages into one chat, so the client exposes exactly
// that: SendMessage with retry. No update polling, no keyboards.
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/rollcall-hub/attendance-monitor/pkg/retry"
)

// ══════════════════════════════════════════════════════════════════════════════
// CONFIGURATION
// ══════════════════════════════════════════════════════════════════════════════

// ErrEmptyMessage is returned when a send is attempted with no text.
var ErrEmptyMessage = errors.New("telegram: message text cannot be empty")

// ClientConfig contains configuration for the Telegram client.
type ClientConfig struct {
	// Token is the Telegram Bot API token.
	Token string

	// BaseURL is the Bot API base URL (default: https://api.telegram.org).
	BaseURL string

	// Timeout is the HTTP request timeout.
	Timeout time.Duration

	// RetryAttempts is the number of attempts for failed sends.
	RetryAttempts int

	// RetryDelay is the initial delay between retries.
	RetryDelay time.Duration

	// Logger for structured logging.
	Logger *slog.Logger
}

// DefaultClientConfig returns sensible defaults.
func DefaultClientConfig(token string) ClientConfig {
	return ClientConfig{
		Token:         token,
		BaseURL:       "https://api.telegram.org",
		Timeout:       30 * time.Second,
		RetryAttempts: 3,
		RetryDelay:    1 * time.Second,
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// API TYPES
// ══════════════════════════════════════════════════════════════════════════════

// APIResponse is the Bot API response envelope.
type APIResponse struct {
	OK          bool                `json:"ok"`
	Result      json.RawMessage     `json:"result,omitempty"`
	Description string              `json:"description,omitempty"`
	ErrorCode   int                 `json:"error_code,omitempty"`
	Parameters  *ResponseParameters `json:"parameters,omitempty"`
}

// ResponseParameters contains additional error parameters.
type ResponseParameters struct {
	RetryAfter int `json:"retry_after,omitempty"`
}

// SendMessageParams contains parameters for sending a message.
type SendMessageParams struct {
	ChatID              int64  `json:"chat_id"`
	Text                string `json:"text"`
	ParseMode           string `json:"parse_mode,omitempty"`
	DisableNotification bool   `json:"disable_notification,omitempty"`
}

// ══════════════════════════════════════════════════════════════════════════════
// CLIENT
// ══════════════════════════════════════════════════════════════════════════════

// Client is the Telegram Bot API client.
type Client struct {
	config     ClientConfig
	httpClient *http.Client
	logger     *slog.Logger
	retrier    *retry.Retrier
}

// NewClient creates a new Telegram client.
func NewClient(config ClientConfig) *Client {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	if config.BaseURL == "" {
		config.BaseURL = "https://api.telegram.org"
	}

	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		logger: config.Logger,
		retrier: retry.New(
			retry.WithMaxAttempts(config.RetryAttempts),
			retry.WithInitialDelay(config.RetryDelay),
		),
	}
}

// SendMessage delivers one message to a chat. Rate-limit responses and
// server errors are retried; malformed requests are not.
func (c *Client) SendMessage(ctx context.Context, params SendMessageParams) error {
	if params.Text == "" {
		return ErrEmptyMessage
	}

	return c.retrier.Do(ctx, func(ctx context.Context) error {
		return c.callMethod(ctx, "sendMessage", params)
	})
}

// callMethod posts one Bot API method call and checks the envelope.
func (c *Client) callMethod(ctx context.Context, method string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return retry.Permanent(fmt.Errorf("marshal request: %w", err))
	}

	url := fmt.Sprintf("%s/bot%s/%s", c.config.BaseURL, c.config.Token, method)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return retry.Permanent(fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return retry.Retryable(fmt.Errorf("execute request: %w", err))
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return retry.Retryable(fmt.Errorf("read response: %w", err))
	}

	var apiResp APIResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return retry.Permanent(fmt.Errorf("parse response: %w", err))
	}

	if !apiResp.OK {
		err := fmt.Errorf("telegram api error %d: %s", apiResp.ErrorCode, apiResp.Description)
		// 429 and 5xx are transient; everything else means the request
		// itself is wrong.
		if apiResp.ErrorCode == http.StatusTooManyRequests || apiResp.ErrorCode >= http.StatusInternalServerError {
			return retry.Retryable(err)
		}
		return retry.Permanent(err)
	}

	return nil
}
