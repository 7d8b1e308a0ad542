// Package telegram is a small Telegram Bot API client: one method per API
// call, JSON over HTTPS, no retries.
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
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/DukeRupert/socialflow/internal/metrics"
)

const (
	// DefaultBaseURL is the public Bot API endpoint.
	DefaultBaseURL = "https://api.telegram.org"

	// DefaultTimeout bounds a single non-polling API call.
	DefaultTimeout = 10 * time.Second

	// maxResponseSize caps how much of a response body is read.
	maxResponseSize = 1 << 20
)

// ErrMissingToken is returned by New when no bot token is configured.
var ErrMissingToken = errors.New("telegram: bot token is required")

// APIError is a failed Bot API call. Description is Telegram's own message.
type APIError struct {
	Method      string
	StatusCode  int
	Code        int
	Description string
	RetryAfter  int
}

func (e *APIError) Error() string {
	return fmt.Sprintf("telegram %s: %d %s", e.Method, e.Code, e.Description)
}

// Config contains configuration for the client.
type Config struct {
	Token     string
	BaseURL   string
	Timeout   time.Duration
	Transport http.RoundTripper
}

// Client calls the Bot API for one bot.
type Client struct {
	baseURL string
	token   string
	timeout time.Duration
	http    *http.Client
	logger  *slog.Logger
}

// New creates a Client. Requests are traced through otelhttp.
func New(config Config, logger *slog.Logger) (*Client, error) {
	if config.Token == "" {
		return nil, ErrMissingToken
	}
	if config.BaseURL == "" {
		config.BaseURL = DefaultBaseURL
	}
	if config.Timeout <= 0 {
		config.Timeout = DefaultTimeout
	}
	if config.Transport == nil {
		config.Transport = http.DefaultTransport
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		baseURL: strings.TrimRight(config.BaseURL, "/"),
		token:   config.Token,
		timeout: config.Timeout,
		http:    &http.Client{Transport: otelhttp.NewTransport(config.Transport)},
		logger:  logger,
	}, nil
}

// GetMe returns the bot's own user.
func (c *Client) GetMe(ctx context.Context) (*User, error) {
	var user User
	if err := c.call(ctx, "getMe", nil, &user, c.timeout); err != nil {
		return nil, err
	}
	return &user, nil
}

// SendMessage sends a text message.
func (c *Client) SendMessage(ctx context.Context, params SendMessageParams) (*Message, error) {
	if err := params.validate(); err != nil {
		return nil, fmt.Errorf("telegram sendMessage: %w", err)
	}
	var msg Message
	if err := c.call(ctx, "sendMessage", params, &msg, c.timeout); err != nil {
		return nil, err
	}
	return &msg, nil
}

// SetWebhook points the bot's updates at params.URL.
func (c *Client) SetWebhook(ctx context.Context, params SetWebhookParams) error {
	if params.URL == "" {
		return fmt.Errorf("telegram setWebhook: url is required")
	}
	var ok bool
	return c.call(ctx, "setWebhook", params, &ok, c.timeout)
}

// DeleteWebhook removes the webhook so getUpdates can be used.
func (c *Client) DeleteWebhook(ctx context.Context, dropPendingUpdates bool) error {
	params := map[string]bool{"drop_pending_updates": dropPendingUpdates}
	var ok bool
	return c.call(ctx, "deleteWebhook", params, &ok, c.timeout)
}

// GetWebhookInfo returns the current webhook status.
func (c *Client) GetWebhookInfo(ctx context.Context) (*WebhookInfo, error) {
	var info WebhookInfo
	if err := c.call(ctx, "getWebhookInfo", nil, &info, c.timeout); err != nil {
		return nil, err
	}
	return &info, nil
}

// GetUpdates long-polls for updates. The call may block for params.Timeout
// seconds on top of the client timeout.
func (c *Client) GetUpdates(ctx context.Context, params GetUpdatesParams) ([]Update, error) {
	var updates []Update
	timeout := c.timeout + time.Duration(params.Timeout)*time.Second
	if err := c.call(ctx, "getUpdates", params, &updates, timeout); err != nil {
		return nil, err
	}
	return updates, nil
}

// apiResponse is the envelope every Bot API method answers with.
type apiResponse struct {
	OK          bool            `json:"ok"`
	Result      json.RawMessage `json:"result"`
	Description string          `json:"description"`
	ErrorCode   int             `json:"error_code"`
	Parameters  *struct {
		RetryAfter int `json:"retry_after"`
	} `json:"parameters"`
}

func (c *Client) call(ctx context.Context, method string, params, out any, timeout time.Duration) (err error) {
	defer func() { metrics.TelegramCall(method, err) }()

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var body io.Reader = http.NoBody
	if params != nil {
		b, err := json.Marshal(params)
		if err != nil {
			return fmt.Errorf("telegram %s: encode params: %w", method, err)
		}
		body = bytes.NewReader(b)
	}

	endpoint := c.baseURL + "/bot" + c.token + "/" + method
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return fmt.Errorf("telegram %s: build request: %w", method, redact(err))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("telegram %s: %w", method, redact(err))
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return fmt.Errorf("telegram %s: read response: %w", method, err)
	}

	var envelope apiResponse
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return &APIError{
			Method:      method,
			StatusCode:  resp.StatusCode,
			Code:        resp.StatusCode,
			Description: "unexpected response: " + http.StatusText(resp.StatusCode),
		}
	}

	if !envelope.OK {
		apiErr := &APIError{
			Method:      method,
			StatusCode:  resp.StatusCode,
			Code:        envelope.ErrorCode,
			Description: envelope.Description,
		}
		if apiErr.Code == 0 {
			apiErr.Code = resp.StatusCode
		}
		if envelope.Parameters != nil {
			apiErr.RetryAfter = envelope.Parameters.RetryAfter
		}
		c.logger.Debug("telegram api error", "method", method, "code", apiErr.Code, "description", apiErr.Description)
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(envelope.Result, out); err != nil {
		return fmt.Errorf("telegram %s: decode result: %w", method, err)
	}
	return nil
}

// redact strips the request URL, which embeds the bot token, from transport
// errors.
func redact(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return urlErr.Err
	}
	return err
}
