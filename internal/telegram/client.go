// Package telegram is a minimal Telegram Bot API client covering long
// polling, message sending and inline keyboard interactions.
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultBaseURL = "https://api.telegram.org"

// ErrAPIFailure is returned when the Bot API rejects a request.
var ErrAPIFailure = errors.New("telegram api request failed")

// Client is a Telegram Bot API client.
type Client struct {
	token   string
	baseURL string
	hc      *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the Bot API endpoint (used in tests).
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithHTTPClient overrides the underlying HTTP client. Long polling needs a
// client timeout above the poll timeout.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.hc = hc
	}
}

// NewClient creates a Bot API client for the given bot token.
func NewClient(token string, opts ...Option) *Client {
	c := &Client{
		token:   token,
		baseURL: defaultBaseURL,
		hc: &http.Client{
			Timeout: 65 * time.Second,
		},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// GetMe returns the bot's own account, verifying the token works.
func (c *Client) GetMe(ctx context.Context) (*User, error) {
	var user User
	if err := c.call(ctx, "getMe", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// GetUpdates long-polls for updates with IDs >= offset, blocking for up to
// timeout on the server side.
func (c *Client) GetUpdates(ctx context.Context, offset int64, timeout time.Duration) ([]Update, error) {
	params := map[string]any{
		"offset":          offset,
		"timeout":         int(timeout.Seconds()),
		"allowed_updates": []string{"message", "callback_query"},
	}

	var updates []Update
	if err := c.call(ctx, "getUpdates", params, &updates); err != nil {
		return nil, err
	}
	return updates, nil
}

// SendMessage sends a message to a chat.
func (c *Client) SendMessage(ctx context.Context, params SendMessageParams) (*Message, error) {
	var msg Message
	if err := c.call(ctx, "sendMessage", params, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// EditMessageText edits a previously sent message.
func (c *Client) EditMessageText(ctx context.Context, params EditMessageTextParams) error {
	return c.call(ctx, "editMessageText", params, nil)
}

// AnswerCallbackQuery acknowledges an inline keyboard button press.
func (c *Client) AnswerCallbackQuery(ctx context.Context, callbackID string) error {
	params := map[string]any{"callback_query_id": callbackID}
	return c.call(ctx, "answerCallbackQuery", params, nil)
}

// SetMyCommands registers the bot's command menu.
func (c *Client) SetMyCommands(ctx context.Context, commands []BotCommand) error {
	params := map[string]any{"commands": commands}
	return c.call(ctx, "setMyCommands", params, nil)
}

// call performs a Bot API method call, decoding the result into out when it
// is non-nil.
func (c *Client) call(ctx context.Context, method string, params, out any) error {
	var reader io.Reader
	if params != nil {
		encoded, err := json.Marshal(params)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(encoded)
	}

	url := fmt.Sprintf("%s/bot%s/%s", c.baseURL, c.token, method)
	req, err := http.NewRequestWithContext(ctx, "POST", url, reader)
	if err != nil {
		return err
	}
	if params != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var envelope struct {
		OK          bool            `json:"ok"`
		Result      json.RawMessage `json:"result"`
		Description string          `json:"description"`
		ErrorCode   int             `json:"error_code"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("%w: %s: decoding response: %v", ErrAPIFailure, method, err)
	}

	if !envelope.OK {
		return fmt.Errorf("%w: %s: %s (code %d)", ErrAPIFailure, method, envelope.Description, envelope.ErrorCode)
	}

	if out != nil {
		if err := json.Unmarshal(envelope.Result, out); err != nil {
			return fmt.Errorf("%w: %s: decoding result: %v", ErrAPIFailure, method, err)
		}
	}

	return nil
}
