package telegram

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"telegram-message-service/internal/apperr"
	"telegram-message-service/internal/config"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// ClientInterface is the chat transport used by the relay.
type ClientInterface interface {
	GetMe(ctx context.Context) (*User, error)
	SendMessage(ctx context.Context, chatID int64, text string, opts SendOptions) (*Message, error)
	EditMessageText(ctx context.Context, chatID, messageID int64, text string, opts SendOptions) error
	AnswerCallbackQuery(ctx context.Context, callbackQueryID, text string) error
	GetUpdates(ctx context.Context, offset int64, timeout int) ([]Update, error)
}

// Client is a client for the Telegram Bot API.
// It is safe for concurrent use: one instance is shared by every in-flight callback.
type Client struct {
	client  *resty.Client
	token   string
	logger  *zap.Logger
	limiter *rate.Limiter
}

// ensure Client implements the interface
var _ ClientInterface = (*Client)(nil)

// APIError is a request the Bot API answered with ok=false.
type APIError struct {
	Method      string
	Code        int
	Description string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("telegram %s failed (%d): %s", e.Method, e.Code, e.Description)
}

// NewClient creates a new Bot API client.
func NewClient(cfg *config.Telegram, logger *zap.Logger) *Client {
	// Long polling holds the request open for PollTimeout seconds.
	timeout := time.Duration(cfg.PollTimeout+10) * time.Second

	client := resty.New().
		SetBaseURL(strings.TrimRight(cfg.ApiURL, "/")).
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json")

	return &Client{
		client:  client,
		token:   cfg.BotToken,
		logger:  logger.Named("telegram"),
		limiter: rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateLimitBurst),
	}
}

// call performs one Bot API method call. There are no retries: a failure goes straight
// back to the caller as a TRANSPORT_ERROR carrying the API's description.
func (c *Client) call(ctx context.Context, method string, body interface{}, result interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return apperr.New(apperr.Transport, "rate limiter wait failed", err)
	}

	c.logger.Debug("Executing request", zap.String("method", method))

	var envelope apiResponse
	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(body).
		SetResult(&envelope).
		SetError(&envelope).
		Post("/bot" + c.token + "/" + method)
	if err != nil {
		return apperr.New(apperr.Transport, fmt.Sprintf("telegram %s request failed", method), err)
	}

	if resp.IsError() || !envelope.OK {
		apiErr := &APIError{Method: method, Code: envelope.ErrorCode, Description: envelope.Description}
		if apiErr.Code == 0 {
			apiErr.Code = resp.StatusCode()
		}
		if apiErr.Description == "" {
			apiErr.Description = resp.Status()
		}
		return apperr.New(apperr.Transport, apiErr.Description, apiErr)
	}

	if result != nil && len(envelope.Result) > 0 {
		if err := json.Unmarshal(envelope.Result, result); err != nil {
			return apperr.New(apperr.Transport, fmt.Sprintf("telegram %s returned an unreadable result", method), err)
		}
	}
	return nil
}

// GetMe returns the bot's own user. It is a cheap connectivity and token check.
func (c *Client) GetMe(ctx context.Context) (*User, error) {
	var me User
	if err := c.call(ctx, "getMe", struct{}{}, &me); err != nil {
		return nil, err
	}
	return &me, nil
}

// SendMessage posts text to a chat, optionally with an inline keyboard.
func (c *Client) SendMessage(ctx context.Context, chatID int64, text string, opts SendOptions) (*Message, error) {
	req := sendMessageRequest{
		ChatID:      chatID,
		Text:        text,
		ParseMode:   opts.ParseMode,
		ReplyMarkup: opts.ReplyMarkup,
	}

	var msg Message
	if err := c.call(ctx, "sendMessage", req, &msg); err != nil {
		c.logger.Error("Failed to send message", zap.Int64("chat_id", chatID), zap.Error(err))
		return nil, err
	}
	return &msg, nil
}

// EditMessageText replaces the text of a message the bot sent earlier.
func (c *Client) EditMessageText(ctx context.Context, chatID, messageID int64, text string, opts SendOptions) error {
	req := editMessageTextRequest{
		ChatID:      chatID,
		MessageID:   messageID,
		Text:        text,
		ParseMode:   opts.ParseMode,
		ReplyMarkup: opts.ReplyMarkup,
	}
	return c.call(ctx, "editMessageText", req, nil)
}

// AnswerCallbackQuery acknowledges a button press. Telegram rejects answers to
// queries older than a few seconds.
func (c *Client) AnswerCallbackQuery(ctx context.Context, callbackQueryID, text string) error {
	req := answerCallbackQueryRequest{CallbackQueryID: callbackQueryID, Text: text}
	return c.call(ctx, "answerCallbackQuery", req, nil)
}

// GetUpdates long-polls for updates starting at offset.
func (c *Client) GetUpdates(ctx context.Context, offset int64, timeout int) ([]Update, error) {
	req := getUpdatesRequest{
		Offset:         offset,
		Timeout:        timeout,
		AllowedUpdates: []string{"message", "callback_query"},
	}

	var updates []Update
	if err := c.call(ctx, "getUpdates", req, &updates); err != nil {
		return nil, err
	}
	return updates, nil
}

// IsMessageNotModified reports whether err is Telegram refusing an edit that would not change the text.
func IsMessageNotModified(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && strings.Contains(apiErr.Description, "message is not modified")
}
