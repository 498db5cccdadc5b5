package relay

import (
	"context"
	"strings"
	"time"

	"telegram-message-service/internal/apperr"
	"telegram-message-service/internal/directory"
	"telegram-message-service/internal/signal"
	"telegram-message-service/internal/telegram"

	"go.uber.org/zap"
)

// SimulateButtonText labels the action button on bullish signals.
const SimulateButtonText = "🎯 Simulate Trade"

// TestSignalText is the canned bullish signal sent by SendTestSignal.
const TestSignalText = "🚀 **Bullish Alert** 🚀\n\n" +
	"🪙 **Token:** ARB (arbitrum)\n" +
	"📈 **Signal: Buy**\n\n" +
	"🎯 TP1: $11.37\n" +
	"🎯 TP2: $12.87\n" +
	"🛑 Stop Loss: $8.37\n" +
	"💰 Entry Price: $9.37\n\n" +
	"⏳ Timeline: 24h\n" +
	"_This is a test signal._"

// DeliveryResult describes one delivered message.
type DeliveryResult struct {
	Username     string `json:"username"`
	ChatID       int64  `json:"chat_id"`
	MessageID    int64  `json:"message_id"`
	Actionable   bool   `json:"has_action"`
	CallbackData string `json:"callback_data,omitempty"`
}

// Dispatcher sends signal text to a user, attaching the "Simulate Trade" button to bullish signals.
type Dispatcher struct {
	chats     ChatResolver
	messenger Messenger
	logger    *zap.Logger
	now       func() time.Time
}

// NewDispatcher creates a Dispatcher.
func NewDispatcher(chats ChatResolver, messenger Messenger, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		chats:     chats,
		messenger: messenger,
		logger:    logger.Named("dispatcher"),
		now:       time.Now,
	}
}

// Send delivers text to username as exactly one message. An unknown user fails with
// NOT_FOUND before anything is sent; transport failures are returned as-is, without retry.
func (d *Dispatcher) Send(ctx context.Context, username, text string) (*DeliveryResult, error) {
	username = directory.Normalize(username)
	if username == "" {
		return nil, apperr.Newf(apperr.InvalidInput, "username is required")
	}
	if strings.TrimSpace(text) == "" {
		return nil, apperr.Newf(apperr.InvalidInput, "message is required")
	}

	chatID, err := d.chats.ResolveChatID(ctx, username)
	if err != nil {
		return nil, err
	}

	l := d.logger.With(zap.String("username", username), zap.Int64("chat_id", chatID))

	result := &DeliveryResult{Username: username, ChatID: chatID}
	opts := telegram.SendOptions{ParseMode: telegram.ParseModeMarkdown}

	if signal.IsActionable(text) {
		data := signal.NewCallbackToken(d.now(), username)
		if len(data) > signal.MaxCallbackDataLen {
			l.Warn("Callback data exceeds the Bot API limit", zap.Int("length", len(data)))
		}
		opts.ReplyMarkup = telegram.SingleButton(SimulateButtonText, data)
		result.Actionable = true
		result.CallbackData = data
	}

	msg, err := d.messenger.SendMessage(ctx, chatID, text, opts)
	if err != nil {
		l.Error("Failed to deliver message", zap.Error(err))
		return nil, err
	}
	result.MessageID = msg.MessageID

	l.Info("Delivered message",
		zap.Int64("message_id", msg.MessageID),
		zap.Bool("has_action", result.Actionable),
	)
	return result, nil
}

// SendTestSignal sends the canned bullish signal to username.
func (d *Dispatcher) SendTestSignal(ctx context.Context, username string) (*DeliveryResult, error) {
	return d.Send(ctx, username, TestSignalText)
}
