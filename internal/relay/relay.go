// Package relay delivers signals to Telegram users and follows a "Simulate Trade"
// button press through to its reported outcome.
package relay

import (
	"context"

	"telegram-message-service/internal/simulation"
	"telegram-message-service/internal/telegram"
)

// Messenger is the part of the chat transport the relay writes through.
type Messenger interface {
	SendMessage(ctx context.Context, chatID int64, text string, opts telegram.SendOptions) (*telegram.Message, error)
	EditMessageText(ctx context.Context, chatID, messageID int64, text string, opts telegram.SendOptions) error
	AnswerCallbackQuery(ctx context.Context, callbackQueryID, text string) error
}

// ChatResolver finds the chat a username is reached at.
type ChatResolver interface {
	ResolveChatID(ctx context.Context, username string) (int64, error)
}

// ChatLinker records the chat a username talks to the bot from.
type ChatLinker interface {
	LinkChat(ctx context.Context, username string, chatID int64, firstName string) error
}

// Runner runs the simulation workflow for one interaction.
type Runner interface {
	Run(ctx context.Context, ev simulation.Interaction) (*simulation.Response, error)
}
