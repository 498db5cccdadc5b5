package simulation

import "time"

// Interaction is everything known at the moment a user pressed "Simulate Trade".
// It is captured once from the callback query and is the only source of the
// signal's context: the original message is not stored at dispatch time.
type Interaction struct {
	TelegramUserID  int64
	Username        string
	FirstName       string
	ChatID          int64
	ChatType        string // private, group, supergroup or channel
	MessageID       int64
	MessageText     string
	MessageDate     time.Time
	CallbackQueryID string
	CallbackData    string
	InteractedAt    time.Time
}
