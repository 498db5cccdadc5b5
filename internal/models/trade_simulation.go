package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Simulation record statuses.
const (
	SimulationInitiated = "initiated"
	SimulationSuccess   = "success"
	SimulationFailed    = "failed"
)

// TradeSimulation is one attempt to simulate a trade from a button click.
// It is written once and never updated.
type TradeSimulation struct {
	ID string `gorm:"primaryKey" json:"id"`

	// Interaction event, exactly as captured from the callback query.
	TelegramUserID  int64     `json:"telegram_user_id"`
	Username        string    `gorm:"index" json:"username"`
	FirstName       string    `json:"first_name,omitempty"`
	ChatID          int64     `json:"chat_id"`
	ChatType        string    `json:"chat_type"`
	MessageID       int64     `json:"message_id"`
	MessageText     string    `gorm:"type:text" json:"message_text"`
	MessageDate     time.Time `json:"message_date"`
	CallbackQueryID string    `json:"callback_query_id"`
	CallbackData    string    `json:"callback_data"`
	InteractedAt    time.Time `json:"interacted_at"`

	Status    string    `gorm:"index" json:"status"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`

	// Parsed signal.
	Token        *string   `json:"token"`
	TP1          *float64  `json:"tp1"`
	TP2          *float64  `json:"tp2"`
	StopLoss     *float64  `json:"stop_loss"`
	EntryPrice   *float64  `json:"entry_price"`
	CurrentPrice *float64  `json:"current_price"`
	MaxExitTime  time.Time `json:"max_exit_time"`

	// Resolved identity.
	TradingIdentity string `json:"trading_identity"`
	SafeAddress     string `json:"safe_address"`
	Network         string `json:"network"`

	// Remote outcome.
	SignalID    string          `json:"signal_id,omitempty"`
	TradeID     string          `json:"trade_id,omitempty"`
	Error       string          `json:"error,omitempty"`
	RawResponse json.RawMessage `gorm:"type:text" json:"raw_response"`
}

func (TradeSimulation) TableName() string { return "trade_simulations" }

// BeforeCreate assigns a random id when none was set.
func (s *TradeSimulation) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}

// AfterFind drops an empty raw response so the record still encodes as JSON.
func (s *TradeSimulation) AfterFind(tx *gorm.DB) error {
	if len(s.RawResponse) == 0 {
		s.RawResponse = nil
	}
	return nil
}
