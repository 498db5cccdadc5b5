package models

import (
	"time"

	"gorm.io/gorm"
)

// TelegramUser links a public Telegram handle to the chat the bot can write to
// and to the user's trading identity.
type TelegramUser struct {
	gorm.Model
	Username        string     `gorm:"uniqueIndex;not null" json:"username"`
	ChatID          *int64     `json:"chat_id"`
	TradingIdentity string     `gorm:"index" json:"trading_identity"`
	FirstName       string     `json:"first_name,omitempty"`
	LastSeenAt      *time.Time `json:"last_seen_at,omitempty"`
}

func (TelegramUser) TableName() string { return "telegram_users" }
