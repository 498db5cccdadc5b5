// Package directory resolves Telegram handles to chats, trading identities and
// custodial accounts. Every lookup fails closed: a missing link is NOT_FOUND, never a default.
package directory

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"telegram-message-service/internal/apperr"
	"telegram-message-service/internal/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Identity is a user's trading identity and the custodial address it owns on one network.
type Identity struct {
	TradingIdentity  string
	CustodialAddress string
	Network          string
}

// Lookup reads the user directory collections.
type Lookup struct {
	db      *gorm.DB
	network string
	logger  *zap.Logger
}

// NewLookup creates a Lookup that resolves custodial addresses on the given network.
func NewLookup(db *gorm.DB, network string, logger *zap.Logger) *Lookup {
	return &Lookup{db: db, network: network, logger: logger.Named("directory")}
}

// Normalize strips the leading "@" of a Telegram handle.
func Normalize(username string) string {
	return strings.TrimPrefix(strings.TrimSpace(username), "@")
}

func (l *Lookup) findUser(ctx context.Context, username string) (*models.TelegramUser, error) {
	var user models.TelegramUser
	err := l.db.WithContext(ctx).Where("username = ?", username).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("could not query user %s: %w", username, err)
	}
	return &user, nil
}

// ResolveChatID returns the chat the bot uses to reach username.
func (l *Lookup) ResolveChatID(ctx context.Context, username string) (int64, error) {
	username = Normalize(username)
	user, err := l.findUser(ctx, username)
	if err != nil {
		return 0, err
	}
	if user == nil {
		return 0, apperr.Newf(apperr.NotFound, "no linked Telegram user found for %s", username)
	}
	if user.ChatID == nil {
		return 0, apperr.Newf(apperr.NotFound, "no chat id on record for %s", username)
	}
	return *user.ChatID, nil
}

// ResolveTradingIdentity maps username to its trading identity, then to the custodial
// address deployed for that identity on the configured network.
func (l *Lookup) ResolveTradingIdentity(ctx context.Context, username string) (*Identity, error) {
	username = Normalize(username)
	user, err := l.findUser(ctx, username)
	if err != nil {
		return nil, err
	}
	if user == nil || user.TradingIdentity == "" {
		return nil, apperr.Newf(apperr.NotFound, "trading identity lookup: no trading identity linked to %s", username)
	}

	var deployment models.SafeDeployment
	err = l.db.WithContext(ctx).Where("trading_identity = ?", user.TradingIdentity).First(&deployment).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.Newf(apperr.NotFound, "custodial address lookup: no safe deployment for %s", user.TradingIdentity)
	}
	if err != nil {
		return nil, fmt.Errorf("could not query safe deployment for %s: %w", user.TradingIdentity, err)
	}

	address := deployment.SafeAddresses[l.network]
	if address == "" {
		return nil, apperr.Newf(apperr.NotFound, "custodial address lookup: no %s address for %s", l.network, user.TradingIdentity)
	}

	return &Identity{
		TradingIdentity:  user.TradingIdentity,
		CustodialAddress: address,
		Network:          l.network,
	}, nil
}

// LinkChat records the chat a user talks to the bot from. It creates the user when
// the handle is new and never touches the trading identity.
func (l *Lookup) LinkChat(ctx context.Context, username string, chatID int64, firstName string) error {
	username = Normalize(username)
	if username == "" {
		return apperr.Newf(apperr.InvalidInput, "cannot link a chat without a username")
	}

	now := time.Now()
	user := models.TelegramUser{Username: username}
	err := l.db.WithContext(ctx).
		Where(models.TelegramUser{Username: username}).
		Assign(models.TelegramUser{ChatID: &chatID, FirstName: firstName, LastSeenAt: &now}).
		FirstOrCreate(&user).Error
	if err != nil {
		return fmt.Errorf("failed to link chat for %s: %w", username, err)
	}

	l.logger.Info("Linked chat to user", zap.String("username", username), zap.Int64("chat_id", chatID))
	return nil
}
