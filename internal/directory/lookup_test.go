package directory

import (
	"context"
	"testing"

	"telegram-message-service/internal/apperr"
	"telegram-message-service/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupTest(t *testing.T) (*gorm.DB, *Lookup) {
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&models.TelegramUser{}, &models.SafeDeployment{}))
	return db, NewLookup(db, "arbitrum", zap.NewNop())
}

func chat(id int64) *int64 { return &id }

func TestResolveChatID(t *testing.T) {
	ctx := context.Background()
	db, lookup := setupTest(t)
	db.Create(&models.TelegramUser{Username: "alice", ChatID: chat(1001)})
	db.Create(&models.TelegramUser{Username: "nochat"})

	t.Run("Found", func(t *testing.T) {
		id, err := lookup.ResolveChatID(ctx, "@alice")
		require.NoError(t, err)
		assert.Equal(t, int64(1001), id)
	})

	t.Run("UnknownUser", func(t *testing.T) {
		_, err := lookup.ResolveChatID(ctx, "unknown_user")
		assert.True(t, apperr.IsCode(err, apperr.NotFound))
	})

	t.Run("NoChatID", func(t *testing.T) {
		_, err := lookup.ResolveChatID(ctx, "nochat")
		assert.True(t, apperr.IsCode(err, apperr.NotFound))
		assert.Contains(t, err.Error(), "no chat id")
	})
}

func TestResolveTradingIdentity(t *testing.T) {
	ctx := context.Background()
	db, lookup := setupTest(t)
	db.Create(&models.TelegramUser{Username: "alice", ChatID: chat(1), TradingIdentity: "alice-trader"})
	db.Create(&models.SafeDeployment{TradingIdentity: "alice-trader", SafeAddresses: map[string]string{"arbitrum": "0xA11CE"}})
	db.Create(&models.TelegramUser{Username: "bob", ChatID: chat(2)})
	db.Create(&models.TelegramUser{Username: "carol", ChatID: chat(3), TradingIdentity: "carol-trader"})
	db.Create(&models.TelegramUser{Username: "dave", ChatID: chat(4), TradingIdentity: "dave-trader"})
	db.Create(&models.SafeDeployment{TradingIdentity: "dave-trader", SafeAddresses: map[string]string{"base": "0xDA4E"}})

	t.Run("Found", func(t *testing.T) {
		id, err := lookup.ResolveTradingIdentity(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, &Identity{TradingIdentity: "alice-trader", CustodialAddress: "0xA11CE", Network: "arbitrum"}, id)
	})

	t.Run("NoTradingIdentity", func(t *testing.T) {
		_, err := lookup.ResolveTradingIdentity(ctx, "bob")
		assert.True(t, apperr.IsCode(err, apperr.NotFound))
		assert.Contains(t, err.Error(), "trading identity lookup")
	})

	t.Run("NoDeployment", func(t *testing.T) {
		_, err := lookup.ResolveTradingIdentity(ctx, "carol")
		assert.True(t, apperr.IsCode(err, apperr.NotFound))
		assert.Contains(t, err.Error(), "custodial address lookup")
	})

	t.Run("WrongNetwork", func(t *testing.T) {
		_, err := lookup.ResolveTradingIdentity(ctx, "dave")
		assert.True(t, apperr.IsCode(err, apperr.NotFound))
		assert.Contains(t, err.Error(), "no arbitrum address")
	})
}

func TestLinkChat(t *testing.T) {
	ctx := context.Background()
	db, lookup := setupTest(t)
	db.Create(&models.TelegramUser{Username: "alice", TradingIdentity: "alice-trader"})

	require.NoError(t, lookup.LinkChat(ctx, "alice", 555, "Alice"))
	require.NoError(t, lookup.LinkChat(ctx, "@newbie", 777, "New"))

	id, err := lookup.ResolveChatID(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(555), id)

	var alice models.TelegramUser
	require.NoError(t, db.Where("username = ?", "alice").First(&alice).Error)
	assert.Equal(t, "alice-trader", alice.TradingIdentity)
	assert.NotNil(t, alice.LastSeenAt)

	id, err = lookup.ResolveChatID(ctx, "newbie")
	require.NoError(t, err)
	assert.Equal(t, int64(777), id)

	err = lookup.LinkChat(ctx, "", 1, "")
	assert.True(t, apperr.IsCode(err, apperr.InvalidInput))
}
