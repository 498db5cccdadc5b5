package relay

import (
	"context"
	"strings"

	"telegram-message-service/internal/telegram"

	"go.uber.org/zap"
)

const (
	startCommand   = "/start"
	welcomeText    = "👋 You're linked! Trading signals will be delivered to this chat."
	noUsernameText = "Please set a Telegram username in your profile, then send /start again."
)

// UpdateRouter routes incoming updates: button presses go to the Correlator and
// /start messages link the sender's chat to their username.
type UpdateRouter struct {
	correlator *Correlator
	linker     ChatLinker
	messenger  Messenger
	logger     *zap.Logger
}

var _ telegram.UpdateHandler = (*UpdateRouter)(nil)

// NewUpdateRouter creates an UpdateRouter.
func NewUpdateRouter(correlator *Correlator, linker ChatLinker, messenger Messenger, logger *zap.Logger) *UpdateRouter {
	return &UpdateRouter{
		correlator: correlator,
		linker:     linker,
		messenger:  messenger,
		logger:     logger.Named("updates"),
	}
}

// HandleUpdate implements telegram.UpdateHandler. Callback queries are processed
// asynchronously so one slow simulation never holds up the update stream.
func (r *UpdateRouter) HandleUpdate(ctx context.Context, u telegram.Update) {
	switch {
	case u.CallbackQuery != nil:
		r.correlator.HandleAsync(*u.CallbackQuery)
	case u.Message != nil:
		r.handleMessage(ctx, u.Message)
	}
}

func (r *UpdateRouter) handleMessage(ctx context.Context, m *telegram.Message) {
	if m.From == nil || m.Chat.Type != privateChat || !isStart(m.Text) {
		return
	}

	l := r.logger.With(zap.Int64("chat_id", m.Chat.ID), zap.String("username", m.From.Username))

	reply := welcomeText
	if m.From.Username == "" {
		reply = noUsernameText
	} else if err := r.linker.LinkChat(ctx, m.From.Username, m.Chat.ID, m.From.FirstName); err != nil {
		l.Error("Failed to link chat", zap.Error(err))
		return
	} else {
		l.Info("Linked chat")
	}

	if _, err := r.messenger.SendMessage(ctx, m.Chat.ID, reply, telegram.SendOptions{}); err != nil {
		l.Warn("Failed to send welcome message", zap.Error(err))
	}
}

// isStart matches "/start", "/start payload" and "/start@botname".
func isStart(text string) bool {
	cmd, _, _ := strings.Cut(strings.TrimSpace(text), " ")
	cmd, _, _ = strings.Cut(cmd, "@")
	return cmd == startCommand
}
