package relay

import (
	"context"
	"sync"
	"time"

	"telegram-message-service/internal/signal"
	"telegram-message-service/internal/simulation"
	"telegram-message-service/internal/telegram"

	"go.uber.org/zap"
)

// State is where a callback event stands in its lifecycle.
type State string

const (
	StateReceived     State = "received"
	StateAcknowledged State = "acknowledged"
	StateProcessing   State = "processing"
	StateSucceeded    State = "succeeded"
	StateFailed       State = "failed"
	// StateIgnored marks payloads that are not simulation requests.
	StateIgnored State = "ignored"
	// StateDuplicate marks tokens rejected by the consumed-token guard.
	StateDuplicate State = "duplicate"
)

const (
	ackText       = "⏳ Simulating trade..."
	ackUnknown    = "Unknown action"
	duplicateText = "ℹ️ This signal was already simulated."
	privateChat   = "private"
)

// Correlator ties a "Simulate Trade" press back to its signal, runs the simulation and
// reports the outcome in the chat.
type Correlator struct {
	messenger        Messenger
	runner           Runner
	guard            TokenGuard
	logger           *zap.Logger
	progressInterval time.Duration
	now              func() time.Time
	wg               sync.WaitGroup
}

// NewCorrelator creates a Correlator. guard may be nil, in which case a replayed
// callback token is simulated again. A non-positive progressInterval disables refreshes.
func NewCorrelator(messenger Messenger, runner Runner, guard TokenGuard, progressInterval time.Duration, logger *zap.Logger) *Correlator {
	return &Correlator{
		messenger:        messenger,
		runner:           runner,
		guard:            guard,
		logger:           logger.Named("correlator"),
		progressInterval: progressInterval,
		now:              time.Now,
	}
}

// HandleAsync processes cq on its own goroutine. The event is not tied to the
// caller's context; use Wait to join it.
func (c *Correlator) HandleAsync(cq telegram.CallbackQuery) {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		c.Handle(context.Background(), cq)
	}()
}

// Wait blocks until every event started by HandleAsync has finished.
func (c *Correlator) Wait() {
	c.wg.Wait()
}

// Handle runs one callback query to completion and returns its final state.
func (c *Correlator) Handle(ctx context.Context, cq telegram.CallbackQuery) State {
	l := c.logger.With(zap.String("callback_id", cq.ID), zap.Int64("user_id", cq.From.ID))

	token, ok := signal.ParseCallbackToken(cq.Data)
	if !ok {
		l.Debug("Ignoring unrelated callback", zap.String("data", cq.Data))
		c.answer(ctx, l, cq.ID, ackUnknown)
		return StateIgnored
	}

	ev := c.capture(cq, token)
	l = l.With(zap.String("username", ev.Username), zap.Int64("chat_id", ev.ChatID))
	l.Info("Received simulation request", zap.Time("issued_at", token.IssuedAt))

	c.answer(ctx, l, cq.ID, ackText)

	if c.guard != nil {
		fresh, err := c.guard.Claim(ctx, cq.Data)
		switch {
		case err != nil:
			l.Warn("Callback guard unavailable, processing anyway", zap.Error(err))
		case !fresh:
			l.Info("Callback token already consumed")
			if _, err := c.messenger.SendMessage(ctx, ev.ChatID, duplicateText, telegram.SendOptions{}); err != nil {
				l.Warn("Failed to report duplicate callback", zap.Error(err))
			}
			return StateDuplicate
		}
	}

	var processingID int64
	msg, err := c.messenger.SendMessage(ctx, ev.ChatID, processingText(0), telegram.SendOptions{ParseMode: telegram.ParseModeMarkdown})
	if err != nil {
		l.Warn("Failed to post processing message", zap.Error(err))
	} else {
		processingID = msg.MessageID
	}

	p := startProgress(ctx, c.messenger, ev.ChatID, processingID, c.progressInterval, l)
	resp, err := c.runner.Run(ctx, ev)
	p.stop()

	text, state := renderOutcome(resp, err)
	switch {
	case err != nil:
		l.Warn("Trade simulation failed", zap.Error(err))
	case resp != nil:
		l.Info("Trade simulation finished", zap.String("signal_id", resp.SignalID), zap.String("state", string(state)))
	}

	c.report(ctx, l, ev.ChatID, processingID, text)
	return state
}

// capture builds the interaction from the callback query alone.
func (c *Correlator) capture(cq telegram.CallbackQuery, token signal.CallbackToken) simulation.Interaction {
	username := cq.From.Username
	if username == "" {
		username = token.Username
	}

	ev := simulation.Interaction{
		TelegramUserID:  cq.From.ID,
		Username:        username,
		FirstName:       cq.From.FirstName,
		ChatID:          cq.From.ID,
		ChatType:        privateChat,
		CallbackQueryID: cq.ID,
		CallbackData:    cq.Data,
		InteractedAt:    c.now().UTC(),
	}
	if m := cq.Message; m != nil {
		ev.ChatID = m.Chat.ID
		ev.ChatType = m.Chat.Type
		ev.MessageID = m.MessageID
		ev.MessageText = m.Text
		ev.MessageDate = time.Unix(m.Date, 0).UTC()
	}
	return ev
}

func (c *Correlator) answer(ctx context.Context, l *zap.Logger, id, text string) {
	// Queries older than a few seconds can no longer be answered.
	if err := c.messenger.AnswerCallbackQuery(ctx, id, text); err != nil {
		l.Debug("Failed to answer callback query", zap.Error(err))
	}
}

// report puts the terminal text in the processing message, or in a new message
// when there is none or it cannot be edited.
func (c *Correlator) report(ctx context.Context, l *zap.Logger, chatID, processingID int64, text string) {
	opts := telegram.SendOptions{ParseMode: telegram.ParseModeMarkdown}

	if processingID != 0 {
		err := c.messenger.EditMessageText(ctx, chatID, processingID, text, opts)
		if err == nil || telegram.IsMessageNotModified(err) {
			return
		}
		l.Warn("Failed to edit processing message, sending a new one", zap.Error(err))
	}

	if _, err := c.messenger.SendMessage(ctx, chatID, text, opts); err != nil {
		l.Error("Failed to report simulation outcome", zap.Error(err))
	}
}
