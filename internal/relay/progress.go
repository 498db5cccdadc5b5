package relay

import (
	"context"
	"time"

	"telegram-message-service/internal/telegram"

	"go.uber.org/zap"
)

// progress refreshes the processing message until stopped.
type progress struct {
	cancel context.CancelFunc
	done   chan struct{}
}

func startProgress(ctx context.Context, m Messenger, chatID, messageID int64, interval time.Duration, l *zap.Logger) *progress {
	p := &progress{done: make(chan struct{})}
	if messageID == 0 || interval <= 0 {
		close(p.done)
		p.cancel = func() {}
		return p
	}

	ctx, p.cancel = context.WithCancel(ctx)
	go func() {
		defer close(p.done)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		opts := telegram.SendOptions{ParseMode: telegram.ParseModeMarkdown}
		for frame := 1; ; frame++ {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := m.EditMessageText(ctx, chatID, messageID, processingText(frame), opts); err != nil && ctx.Err() == nil {
					l.Debug("Progress refresh failed", zap.Error(err))
				}
			}
		}
	}()
	return p
}

// stop cancels the refresh loop and waits for it to exit. No refresh is sent after stop returns.
func (p *progress) stop() {
	p.cancel()
	<-p.done
}
