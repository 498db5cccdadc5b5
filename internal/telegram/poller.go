package telegram

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// UpdateHandler receives every update the poller or webhook delivers.
type UpdateHandler interface {
	HandleUpdate(ctx context.Context, update Update)
}

// Poller pulls updates with getUpdates and hands them to an UpdateHandler.
type Poller struct {
	client  ClientInterface
	handler UpdateHandler
	logger  *zap.Logger
	timeout int
	backoff time.Duration
	offset  int64
}

// NewPoller creates a poller that long-polls for timeout seconds per request.
func NewPoller(client ClientInterface, handler UpdateHandler, timeout int, logger *zap.Logger) *Poller {
	return &Poller{
		client:  client,
		handler: handler,
		logger:  logger.Named("poller"),
		timeout: timeout,
		backoff: time.Second,
	}
}

// Run polls until ctx is cancelled.
func (p *Poller) Run(ctx context.Context) {
	p.logger.Info("Starting update polling", zap.Int("timeout", p.timeout))

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("Stopping update polling...")
			return
		default:
		}

		if err := p.poll(ctx); err != nil {
			if ctx.Err() != nil {
				continue
			}
			p.logger.Warn("Failed to fetch updates, retrying...",
				zap.Duration("retry_after", p.backoff),
				zap.Error(err),
			)
			select {
			case <-time.After(p.backoff):
			case <-ctx.Done():
			}
		}
	}
}

// poll fetches one batch and advances the offset past every update in it.
func (p *Poller) poll(ctx context.Context) error {
	updates, err := p.client.GetUpdates(ctx, p.offset, p.timeout)
	if err != nil {
		return err
	}

	for _, u := range updates {
		p.handler.HandleUpdate(ctx, u)
		if u.UpdateID >= p.offset {
			p.offset = u.UpdateID + 1
		}
	}
	return nil
}
