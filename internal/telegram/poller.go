package telegram

import (
	"context"
	"log/slog"
	"time"
)

// Handler processes a single update. Errors are logged, not fatal: one bad
// update must not stop the poll loop.
type Handler interface {
	HandleUpdate(ctx context.Context, update Update)
}

// pollRetryDelay is how long the poller backs off after a failed getUpdates
// call before trying again.
const pollRetryDelay = 3 * time.Second

// Poller drives the long-poll loop, dispatching updates to a handler.
type Poller struct {
	client  *Client
	handler Handler
	timeout time.Duration
	logger  *slog.Logger

	offset int64
}

// NewPoller creates a poller with the given server-side poll timeout.
func NewPoller(client *Client, handler Handler, timeout time.Duration, logger *slog.Logger) *Poller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Poller{
		client:  client,
		handler: handler,
		timeout: timeout,
		logger:  logger,
	}
}

// Run polls for updates until the context is cancelled. It returns the
// context error on cancellation.
func (p *Poller) Run(ctx context.Context) error {
	p.logger.Info("starting update poller", "timeout", p.timeout)

	for {
		updates, err := p.client.GetUpdates(ctx, p.offset, p.timeout)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			p.logger.Error("getUpdates failed, backing off", "error", err)
			select {
			case <-time.After(pollRetryDelay):
				continue
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		for _, update := range updates {
			if update.UpdateID >= p.offset {
				p.offset = update.UpdateID + 1
			}
			p.dispatch(ctx, update)
		}
	}
}

// dispatch hands one update to the handler, recovering from panics so a
// single update cannot take the bot down.
func (p *Poller) dispatch(ctx context.Context, update Update) {
	defer func() {
		if rec := recover(); rec != nil {
			p.logger.Error("panic in update handler",
				"update_id", update.UpdateID,
				"panic", rec,
			)
		}
	}()

	p.handler.HandleUpdate(ctx, update)
}

// Shutdown implements the shutdown.Component interface. The poller stops on
// context cancellation, so there is nothing further to tear down.
func (p *Poller) Shutdown(ctx context.Context) error {
	return nil
}

// Name implements the shutdown.Component interface.
func (p *Poller) Name() string {
	return "telegram-poller"
}
