package slack

import (
	"context"
	"log/slog"
	"sync"

	"reelbot/internal/logging"
)

// HandlerFunc processes one message event.
type HandlerFunc func(ctx context.Context, event MessageEvent)

// Dispatcher runs each event on its own goroutine and tracks them for
// shutdown.
type Dispatcher struct {
	ctx     context.Context
	handler HandlerFunc
	logger  *slog.Logger
	wg      sync.WaitGroup

	mu     sync.Mutex
	closed bool
}

// NewDispatcher returns a dispatcher whose handlers inherit ctx.
func NewDispatcher(ctx context.Context, handler HandlerFunc, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Dispatcher{
		ctx:     ctx,
		handler: handler,
		logger:  logging.NewComponentLogger(logger, "dispatcher"),
	}
}

// Dispatch starts handling event. Events arriving after Close are dropped.
func (d *Dispatcher) Dispatch(event MessageEvent) {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		d.logger.Warn("dropping slack event during shutdown", logging.String("event_id", event.EventID))
		return
	}
	d.wg.Add(1)
	d.mu.Unlock()

	go func() {
		defer d.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				d.logger.Error("slack event handler panicked",
					logging.String("event_id", event.EventID),
					logging.Any("panic", r),
				)
			}
		}()
		d.handler(d.ctx, event)
	}()
}

// Close stops accepting events and waits for in-flight handlers until ctx
// expires. It returns ctx.Err() when handlers were still running.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
