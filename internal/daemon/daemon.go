package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"reelbot/internal/config"
	"reelbot/internal/logging"
	"reelbot/internal/queue"
	"reelbot/internal/router"
	"reelbot/internal/slack"
)

// QueueReader is the read side of the queue served by the HTTP API.
type QueueReader interface {
	List() []queue.Movie
	Len() int
}

// MessageHandler processes a chat message addressed to the bot.
type MessageHandler interface {
	Handle(ctx context.Context, msg router.Message) error
}

// Daemon owns the HTTP listener and the event dispatcher.
type Daemon struct {
	cfg       *config.Config
	logger    *slog.Logger
	queue     QueueReader
	handler   MessageHandler
	sessionID string
	lock      *queue.Lock

	running   atomic.Bool
	ready     chan struct{}
	readyOnce sync.Once
	addrMu    sync.Mutex
	addr      net.Addr
}

// Option configures a Daemon.
type Option func(*Daemon)

// WithLock hands the daemon a queue lock the caller already holds. The caller
// must take it before loading the queue and keeps ownership of releasing it.
// Without it, Run acquires and releases the lock itself.
func WithLock(lock *queue.Lock) Option {
	return func(d *Daemon) {
		d.lock = lock
	}
}

// New builds a daemon. Run starts it.
func New(cfg *config.Config, q QueueReader, handler MessageHandler, logger *slog.Logger, sessionID string, opts ...Option) (*Daemon, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	if q == nil || handler == nil {
		return nil, errors.New("queue and message handler are required")
	}
	d := &Daemon{
		cfg:       cfg,
		logger:    logging.NewComponentLogger(logger, "daemon"),
		queue:     q,
		handler:   handler,
		sessionID: sessionID,
		ready:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// Ready is closed once the listener accepts connections.
func (d *Daemon) Ready() <-chan struct{} {
	return d.ready
}

// Addr returns the bound listener address, or nil before Ready.
func (d *Daemon) Addr() net.Addr {
	d.addrMu.Lock()
	defer d.addrMu.Unlock()
	return d.addr
}

// Run acquires the queue lock, serves until ctx is cancelled, then drains
// in-flight events. It returns nil on a clean shutdown.
func (d *Daemon) Run(ctx context.Context) error {
	if !d.running.CompareAndSwap(false, true) {
		return errors.New("daemon already running")
	}
	defer d.running.Store(false)

	lock := d.lock
	if lock == nil {
		var err error
		lock, err = AcquireInstanceLock(d.cfg)
		if err != nil {
			return err
		}
		defer func() {
			if err := lock.Unlock(); err != nil {
				d.logger.Warn("failed to release queue lock", logging.Error(err))
			}
		}()
	}

	dispatcher := slack.NewDispatcher(ctx, d.handleEvent, d.logger)
	events := slack.NewEventHandler(
		d.cfg.Slack.SigningSecret,
		time.Duration(d.cfg.Slack.ReplayWindowSeconds)*time.Second,
		dispatcher,
		slack.WithEventLogger(d.logger),
	)

	mux := http.NewServeMux()
	mux.Handle("/slack/events", events)
	apiSrv := &apiServer{
		logger:    logging.NewComponentLogger(d.logger, "api-server"),
		queue:     d.queue,
		sessionID: d.sessionID,
		startedAt: time.Now(),
	}
	apiSrv.routes(mux, d.cfg.Server.APIToken)

	server := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	listener, err := net.Listen("tcp", d.cfg.Server.Listen)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", d.cfg.Server.Listen, err)
	}
	d.addrMu.Lock()
	d.addr = listener.Addr()
	d.addrMu.Unlock()
	d.readyOnce.Do(func() { close(d.ready) })

	d.logger.Info("reelbot daemon started",
		logging.String("address", listener.Addr().String()),
		logging.String("lock", lock.Path()),
		logging.Int("queued", d.queue.Len()),
	)

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		d.logger.Info("reelbot daemon shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), d.cfg.ShutdownTimeout())
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			d.logger.Warn("http shutdown incomplete", logging.Error(err))
		}
		if err := dispatcher.Close(shutdownCtx); err != nil {
			logging.WarnWithContext(d.logger, "in-flight messages still running at shutdown", "shutdown_drain_timeout",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "raise server.shutdown_timeout_seconds"),
				logging.String(logging.FieldImpact, "some replies may not have been sent"),
			)
		}
		return nil
	})

	err = group.Wait()
	d.logger.Info("reelbot daemon stopped")
	return err
}

// AcquireInstanceLock takes the queue lock that marks a running daemon.
func AcquireInstanceLock(cfg *config.Config) (*queue.Lock, error) {
	lock, err := queue.AcquireLock(cfg.LockPath())
	if err != nil {
		if errors.Is(err, queue.ErrLocked) {
			return nil, fmt.Errorf("another reelbot daemon instance is already running: %w", err)
		}
		return nil, err
	}
	return lock, nil
}

func (d *Daemon) handleEvent(ctx context.Context, event slack.MessageEvent) {
	err := d.handler.Handle(ctx, router.Message{
		Text:      event.Text,
		UserID:    event.User,
		Channel:   event.Channel,
		Timestamp: event.TS,
		ThreadTS:  event.ThreadTS,
	})
	if err != nil {
		d.logger.Warn("message handling failed",
			logging.String("event_id", event.EventID),
			logging.String(logging.FieldChannel, event.Channel),
			logging.Error(err),
		)
	}
}
