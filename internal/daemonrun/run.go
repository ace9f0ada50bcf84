package daemonrun

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/google/uuid"

	"reelbot/internal/catalog"
	"reelbot/internal/config"
	"reelbot/internal/daemon"
	"reelbot/internal/logging"
	"reelbot/internal/notifications"
	"reelbot/internal/queue"
	"reelbot/internal/router"
	"reelbot/internal/slack"
	"reelbot/internal/tmdb"
)

// Options configures daemon process runtime behavior.
type Options struct {
	LogLevel string
	// Logger overrides the logger built from config when set.
	Logger *slog.Logger
	// Ready, when non-nil, receives the daemon once it is listening.
	Ready func(*daemon.Daemon)
}

// Run starts the reelbot daemon and blocks until the context is cancelled or
// the process receives SIGINT/SIGTERM.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}

	logger := opts.Logger
	if logger == nil {
		var err error
		logger, err = buildLogger(cfg, opts)
		if err != nil {
			return fmt.Errorf("init logger: %w", err)
		}
	}
	sessionID := uuid.NewString()
	logger = logger.With(logging.String(logging.FieldSessionID, sessionID))
	logDependencySnapshot(logger, cfg)

	// The lock must be held before the snapshot is read so a CLI write cannot
	// land between load and lock and be overwritten by the next flush.
	lock, err := daemon.AcquireInstanceLock(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			logger.Warn("failed to release queue lock", logging.Error(err))
		}
	}()

	persister, err := queue.OpenPersister(signalCtx, cfg.Queue.Backend, cfg.Queue.Path)
	if err != nil {
		logger.Error("open queue persister", logging.Error(err))
		return err
	}
	store, err := queue.Open(signalCtx, persister,
		queue.WithLogger(logger),
		queue.WithFlushAttempts(cfg.Queue.FlushAttempts),
	)
	if err != nil {
		_ = closePersister(persister)
		logging.ErrorWithContext(logger, "queue load failed", "queue_load_failed",
			logging.String("queue_path", cfg.Queue.Path),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "fix or move the queue file; the daemon will not overwrite it"),
			logging.String(logging.FieldImpact, "daemon did not start"),
		)
		return err
	}
	defer store.Close()

	tmdbClient, err := tmdb.New(cfg.TMDB.APIToken, cfg.TMDB.BaseURL, cfg.TMDB.Language,
		tmdb.WithTimeout(cfg.TMDBTimeout()))
	if err != nil {
		return fmt.Errorf("create tmdb client: %w", err)
	}
	resolver := catalog.NewResolver(tmdbClient,
		catalog.WithLogger(logger),
		catalog.WithTimeout(cfg.TMDBTimeout()),
		catalog.WithCache(cfg.TMDB.CacheSize, cfg.TMDBCacheTTL()),
	)

	slackClient, err := slack.NewClient(cfg.Slack.BotToken, cfg.Slack.APIBaseURL,
		slack.WithTimeout(cfg.SlackTimeout()))
	if err != nil {
		return fmt.Errorf("create slack client: %w", err)
	}
	botUserID := cfg.Slack.BotUserID
	if botUserID == "" {
		identity, err := slackClient.AuthTest(signalCtx)
		if err != nil {
			return fmt.Errorf("discover bot user id: %w", err)
		}
		botUserID = identity.UserID
		logger.Info("discovered bot identity",
			logging.String("bot_user_id", botUserID),
			logging.String("team", identity.Team),
		)
	}

	notifier := notifications.NewService(cfg)
	r := router.New(botUserID, slackClient, resolver, store,
		router.WithNotifier(notifier),
		router.WithLogger(logger),
	)

	d, err := daemon.New(cfg, store, r, logger, sessionID, daemon.WithLock(lock))
	if err != nil {
		return fmt.Errorf("create daemon: %w", err)
	}
	if opts.Ready != nil {
		go func() {
			select {
			case <-d.Ready():
				opts.Ready(d)
			case <-signalCtx.Done():
			}
		}()
	}
	return d.Run(signalCtx)
}

func buildLogger(cfg *config.Config, opts Options) (*slog.Logger, error) {
	if opts.LogLevel == "" {
		return logging.NewFromConfig(cfg)
	}
	override := *cfg
	override.Logging.Level = opts.LogLevel
	return logging.NewFromConfig(&override)
}

func closePersister(p queue.Persister) error {
	if closer, ok := p.(interface{ Close() error }); ok {
		return closer.Close()
	}
	return nil
}

func logDependencySnapshot(logger *slog.Logger, cfg *config.Config) {
	logger.Info("dependency snapshot",
		logging.String(logging.FieldEventType, "dependency_snapshot"),
		logging.Bool("tmdb_token_present", cfg.TMDB.APIToken != ""),
		logging.Bool("slack_token_present", cfg.Slack.BotToken != ""),
		logging.Bool("bot_user_id_configured", cfg.Slack.BotUserID != ""),
		logging.Bool("ntfy_enabled", cfg.Notifications.NtfyTopic != ""),
		logging.String("queue_backend", cfg.Queue.Backend),
		logging.String("queue_path", cfg.Queue.Path),
		logging.Int("tmdb_cache_size", cfg.TMDB.CacheSize),
	)
}
