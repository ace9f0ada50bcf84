package testsupport

import (
	"path/filepath"
	"testing"

	"reelbot/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with a unique temp directory per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Slack.BotToken = "xoxb-test"
	cfgVal.Slack.SigningSecret = "test-secret"
	cfgVal.Slack.BotUserID = "UBOT"
	cfgVal.TMDB.APIToken = "test"
	cfgVal.Queue.Path = filepath.Join(base, "data", "queue.json")
	cfgVal.Logging.Dir = filepath.Join(base, "logs")
	cfgVal.Server.Listen = "127.0.0.1:0"

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithTMDBToken sets the TMDB API token on the test config.
func WithTMDBToken(token string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.TMDB.APIToken = token
	}
}

// WithSQLiteBackend switches the queue to the SQLite persister.
func WithSQLiteBackend() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Queue.Backend = config.BackendSQLite
		b.cfg.Queue.Path = filepath.Join(b.baseDir, "data", "queue.db")
	}
}

// WithNtfyTopic points notifications at topic, typically an httptest URL.
func WithNtfyTopic(topic string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Notifications.NtfyTopic = topic
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(filepath.Dir(cfg.Queue.Path))
}
