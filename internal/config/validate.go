package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is structurally usable. Credentials are
// checked separately by ValidateServe and ValidateLookup because offline queue
// commands need neither.
func (c *Config) Validate() error {
	if err := c.validateQueue(); err != nil {
		return err
	}
	if err := c.validateTMDB(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return ensurePositiveMap(map[string]int{
		"slack.timeout_seconds":           c.Slack.TimeoutSeconds,
		"slack.replay_window_seconds":     c.Slack.ReplayWindowSeconds,
		"server.shutdown_timeout_seconds": c.Server.ShutdownTimeoutSeconds,
		"notifications.request_timeout":   c.Notifications.RequestTimeout,
	})
}

// ValidateServe checks the credentials the chat daemon cannot run without.
func (c *Config) ValidateServe() error {
	defaultPath, err := DefaultConfigPath()
	if err != nil {
		defaultPath = "~/.config/reelbot/config.toml"
	}
	if c.Slack.BotToken == "" {
		return fmt.Errorf("slack.bot_token is required. Set SLACK_BOT_TOKEN env var or edit %s (create with 'reelbot config init')", defaultPath)
	}
	if c.Slack.SigningSecret == "" {
		return fmt.Errorf("slack.signing_secret is required. Set SLACK_SIGNING_SECRET env var or edit %s", defaultPath)
	}
	return c.ValidateLookup()
}

// ValidateLookup checks the catalog credentials.
func (c *Config) ValidateLookup() error {
	if c.TMDB.APIToken == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = "~/.config/reelbot/config.toml"
		}
		return fmt.Errorf("tmdb.api_token is required. Set TMDB_API_TOKEN env var or edit %s", defaultPath)
	}
	return nil
}

func (c *Config) validateQueue() error {
	if strings.TrimSpace(c.Queue.Path) == "" {
		return errors.New("queue.path must be set")
	}
	switch c.Queue.Backend {
	case BackendJSON, BackendSQLite:
	default:
		return fmt.Errorf("queue.backend must be %q or %q, got %q", BackendJSON, BackendSQLite, c.Queue.Backend)
	}
	if c.Queue.FlushAttempts <= 0 {
		return errors.New("queue.flush_attempts must be positive")
	}
	return nil
}

func (c *Config) validateTMDB() error {
	if !strings.HasPrefix(c.TMDB.BaseURL, "http://") && !strings.HasPrefix(c.TMDB.BaseURL, "https://") {
		return fmt.Errorf("tmdb.base_url must be an http(s) URL, got %q", c.TMDB.BaseURL)
	}
	if c.TMDB.TimeoutSeconds <= 0 {
		return errors.New("tmdb.timeout_seconds must be positive")
	}
	if c.TMDB.CacheSize < 0 {
		return errors.New("tmdb.cache_size must be >= 0")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
		return nil
	default:
		return fmt.Errorf("logging.level must be one of debug, info, warn, error; got %q", c.Logging.Level)
	}
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
