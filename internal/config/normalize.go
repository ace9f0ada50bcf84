package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	c.normalizeSlack()
	c.normalizeTMDB()
	c.normalizeServer()
	if err := c.normalizeQueue(); err != nil {
		return err
	}
	c.normalizeNotifications()
	return c.normalizeLogging()
}

func (c *Config) normalizeSlack() {
	c.Slack.BotToken = strings.TrimSpace(c.Slack.BotToken)
	if c.Slack.BotToken == "" {
		if value, ok := os.LookupEnv("SLACK_BOT_TOKEN"); ok {
			c.Slack.BotToken = strings.TrimSpace(value)
		}
	}
	c.Slack.SigningSecret = strings.TrimSpace(c.Slack.SigningSecret)
	if c.Slack.SigningSecret == "" {
		if value, ok := os.LookupEnv("SLACK_SIGNING_SECRET"); ok {
			c.Slack.SigningSecret = strings.TrimSpace(value)
		} else if value, ok := os.LookupEnv("SIGNING_SECRET"); ok {
			c.Slack.SigningSecret = strings.TrimSpace(value)
		}
	}
	c.Slack.BotUserID = strings.TrimSpace(c.Slack.BotUserID)
	if c.Slack.BotUserID == "" {
		if value, ok := os.LookupEnv("SLACK_BOT_USER_ID"); ok {
			c.Slack.BotUserID = strings.TrimSpace(value)
		}
	}
	c.Slack.APIBaseURL = strings.TrimRight(strings.TrimSpace(c.Slack.APIBaseURL), "/")
	if c.Slack.APIBaseURL == "" {
		c.Slack.APIBaseURL = defaultSlackAPIBaseURL
	}
	if c.Slack.TimeoutSeconds <= 0 {
		c.Slack.TimeoutSeconds = defaultSlackTimeoutSeconds
	}
	if c.Slack.ReplayWindowSeconds <= 0 {
		c.Slack.ReplayWindowSeconds = defaultSlackReplayWindowSeconds
	}
}

func (c *Config) normalizeTMDB() {
	c.TMDB.APIToken = strings.TrimSpace(c.TMDB.APIToken)
	if c.TMDB.APIToken == "" {
		if value, ok := os.LookupEnv("TMDB_API_TOKEN"); ok {
			c.TMDB.APIToken = strings.TrimSpace(value)
		}
	}
	c.TMDB.BaseURL = strings.TrimSpace(c.TMDB.BaseURL)
	if c.TMDB.BaseURL == "" {
		c.TMDB.BaseURL = defaultTMDBBaseURL
	}
	c.TMDB.Language = strings.TrimSpace(c.TMDB.Language)
	if c.TMDB.Language == "" {
		c.TMDB.Language = defaultTMDBLanguage
	}
	if c.TMDB.TimeoutSeconds <= 0 {
		c.TMDB.TimeoutSeconds = defaultTMDBTimeoutSeconds
	}
	if c.TMDB.CacheSize < 0 {
		c.TMDB.CacheSize = 0
	}
	if c.TMDB.CacheTTLSeconds <= 0 {
		c.TMDB.CacheTTLSeconds = defaultTMDBCacheTTLSeconds
	}
}

func (c *Config) normalizeServer() {
	c.Server.Listen = strings.TrimSpace(c.Server.Listen)
	if port, ok := os.LookupEnv("PORT"); ok && strings.TrimSpace(port) != "" {
		c.Server.Listen = ":" + strings.TrimSpace(port)
	}
	if c.Server.Listen == "" {
		c.Server.Listen = defaultServerListen
	}
	c.Server.APIToken = strings.TrimSpace(c.Server.APIToken)
	if c.Server.ShutdownTimeoutSeconds <= 0 {
		c.Server.ShutdownTimeoutSeconds = defaultServerShutdownSeconds
	}
}

func (c *Config) normalizeQueue() error {
	var err error
	if strings.TrimSpace(c.Queue.Path) == "" {
		c.Queue.Path = defaultQueuePath
	}
	if c.Queue.Path, err = expandPath(c.Queue.Path); err != nil {
		return fmt.Errorf("queue.path: %w", err)
	}
	c.Queue.Backend = strings.ToLower(strings.TrimSpace(c.Queue.Backend))
	if c.Queue.Backend == "" {
		c.Queue.Backend = defaultQueueBackend
	}
	if c.Queue.FlushAttempts <= 0 {
		c.Queue.FlushAttempts = defaultQueueFlushAttempts
	}
	return nil
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.NtfyTopic == "" {
		if value, ok := os.LookupEnv("NTFY_TOPIC"); ok {
			c.Notifications.NtfyTopic = strings.TrimSpace(value)
		}
	}
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNotifyRequestTimeout
	}
}

func (c *Config) normalizeLogging() error {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	var err error
	if c.Logging.Dir, err = expandPath(strings.TrimSpace(c.Logging.Dir)); err != nil {
		return fmt.Errorf("logging.dir: %w", err)
	}
	return nil
}
