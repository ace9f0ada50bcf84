package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Slack contains credentials for the Events API receiver and Web API client.
type Slack struct {
	BotToken            string `toml:"bot_token"`
	SigningSecret       string `toml:"signing_secret"`
	BotUserID           string `toml:"bot_user_id"`
	APIBaseURL          string `toml:"api_base_url"`
	TimeoutSeconds      int    `toml:"timeout_seconds"`
	ReplayWindowSeconds int    `toml:"replay_window_seconds"`
}

// TMDB contains configuration for The Movie Database API.
type TMDB struct {
	APIToken        string `toml:"api_token"`
	BaseURL         string `toml:"base_url"`
	Language        string `toml:"language"`
	TimeoutSeconds  int    `toml:"timeout_seconds"`
	CacheSize       int    `toml:"cache_size"`
	CacheTTLSeconds int    `toml:"cache_ttl_seconds"`
}

// Server contains the HTTP listener settings for the daemon.
type Server struct {
	Listen                 string `toml:"listen"`
	APIToken               string `toml:"api_token"`
	ShutdownTimeoutSeconds int    `toml:"shutdown_timeout_seconds"`
}

// Queue contains the durable movie queue settings.
type Queue struct {
	Path          string `toml:"path"`
	Backend       string `toml:"backend"`
	FlushAttempts int    `toml:"flush_attempts"`
}

// Notifications contains configuration for ntfy push notifications.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
	Queue          bool   `toml:"queue"`
	Errors         bool   `toml:"errors"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
	Dir    string `toml:"dir"`
}

// Config encapsulates all configuration values for reelbot.
//
// Configuration sections by subsystem:
//   - Slack: bot token, signing secret, and bot identity
//   - TMDB: movie lookups via The Movie Database
//   - Server: HTTP listener for Slack events and the read-only API
//   - Queue: durable queue location and storage backend
//   - Notifications: ntfy push notification settings
//   - Logging: log format, level, and optional log directory
type Config struct {
	Slack         Slack         `toml:"slack"`
	TMDB          TMDB          `toml:"tmdb"`
	Server        Server        `toml:"server"`
	Queue         Queue         `toml:"queue"`
	Notifications Notifications `toml:"notifications"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/reelbot/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("reelbot.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the directories the queue and log files live in.
func (c *Config) EnsureDirectories() error {
	dirs := []string{filepath.Dir(c.Queue.Path)}
	if c.Logging.Dir != "" {
		dirs = append(dirs, c.Logging.Dir)
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// LockPath returns the advisory lock file guarding queue writes.
func (c *Config) LockPath() string {
	return c.Queue.Path + ".lock"
}

// TMDBTimeout returns the bound applied to a single catalog lookup.
func (c *Config) TMDBTimeout() time.Duration {
	return time.Duration(c.TMDB.TimeoutSeconds) * time.Second
}

// TMDBCacheTTL returns how long lookup results stay cached.
func (c *Config) TMDBCacheTTL() time.Duration {
	return time.Duration(c.TMDB.CacheTTLSeconds) * time.Second
}

// SlackTimeout returns the HTTP timeout for Slack Web API calls.
func (c *Config) SlackTimeout() time.Duration {
	return time.Duration(c.Slack.TimeoutSeconds) * time.Second
}

// ShutdownTimeout returns how long the daemon waits for in-flight work on exit.
func (c *Config) ShutdownTimeout() time.Duration {
	return time.Duration(c.Server.ShutdownTimeoutSeconds) * time.Second
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
