package config

const (
	defaultQueuePath                = "~/.local/share/reelbot/queue.json"
	defaultQueueBackend             = BackendJSON
	defaultQueueFlushAttempts       = 3
	defaultTMDBBaseURL              = "https://api.themoviedb.org/3"
	defaultTMDBLanguage             = "en-US"
	defaultTMDBTimeoutSeconds       = 10
	defaultTMDBCacheSize            = 256
	defaultTMDBCacheTTLSeconds      = 3600
	defaultSlackAPIBaseURL          = "https://slack.com/api"
	defaultSlackTimeoutSeconds      = 10
	defaultSlackReplayWindowSeconds = 300
	defaultServerListen             = ":3000"
	defaultServerShutdownSeconds    = 30
	defaultNotifyRequestTimeout     = 10
	defaultLogFormat                = "console"
	defaultLogLevel                 = "info"
)

// Queue storage backends.
const (
	BackendJSON   = "json"
	BackendSQLite = "sqlite"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Slack: Slack{
			APIBaseURL:          defaultSlackAPIBaseURL,
			TimeoutSeconds:      defaultSlackTimeoutSeconds,
			ReplayWindowSeconds: defaultSlackReplayWindowSeconds,
		},
		TMDB: TMDB{
			BaseURL:         defaultTMDBBaseURL,
			Language:        defaultTMDBLanguage,
			TimeoutSeconds:  defaultTMDBTimeoutSeconds,
			CacheSize:       defaultTMDBCacheSize,
			CacheTTLSeconds: defaultTMDBCacheTTLSeconds,
		},
		Server: Server{
			Listen:                 defaultServerListen,
			ShutdownTimeoutSeconds: defaultServerShutdownSeconds,
		},
		Queue: Queue{
			Path:          defaultQueuePath,
			Backend:       defaultQueueBackend,
			FlushAttempts: defaultQueueFlushAttempts,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyRequestTimeout,
			Queue:          true,
			Errors:         true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
