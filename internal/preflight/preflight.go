package preflight

import (
	"context"
	"path/filepath"

	"reelbot/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes every preflight check for the given config.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Queue directory", filepath.Dir(cfg.Queue.Path)),
		CheckQueueLock(cfg.LockPath()),
		CheckSlack(ctx, cfg.Slack.APIBaseURL, cfg.Slack.BotToken, cfg.SlackTimeout()),
		CheckTMDB(ctx, cfg.TMDB.BaseURL, cfg.TMDB.APIToken, cfg.TMDBTimeout()),
	}
	if cfg.Logging.Dir != "" {
		results = append(results, CheckDirectoryAccess("Log directory", cfg.Logging.Dir))
	}
	return results
}
