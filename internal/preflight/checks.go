package preflight

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"golang.org/x/sys/unix"

	"reelbot/internal/queue"
	"reelbot/internal/slack"
	"reelbot/internal/tmdb"
)

// knownTitle is a title guaranteed to exist in TMDB.
const knownTitle = "Casablanca"

// CheckSlack verifies the bot token with auth.test.
func CheckSlack(ctx context.Context, baseURL, token string, timeout time.Duration) Result {
	const name = "Slack"
	if token == "" {
		return Result{Name: name, Detail: "bot token missing (set slack.bot_token or SLACK_BOT_TOKEN)"}
	}

	client, err := slack.NewClient(token, baseURL, slack.WithTimeout(timeout))
	if err != nil {
		return Result{Name: name, Detail: err.Error()}
	}
	checkCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	identity, err := client.AuthTest(checkCtx)
	if err != nil {
		var apiErr *slack.APIError
		if errors.As(err, &apiErr) && (apiErr.Code == "invalid_auth" || apiErr.Code == "not_authed") {
			return Result{Name: name, Detail: "auth failed (invalid bot token)"}
		}
		return Result{Name: name, Detail: summarizeError(err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("authenticated as %s (%s)", identity.User, identity.UserID)}
}

// CheckTMDB runs one search to confirm the token and endpoint.
func CheckTMDB(ctx context.Context, baseURL, token string, timeout time.Duration) Result {
	const name = "TMDB"
	if token == "" {
		return Result{Name: name, Detail: "API token missing (set tmdb.api_token or TMDB_API_TOKEN)"}
	}

	client, err := tmdb.New(token, baseURL, "", tmdb.WithTimeout(timeout))
	if err != nil {
		return Result{Name: name, Detail: err.Error()}
	}
	checkCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if _, err := client.SearchMovie(checkCtx, knownTitle); err != nil {
		var statusErr *tmdb.StatusError
		if errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusUnauthorized {
			return Result{Name: name, Detail: "auth failed (invalid API token)"}
		}
		return Result{Name: name, Detail: summarizeError(err)}
	}
	return Result{Name: name, Passed: true, Detail: "API reachable"}
}

// CheckQueueLock reports whether a daemon currently owns the queue.
func CheckQueueLock(path string) Result {
	const name = "Queue lock"
	lock, err := queue.AcquireLock(path)
	if err != nil {
		if errors.Is(err, queue.ErrLocked) {
			return Result{Name: name, Passed: true, Detail: "held (daemon running)"}
		}
		return Result{Name: name, Detail: err.Error()}
	}
	if err := lock.Unlock(); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("release: %v", err)}
	}
	return Result{Name: name, Passed: true, Detail: "free (daemon not running)"}
}

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

func summarizeError(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "check timed out"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "check timed out (unreachable)"
	}
	return err.Error()
}
