package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"reelbot/internal/config"
)

const userAgent = "reelbot/0.1.0"

// Service defines the notification surface used by the router and CLI.
type Service interface {
	NotifyMovieAdded(ctx context.Context, title, requestor string) error
	NotifyMovieRemoved(ctx context.Context, title string) error
	NotifyError(ctx context.Context, err error, context string) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	if cfg == nil {
		return noopService{}
	}
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint:    topic,
		client:      &http.Client{Timeout: timeout},
		queueEvents: cfg.Notifications.Queue,
		errorEvents: cfg.Notifications.Errors,
	}
}

// NewNoop returns a Service that drops every notification.
func NewNoop() Service {
	return noopService{}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint    string
	client      *http.Client
	queueEvents bool
	errorEvents bool
}

func (n *ntfyService) NotifyMovieAdded(ctx context.Context, title, requestor string) error {
	if !n.queueEvents {
		return nil
	}
	message := fmt.Sprintf("🎬 Added to the queue: %s", strings.TrimSpace(title))
	if requestor = strings.TrimSpace(requestor); requestor != "" {
		message = fmt.Sprintf("%s\nRequested by: %s", message, requestor)
	}
	return n.send(ctx, payload{
		title:   "reelbot - Movie Added",
		message: message,
		tags:    []string{"reelbot", "queue", "added"},
	})
}

func (n *ntfyService) NotifyMovieRemoved(ctx context.Context, title string) error {
	if !n.queueEvents {
		return nil
	}
	return n.send(ctx, payload{
		title:   "reelbot - Movie Removed",
		message: fmt.Sprintf("🗑️ Removed from the queue: %s", strings.TrimSpace(title)),
		tags:    []string{"reelbot", "queue", "removed"},
	})
}

func (n *ntfyService) NotifyError(ctx context.Context, err error, contextLabel string) error {
	if !n.errorEvents {
		return nil
	}
	var builder strings.Builder
	builder.WriteString("❌ Error")
	if contextLabel = strings.TrimSpace(contextLabel); contextLabel != "" {
		builder.WriteString(" with ")
		builder.WriteString(contextLabel)
	}
	builder.WriteString(": ")
	if err != nil {
		builder.WriteString(strings.TrimSpace(err.Error()))
	} else {
		builder.WriteString("unknown")
	}

	return n.send(ctx, payload{
		title:    "reelbot - Error",
		message:  builder.String(),
		tags:     []string{"reelbot", "error", "alert"},
		priority: "high",
	})
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	return n.send(ctx, payload{
		title:    "reelbot - Test",
		message:  "🧪 Notification system test",
		tags:     []string{"reelbot", "test"},
		priority: "low",
	})
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) NotifyMovieAdded(context.Context, string, string) error { return nil }
func (noopService) NotifyMovieRemoved(context.Context, string) error       { return nil }
func (noopService) NotifyError(context.Context, error, string) error       { return nil }
func (noopService) TestNotification(context.Context) error                 { return nil }
