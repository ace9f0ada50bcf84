package slack

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"reelbot/internal/logging"
)

const (
	maxEventBody     = 1 << 20
	defaultDedupSize = 1024
)

// MessageEvent is a channel message delivered through the Events API.
type MessageEvent struct {
	EventID  string
	Type     string
	Subtype  string
	User     string
	BotID    string
	Text     string
	Channel  string
	TS       string
	ThreadTS string
}

type envelope struct {
	Type      string          `json:"type"`
	Challenge string          `json:"challenge"`
	EventID   string          `json:"event_id"`
	Event     json.RawMessage `json:"event"`
}

type innerEvent struct {
	Type     string `json:"type"`
	Subtype  string `json:"subtype"`
	User     string `json:"user"`
	BotID    string `json:"bot_id"`
	Text     string `json:"text"`
	Channel  string `json:"channel"`
	TS       string `json:"ts"`
	ThreadTS string `json:"thread_ts"`
}

// Sink receives accepted message events.
type Sink interface {
	Dispatch(MessageEvent)
}

// EventHandler serves the Events API request URL.
type EventHandler struct {
	secret string
	window time.Duration
	sink   Sink
	logger *slog.Logger
	seen   *lru.Cache[string, struct{}]
	now    func() time.Time
}

// EventHandlerOption configures an EventHandler.
type EventHandlerOption func(*EventHandler)

// WithClock overrides the time source used for replay checks.
func WithClock(now func() time.Time) EventHandlerOption {
	return func(h *EventHandler) {
		if now != nil {
			h.now = now
		}
	}
}

// WithEventLogger sets the handler logger.
func WithEventLogger(logger *slog.Logger) EventHandlerOption {
	return func(h *EventHandler) {
		if logger != nil {
			h.logger = logging.NewComponentLogger(logger, "slack-events")
		}
	}
}

// NewEventHandler returns a handler verifying requests with secret and
// forwarding message events to sink.
func NewEventHandler(secret string, window time.Duration, sink Sink, opts ...EventHandlerOption) *EventHandler {
	seen, _ := lru.New[string, struct{}](defaultDedupSize)
	h := &EventHandler{
		secret: secret,
		window: window,
		sink:   sink,
		logger: logging.NewNop(),
		seen:   seen,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *EventHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, maxEventBody))
	if err != nil {
		writeError(w, http.StatusBadRequest, "read body")
		return
	}
	if err := VerifyRequest(h.secret, r.Header, body, h.now(), h.window); err != nil {
		h.logger.Warn("rejected slack request",
			logging.String(logging.FieldEventType, "slack_signature_rejected"),
			logging.String("remote", r.RemoteAddr),
			logging.Error(err),
		)
		writeError(w, http.StatusUnauthorized, "invalid signature")
		return
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}

	switch env.Type {
	case "url_verification":
		writeJSON(w, http.StatusOK, map[string]string{"challenge": env.Challenge})
		return
	case "event_callback":
	default:
		w.WriteHeader(http.StatusOK)
		return
	}

	// Acknowledge first; Slack retries anything slower than three seconds.
	w.WriteHeader(http.StatusOK)

	var inner innerEvent
	if err := json.Unmarshal(env.Event, &inner); err != nil {
		h.logger.Warn("undecodable slack event", logging.String("event_id", env.EventID), logging.Error(err))
		return
	}
	if inner.Type != "message" && inner.Type != "app_mention" {
		return
	}
	if inner.Subtype != "" || inner.BotID != "" || inner.User == "" {
		return
	}
	if h.duplicate(env.EventID, inner.Channel, inner.TS) {
		h.logger.Debug("dropping duplicate slack event", logging.String("event_id", env.EventID))
		return
	}

	h.sink.Dispatch(MessageEvent{
		EventID:  env.EventID,
		Type:     inner.Type,
		Subtype:  inner.Subtype,
		User:     inner.User,
		BotID:    inner.BotID,
		Text:     inner.Text,
		Channel:  inner.Channel,
		TS:       inner.TS,
		ThreadTS: inner.ThreadTS,
	})
}

// duplicate reports whether the event was seen before. A mention produces
// both a message and an app_mention event with different IDs, so the message
// timestamp is tracked too.
func (h *EventHandler) duplicate(eventID, channel, ts string) bool {
	keys := make([]string, 0, 2)
	if eventID != "" {
		keys = append(keys, "event:"+eventID)
	}
	if channel != "" && ts != "" {
		keys = append(keys, "message:"+channel+":"+ts)
	}
	seen := false
	for _, key := range keys {
		if previous, _ := h.seen.ContainsOrAdd(key, struct{}{}); previous {
			seen = true
		}
	}
	return seen
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
