package services

import "context"

type contextKey string

const (
	requestIDKey contextKey = "request_id"
	intentKey    contextKey = "intent"
	channelKey   contextKey = "channel"
	userKey      contextKey = "user"
)

// WithRequestID annotates context with a correlation identifier.
func WithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromContext extracts the correlation identifier if present.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(requestIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithIntent annotates context with the classified intent kind.
func WithIntent(ctx context.Context, intent string) context.Context {
	if intent == "" {
		return ctx
	}
	return context.WithValue(ctx, intentKey, intent)
}

// IntentFromContext returns the intent kind if present.
func IntentFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(intentKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithChannel annotates context with the chat channel the request came from.
func WithChannel(ctx context.Context, channel string) context.Context {
	if channel == "" {
		return ctx
	}
	return context.WithValue(ctx, channelKey, channel)
}

// ChannelFromContext returns the chat channel if present.
func ChannelFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(channelKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithUser annotates context with the requesting user's identifier.
func WithUser(ctx context.Context, user string) context.Context {
	if user == "" {
		return ctx
	}
	return context.WithValue(ctx, userKey, user)
}

// UserFromContext returns the requesting user if present.
func UserFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(userKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}
