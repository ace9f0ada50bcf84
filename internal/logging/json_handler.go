package logging

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"
)

// FieldSubject carries the same "component (intent)" label the console
// handler prints in front of the message, so JSON and console logs can be
// filtered the same way.
const FieldSubject = "subject"

const jsonTimeLayout = "2006-01-02T15:04:05.000Z07:00"

// jsonHandler wraps slog's JSON handler and adds the subject key. Component
// and intent stay in the record as their own keys.
type jsonHandler struct {
	inner     slog.Handler
	component string
	intent    string
	grouped   bool
}

func newJSONHandler(w io.Writer, lvl *slog.LevelVar, addSource bool) slog.Handler {
	opts := slog.HandlerOptions{
		Level:       lvl,
		AddSource:   addSource,
		ReplaceAttr: replaceJSONAttr,
	}
	return &jsonHandler{inner: slog.NewJSONHandler(w, &opts)}
}

func replaceJSONAttr(groups []string, attr slog.Attr) slog.Attr {
	if len(groups) == 0 {
		switch attr.Key {
		case slog.TimeKey:
			attr.Key = "ts"
			if attr.Value.Kind() == slog.KindTime {
				attr.Value = slog.StringValue(attr.Value.Time().UTC().Format(jsonTimeLayout))
			}
			return attr
		case slog.LevelKey:
			attr.Value = slog.StringValue(strings.ToLower(levelLabel(levelOf(attr.Value))))
			return attr
		case slog.SourceKey:
			if src, ok := attr.Value.Any().(*slog.Source); ok && src != nil {
				attr.Value = slog.StringValue(filepath.Base(src.File) + ":" + strconv.Itoa(src.Line))
			}
			return attr
		}
	}
	// Latencies and backoffs read as "1.5s" rather than nanosecond integers.
	if attr.Value.Kind() == slog.KindDuration {
		attr.Value = slog.StringValue(attr.Value.Duration().String())
	}
	return attr
}

func levelOf(v slog.Value) slog.Level {
	if level, ok := v.Any().(slog.Level); ok {
		return level
	}
	return slog.LevelInfo
}

func (h *jsonHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

func (h *jsonHandler) Handle(ctx context.Context, record slog.Record) error {
	component, intent := h.component, h.intent
	if !h.grouped {
		record.Attrs(func(attr slog.Attr) bool {
			switch attr.Key {
			case FieldComponent:
				if component == "" {
					component = attrString(attr.Value)
				}
			case FieldIntent:
				if intent == "" {
					intent = attrString(attr.Value)
				}
			}
			return true
		})
	}
	if subject := formatSubject(component, intent); subject != "" && !h.grouped {
		record = record.Clone()
		record.AddAttrs(slog.String(FieldSubject, subject))
	}
	return h.inner.Handle(ctx, record)
}

func (h *jsonHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := *h
	next.inner = h.inner.WithAttrs(attrs)
	if !h.grouped {
		for _, attr := range attrs {
			switch attr.Key {
			case FieldComponent:
				if next.component == "" {
					next.component = attrString(attr.Value)
				}
			case FieldIntent:
				if next.intent == "" {
					next.intent = attrString(attr.Value)
				}
			}
		}
	}
	return &next
}

// WithGroup nests later attributes; a subject only comes from top-level keys.
func (h *jsonHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	next := *h
	next.inner = h.inner.WithGroup(name)
	next.grouped = true
	return &next
}
