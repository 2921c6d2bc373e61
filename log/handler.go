package log

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
)

// formatterHandler adapts a LogFormatter to the slog.Handler interface, so
// the text/JSON/color renderers in formatter.go can back a Logger just
// like slog's own JSON handler does.
type formatterHandler struct {
	mu        *sync.Mutex
	w         io.Writer
	formatter LogFormatter
	minLevel  LogLevel
	attrs     map[string]interface{}
}

func newFormatterHandler(formatter LogFormatter, level LogLevel, w io.Writer) *formatterHandler {
	return &formatterHandler{
		mu:        &sync.Mutex{},
		w:         w,
		formatter: formatter,
		minLevel:  level,
		attrs:     map[string]interface{}{},
	}
}

func slogToLogLevel(l slog.Level) LogLevel {
	switch {
	case l < slog.LevelInfo:
		return DEBUG
	case l < slog.LevelWarn:
		return INFO
	case l < slog.LevelError:
		return WARN
	default:
		return ERROR
	}
}

func (h *formatterHandler) Enabled(_ context.Context, level slog.Level) bool {
	return slogToLogLevel(level) >= h.minLevel
}

func (h *formatterHandler) Handle(_ context.Context, record slog.Record) error {
	fields := make(map[string]interface{}, len(h.attrs)+record.NumAttrs())
	for k, v := range h.attrs {
		fields[k] = v
	}
	record.Attrs(func(a slog.Attr) bool {
		fields[a.Key] = a.Value.Any()
		return true
	})

	entry := LogEntry{
		Timestamp: record.Time,
		Level:     slogToLogLevel(record.Level),
		Message:   record.Message,
		Fields:    fields,
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := fmt.Fprintln(h.w, h.formatter.Format(entry))
	return err
}

func (h *formatterHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := make(map[string]interface{}, len(h.attrs)+len(attrs))
	for k, v := range h.attrs {
		merged[k] = v
	}
	for _, a := range attrs {
		merged[a.Key] = a.Value.Any()
	}
	return &formatterHandler{mu: h.mu, w: h.w, formatter: h.formatter, minLevel: h.minLevel, attrs: merged}
}

func (h *formatterHandler) WithGroup(name string) slog.Handler {
	// Grouping is not meaningful for the flat key=value/JSON renderers in
	// formatter.go, so attributes added under a group are still merged flat.
	return h
}
