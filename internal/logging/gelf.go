package logging

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/Graylog2/go-gelf/gelf"
)

// MessageWriter sends GELF messages. *gelf.Writer implements it.
type MessageWriter interface {
	WriteMessage(m *gelf.Message) error
}

// GelfHandler is a slog.Handler that ships records to Graylog.
type GelfHandler struct {
	w        MessageWriter
	level    slog.Leveler
	host     string
	facility string
	attrs    []slog.Attr
	groups   []string
}

// NewGelfHandler creates a handler writing to w.
func NewGelfHandler(w MessageWriter, level slog.Leveler, facility string) *GelfHandler {
	host, err := os.Hostname()
	if err != nil {
		host = "localhost"
	}
	return &GelfHandler{w: w, level: level, host: host, facility: facility}
}

// Enabled implements slog.Handler.
func (h *GelfHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

// Handle implements slog.Handler.
func (h *GelfHandler) Handle(_ context.Context, r slog.Record) error {
	extra := make(map[string]any, len(h.attrs)+r.NumAttrs())
	prefix := ""
	if len(h.groups) > 0 {
		prefix = strings.Join(h.groups, ".") + "."
	}
	for _, a := range h.attrs {
		addExtra(extra, "", a)
	}
	r.Attrs(func(a slog.Attr) bool {
		addExtra(extra, prefix, a)
		return true
	})

	ts := r.Time
	if ts.IsZero() {
		ts = time.Now()
	}
	msg := &gelf.Message{
		Version:  "1.1",
		Host:     h.host,
		Short:    r.Message,
		TimeUnix: float64(ts.UnixNano()) / float64(time.Second),
		Level:    syslogLevel(r.Level),
		Facility: h.facility,
		Extra:    extra,
	}
	if err := h.w.WriteMessage(msg); err != nil {
		return fmt.Errorf("gelf write: %w", err)
	}
	return nil
}

// WithAttrs implements slog.Handler.
func (h *GelfHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	dup := *h
	prefix := ""
	if len(h.groups) > 0 {
		prefix = strings.Join(h.groups, ".") + "."
	}
	dup.attrs = append([]slog.Attr(nil), h.attrs...)
	for _, a := range attrs {
		a.Key = prefix + a.Key
		dup.attrs = append(dup.attrs, a)
	}
	return &dup
}

// WithGroup implements slog.Handler.
func (h *GelfHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	dup := *h
	dup.groups = append(append([]string(nil), h.groups...), name)
	return &dup
}

func addExtra(extra map[string]any, prefix string, a slog.Attr) {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}
	if a.Value.Kind() == slog.KindGroup {
		for _, ga := range a.Value.Group() {
			addExtra(extra, prefix+a.Key+".", ga)
		}
		return
	}
	var v any
	switch a.Value.Kind() {
	case slog.KindString:
		v = a.Value.String()
	case slog.KindInt64:
		v = a.Value.Int64()
	case slog.KindUint64:
		v = a.Value.Uint64()
	case slog.KindFloat64:
		v = a.Value.Float64()
	case slog.KindBool:
		v = a.Value.Bool()
	default:
		v = a.Value.String()
	}
	extra["_"+prefix+a.Key] = v
}

// syslogLevel maps slog levels onto the syslog severities GELF expects.
func syslogLevel(l slog.Level) int32 {
	switch {
	case l >= slog.LevelError:
		return 3
	case l >= slog.LevelWarn:
		return 4
	case l >= slog.LevelInfo:
		return 6
	default:
		return 7
	}
}
