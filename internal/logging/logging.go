// Package logging configures wayfinder's structured logger.
//
// The TUI owns the terminal, so records go to a log file (which the UI tails
// for its activity pane) and optionally to Graylog over GELF.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Graylog2/go-gelf/gelf"
)

// Options configures Setup.
type Options struct {
	Level       string
	File        string    // log file path; empty disables file output
	Console     io.Writer // optional extra text output, e.g. stderr for headless commands
	GraylogAddr string    // host:port; empty disables GELF
	Facility    string
}

// ParseLevel converts a string log level to slog.Level.
func ParseLevel(level string) slog.Level {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Setup builds the logger. The returned close function flushes and closes
// the log file.
func Setup(opts Options) (*slog.Logger, func() error, error) {
	lvl := ParseLevel(opts.Level)
	handlerOpts := &slog.HandlerOptions{
		Level: lvl,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey && len(groups) == 0 {
				if t, ok := a.Value.Any().(time.Time); ok {
					a.Value = slog.StringValue(t.Format("15:04:05"))
				}
			}
			return a
		},
	}

	var (
		handlers []slog.Handler
		file     *os.File
	)
	closeFn := func() error {
		if file == nil {
			return nil
		}
		return file.Close()
	}

	if path := strings.TrimSpace(opts.File); path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, nil, fmt.Errorf("create log dir: %w", err)
		}
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		file = f
		handlers = append(handlers, slog.NewTextHandler(f, handlerOpts))
	}

	if opts.Console != nil {
		handlers = append(handlers, slog.NewTextHandler(opts.Console, handlerOpts))
	}

	if addr := strings.TrimSpace(opts.GraylogAddr); addr != "" {
		w, err := gelf.NewWriter(addr)
		if err != nil {
			_ = closeFn()
			return nil, nil, fmt.Errorf("connect graylog %s: %w", addr, err)
		}
		facility := opts.Facility
		if facility == "" {
			facility = "wayfinder"
		}
		w.Facility = facility
		handlers = append(handlers, NewGelfHandler(w, lvl, facility))
	}

	if len(handlers) == 0 {
		return slog.New(slog.DiscardHandler), closeFn, nil
	}
	return slog.New(NewMultiHandler(handlers...)), closeFn, nil
}
