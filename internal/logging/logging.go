// Package logging configures the process-wide slog logger.
//
// Records go to a rotating JSON file (when configured) and, as text, to a
// console writer. The console is optional so terminal UIs can keep the
// screen to themselves.
package logging

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/unklstewy/planefinder/pkg/config"
)

// Logger is the configured slog logger plus the file it writes to.
type Logger struct {
	*slog.Logger
	LogFile string
	Start   time.Time

	file *lumberjack.Logger
}

// Init builds a logger from cfg and installs it as the slog default.
// console may be nil to disable console output.
func Init(cfg config.LogConfig, console io.Writer) (*Logger, error) {
	lvl, err := cfg.SlogLevel()
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: lvl}

	l := &Logger{Start: time.Now()}
	var handlers []slog.Handler

	if cfg.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.File), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		l.file = &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB, // MB
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			Compress:   true,
		}
		l.LogFile = cfg.File
		handlers = append(handlers, slog.NewJSONHandler(l.file, opts))
	}
	if console != nil {
		handlers = append(handlers, slog.NewTextHandler(console, opts))
	}

	var h slog.Handler
	switch len(handlers) {
	case 0:
		h = slog.NewTextHandler(io.Discard, opts)
	case 1:
		h = handlers[0]
	default:
		h = fanout(handlers)
	}

	l.Logger = slog.New(h)
	slog.SetDefault(l.Logger)

	l.Info("logging started",
		slog.String("level", lvl.String()),
		slog.String("file", l.LogFile),
		slog.String("GOOS", runtime.GOOS),
		slog.String("GOARCH", runtime.GOARCH))
	return l, nil
}

// Close flushes and closes the log file, if any.
func (l *Logger) Close() error {
	if l == nil || l.file == nil {
		return nil
	}
	return l.file.Close()
}

// fanout sends each record to every handler that accepts its level.
type fanout []slog.Handler

func (f fanout) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range f {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (f fanout) Handle(ctx context.Context, r slog.Record) error {
	var errs []error
	for _, h := range f {
		if h.Enabled(ctx, r.Level) {
			errs = append(errs, h.Handle(ctx, r.Clone()))
		}
	}
	return errors.Join(errs...)
}

func (f fanout) WithAttrs(attrs []slog.Attr) slog.Handler {
	out := make(fanout, len(f))
	for i, h := range f {
		out[i] = h.WithAttrs(attrs)
	}
	return out
}

func (f fanout) WithGroup(name string) slog.Handler {
	out := make(fanout, len(f))
	for i, h := range f {
		out[i] = h.WithGroup(name)
	}
	return out
}
