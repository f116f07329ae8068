// navlog/log.go
// Copyright(c) 2026 navloiter contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

// Package navlog wraps slog with the rotating-file sink and nil-safe
// call convention used throughout the navigation core: every log method
// tolerates a nil *Logger (discarding Debug/Info, passing Warn/Error to
// the default slog logger) so collaborators can be constructed without
// wiring up logging first.
package navlog

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger is the navigation core's logging handle.
type Logger struct {
	*slog.Logger
	LogFile string
	Start   time.Time
}

// New builds a Logger that writes JSON lines to a rotated file under dir
// (created if necessary) and also surfaces warnings/errors on stderr.
func New(level string, dir string) *Logger {
	if dir == "" {
		dir = "navloiter-logs"
	}

	w := &lumberjack.Logger{
		Filename: filepath.Join(dir, "navloiter.slog"),
		MaxSize:  32, // MB
		MaxAge:   14,
		Compress: true,
	}

	lvl := slog.LevelInfo
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "info":
		lvl = slog.LevelInfo
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	case "":
	default:
		fmt.Fprintf(os.Stderr, "%s: invalid log level\n", level)
	}

	h := newHandler(w, &slog.HandlerOptions{Level: lvl})
	return &Logger{
		Logger:  slog.New(h),
		LogFile: w.Filename,
		Start:   time.Now(),
	}
}

func (l *Logger) Debug(msg string, args ...any) {
	if l != nil && l.Logger.Enabled(nil, slog.LevelDebug) {
		l.Logger.Debug(msg, args...)
	}
}

func (l *Logger) Debugf(msg string, args ...any) {
	if l != nil && l.Logger.Enabled(nil, slog.LevelDebug) {
		l.Logger.Debug(fmt.Sprintf(msg, args...))
	}
}

func (l *Logger) Info(msg string, args ...any) {
	if l != nil && l.Logger.Enabled(nil, slog.LevelInfo) {
		l.Logger.Info(msg, args...)
	}
}

func (l *Logger) Warn(msg string, args ...any) {
	if l == nil {
		slog.Warn(msg, args...)
		return
	}
	l.Logger.Warn(msg, args...)
}

func (l *Logger) Error(msg string, args ...any) {
	if l == nil {
		slog.Error(msg, args...)
		return
	}
	l.Logger.Error(msg, args...)
}

// CatchAndReportCrash recovers a panic (if any), logs it, and returns the
// recovered value so the caller can decide whether to re-panic or exit.
// Unlike the ground-station-connected variant this is adapted from, there
// is no remote crash-report upload: this binary has no server counterpart
// to receive one.
func (l *Logger) CatchAndReportCrash() any {
	r := recover()
	if r != nil {
		l.Error("crashed", slog.Any("panic", r))
	}
	return r
}

// handler fans out log records to a JSON file handler and a stderr text
// handler for warnings and above.
type handler struct {
	json slog.Handler
	txt  slog.Handler
}

func newHandler(w *lumberjack.Logger, opts *slog.HandlerOptions) *handler {
	return &handler{
		json: slog.NewJSONHandler(w, opts),
		txt:  slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}),
	}
}

func (h *handler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.json.Enabled(ctx, level) || h.txt.Enabled(ctx, level)
}

func (h *handler) Handle(ctx context.Context, rec slog.Record) error {
	if h.txt.Enabled(ctx, rec.Level) {
		_ = h.txt.Handle(ctx, rec)
	}
	if h.json.Enabled(ctx, rec.Level) {
		return h.json.Handle(ctx, rec)
	}
	return nil
}

func (h *handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &handler{
		json: h.json.WithAttrs(slices.Clone(attrs)),
		txt:  h.txt.WithAttrs(slices.Clone(attrs)),
	}
}

func (h *handler) WithGroup(name string) slog.Handler {
	return &handler{
		json: h.json.WithGroup(name),
		txt:  h.txt.WithGroup(name),
	}
}
