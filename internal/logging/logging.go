// Package logging wraps log/slog behind a small package-level API, the way
// the teacher's internal/logger does: one process-wide logger, reconfigured
// in place by Init, with level and format selected from internal/config
// rather than hardcoded.
//
// Unlike the teacher's internal/logger, this package does not need a custom
// color-text handler or request-scoped trace/span fields - the VM has no
// request lifecycle - so it keeps only the part of that shape this repo
// actually exercises: a level-gated, reconfigurable slog.Logger reached
// through package functions so call sites (pkg/vm's Debug-gated dispatch
// tracing, cmd/egovm) don't thread a logger value through every call.
package logging

import (
	"log/slog"
	"os"
	"strings"
	"sync"
	"sync/atomic"
)

var (
	mu      sync.RWMutex
	logger  *slog.Logger
	levelVar = new(slog.LevelVar)
	jsonMode atomic.Bool
)

func init() {
	reconfigure(os.Stderr)
}

// Config selects the logger's level and output format. Level is one of
// "debug", "info", "warn", "error"; Format is "text" or "json".
type Config struct {
	Level  string
	Format string
}

// Init applies cfg to the process-wide logger. Called once from cmd/egovm
// after flags are parsed; safe to call again in tests that want a different
// level.
func Init(cfg Config) {
	SetLevel(cfg.Level)
	jsonMode.Store(strings.EqualFold(cfg.Format, "json"))
	reconfigure(os.Stderr)
}

// SetLevel parses level ("debug", "info", "warn", "error", case-insensitive)
// and applies it immediately; unrecognized values are ignored, leaving the
// previous level in effect.
func SetLevel(level string) {
	switch strings.ToLower(level) {
	case "debug":
		levelVar.Set(slog.LevelDebug)
	case "info":
		levelVar.Set(slog.LevelInfo)
	case "warn", "warning":
		levelVar.Set(slog.LevelWarn)
	case "error":
		levelVar.Set(slog.LevelError)
	}
}

func reconfigure(w *os.File) {
	mu.Lock()
	defer mu.Unlock()
	opts := &slog.HandlerOptions{Level: levelVar}
	var h slog.Handler
	if jsonMode.Load() {
		h = slog.NewJSONHandler(w, opts)
	} else {
		h = slog.NewTextHandler(w, opts)
	}
	logger = slog.New(h)
}

func get() *slog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return logger
}

// Debug logs a dispatch-tracing or native-call event; pkg/vm gates calls to
// this behind its own Debug flag so disabled runs don't pay argument
// construction cost.
func Debug(msg string, args ...any) { get().Debug(msg, args...) }

// Info logs a routine lifecycle event (VM started, module imported).
func Info(msg string, args ...any) { get().Info(msg, args...) }

// Warn logs a recoverable anomaly (dropped event, best-effort send failure).
func Warn(msg string, args ...any) { get().Warn(msg, args...) }

// Error logs an unrecoverable or host-surfaced error.
func Error(msg string, args ...any) { get().Error(msg, args...) }

// With returns a logger with args bound, for a call site that logs several
// related messages under the same fields (e.g. one module's import).
func With(args ...any) *slog.Logger { return get().With(args...) }
