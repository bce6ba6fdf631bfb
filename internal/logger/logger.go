// Package logger holds the process-wide structured logger used by the segment,
// allocator and snapshot packages.
package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// EnvLevel names the environment variable that enables stderr logging without
// code changes. Accepted values: debug, info, warn, error.
const EnvLevel = "SLABSHM_LOG"

// L is the global logger instance. It discards all output unless EnvLevel is
// set or Init is called.
var L = fromEnv()

// Options configures the logger initialization.
type Options struct {
	Enabled bool       // If false, all logging is discarded
	Writer  io.Writer  // Destination. Default: os.Stderr
	Level   slog.Level // Minimum log level. Default: LevelInfo when enabled
	JSON    bool       // Emit JSON records instead of key=value text
}

// Init replaces the global logger. Call from main() before any log calls.
func Init(opts Options) {
	L = New(opts)
}

// New builds a logger from opts without touching the global one.
func New(opts Options) *slog.Logger {
	if !opts.Enabled {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	w := opts.Writer
	if w == nil {
		w = os.Stderr
	}
	level := opts.Level
	if level == 0 {
		level = slog.LevelInfo
	}
	ho := &slog.HandlerOptions{Level: level}
	if opts.JSON {
		return slog.New(slog.NewJSONHandler(w, ho))
	}
	return slog.New(slog.NewTextHandler(w, ho))
}

func fromEnv() *slog.Logger {
	v := strings.TrimSpace(os.Getenv(EnvLevel))
	if v == "" {
		return New(Options{})
	}
	level, ok := ParseLevel(v)
	if !ok {
		level = slog.LevelInfo
	}
	return New(Options{Enabled: true, Level: level})
}

// ParseLevel maps a level name to a slog.Level.
func ParseLevel(s string) (slog.Level, bool) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, true
	case "info":
		return slog.LevelInfo, true
	case "warn", "warning":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	}
	return slog.LevelInfo, false
}
