// Package logging builds the slog loggers used by glanced and glance.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Rotation defaults for the daemon log file.
const (
	MaxSizeMB  = 10
	MaxBackups = 3
	MaxAgeDays = 14
)

// Options selects level, format and destination.
type Options struct {
	Level  string // "debug" | "info" | "warn" | "error"
	Format string // "text" | "json"
	// File, when set, receives rotated log output.
	File string
	// Stderr also writes to stderr when File is set.
	Stderr bool
}

// ParseLevel maps a level name to a slog level. Unknown names mean info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// New returns a logger for opts and a closer for its file, if any.
func New(opts Options) (*slog.Logger, io.Closer, error) {
	var (
		w      io.Writer = os.Stderr
		closer io.Closer = nopCloser{}
	)
	if opts.File != "" {
		if err := os.MkdirAll(filepath.Dir(opts.File), 0755); err != nil {
			return nil, nil, fmt.Errorf("creating log directory: %w", err)
		}
		lj := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    MaxSizeMB,
			MaxBackups: MaxBackups,
			MaxAge:     MaxAgeDays,
		}
		w, closer = lj, lj
		if opts.Stderr {
			w = io.MultiWriter(os.Stderr, lj)
		}
	}
	return slog.New(NewHandler(w, opts)), closer, nil
}

// NewHandler builds the handler New uses, writing to w.
func NewHandler(w io.Writer, opts Options) slog.Handler {
	ho := &slog.HandlerOptions{
		Level:       ParseLevel(opts.Level),
		ReplaceAttr: redact,
	}
	if strings.EqualFold(opts.Format, "json") {
		return slog.NewJSONHandler(w, ho)
	}
	return slog.NewTextHandler(w, ho)
}

// redact hides OAuth material that may end up in error attributes.
func redact(_ []string, a slog.Attr) slog.Attr {
	key := strings.ToLower(a.Key)
	for _, s := range []string{"token", "secret", "password"} {
		if strings.Contains(key, s) {
			a.Value = slog.StringValue("[REDACTED]")
			break
		}
	}
	return a
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
