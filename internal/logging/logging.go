// Package logging builds the process logger: a slog text handler writing to
// the console and, when one can be opened, a log file.
package logging

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// DefaultFile and FallbackFile are tried in order for the file sink.
const (
	DefaultFile  = "/var/log/heating_simulator/simulator.log"
	FallbackFile = "/tmp/heating_simulator.log"
)

// ParseLevel maps a level name to a slog.Level. Unknown values default to info.
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

// NewLogger creates a leveled text logger writing to w.
func NewLogger(level string, w io.Writer) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: ParseLevel(level)}))
}

// New returns a logger writing to console and to the first of paths that can
// be opened for append. The returned path is empty when no file could be
// opened; closeFn releases the file and is never nil.
func New(level string, console io.Writer, paths ...string) (logger *slog.Logger, path string, closeFn func() error) {
	for _, p := range paths {
		if p == "" {
			continue
		}
		f, err := openAppend(p)
		if err != nil {
			continue
		}
		return NewLogger(level, io.MultiWriter(console, f)), p, f.Close
	}
	return NewLogger(level, console), "", func() error { return nil }
}

func openAppend(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	return os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
}
