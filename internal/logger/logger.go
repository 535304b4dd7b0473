// ABOUTME: Structured logging configuration using log/slog.
// ABOUTME: Writes to a log file so output never interferes with the TUI display.

package logger

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

var (
	mu      sync.Mutex
	logFile *os.File
)

// Options selects where and how log records are written
type Options struct {
	Path   string    // log file; empty disables file output
	Level  string    // debug, info, warn, error (default: info)
	Format string    // text, json (default: text)
	Mirror io.Writer // optional second destination, e.g. os.Stderr for --verbose
}

// Init configures the default slog logger. When neither a path nor a mirror
// is given, records are discarded.
func Init(opts Options) error {
	mu.Lock()
	defer mu.Unlock()

	closeLocked()

	var writers []io.Writer
	if opts.Path != "" {
		if err := os.MkdirAll(filepath.Dir(opts.Path), 0700); err != nil {
			return err
		}
		f, err := os.OpenFile(opts.Path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
		if err != nil {
			return err
		}
		logFile = f
		writers = append(writers, f)
	}
	if opts.Mirror != nil {
		writers = append(writers, opts.Mirror)
	}

	var out io.Writer
	switch len(writers) {
	case 0:
		out = io.Discard
	case 1:
		out = writers[0]
	default:
		out = io.MultiWriter(writers...)
	}

	slog.SetDefault(New(out, opts.Level, opts.Format))
	return nil
}

// New builds a logger writing to w with the given level and format
func New(w io.Writer, level, format string) *slog.Logger {
	handlerOpts := &slog.HandlerOptions{
		Level: parseLevel(level),
	}

	var handler slog.Handler
	if strings.ToLower(format) == "json" {
		handler = slog.NewJSONHandler(w, handlerOpts)
	} else {
		handler = slog.NewTextHandler(w, handlerOpts)
	}
	return slog.New(handler)
}

// Close flushes and closes the log file, if one is open
func Close() {
	mu.Lock()
	defer mu.Unlock()
	closeLocked()
}

func closeLocked() {
	if logFile != nil {
		logFile.Close()
		logFile = nil
	}
}

// parseLevel converts a string log level to slog.Level.
func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
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
