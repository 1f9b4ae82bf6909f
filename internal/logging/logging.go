// Package logging builds the process-wide slog.Logger that writes to both a
// log file and stdout. It is constructed once in the CLI and passed to every
// component that logs.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/lucasnoah/mlfactory/internal/env"
)

const (
	DefaultDir  = "logs"
	DefaultFile = "running_logs.log"
)

// Options configures the logger.
type Options struct {
	Dir    string    // defaults to DefaultDir
	File   string    // defaults to DefaultFile
	Level  string    // debug, info, warn or error; defaults to info
	Stdout io.Writer // defaults to os.Stdout
}

// OptionsFromEnv reads LOG_LEVEL and MLFACTORY_LOG_DIR.
func OptionsFromEnv() Options {
	return Options{
		Dir:   env.String("MLFACTORY_LOG_DIR", DefaultDir),
		Level: env.String("LOG_LEVEL", "INFO"),
	}
}

// ParseLevel maps a level name to a slog.Level. Matching is case-insensitive;
// "" means info and "critical" is treated as error.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error", "critical":
		return slog.LevelError, nil
	}
	return 0, fmt.Errorf("unknown log level %q", s)
}

// New opens (appending) the log file and returns a logger writing timestamped,
// leveled lines to it and to stdout. The returned close func flushes and
// closes the file and must be called at process end.
func New(opts Options) (*slog.Logger, func() error, error) {
	level, err := ParseLevel(opts.Level)
	if err != nil {
		return nil, nil, err
	}
	dir := opts.Dir
	if dir == "" {
		dir = DefaultDir
	}
	name := opts.File
	if name == "" {
		name = DefaultFile
	}
	stdout := opts.Stdout
	if stdout == nil {
		stdout = os.Stdout
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, nil, fmt.Errorf("mkdir %s: %w", dir, err)
	}
	path := filepath.Join(dir, name)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}

	h := slog.NewTextHandler(io.MultiWriter(f, stdout), &slog.HandlerOptions{Level: level})
	closeFn := func() error {
		if err := f.Sync(); err != nil {
			f.Close()
			return fmt.Errorf("sync log file: %w", err)
		}
		return f.Close()
	}
	return slog.New(h), closeFn, nil
}
