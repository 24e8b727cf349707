package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
)

// ParseLevel parses a log level name.
func ParseLevel(level string) (log.Level, error) {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return log.InfoLevel, fmt.Errorf("config: bad log level %q: %w", level, err)
	}
	return lvl, nil
}

// NewLogger creates a logger writing to w at the configured level.
func NewLogger(cfg LogConfig, w io.Writer, prefix string) *log.Logger {
	logger := log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		Prefix:          prefix,
	})
	if lvl, err := ParseLevel(cfg.Level); err == nil {
		logger.SetLevel(lvl)
	}
	return logger
}

// OpenLogFile opens the configured log file for appending, creating its directory.
// The TUI owns the terminal, so interactive commands log here instead of stderr.
func OpenLogFile(cfg LogConfig) (*os.File, error) {
	path, err := ExpandPath(cfg.File)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("config: cannot create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("config: cannot open log file: %w", err)
	}
	return f, nil
}
