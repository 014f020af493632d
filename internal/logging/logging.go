// Package logging builds the process logger. The logger is created once at
// startup, passed to the components that log, and closed at shutdown.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
)

// Logger wraps the slog logger together with the sink it writes to.
type Logger struct {
	*slog.Logger
	file *os.File
}

// New creates a text logger at info level, or debug when verbose is set.
// Output goes to path when given, otherwise to w.
func New(w io.Writer, path string, verbose bool) (*Logger, error) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}

	l := &Logger{}
	if path != "" {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		l.file = f
		w = f
	}

	l.Logger = slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
	return l, nil
}

// Close flushes and closes the log file, if any.
func (l *Logger) Close() error {
	if l == nil || l.file == nil {
		return nil
	}
	if err := l.file.Sync(); err != nil {
		_ = l.file.Close()
		return fmt.Errorf("failed to flush log file: %w", err)
	}
	return l.file.Close()
}
