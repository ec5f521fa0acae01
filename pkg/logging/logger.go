package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Logger writes timestamped debug lines for one pagecheck run.
// All loggers derived from the same Open call share one file at
// <log-dir>/<run-id>-pagecheck.log, so a run leaves exactly one log behind.
//
// All log methods write unconditionally; console verbosity is handled by the
// runner's console reporter, not here.
type Logger struct {
	runID     string
	component string
	out       *output
}

type output struct {
	mu        sync.Mutex
	file      *os.File
	logger    *log.Logger
	path      string
	closeOnce sync.Once
}

// DefaultDirectory returns ~/.pagecheck/logs.
func DefaultDirectory() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".pagecheck", "logs"), nil
}

// Open creates the log file for a new run in dir (DefaultDirectory when dir
// is empty) and returns a logger for the "pagecheck" component.
//
// If the directory or file cannot be created, Open returns a fallback logger
// that writes to stderr together with the error, so callers can warn and
// carry on.
func Open(dir string) (*Logger, error) {
	runID := uuid.New().String()

	if dir == "" {
		d, err := DefaultDirectory()
		if err != nil {
			return newFallbackLogger(runID, err), err
		}
		dir = d
	}

	if err := os.MkdirAll(dir, 0750); err != nil {
		err = fmt.Errorf("failed to create log directory: %w", err)
		return newFallbackLogger(runID, err), err
	}

	logPath := filepath.Join(dir, fmt.Sprintf("%s-pagecheck.log", runID))
	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		err = fmt.Errorf("failed to open log file: %w", err)
		return newFallbackLogger(runID, err), err
	}

	return &Logger{
		runID:     runID,
		component: "pagecheck",
		out: &output{
			file:   file,
			logger: log.New(file, "", 0), // timestamps are formatted per entry
			path:   logPath,
		},
	}, nil
}

// NewWriterLogger returns a logger that writes to w instead of a file.
func NewWriterLogger(w io.Writer) *Logger {
	return &Logger{
		runID:     uuid.New().String(),
		component: "pagecheck",
		out:       &output{logger: log.New(w, "", 0)},
	}
}

// newFallbackLogger creates a logger that writes to stderr when file logging fails
func newFallbackLogger(runID string, err error) *Logger {
	logger := log.New(os.Stderr, "[pagecheck] ", log.LstdFlags)
	logger.Printf("WARNING: Failed to initialize file logging: %v", err)
	logger.Printf("Falling back to stderr logging")

	return &Logger{
		runID:     runID,
		component: "pagecheck",
		out:       &output{logger: logger},
	}
}

// Named returns a logger for another component writing to the same output.
func (l *Logger) Named(component string) *Logger {
	return &Logger{
		runID:     l.runID,
		component: component,
		out:       l.out,
	}
}

func (l *Logger) write(level, format string, v ...interface{}) {
	timestamp := time.Now().Format("2006-01-02 15:04:05.000")
	message := fmt.Sprintf(format, v...)

	l.out.mu.Lock()
	defer l.out.mu.Unlock()
	l.out.logger.Printf("[%s] [%s] [%s] %s", timestamp, l.component, level, message)
}

// Debugf logs a debug-level message
func (l *Logger) Debugf(format string, v ...interface{}) {
	l.write("DEBUG", format, v...)
}

// Infof logs an info-level message
func (l *Logger) Infof(format string, v ...interface{}) {
	l.write("INFO", format, v...)
}

// Warnf logs a warning-level message
func (l *Logger) Warnf(format string, v ...interface{}) {
	l.write("WARN", format, v...)
}

// Errorf logs an error-level message
func (l *Logger) Errorf(format string, v ...interface{}) {
	l.write("ERROR", format, v...)
}

// RunID returns the identifier shared by every logger of this run.
func (l *Logger) RunID() string {
	return l.runID
}

// Path returns the log file path, or "" when not logging to a file.
func (l *Logger) Path() string {
	return l.out.path
}

// Close closes the log file. Safe to call multiple times and from any
// derived logger.
func (l *Logger) Close() error {
	var err error
	l.out.closeOnce.Do(func() {
		if l.out.file != nil {
			err = l.out.file.Close()
		}
	})
	return err
}
