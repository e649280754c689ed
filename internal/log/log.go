// Package log wraps log/slog for the signet CLI. Library packages take an
// injected *slog.Logger instead; this package only backs the command-line
// surface.
package log

import (
	"io"
	"log/slog"
	"os"
)

var logger *slog.Logger

// Options configures the logger.
type Options struct {
	// Verbose enables debug/info output to stderr
	Verbose bool
	// JSONFormat uses JSON output format for stderr
	JSONFormat bool
	// Stderr is the writer for stderr output (defaults to os.Stderr)
	Stderr io.Writer
}

// Init initializes the global logger with the given options.
func Init(opts Options) error {
	stderr := opts.Stderr
	if stderr == nil {
		stderr = os.Stderr
	}

	// Warn+Error by default, all levels if verbose
	level := slog.LevelWarn
	if opts.Verbose {
		level = slog.LevelDebug
	}
	handlerOpts := &slog.HandlerOptions{
		Level: level,
	}

	var handler slog.Handler
	if opts.JSONFormat {
		handler = slog.NewJSONHandler(stderr, handlerOpts)
	} else {
		handler = slog.NewTextHandler(stderr, handlerOpts)
	}

	logger = slog.New(handler)
	slog.SetDefault(logger)
	return nil
}

// Debug logs a debug message.
func Debug(msg string, args ...any) {
	logger.Debug(msg, args...)
}

// Info logs an info message.
func Info(msg string, args ...any) {
	logger.Info(msg, args...)
}

// Warn logs a warning message.
func Warn(msg string, args ...any) {
	logger.Warn(msg, args...)
}

// Error logs an error message.
func Error(msg string, args ...any) {
	logger.Error(msg, args...)
}

// With returns a logger with additional context.
func With(args ...any) *slog.Logger {
	return logger.With(args...)
}

// Logger returns the configured logger for injection into library packages.
func Logger() *slog.Logger {
	return logger
}

// SetOutput sets the output writer (for testing).
func SetOutput(w io.Writer) {
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug})
	logger = slog.New(handler)
	slog.SetDefault(logger)
}

func init() {
	// Default logger until Init is called
	logger = slog.Default()
}
