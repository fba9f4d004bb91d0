// Package pglog wraps charmbracelet/log for the backend and frontend
// packages. Adapted from the teacher's pkg/logger: same package-level
// Debug/Info/Warn/Error/Fatal/With functions and SetLevel, plus a Logger
// interface so a Conn can hold a per-connection scoped logger (With'd
// with its connection ID) without importing charmbracelet/log directly.
package pglog

import (
	"os"
	"time"

	"github.com/charmbracelet/log"
)

// Logger is the subset of *log.Logger that backend.Conn and
// backend.Server use. Accepting this interface instead of *log.Logger
// lets callers plug in a no-op or test logger; since With returns a
// *log.Logger, such an implementation still imports charmbracelet/log.
type Logger interface {
	Debug(msg interface{}, keyvals ...interface{})
	Info(msg interface{}, keyvals ...interface{})
	Warn(msg interface{}, keyvals ...interface{})
	Error(msg interface{}, keyvals ...interface{})
	With(keyvals ...interface{}) *log.Logger
}

var defaultLogger *log.Logger

func init() {
	defaultLogger = log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.Kitchen,
	})
}

// SetLevel sets the log level of the package default logger.
func SetLevel(level string) {
	switch level {
	case "debug":
		defaultLogger.SetLevel(log.DebugLevel)
	case "info":
		defaultLogger.SetLevel(log.InfoLevel)
	case "warn":
		defaultLogger.SetLevel(log.WarnLevel)
	case "error":
		defaultLogger.SetLevel(log.ErrorLevel)
	}
}

// Default returns the package default logger as a Logger.
func Default() Logger { return defaultLogger }

// Debug logs at the "debug" level.
func Debug(msg string, keyvals ...interface{}) { defaultLogger.Debug(msg, keyvals...) }

// Info logs at the "info" level.
func Info(msg string, keyvals ...interface{}) { defaultLogger.Info(msg, keyvals...) }

// Warn logs at the "warn" level.
func Warn(msg string, keyvals ...interface{}) { defaultLogger.Warn(msg, keyvals...) }

// Error logs at the "error" level.
func Error(msg string, keyvals ...interface{}) { defaultLogger.Error(msg, keyvals...) }

// Fatal logs and exits.
func Fatal(msg string, keyvals ...interface{}) { defaultLogger.Fatal(msg, keyvals...) }

// With returns a logger scoped with additional context, e.g. a
// connection ID.
func With(keyvals ...interface{}) *log.Logger { return defaultLogger.With(keyvals...) }
