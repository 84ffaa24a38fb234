package logging

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/heckler1/mxmaster-gesture-control/console"
)

var level slog.LevelVar

func init() {
	handler := slog.NewTextHandler(console.Writer, &slog.HandlerOptions{Level: &level})
	slog.SetDefault(slog.New(handler))
}

// SetLogLevel changes the level of the process-wide logger. Unrecognized
// names fall back to info.
func SetLogLevel(name string) {
	switch strings.ToLower(name) {
	case "debug":
		level.Set(slog.LevelDebug)
	case "warn":
		level.Set(slog.LevelWarn)
	case "error":
		level.Set(slog.LevelError)
	default:
		level.Set(slog.LevelInfo)
	}
}

// Flush blocks until pending log output has been written to the console.
func Flush() {
	console.Flush()
}

// Logger prefixes records with a package namespace.
type Logger struct {
	namespace string
}

func NewLogger(namespace string) *Logger {
	return &Logger{namespace: namespace}
}

func (l *Logger) transform(msg string, args []any) (string, []any) {
	return fmt.Sprintf("%s: %s", l.namespace, msg), args
}

func (l *Logger) Debug(msg string, args ...any) {
	msg, args = l.transform(msg, args)
	slog.Debug(msg, args...)
}

func (l *Logger) Info(msg string, args ...any) {
	msg, args = l.transform(msg, args)
	slog.Info(msg, args...)
}

func (l *Logger) Warn(msg string, args ...any) {
	msg, args = l.transform(msg, args)
	slog.Warn(msg, args...)
}

func (l *Logger) Error(msg string, args ...any) {
	msg, args = l.transform(msg, args)
	slog.Error(msg, args...)
}
