// Package logger provides the process-wide structured logger for videofs.
//
// Verbosity is controlled by the VIDEOFS_LOG_LEVEL environment variable,
// accepting error, warn, info, debug, or trace.
package logger

import (
	"context"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"strings"
)

// LevelTrace is a rung below slog.LevelDebug, completing the
// error/warn/info/debug/trace severity set.
const LevelTrace = slog.Level(-8)

var levelNames = map[slog.Level]string{
	LevelTrace: "TRACE",
}

var defaultLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
	Level: slog.LevelInfo,
}))

// Init (re)configures the default logger from the VIDEOFS_LOG_LEVEL
// environment variable and the supplied writer (os.Stderr unless a
// --logfile has been set up by the caller).
func Init(w io.Writer) {
	level := parseLevel(os.Getenv("VIDEOFS_LOG_LEVEL"))
	defaultLogger = slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.LevelKey {
				if lvl, ok := a.Value.Any().(slog.Level); ok {
					if name, ok := levelNames[lvl]; ok {
						a.Value = slog.StringValue(name)
					}
				}
			}
			return a
		},
	}))
}

// Default returns the process-wide logger, for collaborators (like
// internal/viewfs's image thunks) that want to log through *slog.Logger
// directly rather than this package's Xxxf helpers.
func Default() *slog.Logger {
	return defaultLogger
}

// StdError returns a *log.Logger forwarding to the default logger at error
// level, for libraries that only accept the stdlib type.
func StdError() *log.Logger {
	return slog.NewLogLogger(defaultLogger.Handler(), slog.LevelError)
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trace":
		return LevelTrace
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	case "info", "":
		return slog.LevelInfo
	default:
		return slog.LevelInfo
	}
}

func Tracef(format string, args ...any) { defaultLogger.Log(context.Background(), LevelTrace, sprintf(format, args...)) }
func Debugf(format string, args ...any) { defaultLogger.Debug(sprintf(format, args...)) }
func Infof(format string, args ...any)  { defaultLogger.Info(sprintf(format, args...)) }
func Warnf(format string, args ...any)  { defaultLogger.Warn(sprintf(format, args...)) }
func Errorf(format string, args ...any) { defaultLogger.Error(sprintf(format, args...)) }

func sprintf(format string, args ...any) string {
	if len(args) == 0 {
		return format
	}
	return fmt.Sprintf(format, args...)
}
