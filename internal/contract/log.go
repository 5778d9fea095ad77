package contract

import (
	"context"
	"io"
	"os"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
)

var logger atomic.Pointer[log.Logger]

func init() {
	logger.Store(newLogger(os.Stderr, log.WarnLevel))
}

// newLogger creates a logger that writes timestamped messages to w at the given level.
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// Logger returns the process-wide logger.
func Logger() *log.Logger {
	return logger.Load()
}

// SetVerbose switches the process-wide logger between warn and debug levels.
func SetVerbose(verbose bool) {
	if verbose {
		Logger().SetLevel(log.DebugLevel)
		return
	}
	Logger().SetLevel(log.WarnLevel)
}

// SetLogOutput replaces the process-wide logger with one writing to w.
// Tests use it to capture log lines.
func SetLogOutput(w io.Writer, level log.Level) {
	logger.Store(newLogger(w, level))
}

// LogFatal logs an error and exits the program.
func LogFatal(msg string, err error) {
	Logger().Error(msg, "err", err)
	os.Exit(1)
}

// LogWarn logs a warning message to stderr.
func LogWarn(msg string, err error) {
	Logger().Warn(msg, "err", err)
}

// LogDebug logs structured key/value pairs when verbose output is enabled.
func LogDebug(msg string, keyvals ...any) {
	Logger().Debug(msg, keyvals...)
}

// Timed logs msg with the elapsed time since start at debug level.
func Timed(msg string, start time.Time) {
	Logger().Debug(msg, "elapsed", time.Since(start).Round(time.Millisecond))
}

type loggerKey struct{}

// WithLogger returns a new context carrying l.
func WithLogger(ctx context.Context, l *log.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, l)
}

// LoggerFromContext returns the logger attached to ctx, or the process-wide logger.
func LoggerFromContext(ctx context.Context) *log.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*log.Logger); ok {
		return l
	}
	return Logger()
}
