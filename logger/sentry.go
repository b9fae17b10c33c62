package logger

import (
	"fmt"
	"time"

	"github.com/getsentry/sentry-go"
)

const sentryFlushTimeout = 2 * time.Second

// Keys of LogContext.Data promoted to Sentry tags.
var sentryTagKeys = []string{"requestID", "status"}

// Levels at which a SentryLogger reports to Sentry.
var sentryLevels = map[LogLevel]sentry.Level{
	LogLevelWarn:  sentry.LevelWarning,
	LogLevelError: sentry.LevelError,
	LogLevelFatal: sentry.LevelFatal,
}

// A SentryLogger wraps a StdLogger, reporting warnings and errors to Sentry.
//
// Events are grouped by log message and request path
// rather than by error text, which carries identifiers and stack traces.
type SentryLogger struct {
	hub *sentry.Hub
	l   SkipLogger
}

// NewSentryLogger constructs a SentryLogger based off the provided StdLogger,
// initializing the global Sentry client with dsn.
func NewSentryLogger(tl *StdLogger, dsn string) Logger {
	err := sentry.Init(sentry.ClientOptions{
		Dsn:          dsn,
		Environment:  tl.env,
		IgnoreErrors: []string{"write: broken pipe", "connection reset by peer"},
	})
	if err != nil {
		tl.Error(fmt.Sprintf("unable to init Sentry: %s", err), nil)
		return tl
	}

	return newSentryLogger(tl, sentry.CurrentHub())
}

// newSentryLogger skips the frames SentryLogger adds in front of l.
func newSentryLogger(l SkipLogger, hub *sentry.Hub) *SentryLogger {
	return &SentryLogger{hub: hub, l: l.AddSkip(2 + l.Skip())}
}

// AddSkip replaces the current number of frames to scroll back
// when logging a message.
func (sl *SentryLogger) AddSkip(i int) SkipLogger { return sl.l.AddSkip(i) }

// Debug writes a debug log.
func (sl *SentryLogger) Debug(msg string, ctx *LogContext) { sl.log(LogLevelDebug, msg, ctx) }

// Error writes an error log and reports it to Sentry.
func (sl *SentryLogger) Error(msg string, ctx *LogContext) { sl.log(LogLevelError, msg, ctx) }

// Fatal writes a fatal log and reports it to Sentry, waiting for delivery.
func (sl *SentryLogger) Fatal(msg string, ctx *LogContext) {
	sl.log(LogLevelFatal, msg, ctx)
	sl.hub.Flush(sentryFlushTimeout)
}

// Info writes an info log.
func (sl *SentryLogger) Info(msg string, ctx *LogContext) { sl.log(LogLevelInfo, msg, ctx) }

// Warn writes a warning log and reports it to Sentry if it carries an error.
func (sl *SentryLogger) Warn(msg string, ctx *LogContext) { sl.log(LogLevelWarn, msg, ctx) }

// LogLevel returns the LogLevel set for the SentryLogger.
func (sl *SentryLogger) LogLevel() LogLevel { return sl.l.LogLevel() }

// Skip returns the current amount of frames to scroll back
// when logging a message.
func (sl *SentryLogger) Skip() int { return sl.l.Skip() }

func (sl *SentryLogger) log(level LogLevel, msg string, ctx *LogContext) {
	if sl.l.LogLevel() > level {
		return
	}

	switch level {
	case LogLevelDebug:
		sl.l.Debug(msg, ctx)
	case LogLevelInfo:
		sl.l.Info(msg, ctx)
	case LogLevelWarn:
		sl.l.Warn(msg, ctx)
	case LogLevelError:
		sl.l.Error(msg, ctx)
	case LogLevelFatal:
		sl.l.Fatal(msg, ctx)
	}

	if lvl, ok := sentryLevels[level]; ok {
		sl.report(lvl, msg, ctx)
	}
}

// report sends an event for msg to Sentry.
// Warnings without an error are not reported.
func (sl *SentryLogger) report(level sentry.Level, msg string, ctx *LogContext) {
	if ctx == nil {
		ctx = new(LogContext)
	}

	if ctx.Error == nil && level == sentry.LevelWarning {
		return
	}

	sl.hub.WithScope(func(scope *sentry.Scope) {
		scope.SetLevel(level)
		scope.SetFingerprint([]string{msg, ctx.Path})
		scope.SetExtra("message", msg)

		if ctx.SessionID != "" || ctx.Addr != "" {
			scope.SetUser(sentry.User{ID: ctx.SessionID, IPAddress: ctx.Addr})
		}

		if ctx.Path != "" {
			scope.SetTag("path", ctx.Path)
		}

		for _, key := range sentryTagKeys {
			if val, ok := ctx.Data[key]; ok {
				scope.SetTag(key, fmt.Sprint(val))
			}
		}

		if ctx.Request != nil {
			scope.SetRequest(ctx.Request)
		}

		if ctx.Data != nil {
			scope.SetExtra("data", ctx.Data)
		}

		if ctx.Error == nil {
			sl.hub.CaptureMessage(msg)
			return
		}

		sl.hub.CaptureException(ctx.Error)
	})
}
