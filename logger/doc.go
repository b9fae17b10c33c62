/*
Package logger provides logging functionality to a waypoint app by defining the required behavior in [Logger]
and providing an implementation of it with [StdLogger].

# Overview

The Logger interface outputs messages at certain levels of importance.
LogLevel is the type to use to represent those levels.
An implementation of Logger may be initialized at a certain [LogLevel]
and only emit messages at or above that level of importance.
For example, [StdLogger] accepts a [LogLevel],
and if initialized with [LogLevelWarn],
only [*StdLogger.Warn], [*StdLogger.Error], and [*StdLogger.Fatal] produce messages.

# StdLogger

Log messages emitted by [StdLogger] are composed of a few parts:
  - timestamp
  - log level
  - call site
  - message
  - log context

Here's an example:

	2022/04/28 15:55:21 [ERROR] router/router.go:143 'handler failed' log_context: {"addr":"1.1.1.1","error":"boom","path":"/admin/users"}

The log context is a JSON-encoded [LogContext].
It allows for including additional data inessential to the message proper,
like the address and path of the request being dispatched.

# SentryLogger

When the SENTRY_DSN environment variable is set, [NewLogger] returns a [SentryLogger]
which additionally ships any [LogContext.Error] logged at WARN or above to Sentry.
*/
package logger
