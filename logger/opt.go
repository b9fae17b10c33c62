package logger

import "log"

// A LoggerOptFn is a functional option configuring a StdLogger when constructing a new one.
type LoggerOptFn func(*StdLogger)

// WithEnv sets the environment StdLogger is operating in.
func WithEnv(env string) func(*StdLogger) {
	return func(l *StdLogger) {
		l.env = env
	}
}

// WithLevel sets the log level StdLogger uses.
func WithLevel(level LogLevel) func(*StdLogger) {
	return func(l *StdLogger) {
		l.ll = level
	}
}

// WithLogger sets the log.Logger StdLogger uses.
func WithLogger(log *log.Logger) func(*StdLogger) {
	return func(l *StdLogger) {
		l.l = log
	}
}

// WithSkip sets the number of frames in the call stack
// to skip in order to log the desired file and line number
// of the calling code.
func WithSkip(skip int) func(*StdLogger) {
	return func(l *StdLogger) {
		l.skip = skip
	}
}
