package realtime

import "errors"

var (
	ErrMalformed    = errors.New("malformed message")
	ErrPanic        = errors.New("event handler panicked")
	ErrUnknownEvent = errors.New("unknown event")
)
