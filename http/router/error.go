package router

import "errors"

var (
	ErrAccessDenied = errors.New("access denied")
	ErrHook         = errors.New("hook failed")
	ErrPanic        = errors.New("recovered panic")
)
