package route

import "errors"

var (
	ErrNotCallable = errors.New("not callable")
	ErrNotFound    = errors.New("not found")
)
