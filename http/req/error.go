package req

import "errors"

var (
	ErrBadRequest = errors.New("bad request")
	ErrTooLarge   = errors.New("request too large")
)
