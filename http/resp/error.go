package resp

import "errors"

var (
	ErrInvalid     = errors.New("invalid")
	ErrMissingData = errors.New("missing data")
	ErrWritten     = errors.New("response partially written")
)
