package session

import "errors"

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrMalformed    = errors.New("malformed session")
	ErrNotFound     = errors.New("session not found")
)
