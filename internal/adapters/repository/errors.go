package repository

import "errors"

// Sentinel kinds for store errors.
var (
	ErrNotFound      = errors.New("user stats not found")
	ErrUnavailable   = errors.New("store unavailable")
	ErrInvalidDriver = errors.New("unknown store driver")
)
