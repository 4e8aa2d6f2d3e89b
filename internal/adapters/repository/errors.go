package repository

import "errors"

// Sentinel kinds for store errors.
var (
	ErrNotFound          = errors.New("not found")
	ErrUnsupportedDriver = errors.New("unsupported store driver")
	ErrInvalidRecord     = errors.New("invalid record")
)
