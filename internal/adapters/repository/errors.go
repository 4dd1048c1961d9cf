package repository

import "errors"

// Sentinel kinds for store errors.
var (
	ErrNotFound    = errors.New("record not found")
	ErrConflict    = errors.New("write conflict")
	ErrContention  = errors.New("optimistic retries exhausted")
	ErrUnavailable = errors.New("store unavailable")
)
