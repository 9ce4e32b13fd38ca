package domain

import "errors"

// Sentinel errors for the domain layer.
var (
	ErrNotFound           = errors.New("domain: not found")
	ErrInvalidRange       = errors.New("domain: invalid date range")
	ErrBackendUnavailable = errors.New("domain: backend unavailable")
)
