package features

import "errors"

// Sentinel errors for feature extraction.
var (
	// ErrEmptyHistory is returned when no records are supplied.
	ErrEmptyHistory = errors.New("empty history")
	// ErrInvalidConfig is returned for invalid window sizes or scorer settings.
	ErrInvalidConfig = errors.New("invalid feature config")
)
