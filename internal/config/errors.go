package config

import "errors"

// Validate failures wrap ErrInvalidConfig, including the ones reported by
// the feature, ensemble and scoring validators. File, env and decode
// failures in Load wrap ErrLoadConfig.
var (
	// ErrInvalidConfig marks a setting outside its allowed range.
	ErrInvalidConfig = errors.New("invalid drawcast config")
	// ErrLoadConfig marks a config source that could not be read or decoded.
	ErrLoadConfig = errors.New("load drawcast config")
)
