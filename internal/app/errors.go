package service

import "errors"

// Sentinel errors for the service.
var (
	ErrNotStarted      = errors.New("service not started")
	ErrNoHistory       = errors.New("no draw history stored")
	ErrUnknownStrategy = errors.New("unknown strategy")
)
