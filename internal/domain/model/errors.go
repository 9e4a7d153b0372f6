package model

import "errors"

// Sentinel errors for record validation.
var (
	ErrInvalidRecord = errors.New("invalid draw record")
	ErrUnordered     = errors.New("records not in strictly increasing period order")
)
