package worker

import "errors"

// ErrNilJob is returned by Run when no job function is given.
var ErrNilJob = errors.New("nil job")
