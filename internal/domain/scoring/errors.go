package scoring

import "errors"

// Sentinel errors for scoring and ranking.
var (
	// ErrTooFewCandidates is returned when a board cannot fill both shortlists.
	ErrTooFewCandidates = errors.New("too few eligible candidates")
	// ErrInvalidEntry is returned for out-of-pool or repeated numbers.
	ErrInvalidEntry = errors.New("invalid board entry")
	// ErrInvalidConfig is returned for negative thresholds or an empty top list.
	ErrInvalidConfig = errors.New("invalid scoring config")
)
