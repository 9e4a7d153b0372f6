package strategy

import (
	"errors"
	"fmt"
)

// Sentinel errors for strategies.
var (
	// ErrInsufficientData is returned before any training when the history is
	// shorter than the strategy's minimum.
	ErrInsufficientData = errors.New("insufficient data")
	// ErrAllFailed is returned by a Chain when no strategy succeeds.
	ErrAllFailed = errors.New("all strategies failed")
	// ErrNoStrategies is returned by a Chain with nothing to run.
	ErrNoStrategies = errors.New("no strategies configured")
)

// Pipeline stages named in StageError.
const (
	StageValidate = "validate"
	StageFeatures = "features"
	StageTrain    = "train"
	StageScore    = "score"
)

// StageError tags a failure with the pipeline stage it came from.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string { return fmt.Sprintf("%s: %v", e.Stage, e.Err) }

func (e *StageError) Unwrap() error { return e.Err }

func stageErr(stage string, err error) error {
	return &StageError{Stage: stage, Err: err}
}
