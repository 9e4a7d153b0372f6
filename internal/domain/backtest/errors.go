package backtest

import (
	"errors"
	"fmt"
)

// Sentinel errors for the harness.
var (
	ErrInsufficientData = errors.New("insufficient data")
	ErrInvalidConfig    = errors.New("invalid backtest config")
	ErrNilStrategy      = errors.New("nil strategy")
)

// StageValidate marks records rejected before any step runs. StagePredict
// is used when the strategy does not report its own stage.
const (
	StageValidate = "validate"
	StagePredict  = "predict"
)

// StepError reports the step that halted a run.
type StepError struct {
	Period int64
	Stage  string
	Err    error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %d (%s): %v", e.Period, e.Stage, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }
