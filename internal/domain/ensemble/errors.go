package ensemble

import (
	"errors"

	"github.com/okian/drawcast/internal/domain/learn"
)

// Sentinel errors for the classifier stack.
var (
	// ErrInvalidWeights is returned when fusion weights are negative or do not sum to one.
	ErrInvalidWeights = errors.New("invalid fusion weights")
	// ErrInvalidConfig is returned for an unusable search configuration.
	ErrInvalidConfig = errors.New("invalid ensemble config")
	// ErrModelFit wraps any failure to train one of the models.
	ErrModelFit = errors.New("model fit failed")
	// ErrLabelDegenerate is returned when the training labels hold a single class.
	ErrLabelDegenerate = learn.ErrLabelDegenerate
)
