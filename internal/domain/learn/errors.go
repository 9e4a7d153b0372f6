package learn

import "errors"

// Sentinel errors returned by the learners. Callers match them with errors.Is.
var (
	// ErrEmptyDataset is returned when Fit receives no rows.
	ErrEmptyDataset = errors.New("empty dataset")
	// ErrLabelDegenerate is returned when the labels do not contain both classes.
	ErrLabelDegenerate = errors.New("labels must contain both classes")
	// ErrShapeMismatch is returned for ragged matrices or label/row count mismatches.
	ErrShapeMismatch = errors.New("shape mismatch")
	// ErrInvalidParam is returned for out-of-range hyperparameters.
	ErrInvalidParam = errors.New("invalid parameter")
	// ErrNotFitted is returned when predicting with an untrained model.
	ErrNotFitted = errors.New("model not fitted")
)
