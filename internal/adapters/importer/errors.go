package importer

import (
	"errors"
	"fmt"
)

// Sentinel errors for payload parsing.
var (
	ErrMalformed  = errors.New("malformed payload")
	ErrUpstream   = errors.New("upstream reported failure")
	ErrInvalidRow = errors.New("invalid row")
)

// RowError describes one payload row that could not become a record.
type RowError struct {
	Index  int
	Expect string
	Err    error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("row %d (expect %q): %v", e.Index, e.Expect, e.Err)
}

func (e *RowError) Unwrap() error { return e.Err }
