// Package repository stores draw history and issued predictions.
package repository

import (
	"context"

	"github.com/okian/drawcast/internal/domain/model"
)

// Order selects the period ordering of Records.
type Order int

// Orders.
const (
	Ascending Order = iota
	Descending
)

// Store provides read/write access to draw history and predictions.
type Store interface {
	// Records returns every stored draw ordered by period.
	Records(ctx context.Context, order Order) ([]model.DrawRecord, error)
	// Latest returns the draw with the highest period.
	// Returns ErrNotFound if the store is empty.
	Latest(ctx context.Context) (model.DrawRecord, error)
	// Insert stores records, ignoring any whose period or date is already
	// present. It returns how many were added and how many were skipped.
	Insert(ctx context.Context, records ...model.DrawRecord) (added, duplicates int, err error)
	// Count returns the number of stored draws.
	Count(ctx context.Context) (int, error)

	// SavePrediction stores p keyed by its target period, replacing any
	// earlier prediction for that period.
	SavePrediction(ctx context.Context, p model.Prediction) error
	// PredictionFor returns the prediction that targeted period.
	// Returns ErrNotFound if none was stored.
	PredictionFor(ctx context.Context, period int64) (model.Prediction, error)

	Close() error
}
