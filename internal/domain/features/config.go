package features

import (
	"fmt"

	"github.com/okian/drawcast/internal/domain/category"
)

// Config is the immutable feature pipeline configuration. It is passed by
// value into every call.
type Config struct {
	// Window is the trailing window of the windowed frequency.
	Window int
	// ShortMomentum and LongMomentum are the two momentum windows. Momentum
	// is zero until LongMomentum draws have been observed.
	ShortMomentum int
	LongMomentum  int
	// MacroWindow is the number of trailing draws behind the big and odd shares.
	MacroWindow int
	// Relations are the label relation tables.
	Relations category.Relations
	// Contamination and AnomalyTrees configure the isolation scorer.
	Contamination float64
	AnomalyTrees  int
	Seed          uint64
}

// DefaultConfig returns window 50, momentum 10/30, macro window 10 and an
// isolation scorer of 100 trees at contamination 0.1, seed 42.
func DefaultConfig() Config {
	return Config{
		Window:        50,
		ShortMomentum: 10,
		LongMomentum:  30,
		MacroWindow:   10,
		Relations:     category.DefaultRelations(),
		Contamination: 0.1,
		AnomalyTrees:  100,
		Seed:          42,
	}
}

// Validate checks window sizes and scorer settings.
func (c Config) Validate() error {
	switch {
	case c.Window < 1:
		return fmt.Errorf("%w: window %d", ErrInvalidConfig, c.Window)
	case c.ShortMomentum < 1 || c.LongMomentum <= c.ShortMomentum:
		return fmt.Errorf("%w: momentum windows %d/%d", ErrInvalidConfig, c.ShortMomentum, c.LongMomentum)
	case c.MacroWindow < 1:
		return fmt.Errorf("%w: macro window %d", ErrInvalidConfig, c.MacroWindow)
	case c.Contamination <= 0 || c.Contamination > 0.5:
		return fmt.Errorf("%w: contamination %g", ErrInvalidConfig, c.Contamination)
	case c.AnomalyTrees < 1:
		return fmt.Errorf("%w: anomaly trees %d", ErrInvalidConfig, c.AnomalyTrees)
	}
	return nil
}
