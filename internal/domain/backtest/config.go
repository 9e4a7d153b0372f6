package backtest

import "fmt"

// Config controls a walk-forward run.
type Config struct {
	// Window is the number of trailing records predicted one at a time.
	Window int
	// WarmupMinimum is the number of records that must precede the window.
	WarmupMinimum int
	// Workers above one runs steps in parallel.
	Workers int
}

// DefaultConfig returns the harness defaults.
func DefaultConfig() Config {
	return Config{Window: 20, WarmupMinimum: 10, Workers: 1}
}

// Validate checks values that do not depend on the history length.
func (c Config) Validate() error {
	if c.WarmupMinimum < 0 {
		return fmt.Errorf("%w: warmup minimum %d", ErrInvalidConfig, c.WarmupMinimum)
	}
	if c.Workers < 0 {
		return fmt.Errorf("%w: workers %d", ErrInvalidConfig, c.Workers)
	}
	return nil
}
