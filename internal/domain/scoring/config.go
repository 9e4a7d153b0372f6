package scoring

import "fmt"

// Fingerprint holds the coefficients of the continuous fingerprint term.
type Fingerprint struct {
	Miss      float64 `json:"miss"`
	Frequency float64 `json:"frequency"`
	Window    float64 `json:"window"`
	Momentum  float64 `json:"momentum"`
}

// Config carries every scoring constant. It is passed by value.
type Config struct {
	// SkewThreshold is how far a trailing share may drift from 0.5 before
	// the underrepresented side receives SkewBonus.
	SkewThreshold float64
	SkewBonus     float64
	Fingerprint   Fingerprint
	// TopScores is the number of ranked entries reported with a prediction.
	TopScores int
}

// DefaultConfig returns threshold 0.05, bonus 1.5 and fingerprint
// 0.033 miss + 0.011 frequency - 0.04 window + 0.05 momentum.
func DefaultConfig() Config {
	return Config{
		SkewThreshold: 0.05,
		SkewBonus:     1.5,
		Fingerprint: Fingerprint{
			Miss:      0.033,
			Frequency: 0.011,
			Window:    -0.04,
			Momentum:  0.05,
		},
		TopScores: 20,
	}
}

// Validate checks the config.
func (c Config) Validate() error {
	if c.SkewThreshold < 0 || c.SkewBonus < 0 {
		return fmt.Errorf("%w: skew threshold %g bonus %g", ErrInvalidConfig, c.SkewThreshold, c.SkewBonus)
	}
	if c.TopScores < 1 {
		return fmt.Errorf("%w: top scores %d", ErrInvalidConfig, c.TopScores)
	}
	return nil
}
