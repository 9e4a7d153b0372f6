// Package testdraws generates synthetic, valid draw histories for tests and
// dry runs. Output is fully determined by the seed.
package testdraws

import (
	"math/rand/v2"
	"time"

	"github.com/okian/drawcast/internal/domain/category"
	"github.com/okian/drawcast/internal/domain/model"
)

// Default generator settings.
const (
	defaultStartPeriod = 2024001
	defaultInterval    = 48 * time.Hour
	defaultSeed        = 42
)

// Config controls the generator.
type Config struct {
	StartPeriod int64
	StartDate   time.Time
	Interval    time.Duration
	Seed        uint64
}

// Option applies a configuration option to the generator.
type Option func(*Config)

// WithStartPeriod sets the first period.
func WithStartPeriod(p int64) Option {
	return func(c *Config) {
		if p > 0 {
			c.StartPeriod = p
		}
	}
}

// WithStartDate sets the date of the first draw.
func WithStartDate(t time.Time) Option {
	return func(c *Config) {
		if !t.IsZero() {
			c.StartDate = t
		}
	}
}

// WithInterval sets the time between draws.
func WithInterval(d time.Duration) Option {
	return func(c *Config) {
		if d > 0 {
			c.Interval = d
		}
	}
}

// WithSeed sets the random seed.
func WithSeed(seed uint64) Option {
	return func(c *Config) { c.Seed = seed }
}

// Generate returns n records with consecutive periods. Each special zodiac
// is taken from the maps of the draw's own reference year, as upstream data
// does.
func Generate(n int, opts ...Option) []model.DrawRecord {
	cfg := Config{
		StartPeriod: defaultStartPeriod,
		StartDate:   time.Date(2024, time.March, 2, 21, 30, 0, 0, time.UTC),
		Interval:    defaultInterval,
		Seed:        defaultSeed,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	rng := rand.New(rand.NewPCG(cfg.Seed, cfg.Seed+1))
	pool := make([]int, category.PoolSize)
	out := make([]model.DrawRecord, n)
	for i := range out {
		for k := range pool {
			pool[k] = k + 1
		}
		// Partial shuffle: the first seven entries are the draw.
		for k := 0; k <= model.NormalCount; k++ {
			j := k + rng.IntN(len(pool)-k)
			pool[k], pool[j] = pool[j], pool[k]
		}
		date := cfg.StartDate.Add(time.Duration(i) * cfg.Interval)
		maps := category.Build(category.ReferenceYear(date))
		r := model.DrawRecord{
			Period:  cfg.StartPeriod + int64(i),
			Date:    date,
			Special: pool[model.NormalCount],
		}
		copy(r.Normals[:], pool[:model.NormalCount])
		r.SpecialZodiac = maps.Zodiac(r.Special)
		out[i] = r
	}
	return out
}

// Draw builds a single record from explicit numbers with the zodiac taken
// from the 2024 maps.
func Draw(period int64, normals [model.NormalCount]int, special int) model.DrawRecord {
	date := time.Date(2024, time.March, 1, 21, 30, 0, 0, time.UTC).Add(time.Duration(period%1000) * defaultInterval)
	maps := category.Build(category.ReferenceYear(date))
	return model.DrawRecord{
		Period:        period,
		Date:          date,
		Normals:       normals,
		Special:       special,
		SpecialZodiac: maps.Zodiac(special),
	}
}
