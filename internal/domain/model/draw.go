// Package model contains the domain records passed between layers.
package model

import (
	"fmt"
	"sort"
	"time"

	"github.com/okian/drawcast/internal/domain/category"
)

// NormalCount is the number of normal picks per draw.
const NormalCount = 6

// DrawSet is a membership array over the pool; index 0 is unused.
type DrawSet [category.PoolSize + 1]bool

// Count returns the number of members.
func (s *DrawSet) Count() int {
	c := 0
	for _, in := range s {
		if in {
			c++
		}
	}
	return c
}

// DrawRecord is one historical draw. Records are values and are never
// mutated after ingestion; Period defines the timeline.
type DrawRecord struct {
	Period        int64            `json:"period"`
	Date          time.Time        `json:"date"`
	Normals       [NormalCount]int `json:"normals"`
	Special       int              `json:"special"`
	SpecialZodiac category.Zodiac  `json:"special_zodiac"`
}

// Drawn returns the drawn set: the normals and the special.
func (r DrawRecord) Drawn() DrawSet {
	var s DrawSet
	for _, n := range r.Normals {
		s[n] = true
	}
	s[r.Special] = true
	return s
}

// Numbers returns the six normals followed by the special.
func (r DrawRecord) Numbers() [NormalCount + 1]int {
	var out [NormalCount + 1]int
	copy(out[:], r.Normals[:])
	out[NormalCount] = r.Special
	return out
}

// Validate checks the record's invariants.
func (r DrawRecord) Validate() error {
	var seen DrawSet
	for _, n := range r.Normals {
		if !category.InPool(n) {
			return fmt.Errorf("%w: period %d normal %d out of range", ErrInvalidRecord, r.Period, n)
		}
		if seen[n] {
			return fmt.Errorf("%w: period %d repeats normal %d", ErrInvalidRecord, r.Period, n)
		}
		seen[n] = true
	}
	if !category.InPool(r.Special) {
		return fmt.Errorf("%w: period %d special %d out of range", ErrInvalidRecord, r.Period, r.Special)
	}
	if seen[r.Special] {
		return fmt.Errorf("%w: period %d special %d is also a normal", ErrInvalidRecord, r.Period, r.Special)
	}
	if !r.SpecialZodiac.Valid() {
		return fmt.Errorf("%w: period %d has zodiac %d", ErrInvalidRecord, r.Period, r.SpecialZodiac)
	}
	return nil
}

// SortByPeriod sorts records ascending by period in place.
func SortByPeriod(records []DrawRecord) {
	sort.Slice(records, func(i, j int) bool { return records[i].Period < records[j].Period })
}

// ValidateSequence checks every record and that periods strictly increase.
func ValidateSequence(records []DrawRecord) error {
	for i := range records {
		if err := records[i].Validate(); err != nil {
			return err
		}
		if i > 0 && records[i].Period <= records[i-1].Period {
			return fmt.Errorf("%w: period %d follows %d", ErrUnordered, records[i].Period, records[i-1].Period)
		}
	}
	return nil
}
