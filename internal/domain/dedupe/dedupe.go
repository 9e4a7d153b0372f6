// Package dedupe tracks which draw periods a batch has already seen.
package dedupe

import (
	"sync"

	"github.com/okian/drawcast/internal/domain/model"
)

const defaultMaxSize = 10000

// Deduper records seen periods.
type Deduper interface {
	// SeenAndRecord atomically checks if period was seen and records it if
	// not. Returns true if it was already seen.
	SeenAndRecord(period int64) bool
	// Unrecord forgets period so it can be offered again.
	Unrecord(period int64)
	Size() int
}

// InMemoryDeduper implements Deduper with a map and a FIFO ring of
// insertion order for eviction.
type InMemoryDeduper struct {
	mu      sync.Mutex
	seen    map[int64]struct{}
	ring    []int64
	next    int
	maxSize int
}

var _ Deduper = (*InMemoryDeduper)(nil)

// NewInMemoryDeduper creates a deduper.
func NewInMemoryDeduper(opts ...Option) *InMemoryDeduper {
	d := &InMemoryDeduper{maxSize: defaultMaxSize}
	for _, opt := range opts {
		opt(d)
	}
	d.seen = make(map[int64]struct{})
	if d.maxSize > 0 {
		d.ring = make([]int64, 0, d.maxSize)
	}
	return d
}

// SeenAndRecord implements Deduper.
func (d *InMemoryDeduper) SeenAndRecord(period int64) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.seen[period]; ok {
		return true
	}
	d.seen[period] = struct{}{}
	if d.maxSize <= 0 {
		return false
	}
	if len(d.ring) < d.maxSize {
		d.ring = append(d.ring, period)
		return false
	}
	// Full: overwrite the oldest slot.
	delete(d.seen, d.ring[d.next])
	d.ring[d.next] = period
	d.next = (d.next + 1) % d.maxSize
	return false
}

// Unrecord implements Deduper.
func (d *InMemoryDeduper) Unrecord(period int64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.seen, period)
}

// Size returns the number of remembered periods.
func (d *InMemoryDeduper) Size() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.seen)
}

// Filter returns the records whose period d has not seen, recording them,
// and the number dropped as duplicates. Order is preserved.
func Filter(d Deduper, records []model.DrawRecord) ([]model.DrawRecord, int) {
	out := make([]model.DrawRecord, 0, len(records))
	dups := 0
	for _, r := range records {
		if d.SeenAndRecord(r.Period) {
			dups++
			continue
		}
		out = append(out, r)
	}
	return out, dups
}
