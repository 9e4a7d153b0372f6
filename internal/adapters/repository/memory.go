package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/okian/drawcast/internal/domain/model"
	"github.com/okian/drawcast/pkg/metrics"
)

// MemoryStore is an in-process Store.
type MemoryStore struct {
	mu          sync.RWMutex
	records     []model.DrawRecord // ascending by period
	periods     map[int64]struct{}
	dates       map[string]struct{}
	predictions map[int64]model.Prediction
	closed      bool
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		periods:     make(map[int64]struct{}),
		dates:       make(map[string]struct{}),
		predictions: make(map[int64]model.Prediction),
	}
}

// Records implements Store.
func (m *MemoryStore) Records(_ context.Context, order Order) ([]model.DrawRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, ErrClosed
	}
	out := make([]model.DrawRecord, len(m.records))
	copy(out, m.records)
	if order == Descending {
		for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
			out[i], out[j] = out[j], out[i]
		}
	}
	return out, nil
}

// Latest implements Store.
func (m *MemoryStore) Latest(_ context.Context) (model.DrawRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return model.DrawRecord{}, ErrClosed
	}
	if len(m.records) == 0 {
		return model.DrawRecord{}, ErrNotFound
	}
	return m.records[len(m.records)-1], nil
}

// Insert implements Store.
func (m *MemoryStore) Insert(_ context.Context, records ...model.DrawRecord) (int, int, error) {
	for _, r := range records {
		if err := r.Validate(); err != nil {
			return 0, 0, err
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return 0, 0, ErrClosed
	}
	added, dups := 0, 0
	for _, r := range records {
		date := r.Date.UTC().Format(dateLayout)
		_, seenPeriod := m.periods[r.Period]
		_, seenDate := m.dates[date]
		if seenPeriod || seenDate {
			dups++
			continue
		}
		m.periods[r.Period] = struct{}{}
		m.dates[date] = struct{}{}
		m.records = append(m.records, r)
		added++
	}
	sort.SliceStable(m.records, func(i, j int) bool { return m.records[i].Period < m.records[j].Period })

	metrics.RecordImport(added, dups)
	metrics.UpdateStoredRecords(len(m.records))
	return added, dups, nil
}

// Count implements Store.
func (m *MemoryStore) Count(_ context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return 0, ErrClosed
	}
	return len(m.records), nil
}

// SavePrediction implements Store.
func (m *MemoryStore) SavePrediction(_ context.Context, p model.Prediction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	p.TopScores = append([]model.ScoreEntry(nil), p.TopScores...)
	m.predictions[p.NextPeriod] = p
	return nil
}

// PredictionFor implements Store.
func (m *MemoryStore) PredictionFor(_ context.Context, period int64) (model.Prediction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return model.Prediction{}, ErrClosed
	}
	p, ok := m.predictions[period]
	if !ok {
		return model.Prediction{}, ErrNotFound
	}
	return p, nil
}

// Close implements Store.
func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}
