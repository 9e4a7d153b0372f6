package repository_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/okian/drawcast/internal/adapters/repository"
	"github.com/okian/drawcast/internal/domain/model"
	"github.com/okian/drawcast/internal/testdraws"
)

func stores(t *testing.T) map[string]repository.Store {
	t.Helper()
	sqlite, err := repository.OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "draws.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlite.Close() })
	return map[string]repository.Store{
		"sqlite": sqlite,
		"memory": repository.NewMemoryStore(),
	}
}

func TestStoreRecords(t *testing.T) {
	ctx := context.Background()
	records := testdraws.Generate(12, testdraws.WithSeed(5))

	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			_, err := store.Latest(ctx)
			require.ErrorIs(t, err, repository.ErrNotFound)

			// Insert out of order; reads come back sorted.
			added, dups, err := store.Insert(ctx, records[6:]...)
			require.NoError(t, err)
			assert.Equal(t, 6, added)
			assert.Equal(t, 0, dups)
			added, dups, err = store.Insert(ctx, records[:8]...)
			require.NoError(t, err)
			assert.Equal(t, 6, added)
			assert.Equal(t, 2, dups)

			n, err := store.Count(ctx)
			require.NoError(t, err)
			assert.Equal(t, 12, n)

			asc, err := store.Records(ctx, repository.Ascending)
			require.NoError(t, err)
			assert.Equal(t, records, asc)

			desc, err := store.Records(ctx, repository.Descending)
			require.NoError(t, err)
			require.Len(t, desc, 12)
			assert.Equal(t, records[11], desc[0])
			assert.Equal(t, records[0], desc[11])

			latest, err := store.Latest(ctx)
			require.NoError(t, err)
			assert.Equal(t, records[11], latest)
		})
	}
}

func TestStoreRejectsInvalidRecords(t *testing.T) {
	ctx := context.Background()
	bad := testdraws.Draw(1, [6]int{1, 2, 3, 4, 5, 5}, 9)

	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			_, _, err := store.Insert(ctx, bad)
			require.ErrorIs(t, err, model.ErrInvalidRecord)
			n, err := store.Count(ctx)
			require.NoError(t, err)
			assert.Zero(t, n)
		})
	}
}

func TestStoreDuplicateDate(t *testing.T) {
	ctx := context.Background()
	first := testdraws.Draw(1, [6]int{1, 2, 3, 4, 5, 6}, 7)
	sameDay := first
	sameDay.Period = 99

	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			added, dups, err := store.Insert(ctx, first, sameDay)
			require.NoError(t, err)
			assert.Equal(t, 1, added)
			assert.Equal(t, 1, dups)
		})
	}
}

func TestStorePredictions(t *testing.T) {
	ctx := context.Background()
	p := model.Prediction{
		NextPeriod:       2024010,
		BasedOnPeriod:    2024009,
		PrimarySpecial:   7,
		SpecialShortlist: [6]int{7, 8, 9, 10, 11, 12},
		NormalShortlist:  [6]int{1, 2, 3, 4, 5, 6},
		Combo:            model.Combo{OddEven: "奇4偶3", BigSmall: "大0小7", Sum: 28},
		TopScores:        []model.ScoreEntry{{Number: 7, Score: 0.5, Zodiac: "狗", Element: "木", Color: "红"}},
		Strategy:         "heatmap",
	}

	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			_, err := store.PredictionFor(ctx, p.NextPeriod)
			require.ErrorIs(t, err, repository.ErrNotFound)

			require.NoError(t, store.SavePrediction(ctx, p))
			got, err := store.PredictionFor(ctx, p.NextPeriod)
			require.NoError(t, err)
			assert.Equal(t, p, got)

			replaced := p
			replaced.Strategy = "ensemble"
			require.NoError(t, store.SavePrediction(ctx, replaced))
			got, err = store.PredictionFor(ctx, p.NextPeriod)
			require.NoError(t, err)
			assert.Equal(t, "ensemble", got.Strategy)
		})
	}
}

func TestMemoryStoreClosed(t *testing.T) {
	store := repository.NewMemoryStore()
	require.NoError(t, store.Close())
	_, err := store.Count(context.Background())
	assert.ErrorIs(t, err, repository.ErrClosed)
}
