package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/okian/drawcast/internal/domain/category"
	"github.com/okian/drawcast/internal/domain/model"
	"github.com/okian/drawcast/pkg/logger"
	"github.com/okian/drawcast/pkg/metrics"
)

const (
	dateLayout     = "2006-01-02 15:04:05"
	defaultTimeout = 10 * time.Second
)

const schema = `
CREATE TABLE IF NOT EXISTS history (
	period    INTEGER PRIMARY KEY,
	open_time TEXT NOT NULL UNIQUE,
	n1        INTEGER NOT NULL,
	n2        INTEGER NOT NULL,
	n3        INTEGER NOT NULL,
	n4        INTEGER NOT NULL,
	n5        INTEGER NOT NULL,
	n6        INTEGER NOT NULL,
	special   INTEGER NOT NULL,
	zodiac    TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS predictions (
	next_period INTEGER PRIMARY KEY,
	strategy    TEXT NOT NULL,
	payload     TEXT NOT NULL,
	created_at  TEXT NOT NULL
);`

type historyRow struct {
	Period  int64  `db:"period"`
	Date    string `db:"open_time"`
	N1      int    `db:"n1"`
	N2      int    `db:"n2"`
	N3      int    `db:"n3"`
	N4      int    `db:"n4"`
	N5      int    `db:"n5"`
	N6      int    `db:"n6"`
	Special int    `db:"special"`
	Zodiac  string `db:"zodiac"`
}

func (r historyRow) record() (model.DrawRecord, error) {
	date, err := time.Parse(dateLayout, r.Date)
	if err != nil {
		return model.DrawRecord{}, fmt.Errorf("period %d date: %w", r.Period, err)
	}
	z, err := category.ParseZodiac(r.Zodiac)
	if err != nil {
		return model.DrawRecord{}, fmt.Errorf("period %d: %w", r.Period, err)
	}
	return model.DrawRecord{
		Period:        r.Period,
		Date:          date,
		Normals:       [model.NormalCount]int{r.N1, r.N2, r.N3, r.N4, r.N5, r.N6},
		Special:       r.Special,
		SpecialZodiac: z,
	}, nil
}

func rowOf(r model.DrawRecord) historyRow {
	return historyRow{
		Period: r.Period, Date: r.Date.UTC().Format(dateLayout),
		N1: r.Normals[0], N2: r.Normals[1], N3: r.Normals[2],
		N4: r.Normals[3], N5: r.Normals[4], N6: r.Normals[5],
		Special: r.Special, Zodiac: r.SpecialZodiac.String(),
	}
}

// SQLiteStore is a Store backed by a SQLite file.
type SQLiteStore struct {
	db      *sqlx.DB
	timeout time.Duration
	log     logger.Logger
}

var _ Store = (*SQLiteStore)(nil)

// OpenSQLite opens (creating if needed) the database at path and applies
// the schema.
func OpenSQLite(ctx context.Context, path string, opts ...Option) (*SQLiteStore, error) {
	db, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	// One connection keeps :memory: databases shared and serializes writers.
	db.SetMaxOpenConns(1)

	s := &SQLiteStore{db: db, timeout: defaultTimeout, log: logger.Nop()}
	for _, opt := range opts {
		opt(s)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return s, nil
}

// Records implements Store.
func (s *SQLiteStore) Records(ctx context.Context, order Order) ([]model.DrawRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	query := `SELECT * FROM history ORDER BY period ASC`
	if order == Descending {
		query = `SELECT * FROM history ORDER BY period DESC`
	}
	var rows []historyRow
	if err := s.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("select history: %w", err)
	}
	out := make([]model.DrawRecord, 0, len(rows))
	for _, r := range rows {
		rec, err := r.record()
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

// Latest implements Store.
func (s *SQLiteStore) Latest(ctx context.Context) (model.DrawRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var row historyRow
	err := s.db.GetContext(ctx, &row, `SELECT * FROM history ORDER BY period DESC LIMIT 1`)
	if errors.Is(err, sql.ErrNoRows) {
		return model.DrawRecord{}, ErrNotFound
	}
	if err != nil {
		return model.DrawRecord{}, fmt.Errorf("select latest: %w", err)
	}
	return row.record()
}

// Insert implements Store.
func (s *SQLiteStore) Insert(ctx context.Context, records ...model.DrawRecord) (int, int, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, 0, fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	added, dups := 0, 0
	for _, r := range records {
		if err := r.Validate(); err != nil {
			return 0, 0, err
		}
		res, err := tx.NamedExecContext(ctx, `
			INSERT OR IGNORE INTO history
			(period, open_time, n1, n2, n3, n4, n5, n6, special, zodiac)
			VALUES (:period, :open_time, :n1, :n2, :n3, :n4, :n5, :n6, :special, :zodiac)`, rowOf(r))
		if err != nil {
			return 0, 0, fmt.Errorf("insert period %d: %w", r.Period, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, 0, fmt.Errorf("insert period %d: %w", r.Period, err)
		}
		if n == 0 {
			dups++
		} else {
			added++
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, 0, fmt.Errorf("commit: %w", err)
	}

	metrics.RecordImport(added, dups)
	if count, err := s.Count(ctx); err == nil {
		metrics.UpdateStoredRecords(count)
	}
	s.log.Debug(ctx, "records inserted", logger.Int("added", added), logger.Int("duplicates", dups))
	return added, dups, nil
}

// Count implements Store.
func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var n int
	if err := s.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM history`); err != nil {
		return 0, fmt.Errorf("count history: %w", err)
	}
	return n, nil
}

// SavePrediction implements Store.
func (s *SQLiteStore) SavePrediction(ctx context.Context, p model.Prediction) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	payload, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal prediction: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO predictions (next_period, strategy, payload, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (next_period) DO UPDATE SET
			strategy = excluded.strategy,
			payload = excluded.payload,
			created_at = excluded.created_at`,
		p.NextPeriod, p.Strategy, string(payload), time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("save prediction %d: %w", p.NextPeriod, err)
	}
	return nil
}

// PredictionFor implements Store.
func (s *SQLiteStore) PredictionFor(ctx context.Context, period int64) (model.Prediction, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var payload string
	err := s.db.GetContext(ctx, &payload, `SELECT payload FROM predictions WHERE next_period = ?`, period)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Prediction{}, ErrNotFound
	}
	if err != nil {
		return model.Prediction{}, fmt.Errorf("select prediction %d: %w", period, err)
	}
	var p model.Prediction
	if err := json.Unmarshal([]byte(payload), &p); err != nil {
		return model.Prediction{}, fmt.Errorf("decode prediction %d: %w", period, err)
	}
	return p, nil
}

// Close implements Store.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
