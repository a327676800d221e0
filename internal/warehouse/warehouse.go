package warehouse

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"UyoAI/internal/model"

	_ "modernc.org/sqlite"
)

// ErrUnavailable is returned when the backing file cannot be created, opened
// or migrated. It indicates a broken environment rather than bad data.
var ErrUnavailable = errors.New("warehouse unavailable")

const busyTimeoutMS = 5000

const upsertDaily = `INSERT INTO ohlcv_daily (symbol, date, open, high, low, close, volume)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(symbol, date) DO UPDATE SET
	open = excluded.open,
	high = excluded.high,
	low = excluded.low,
	close = excluded.close,
	volume = excluded.volume`

const readDaily = `SELECT date, open, high, low, close, volume
FROM ohlcv_daily
WHERE symbol = ? AND date BETWEEN ? AND ?
ORDER BY date`

// Store is the daily bar warehouse backed by a single SQLite file.
// Every operation opens its own connection and closes it before returning,
// so a Store is safe to share between goroutines and processes.
type Store struct {
	path string
}

// New returns a Store for the file at path. Nothing is touched on disk
// until the first operation.
func New(path string) *Store {
	return &Store{path: path}
}

// Path returns the backing file path.
func (s *Store) Path() string { return s.path }

func (s *Store) connect(ctx context.Context) (*sql.DB, error) {
	if dir := filepath.Dir(s.path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("%w: create dir %s: %v", ErrUnavailable, dir, err)
		}
	}

	dsn := fmt.Sprintf("%s?_pragma=busy_timeout(%d)&_pragma=journal_mode(WAL)&_txlock=immediate", s.path, busyTimeoutMS)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", ErrUnavailable, s.path, err)
	}
	db.SetMaxOpenConns(1)

	if err := migrate(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: %s: %v", ErrUnavailable, s.path, err)
	}
	return db, nil
}

func migrate(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS ohlcv_daily (
			symbol TEXT NOT NULL,
			date   TEXT NOT NULL,
			open   REAL,
			high   REAL,
			low    REAL,
			close  REAL,
			volume REAL,
			PRIMARY KEY (symbol, date)
		)`,
	}
	for _, s := range stmts {
		if _, err := db.ExecContext(ctx, s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

// Upsert writes bars for symbol in a single transaction. Existing
// (symbol, date) rows are replaced. An empty batch is a no-op and does not
// open the file.
func (s *Store) Upsert(ctx context.Context, symbol string, bars []model.Bar) (err error) {
	if len(bars) == 0 {
		return nil
	}

	db, err := s.connect(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin upsert: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	stmt, err := tx.PrepareContext(ctx, upsertDaily)
	if err != nil {
		return fmt.Errorf("prepare upsert: %w", err)
	}
	defer stmt.Close()

	for _, b := range bars {
		b = b.Normalize(symbol)
		if _, err = stmt.ExecContext(ctx,
			b.Symbol,
			b.Date.Format(model.DateLayout),
			nullable(b.Open),
			nullable(b.High),
			nullable(b.Low),
			nullable(b.Close),
			nullable(b.Volume),
		); err != nil {
			return fmt.Errorf("upsert %s %s: %w", b.Symbol, b.Date.Format(model.DateLayout), err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit upsert: %w", err)
	}
	return nil
}

// Read returns the bars for symbol with start <= date <= end, ascending by
// date. No match yields an empty, non-nil slice.
func (s *Store) Read(ctx context.Context, symbol string, start, end time.Time) ([]model.Bar, error) {
	db, err := s.connect(ctx)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	sym := model.NormalizeSymbol(symbol)
	rows, err := db.QueryContext(ctx, readDaily,
		sym,
		model.TruncateDate(start).Format(model.DateLayout),
		model.TruncateDate(end).Format(model.DateLayout),
	)
	if err != nil {
		return nil, fmt.Errorf("query daily %s: %w", sym, err)
	}
	defer rows.Close()

	bars := make([]model.Bar, 0)
	for rows.Next() {
		var (
			date                           string
			open, high, low, close, volume sql.NullFloat64
		)
		if err := rows.Scan(&date, &open, &high, &low, &close, &volume); err != nil {
			return nil, fmt.Errorf("scan daily %s: %w", sym, err)
		}
		d, err := time.Parse(model.DateLayout, date)
		if err != nil {
			return nil, fmt.Errorf("parse stored date %q: %w", date, err)
		}
		bars = append(bars, model.Bar{
			Symbol: sym,
			Date:   d,
			Open:   orNaN(open),
			High:   orNaN(high),
			Low:    orNaN(low),
			Close:  orNaN(close),
			Volume: orNaN(volume),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate daily %s: %w", sym, err)
	}
	return bars, nil
}

// SQLite stores NaN as NULL; make that explicit in both directions.
func nullable(v float64) any {
	if math.IsNaN(v) {
		return nil
	}
	return v
}

func orNaN(v sql.NullFloat64) float64 {
	if !v.Valid {
		return math.NaN()
	}
	return v.Float64
}
