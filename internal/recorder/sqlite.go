package recorder

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"UyoAI/internal/model"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"
)

const busyTimeoutMS = 5000

// SQLiteRecorder persists acquisition events to a SQLite database.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create dir: %w", err)
		}
	}
	// the api and backfill commands may share this file
	db, err := sql.Open("sqlite", fmt.Sprintf("%s?_pragma=busy_timeout(%d)", dbPath, busyTimeoutMS))
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL mode so readers of the audit table do not block the service.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Info().Str("path", dbPath).Msg("sqlite recorder opened")
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS acquisition_events (
			id            TEXT PRIMARY KEY,
			timestamp     INTEGER NOT NULL,
			symbol        TEXT NOT NULL,
			start_date    TEXT NOT NULL,
			end_date      TEXT NOT NULL,
			cached_rows   INTEGER,
			fresh         INTEGER,
			provider      TEXT,
			fell_back     INTEGER,
			fetched_rows  INTEGER,
			returned_rows INTEGER,
			error         TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_acq_symbol_ts ON acquisition_events(symbol, timestamp)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func (r *SQLiteRecorder) RecordFetch(ctx context.Context, evt *FetchEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if evt.ID == uuid.Nil {
		evt.ID = uuid.New()
	}
	if evt.At.IsZero() {
		evt.At = time.Now()
	}

	_, err := r.db.ExecContext(ctx, `INSERT INTO acquisition_events
		(id, timestamp, symbol, start_date, end_date, cached_rows, fresh, provider,
		 fell_back, fetched_rows, returned_rows, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		evt.ID.String(), evt.At.UnixMilli(), evt.Symbol,
		evt.Start.Format(model.DateLayout), evt.End.Format(model.DateLayout),
		evt.CachedRows, boolToInt(evt.Fresh), evt.Provider,
		boolToInt(evt.FellBack), evt.FetchedRows, evt.ReturnedRows, evt.Err,
	)
	return err
}

// RecentFetches returns the newest events first. An empty symbol matches all.
func (r *SQLiteRecorder) RecentFetches(ctx context.Context, symbol string, limit int) ([]FetchEvent, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx, `SELECT id, timestamp, symbol, start_date, end_date,
		cached_rows, fresh, provider, fell_back, fetched_rows, returned_rows, error
		FROM acquisition_events
		WHERE (? = '' OR symbol = ?)
		ORDER BY timestamp DESC
		LIMIT ?`, symbol, symbol, limit)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	events := make([]FetchEvent, 0)
	for rows.Next() {
		var (
			e                 FetchEvent
			id, start, end    string
			ts                int64
			fresh, fellBack   int
			provider, errText sql.NullString
		)
		if err := rows.Scan(&id, &ts, &e.Symbol, &start, &end, &e.CachedRows, &fresh,
			&provider, &fellBack, &e.FetchedRows, &e.ReturnedRows, &errText); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		if e.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("parse event id %q: %w", id, err)
		}
		e.At = time.UnixMilli(ts)
		e.Start, _ = time.Parse(model.DateLayout, start)
		e.End, _ = time.Parse(model.DateLayout, end)
		e.Fresh = fresh == 1
		e.FellBack = fellBack == 1
		e.Provider = provider.String
		e.Err = errText.String
		events = append(events, e)
	}
	return events, rows.Err()
}

func (r *SQLiteRecorder) Close() error {
	return r.db.Close()
}
