package recorder

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// FetchEvent describes one daily acquisition: what the cache held, which
// upstream answered and what was returned to the caller.
type FetchEvent struct {
	ID           uuid.UUID
	Symbol       string
	Start        time.Time
	End          time.Time
	CachedRows   int
	Fresh        bool
	Provider     string // provider that produced the fetched rows, empty on a cache hit
	FellBack     bool
	FetchedRows  int
	ReturnedRows int
	Err          string
	At           time.Time
}

// Recorder persists acquisition events for later analysis.
type Recorder interface {
	RecordFetch(ctx context.Context, evt *FetchEvent) error
	RecentFetches(ctx context.Context, symbol string, limit int) ([]FetchEvent, error)
	Close() error
}
