package ohlcv

import (
	"time"

	"UyoAI/internal/model"
)

// FreshRatio is the share of calendar days in a range that cached rows must
// reach before the cache is trusted without refetching.
const FreshRatio = 0.6

// SpanDays returns the whole number of days between two calendar dates.
// It is negative when end precedes start.
func SpanDays(start, end time.Time) int {
	return int(model.TruncateDate(end).Sub(model.TruncateDate(start)).Hours() / 24)
}

// IsFresh reports whether cached rows are enough to skip an upstream fetch.
// Only the row count is compared against the span; which dates the rows
// cover is not inspected.
func IsFresh(existing []model.Bar, start, end time.Time) bool {
	if len(existing) == 0 {
		return false
	}
	return float64(len(existing)) >= FreshRatio*float64(SpanDays(start, end))
}
