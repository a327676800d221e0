package model

import (
	"strings"
	"time"
)

// DateLayout is the calendar-date format used for storage and the API.
const DateLayout = "2006-01-02"

// Bar is one daily OHLCV observation. (Symbol, Date) identifies a bar.
// Prices may be NaN when the upstream reported no value.
type Bar struct {
	Symbol string
	Date   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// IntradayBar is a sub-daily observation. Intraday bars are never persisted.
type IntradayBar struct {
	TS     time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// Interval is an intraday bar width.
type Interval string

const (
	Interval1Min  Interval = "1min"
	Interval2Min  Interval = "2min"
	Interval5Min  Interval = "5min"
	Interval15Min Interval = "15min"
	Interval30Min Interval = "30min"
	Interval60Min Interval = "60min"
)

// IntradayQuery asks a provider for intraday bars. Start and End are optional.
type IntradayQuery struct {
	Symbol   string
	Interval Interval
	Start    *time.Time
	End      *time.Time
}

// NormalizeSymbol returns the canonical, upper-case form of a symbol.
func NormalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

// TruncateDate drops the time-of-day component, keeping the calendar date of t
// in its own location, and returns it at midnight UTC.
func TruncateDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Normalize returns a copy of b with the symbol upper-cased and the date
// truncated to a calendar date.
func (b Bar) Normalize(symbol string) Bar {
	b.Symbol = NormalizeSymbol(symbol)
	b.Date = TruncateDate(b.Date)
	return b
}

// Closes extracts the close prices of bars in order.
func Closes(bars []Bar) []float64 {
	closes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
	}
	return closes
}
