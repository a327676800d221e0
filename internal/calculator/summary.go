package calculator

import (
	"math"

	"UyoAI/internal/model"
)

// DefaultPeriod is used for SMA and RSI when the caller gives none.
const DefaultPeriod = 14

// Summarize computes the daily indicator set for bars sorted by date.
func Summarize(symbol string, bars []model.Bar, period int) *model.DailyIndicators {
	if period <= 0 {
		period = DefaultPeriod
	}
	ind := &model.DailyIndicators{
		Symbol:   model.NormalizeSymbol(symbol),
		Rows:     len(bars),
		Period:   period,
		Last:     math.NaN(),
		VWAP:     VWAP(bars),
		TWAP:     TWAP(bars),
		SMA:      math.NaN(),
		RSI:      math.NaN(),
		High:     math.NaN(),
		Low:      math.NaN(),
		Position: math.NaN(),
	}
	if len(bars) == 0 {
		return ind
	}
	ind.Last = bars[len(bars)-1].Close

	if sma, err := CalculateBarSMA(bars, period); err == nil {
		ind.SMA = sma
	}
	if len(pricedCloses(bars)) > period {
		if rsi, err := CalculateRSI(bars, period); err == nil {
			ind.RSI = rsi
		}
	}
	if h, l, err := CalculateRange(bars); err == nil {
		ind.High, ind.Low = h, l
		if pos, err := CalculatePosition(ind.Last, h, l); err == nil && !math.IsNaN(ind.Last) {
			ind.Position = pos
		}
	}
	return ind
}
