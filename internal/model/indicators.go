package model

// DailyIndicators summarises a range of daily bars. Values that cannot be
// computed from the available rows are NaN.
type DailyIndicators struct {
	Symbol   string
	Rows     int
	Period   int
	Last     float64
	VWAP     float64
	TWAP     float64
	SMA      float64
	RSI      float64
	High     float64
	Low      float64
	Position float64 // 0.0 ~ 1.0 within [Low, High]
}
