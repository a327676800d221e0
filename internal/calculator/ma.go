package calculator

import (
	"errors"
	"math"

	"UyoAI/internal/model"
)

var (
	errPeriod       = errors.New("period must be positive")
	errShortHistory = errors.New("not enough priced bars")
)

// CalculateSMA averages the last period prices. NaN prices do not count
// towards the window.
func CalculateSMA(prices []float64, period int) (float64, error) {
	if period <= 0 {
		return 0, errPeriod
	}
	var sum float64
	n := 0
	for i := len(prices) - 1; i >= 0 && n < period; i-- {
		if math.IsNaN(prices[i]) {
			continue
		}
		sum += prices[i]
		n++
	}
	if n < period {
		return 0, errShortHistory
	}
	return sum / float64(period), nil
}

// CalculateBarSMA is CalculateSMA over the bar closes.
func CalculateBarSMA(bars []model.Bar, period int) (float64, error) {
	return CalculateSMA(model.Closes(bars), period)
}

// pricedCloses drops NaN closes, keeping order.
func pricedCloses(bars []model.Bar) []float64 {
	out := make([]float64, 0, len(bars))
	for _, b := range bars {
		if !math.IsNaN(b.Close) {
			out = append(out, b.Close)
		}
	}
	return out
}
