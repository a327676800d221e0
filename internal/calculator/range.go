package calculator

import (
	"errors"
	"math"

	"UyoAI/internal/model"
)

// CalculateRange returns the highest high and lowest low over bars, ignoring
// NaN prices.
func CalculateRange(bars []model.Bar) (high, low float64, err error) {
	if len(bars) == 0 {
		return 0, 0, errors.New("no daily bars provided")
	}
	high, low = math.Inf(-1), math.Inf(1)
	for _, b := range bars {
		// comparisons with NaN are false, so unpriced bars fall through
		high = maxPriced(high, b.High)
		low = minPriced(low, b.Low)
	}
	if math.IsInf(high, -1) || math.IsInf(low, 1) {
		return 0, 0, errors.New("no priced bars provided")
	}
	return high, low, nil
}

func maxPriced(acc, v float64) float64 {
	if v > acc {
		return v
	}
	return acc
}

func minPriced(acc, v float64) float64 {
	if v < acc {
		return v
	}
	return acc
}

// CalculatePosition places current within [low, high] as 0..1, clamped.
// A flat range is 0.5.
func CalculatePosition(current, high, low float64) (float64, error) {
	switch {
	case high < low:
		return 0, errors.New("high must be >= low")
	case high == low:
		return 0.5, nil
	}
	return math.Min(1, math.Max(0, (current-low)/(high-low))), nil
}
