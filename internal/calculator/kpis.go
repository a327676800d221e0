package calculator

import (
	"math"

	"UyoAI/internal/model"
)

// VWAP is sum(close*volume)/sum(volume). Bars with a NaN close or volume are
// skipped; the result is NaN when the remaining volume is zero.
func VWAP(bars []model.Bar) float64 {
	var num, den float64
	for _, b := range bars {
		if math.IsNaN(b.Close) || math.IsNaN(b.Volume) {
			continue
		}
		num += b.Close * b.Volume
		den += b.Volume
	}
	if den == 0 {
		return math.NaN()
	}
	return num / den
}

// TWAP is the mean close over bars, ignoring NaN closes. NaN when nothing is left.
func TWAP(bars []model.Bar) float64 {
	var sum float64
	n := 0
	for _, b := range bars {
		if math.IsNaN(b.Close) {
			continue
		}
		sum += b.Close
		n++
	}
	if n == 0 {
		return math.NaN()
	}
	return sum / float64(n)
}
