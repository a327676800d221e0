package calculator

import "UyoAI/internal/model"

// neutralRSI is reported when there are not enough closes to seed the average.
const neutralRSI = 50.0

// wilder tracks Wilder-smoothed average gains and losses.
type wilder struct {
	period  int
	seen    int
	avgGain float64
	avgLoss float64
}

func (w *wilder) add(change float64) {
	gain, loss := 0.0, 0.0
	if change > 0 {
		gain = change
	} else {
		loss = -change
	}
	w.seen++
	p := float64(w.period)
	if w.seen <= w.period {
		// simple mean over the seeding window
		w.avgGain += gain / p
		w.avgLoss += loss / p
		return
	}
	w.avgGain = (w.avgGain*(p-1) + gain) / p
	w.avgLoss = (w.avgLoss*(p-1) + loss) / p
}

func (w *wilder) value() float64 {
	if w.avgLoss == 0 {
		return 100
	}
	return 100 - 100/(1+w.avgGain/w.avgLoss)
}

// CalculateRSI returns the Wilder RSI of the bar closes. NaN closes are
// skipped. Fewer than period+1 priced closes yield the neutral 50.
func CalculateRSI(bars []model.Bar, period int) (float64, error) {
	if period <= 0 {
		return 0, errPeriod
	}
	closes := pricedCloses(bars)
	if len(closes) < period+1 {
		return neutralRSI, nil
	}
	w := &wilder{period: period}
	for i := 1; i < len(closes); i++ {
		w.add(closes[i] - closes[i-1])
	}
	return w.value(), nil
}
