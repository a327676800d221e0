package collector

import (
	"context"
	"time"

	"UyoAI/internal/model"
)

// MockProvider returns controllable synthetic data for development and testing.
// When Daily is set it is filtered to the requested range instead of generating bars.
type MockProvider struct {
	Price float64
	Daily []model.Bar
	Err   error
}

func NewMockProvider(price float64) *MockProvider {
	return &MockProvider{Price: price}
}

func (m *MockProvider) Name() string { return NameMock }

func (m *MockProvider) FetchDaily(_ context.Context, symbol string, start, end time.Time) ([]model.Bar, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	if m.Daily != nil {
		out := make([]model.Bar, 0, len(m.Daily))
		for _, b := range m.Daily {
			if inRange(model.TruncateDate(b.Date), start, end) {
				out = append(out, b)
			}
		}
		sortBars(out)
		return out, nil
	}
	if end.IsZero() {
		end = time.Now()
	}
	if start.IsZero() {
		start = end.AddDate(0, 0, -30)
	}
	return generateMockBars(model.NormalizeSymbol(symbol), m.Price, model.TruncateDate(start), model.TruncateDate(end)), nil
}

func (m *MockProvider) FetchIntraday(_ context.Context, q model.IntradayQuery) ([]model.IntradayBar, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	end := time.Now().UTC().Truncate(time.Minute)
	if q.End != nil {
		end = *q.End
	}
	step := 5 * time.Minute
	bars := make([]model.IntradayBar, 0, 78)
	for i := 77; i >= 0; i-- {
		p := m.Price * (1 + float64(i%7-3)*0.0005)
		bars = append(bars, model.IntradayBar{
			TS:     end.Add(-time.Duration(i) * step),
			Open:   p * 0.9995,
			High:   p * 1.001,
			Low:    p * 0.999,
			Close:  p,
			Volume: 10000,
		})
	}
	return filterIntraday(bars, q), nil
}

// generateMockBars emits one bar per weekday in [start, end].
func generateMockBars(symbol string, basePrice float64, start, end time.Time) []model.Bar {
	bars := make([]model.Bar, 0)
	i := 0
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		if d.Weekday() == time.Saturday || d.Weekday() == time.Sunday {
			continue
		}
		p := basePrice * (1 + float64(i%10-5)*0.001)
		bars = append(bars, model.Bar{
			Symbol: symbol,
			Date:   d,
			Open:   p * 0.999,
			High:   p * 1.005,
			Low:    p * 0.995,
			Close:  p,
			Volume: 1000000,
		})
		i++
	}
	return bars
}
