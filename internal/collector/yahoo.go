package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"time"

	"UyoAI/internal/model"
)

const yahooBaseURL = "https://query1.finance.yahoo.com"

// YahooProvider implements Provider using the Yahoo Finance chart API.
type YahooProvider struct {
	BaseURL   string
	Client    *http.Client
	SymbolMap map[string]string // maps internal symbol to Yahoo ticker
}

// NewYahooProvider creates a new Yahoo Finance provider.
func NewYahooProvider(opts Options) *YahooProvider {
	return &YahooProvider{
		BaseURL: baseURL(opts, yahooBaseURL),
		Client:  newHTTPClient(opts),
		SymbolMap: map[string]string{
			"SPX500": "^GSPC",
			"SPX":    "^GSPC",
			"SP500":  "^GSPC",
		},
	}
}

func (p *YahooProvider) Name() string { return NameYahoo }

func (p *YahooProvider) yahooSymbol(symbol string) string {
	symbol = model.NormalizeSymbol(symbol)
	if mapped, ok := p.SymbolMap[symbol]; ok {
		return mapped
	}
	return symbol
}

var yahooIntervals = map[model.Interval]string{
	model.Interval1Min:  "1m",
	model.Interval2Min:  "2m",
	model.Interval5Min:  "5m",
	model.Interval15Min: "15m",
	model.Interval30Min: "30m",
	model.Interval60Min: "60m",
}

// yahooChart is the response structure from Yahoo Finance chart API.
type yahooChart struct {
	Chart struct {
		Result []struct {
			Meta struct {
				GMTOffset int64 `json:"gmtoffset"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*float64 `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

type yahooPoint struct {
	ts time.Time
	// day is the exchange-local calendar date of ts
	day                    time.Time
	open, high, low, close float64
	volume                 float64
}

func at(vals []*float64, i int) float64 {
	if i >= len(vals) || vals[i] == nil {
		return math.NaN()
	}
	return *vals[i]
}

func (p *YahooProvider) fetchChart(ctx context.Context, symbol string, query url.Values) ([]yahooPoint, error) {
	u := fmt.Sprintf("%s/v8/finance/chart/%s?%s", p.BaseURL, url.PathEscape(p.yahooSymbol(symbol)), query.Encode())

	status, body, err := get(ctx, p.Client, u)
	if err != nil {
		return nil, fmt.Errorf("yahoo fetch: %w", err)
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("yahoo: status %d, body: %s", status, string(body))
	}

	var chart yahooChart
	if err := json.Unmarshal(body, &chart); err != nil {
		return nil, fmt.Errorf("yahoo decode: %w", err)
	}
	if chart.Chart.Error != nil {
		return nil, fmt.Errorf("yahoo api error: %s", chart.Chart.Error.Description)
	}
	if len(chart.Chart.Result) == 0 || len(chart.Chart.Result[0].Timestamp) == 0 {
		return nil, nil
	}

	result := chart.Chart.Result[0]
	if len(result.Indicators.Quote) == 0 {
		return nil, fmt.Errorf("yahoo: quote block missing")
	}
	quote := result.Indicators.Quote[0]
	offset := time.Duration(result.Meta.GMTOffset) * time.Second
	points := make([]yahooPoint, 0, len(result.Timestamp))

	for i, ts := range result.Timestamp {
		pt := yahooPoint{
			ts:     time.Unix(ts, 0).UTC(),
			day:    model.TruncateDate(time.Unix(ts, 0).UTC().Add(offset)),
			open:   at(quote.Open, i),
			high:   at(quote.High, i),
			low:    at(quote.Low, i),
			close:  at(quote.Close, i),
			volume: at(quote.Volume, i),
		}
		if math.IsNaN(pt.open) && math.IsNaN(pt.high) && math.IsNaN(pt.low) && math.IsNaN(pt.close) {
			continue // skip null bars (holidays etc.)
		}
		if math.IsNaN(pt.volume) {
			pt.volume = 0
		}
		points = append(points, pt)
	}
	return points, nil
}

// FetchDaily returns daily bars. Upstream errors and non-200 responses are
// errors; a chart with no timestamps is an empty result.
func (p *YahooProvider) FetchDaily(ctx context.Context, symbol string, start, end time.Time) ([]model.Bar, error) {
	q := url.Values{}
	q.Set("interval", "1d")
	period1 := int64(0)
	if !start.IsZero() {
		period1 = model.TruncateDate(start).Unix()
	}
	period2 := time.Now().Unix()
	if !end.IsZero() {
		// period2 is exclusive upstream
		period2 = model.TruncateDate(end).AddDate(0, 0, 1).Unix()
	}
	q.Set("period1", fmt.Sprint(period1))
	q.Set("period2", fmt.Sprint(period2))

	points, err := p.fetchChart(ctx, symbol, q)
	if err != nil {
		return nil, err
	}

	bars := make([]model.Bar, 0, len(points))
	for _, pt := range points {
		if !inRange(pt.day, start, end) {
			continue
		}
		bars = append(bars, model.Bar{
			Symbol: model.NormalizeSymbol(symbol),
			Date:   pt.day,
			Open:   pt.open,
			High:   pt.high,
			Low:    pt.low,
			Close:  pt.close,
			Volume: pt.volume,
		})
	}
	sortBars(bars)
	return bars, nil
}

// FetchIntraday returns up to five days of intraday bars. Unknown intervals
// fall back to 5 minutes.
func (p *YahooProvider) FetchIntraday(ctx context.Context, q model.IntradayQuery) ([]model.IntradayBar, error) {
	iv, ok := yahooIntervals[q.Interval]
	if !ok {
		iv = "5m"
	}
	v := url.Values{}
	v.Set("interval", iv)
	v.Set("range", "5d")

	points, err := p.fetchChart(ctx, q.Symbol, v)
	if err != nil {
		return nil, err
	}

	bars := make([]model.IntradayBar, 0, len(points))
	for _, pt := range points {
		bars = append(bars, model.IntradayBar{
			TS:     pt.ts,
			Open:   pt.open,
			High:   pt.high,
			Low:    pt.low,
			Close:  pt.close,
			Volume: pt.volume,
		})
	}
	bars = filterIntraday(bars, q)
	sortIntraday(bars)
	return bars, nil
}
