package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"UyoAI/internal/model"
)

const alphaVantageBaseURL = "https://www.alphavantage.co"

const alphaVantageTSLayout = "2006-01-02 15:04:05"

var alphaVantageIntervals = map[model.Interval]string{
	model.Interval1Min:  "1min",
	model.Interval5Min:  "5min",
	model.Interval15Min: "15min",
	model.Interval30Min: "30min",
	model.Interval60Min: "60min",
}

// AlphaVantageProvider implements Provider using the Alpha Vantage query API.
type AlphaVantageProvider struct {
	BaseURL string
	APIKey  string
	Client  *http.Client
}

func NewAlphaVantageProvider(opts Options) *AlphaVantageProvider {
	return &AlphaVantageProvider{
		BaseURL: baseURL(opts, alphaVantageBaseURL),
		APIKey:  opts.AlphaVantageKey,
		Client:  newHTTPClient(opts),
	}
}

func (p *AlphaVantageProvider) Name() string { return NameAlphaVantage }

// query calls the API and returns the "Time Series ..." object, or nil when
// the payload has none (rate-limit notes, unknown symbols).
func (p *AlphaVantageProvider) query(ctx context.Context, params url.Values) (map[string]map[string]string, error) {
	params.Set("apikey", p.APIKey)
	params.Set("outputsize", "compact")
	u := p.BaseURL + "/query?" + params.Encode()

	status, body, err := get(ctx, p.Client, u)
	if err != nil {
		return nil, fmt.Errorf("alphavantage fetch: %w", err)
	}
	if status < 200 || status >= 300 {
		return nil, fmt.Errorf("alphavantage: status %d", status)
	}

	var payload map[string]json.RawMessage
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("alphavantage decode: %w", err)
	}
	for key, raw := range payload {
		if !strings.Contains(key, "Time Series") {
			continue
		}
		var series map[string]map[string]string
		if err := json.Unmarshal(raw, &series); err != nil {
			return nil, fmt.Errorf("alphavantage decode %q: %w", key, err)
		}
		return series, nil
	}
	return nil, nil
}

func avFloat(v map[string]string, key string, def float64) float64 {
	raw, ok := v[key]
	if !ok {
		return def
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return def
	}
	return f
}

// FetchDaily uses TIME_SERIES_DAILY_ADJUSTED. The adjusted close is preferred
// over the raw close when present.
func (p *AlphaVantageProvider) FetchDaily(ctx context.Context, symbol string, start, end time.Time) ([]model.Bar, error) {
	params := url.Values{}
	params.Set("function", "TIME_SERIES_DAILY_ADJUSTED")
	params.Set("symbol", model.NormalizeSymbol(symbol))

	series, err := p.query(ctx, params)
	if err != nil {
		return nil, err
	}

	bars := make([]model.Bar, 0, len(series))
	for k, v := range series {
		d, err := time.Parse(model.DateLayout, k[:min(len(k), 10)])
		if err != nil {
			return nil, fmt.Errorf("alphavantage date %q: %w", k, err)
		}
		if !inRange(d, start, end) {
			continue
		}
		bars = append(bars, model.Bar{
			Symbol: model.NormalizeSymbol(symbol),
			Date:   d,
			Open:   avFloat(v, "1. open", math.NaN()),
			High:   avFloat(v, "2. high", math.NaN()),
			Low:    avFloat(v, "3. low", math.NaN()),
			Close:  avFloat(v, "5. adjusted close", avFloat(v, "4. close", math.NaN())),
			Volume: avFloat(v, "6. volume", 0),
		})
	}
	sortBars(bars)
	return bars, nil
}

// FetchIntraday uses TIME_SERIES_INTRADAY. Unknown intervals fall back to
// 5 minutes; timestamps are read as UTC.
func (p *AlphaVantageProvider) FetchIntraday(ctx context.Context, q model.IntradayQuery) ([]model.IntradayBar, error) {
	iv, ok := alphaVantageIntervals[q.Interval]
	if !ok {
		iv = "5min"
	}
	params := url.Values{}
	params.Set("function", "TIME_SERIES_INTRADAY")
	params.Set("symbol", model.NormalizeSymbol(q.Symbol))
	params.Set("interval", iv)

	series, err := p.query(ctx, params)
	if err != nil {
		return nil, err
	}

	bars := make([]model.IntradayBar, 0, len(series))
	for k, v := range series {
		ts, err := time.Parse(alphaVantageTSLayout, k)
		if err != nil {
			return nil, fmt.Errorf("alphavantage timestamp %q: %w", k, err)
		}
		bars = append(bars, model.IntradayBar{
			TS:     ts,
			Open:   avFloat(v, "1. open", math.NaN()),
			High:   avFloat(v, "2. high", math.NaN()),
			Low:    avFloat(v, "3. low", math.NaN()),
			Close:  avFloat(v, "4. close", math.NaN()),
			Volume: avFloat(v, "5. volume", 0),
		})
	}
	bars = filterIntraday(bars, q)
	sortIntraday(bars)
	return bars, nil
}
