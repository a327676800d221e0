package collector_test

import (
	"net/http"
	"testing"
	"time"

	"UyoAI/internal/collector"
	"UyoAI/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const avDaily = `{
	"Meta Data": {"2. Symbol": "IBM"},
	"Time Series (Daily)": {
		"2024-01-03": {"1. open": "161.0", "2. high": "161.73", "3. low": "160.08", "4. close": "160.1", "5. adjusted close": "155.2", "6. volume": "4086133"},
		"2024-01-02": {"1. open": "162.83", "2. high": "163.29", "3. low": "160.5", "4. close": "158.6", "6. volume": "4086133"},
		"2023-12-29": {"1. open": "162.0", "2. high": "162.5", "3. low": "161.0", "4. close": "161.9", "5. adjusted close": "157.0", "6. volume": "1"}
	}
}`

func TestAlphaVantage_FetchDaily(t *testing.T) {
	var got map[string]string
	srv := serve(t, func(w http.ResponseWriter, r *http.Request) {
		got = map[string]string{
			"path":     r.URL.Path,
			"function": r.URL.Query().Get("function"),
			"symbol":   r.URL.Query().Get("symbol"),
			"apikey":   r.URL.Query().Get("apikey"),
		}
		w.Write([]byte(avDaily))
	})
	p := collector.NewAlphaVantageProvider(collector.Options{BaseURL: srv.URL, AlphaVantageKey: "demo"})

	bars, err := p.FetchDaily(t.Context(), "ibm", day("2024-01-01"), day("2024-01-31"))
	require.NoError(t, err)

	assert.Equal(t, "/query", got["path"])
	assert.Equal(t, "TIME_SERIES_DAILY_ADJUSTED", got["function"])
	assert.Equal(t, "IBM", got["symbol"])
	assert.Equal(t, "demo", got["apikey"])

	require.Len(t, bars, 2)
	assert.Equal(t, day("2024-01-02"), bars[0].Date)
	// no adjusted close on this row, raw close is used
	assert.InDelta(t, 158.6, bars[0].Close, 1e-9)
	assert.InDelta(t, 155.2, bars[1].Close, 1e-9)
	assert.Equal(t, 4086133.0, bars[1].Volume)
}

func TestAlphaVantage_NoSeriesIsEmpty(t *testing.T) {
	srv := serve(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"Note": "Thank you for using Alpha Vantage! Our standard API call frequency is 5 calls per minute."}`))
	})
	p := collector.NewAlphaVantageProvider(collector.Options{BaseURL: srv.URL})

	bars, err := p.FetchDaily(t.Context(), "IBM", day("2024-01-01"), day("2024-01-31"))
	require.NoError(t, err)
	assert.Empty(t, bars)
}

func TestAlphaVantage_HTTPErrorIsError(t *testing.T) {
	srv := serve(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	p := collector.NewAlphaVantageProvider(collector.Options{BaseURL: srv.URL})

	_, err := p.FetchDaily(t.Context(), "IBM", day("2024-01-01"), day("2024-01-31"))
	require.Error(t, err)
}

func TestAlphaVantage_FetchIntraday(t *testing.T) {
	var gotInterval, gotFunction string
	srv := serve(t, func(w http.ResponseWriter, r *http.Request) {
		gotInterval = r.URL.Query().Get("interval")
		gotFunction = r.URL.Query().Get("function")
		w.Write([]byte(`{"Time Series (15min)": {
			"2024-01-02 10:00:00": {"1. open": "2", "2. high": "2", "3. low": "2", "4. close": "2", "5. volume": "200"},
			"2024-01-02 09:45:00": {"1. open": "1", "2. high": "1", "3. low": "1", "4. close": "1", "5. volume": "100"}
		}}`))
	})
	p := collector.NewAlphaVantageProvider(collector.Options{BaseURL: srv.URL})

	bars, err := p.FetchIntraday(t.Context(), model.IntradayQuery{Symbol: "IBM", Interval: model.Interval15Min})
	require.NoError(t, err)
	assert.Equal(t, "TIME_SERIES_INTRADAY", gotFunction)
	assert.Equal(t, "15min", gotInterval)
	require.Len(t, bars, 2)
	assert.Equal(t, time.Date(2024, 1, 2, 9, 45, 0, 0, time.UTC), bars[0].TS)
	assert.Equal(t, 200.0, bars[1].Volume)

	_, err = p.FetchIntraday(t.Context(), model.IntradayQuery{Symbol: "IBM", Interval: model.Interval2Min})
	require.NoError(t, err)
	assert.Equal(t, "5min", gotInterval)
}
