package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"UyoAI/internal/collector"
	"UyoAI/internal/model"
	"UyoAI/internal/ohlcv"
	"UyoAI/internal/recorder"
	"UyoAI/internal/warehouse"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDaily struct {
	mu    sync.Mutex
	bars  []model.Bar
	err   error
	calls []string
}

func (f *fakeDaily) EnsureDaily(_ context.Context, symbol string, start, end time.Time) ([]model.Bar, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, fmt.Sprintf("%s %s %s", symbol, start.Format(model.DateLayout), end.Format(model.DateLayout)))
	if f.err != nil {
		return nil, f.err
	}
	return f.bars, nil
}

type fakeRecorder struct {
	recorder.NoopRecorder
	events []recorder.FetchEvent
	err    error
	symbol string
	limit  int
}

func (f *fakeRecorder) RecentFetches(_ context.Context, symbol string, limit int) ([]recorder.FetchEvent, error) {
	f.symbol, f.limit = symbol, limit
	return f.events, f.err
}

func newTestServer(svc DailyService, rec recorder.Recorder) *Server {
	h := NewHandler(svc, rec, zerolog.Nop())
	return NewServer(h, WithRegistry(prometheus.NewRegistry()))
}

func do(s *Server, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, req)
	return rec
}

func decodeErrors(t *testing.T, rec *httptest.ResponseRecorder) []ValidationError {
	t.Helper()
	var resp struct {
		Status int               `json:"status"`
		Data   []ValidationError `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, rec.Code, resp.Status)
	return resp.Data
}

func fields(errs []ValidationError) []string {
	out := make([]string, len(errs))
	for i, e := range errs {
		out[i] = e.Field
	}
	return out
}

func sampleBars() []model.Bar {
	d := func(s string) time.Time {
		t, _ := time.Parse(model.DateLayout, s)
		return t
	}
	return []model.Bar{
		{Symbol: "AAPL", Date: d("2024-01-02"), Open: 10, High: 12, Low: 9, Close: 11, Volume: 100},
		{Symbol: "AAPL", Date: d("2024-01-03"), Open: 11, High: 13, Low: 10, Close: math.NaN(), Volume: 200},
	}
}

const validKPIBody = `{
	"window": {"start": "2024-01-02T14:30:00Z", "end": "2024-01-02T21:00:00Z"},
	"fills": [
		{"order_id": "o1", "symbol": "AAPL", "ts": "2024-01-02T15:00:00Z", "side": "BUY", "qty": 100, "price": 185.2},
		{"order_id": "o2", "symbol": "AAPL", "ts": "2024-01-02T16:00:00Z", "side": "SELL", "qty": 50, "price": 186.0, "strategy": "twap"}
	]
}`

func TestHealth(t *testing.T) {
	s := newTestServer(&fakeDaily{}, nil)

	rec := do(s, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get(echo.HeaderXRequestID))
}

func TestIndexRedirectsToHealth(t *testing.T) {
	s := newTestServer(&fakeDaily{}, nil)

	rec := do(s, http.MethodGet, "/", "")
	assert.Equal(t, http.StatusTemporaryRedirect, rec.Code)
	assert.Equal(t, "/health", rec.Header().Get(echo.HeaderLocation))
}

func TestExecKPIs(t *testing.T) {
	s := newTestServer(&fakeDaily{}, nil)

	rec := do(s, http.MethodPost, "/exec/kpis?symbol=AAPL", validKPIBody)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var got model.ExecKPIs
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, 12.3, got.ISBps)
	assert.Equal(t, 9.1, got.VWAPShortfallBps)
	assert.Equal(t, 11.0, got.TWAPShortfallBps)
}

func TestExecKPIs_Rejected(t *testing.T) {
	fill := func(side, qty, price string) string {
		return `{
			"window": {"start": "2024-01-02T14:30:00Z", "end": "2024-01-02T21:00:00Z"},
			"fills": [{"order_id": "o1", "symbol": "AAPL", "ts": "2024-01-02T15:00:00Z", "side": ` + side + `, "qty": ` + qty + `, "price": ` + price + `}]
		}`
	}

	tests := []struct {
		name   string
		target string
		body   string
		field  string
	}{
		{"invalid side", "/exec/kpis?symbol=AAPL", fill(`"HOLD"`, "1", "1"), "fills[0].side"},
		{"zero qty", "/exec/kpis?symbol=AAPL", fill(`"BUY"`, "0", "1"), "fills[0].qty"},
		{"negative price", "/exec/kpis?symbol=AAPL", fill(`"SELL"`, "1", "-1"), "fills[0].price"},
		{"missing symbol", "/exec/kpis", validKPIBody, "symbol"},
		{"missing window", "/exec/kpis?symbol=AAPL", `{"fills": []}`, "window"},
		{"malformed json", "/exec/kpis?symbol=AAPL", `{"fills": [`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(&fakeDaily{}, nil)

			rec := do(s, http.MethodPost, tt.target, tt.body)
			require.Equal(t, http.StatusUnprocessableEntity, rec.Code, rec.Body.String())

			errs := decodeErrors(t, rec)
			require.NotEmpty(t, errs)
			if tt.field == "" {
				assert.Equal(t, "ERR_MALFORMED", errs[0].Code)
				return
			}
			assert.Contains(t, fields(errs), tt.field)
		})
	}
}

func TestDailyOHLCV(t *testing.T) {
	svc := &fakeDaily{bars: sampleBars()}
	s := newTestServer(svc, nil)

	rec := do(s, http.MethodGet, "/market/ohlcv/daily?symbol=aapl&start=2024-01-01&end=2024-01-05", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	assert.JSONEq(t, `[
		{"ts":"2024-01-02","open":10,"high":12,"low":9,"close":11,"volume":100},
		{"ts":"2024-01-03","open":11,"high":13,"low":10,"close":null,"volume":200}
	]`, rec.Body.String())
	assert.Equal(t, []string{"aapl 2024-01-01 2024-01-05"}, svc.calls)
}

type slowDaily struct {
	calls atomic.Int32
	delay time.Duration
}

func (s *slowDaily) EnsureDaily(_ context.Context, symbol string, start, _ time.Time) ([]model.Bar, error) {
	s.calls.Add(1)
	time.Sleep(s.delay)
	return []model.Bar{{Symbol: symbol, Date: start, Open: 1, High: 1, Low: 1, Close: 1, Volume: 1}}, nil
}

func TestDailyOHLCV_CoalescesIdenticalRequests(t *testing.T) {
	svc := &slowDaily{delay: 200 * time.Millisecond}
	s := newTestServer(svc, nil)

	const clients = 8
	var (
		wg    sync.WaitGroup
		ready sync.WaitGroup
		gate  = make(chan struct{})
		codes = make([]int, clients)
	)
	for i := 0; i < clients; i++ {
		wg.Add(1)
		ready.Add(1)
		go func() {
			defer wg.Done()
			ready.Done()
			<-gate
			codes[i] = do(s, http.MethodGet, "/market/ohlcv/daily?symbol=AAPL&start=2024-01-01&end=2024-01-05", "").Code
		}()
	}
	ready.Wait()
	close(gate)
	wg.Wait()

	for _, code := range codes {
		assert.Equal(t, http.StatusOK, code)
	}
	assert.Equal(t, int32(1), svc.calls.Load())

	// a different range is a separate acquisition
	do(s, http.MethodGet, "/market/ohlcv/daily?symbol=AAPL&start=2024-01-01&end=2024-01-06", "")
	assert.Equal(t, int32(2), svc.calls.Load())
}

func TestDailyOHLCV_AcceptsTimestamps(t *testing.T) {
	svc := &fakeDaily{bars: []model.Bar{}}
	s := newTestServer(svc, nil)

	rec := do(s, http.MethodGet, "/market/ohlcv/daily?symbol=MSFT&start=2024-01-01T09:30:00&end=2024-01-05T16:00:00Z", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `[]`, rec.Body.String())
	assert.Equal(t, []string{"MSFT 2024-01-01 2024-01-05"}, svc.calls)
}

func TestDailyOHLCV_Rejected(t *testing.T) {
	tests := []struct {
		name  string
		query string
		field string
	}{
		{"missing symbol", "start=2024-01-01&end=2024-01-05", "symbol"},
		{"missing start", "symbol=AAPL&end=2024-01-05", "start"},
		{"bad start", "symbol=AAPL&start=yesterday&end=2024-01-05", "start"},
		{"bad end", "symbol=AAPL&start=2024-01-01&end=2024-13-45", "end"},
		{"end before start", "symbol=AAPL&start=2024-01-05&end=2024-01-01", "end"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeDaily{}
			s := newTestServer(svc, nil)

			rec := do(s, http.MethodGet, "/market/ohlcv/daily?"+tt.query, "")
			require.Equal(t, http.StatusUnprocessableEntity, rec.Code, rec.Body.String())
			assert.Contains(t, fields(decodeErrors(t, rec)), tt.field)
			assert.Empty(t, svc.calls)
		})
	}
}

func TestDailyOHLCV_ErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{
			name:   "providers failed",
			err:    &ohlcv.ProviderError{Provider: "stooq", Err: errors.New("timeout"), Primary: errors.New("429")},
			status: http.StatusBadGateway,
			code:   "ERR_UPSTREAM",
		},
		{
			name:   "store unavailable",
			err:    fmt.Errorf("read: %w", warehouse.ErrUnavailable),
			status: http.StatusInternalServerError,
			code:   "ERR_STORE_UNAVAILABLE",
		},
		{
			name:   "unexpected",
			err:    errors.New("boom"),
			status: http.StatusInternalServerError,
			code:   "ERR_INTERNAL",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(&fakeDaily{err: tt.err}, nil)

			rec := do(s, http.MethodGet, "/market/ohlcv/daily?symbol=AAPL&start=2024-01-01&end=2024-01-05", "")
			require.Equal(t, tt.status, rec.Code)

			var resp struct {
				Data []AppError `json:"data"`
			}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			require.Len(t, resp.Data, 1)
			assert.Equal(t, tt.code, resp.Data[0].Code)
		})
	}
}

func TestDailyIndicators(t *testing.T) {
	s := newTestServer(&fakeDaily{bars: sampleBars()}, nil)

	rec := do(s, http.MethodGet, "/market/indicators/daily?symbol=AAPL&start=2024-01-01&end=2024-01-05&period=1", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var got IndicatorsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "AAPL", got.Symbol)
	assert.Equal(t, "2024-01-01", got.Start)
	assert.Equal(t, "2024-01-05", got.End)
	assert.Equal(t, 2, got.Rows)
	assert.Equal(t, 1, got.Period)
	assert.Equal(t, 13.0, *got.High)
	assert.Equal(t, 9.0, *got.Low)
}

func TestDailyIndicators_DefaultAndInvalidPeriod(t *testing.T) {
	s := newTestServer(&fakeDaily{bars: sampleBars()}, nil)

	rec := do(s, http.MethodGet, "/market/indicators/daily?symbol=AAPL&start=2024-01-01&end=2024-01-05", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var got IndicatorsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, 14, got.Period)
	assert.Nil(t, got.SMA)
	assert.Nil(t, got.RSI)

	rec = do(s, http.MethodGet, "/market/indicators/daily?symbol=AAPL&start=2024-01-01&end=2024-01-05&period=999", "")
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, fields(decodeErrors(t, rec)), "period")

	rec = do(s, http.MethodGet, "/market/indicators/daily?symbol=AAPL&start=2024-01-01&end=2024-01-05&period=abc", "")
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestAcquisitions(t *testing.T) {
	id := uuid.New()
	at := time.Date(2024, 1, 5, 12, 0, 0, 0, time.UTC)
	rec := &fakeRecorder{events: []recorder.FetchEvent{{
		ID:           id,
		Symbol:       "AAPL",
		Start:        time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		End:          time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC),
		Provider:     "stooq",
		FellBack:     true,
		FetchedRows:  4,
		ReturnedRows: 4,
		At:           at,
	}}}
	s := newTestServer(&fakeDaily{}, rec)

	resp := do(s, http.MethodGet, "/market/acquisitions?symbol=aapl", "")
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	assert.Equal(t, "AAPL", rec.symbol)
	assert.Equal(t, 50, rec.limit)

	var rows []AcquisitionRow
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &rows))
	require.Len(t, rows, 1)
	assert.Equal(t, id.String(), rows[0].ID)
	assert.Equal(t, "2024-01-01", rows[0].Start)
	assert.Equal(t, "stooq", rows[0].Provider)
	assert.True(t, rows[0].FellBack)
	assert.True(t, at.Equal(rows[0].At))
}

func TestAcquisitions_RecorderFailure(t *testing.T) {
	s := newTestServer(&fakeDaily{}, &fakeRecorder{err: errors.New("disk full")})

	resp := do(s, http.MethodGet, "/market/acquisitions", "")
	assert.Equal(t, http.StatusInternalServerError, resp.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(&fakeDaily{}, nil)

	do(s, http.MethodGet, "/health", "")
	rec := do(s, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `http_requests_total{method="GET",route="/health",status="200"} 1`)
}

func TestStatusClass(t *testing.T) {
	assert.Equal(t, "2xx", statusClass(204))
	assert.Equal(t, "3xx", statusClass(307))
	assert.Equal(t, "4xx", statusClass(422))
	assert.Equal(t, "5xx", statusClass(502))
}

func TestIntradayOHLCV(t *testing.T) {
	end := time.Date(2024, 1, 2, 20, 0, 0, 0, time.UTC)
	failing := &collector.MockProvider{Err: errors.New("rate limited")}
	mock := collector.NewMockProvider(100)
	h := NewHandler(&fakeDaily{}, nil, zerolog.Nop(), WithIntradayProviders(failing, mock))
	s := NewServer(h, WithRegistry(prometheus.NewRegistry()))

	rec := do(s, http.MethodGet, "/market/ohlcv/intraday?symbol=aapl&interval=5min&start=2024-01-02T19:00:00Z&end=2024-01-02T20:00:00Z", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var rows []IntradayRow
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rows))
	require.Len(t, rows, 13)
	assert.True(t, end.Equal(rows[len(rows)-1].TS))
	require.NotNil(t, rows[0].Volume)
	assert.Equal(t, 10000.0, *rows[0].Volume)
}

func TestIntradayOHLCV_Errors(t *testing.T) {
	t.Run("not configured", func(t *testing.T) {
		s := newTestServer(&fakeDaily{}, nil)
		rec := do(s, http.MethodGet, "/market/ohlcv/intraday?symbol=AAPL", "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	h := NewHandler(&fakeDaily{}, nil, zerolog.Nop(),
		WithIntradayProviders(&collector.MockProvider{Err: errors.New("down")}))
	s := NewServer(h, WithRegistry(prometheus.NewRegistry()))

	tests := []struct {
		name   string
		query  string
		status int
	}{
		{"bad interval", "symbol=AAPL&interval=3min", http.StatusUnprocessableEntity},
		{"bad timestamp", "symbol=AAPL&start=2024-01-02", http.StatusUnprocessableEntity},
		{"inverted", "symbol=AAPL&start=2024-01-02T20:00:00Z&end=2024-01-02T19:00:00Z", http.StatusUnprocessableEntity},
		{"providers down", "symbol=AAPL", http.StatusBadGateway},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(s, http.MethodGet, "/market/ohlcv/intraday?"+tt.query, "")
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
		})
	}
}
