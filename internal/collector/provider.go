package collector

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"UyoAI/internal/model"
)

// ErrUnknownProvider is returned by New for an unregistered name.
var ErrUnknownProvider = errors.New("unknown provider")

// DefaultTimeout bounds every upstream HTTP call.
const DefaultTimeout = 30 * time.Second

const (
	NameYahoo        = "yahoo"
	NameStooq        = "stooq"
	NameAlphaVantage = "alphavantage"
	NameFMP          = "fmp"
	NameMock         = "mock"
)

// Provider fetches bars from one upstream market-data source.
//
// An error means the upstream could not be used. An empty slice with a nil
// error means the upstream answered but had nothing for the request.
//
//go:generate mockgen -destination=../ohlcv/mock_provider_test.go -package=ohlcv_test UyoAI/internal/collector Provider
type Provider interface {
	Name() string
	// FetchDaily returns daily bars with start <= date <= end, ascending.
	// A zero start or end leaves that side unbounded.
	FetchDaily(ctx context.Context, symbol string, start, end time.Time) ([]model.Bar, error)
	FetchIntraday(ctx context.Context, q model.IntradayQuery) ([]model.IntradayBar, error)
}

// Options configures provider construction.
type Options struct {
	Timeout         time.Duration
	Proxy           string
	AlphaVantageKey string
	FMPKey          string
	// BaseURL overrides the upstream endpoint. Empty means the public one.
	BaseURL string
}

// Names lists every provider New can build.
func Names() []string {
	return []string{NameYahoo, NameStooq, NameAlphaVantage, NameFMP, NameMock}
}

// New builds the provider registered under name.
func New(name string, opts Options) (Provider, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case NameYahoo:
		return NewYahooProvider(opts), nil
	case NameStooq:
		return NewStooqProvider(opts), nil
	case NameAlphaVantage:
		return NewAlphaVantageProvider(opts), nil
	case NameFMP:
		return NewFMPProvider(opts), nil
	case NameMock:
		return NewMockProvider(100), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, name)
	}
}

func newHTTPClient(opts Options) *http.Client {
	transport := &http.Transport{Proxy: http.ProxyFromEnvironment}
	if opts.Proxy != "" {
		if u, err := url.Parse(opts.Proxy); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
	}
}

func baseURL(opts Options, fallback string) string {
	if opts.BaseURL != "" {
		return strings.TrimRight(opts.BaseURL, "/")
	}
	return fallback
}

// get performs a GET and returns the status code and full body.
func get(ctx context.Context, client *http.Client, u string) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := client.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("read body: %w", err)
	}
	return resp.StatusCode, body, nil
}

func inRange(d, start, end time.Time) bool {
	if !start.IsZero() && d.Before(model.TruncateDate(start)) {
		return false
	}
	if !end.IsZero() && d.After(model.TruncateDate(end)) {
		return false
	}
	return true
}

func sortBars(bars []model.Bar) {
	sort.Slice(bars, func(i, j int) bool { return bars[i].Date.Before(bars[j].Date) })
}

func sortIntraday(bars []model.IntradayBar) {
	sort.Slice(bars, func(i, j int) bool { return bars[i].TS.Before(bars[j].TS) })
}

func filterIntraday(bars []model.IntradayBar, q model.IntradayQuery) []model.IntradayBar {
	out := bars[:0]
	for _, b := range bars {
		if q.Start != nil && b.TS.Before(*q.Start) {
			continue
		}
		if q.End != nil && b.TS.After(*q.End) {
			continue
		}
		out = append(out, b)
	}
	return out
}
