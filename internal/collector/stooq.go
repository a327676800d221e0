package collector

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"UyoAI/internal/model"
)

const stooqBaseURL = "https://stooq.com"

// StooqProvider implements Provider using the stooq.com daily CSV download.
type StooqProvider struct {
	BaseURL string
	Client  *http.Client
}

func NewStooqProvider(opts Options) *StooqProvider {
	return &StooqProvider{
		BaseURL: baseURL(opts, stooqBaseURL),
		Client:  newHTTPClient(opts),
	}
}

func (p *StooqProvider) Name() string { return NameStooq }

// FetchDaily downloads the full daily history and keeps the requested range.
// A non-200 response or a body without a Date column is an empty result.
func (p *StooqProvider) FetchDaily(ctx context.Context, symbol string, start, end time.Time) ([]model.Bar, error) {
	u := fmt.Sprintf("%s/q/d/l/?s=%s&i=d", p.BaseURL, url.QueryEscape(strings.ToLower(strings.TrimSpace(symbol))))

	status, body, err := get(ctx, p.Client, u)
	if err != nil {
		return nil, fmt.Errorf("stooq fetch: %w", err)
	}
	if status != http.StatusOK {
		return []model.Bar{}, nil
	}

	bars, err := parseStooqCSV(model.NormalizeSymbol(symbol), body)
	if err != nil {
		return nil, fmt.Errorf("stooq parse: %w", err)
	}

	out := bars[:0]
	for _, b := range bars {
		if inRange(b.Date, start, end) {
			out = append(out, b)
		}
	}
	sortBars(out)
	return out, nil
}

// FetchIntraday is not offered by stooq's free endpoint.
func (p *StooqProvider) FetchIntraday(_ context.Context, _ model.IntradayQuery) ([]model.IntradayBar, error) {
	return []model.IntradayBar{}, nil
}

func parseStooqCSV(symbol string, body []byte) ([]model.Bar, error) {
	r := csv.NewReader(bytes.NewReader(body))
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return []model.Bar{}, nil
	}
	if err != nil {
		return nil, err
	}
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}
	if _, ok := cols["date"]; !ok {
		// "No data" and similar plain-text answers
		return []model.Bar{}, nil
	}

	bars := make([]model.Bar, 0)
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		d, err := time.Parse(model.DateLayout, field(rec, cols, "date"))
		if err != nil {
			return nil, fmt.Errorf("date %q: %w", field(rec, cols, "date"), err)
		}
		b := model.Bar{Symbol: symbol, Date: d}
		for _, f := range []struct {
			name string
			dst  *float64
			def  float64
		}{
			{"open", &b.Open, math.NaN()},
			{"high", &b.High, math.NaN()},
			{"low", &b.Low, math.NaN()},
			{"close", &b.Close, math.NaN()},
			{"volume", &b.Volume, 0},
		} {
			raw := field(rec, cols, f.name)
			if raw == "" {
				*f.dst = f.def
				continue
			}
			v, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return nil, fmt.Errorf("%s %q: %w", f.name, raw, err)
			}
			*f.dst = v
		}
		bars = append(bars, b)
	}
	return bars, nil
}

func field(rec []string, cols map[string]int, name string) string {
	i, ok := cols[name]
	if !ok || i >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[i])
}
