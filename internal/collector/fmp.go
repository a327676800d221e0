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

const fmpBaseURL = "https://financialmodelingprep.com"

// FMPProvider implements Provider using Financial Modeling Prep's
// historical-price-full endpoint.
type FMPProvider struct {
	BaseURL string
	APIKey  string
	Client  *http.Client
}

func NewFMPProvider(opts Options) *FMPProvider {
	return &FMPProvider{
		BaseURL: baseURL(opts, fmpBaseURL),
		APIKey:  opts.FMPKey,
		Client:  newHTTPClient(opts),
	}
}

func (p *FMPProvider) Name() string { return NameFMP }

// fmpBar is one entry of the "historical" list. With serietype=line only
// date and close are guaranteed.
type fmpBar struct {
	Date   string   `json:"date"`
	Open   *float64 `json:"open"`
	High   *float64 `json:"high"`
	Low    *float64 `json:"low"`
	Close  *float64 `json:"close"`
	Volume *float64 `json:"volume"`
}

func orDefault(v *float64, def float64) float64 {
	if v == nil {
		return def
	}
	return *v
}

// FetchDaily returns an empty result on any non-200 status.
func (p *FMPProvider) FetchDaily(ctx context.Context, symbol string, start, end time.Time) ([]model.Bar, error) {
	sym := model.NormalizeSymbol(symbol)
	params := url.Values{}
	params.Set("apikey", p.APIKey)
	params.Set("serietype", "line")
	u := fmt.Sprintf("%s/api/v3/historical-price-full/%s?%s", p.BaseURL, url.PathEscape(sym), params.Encode())

	status, body, err := get(ctx, p.Client, u)
	if err != nil {
		return nil, fmt.Errorf("fmp fetch: %w", err)
	}
	if status != http.StatusOK {
		return []model.Bar{}, nil
	}

	var payload struct {
		Historical []fmpBar `json:"historical"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("fmp decode: %w", err)
	}

	bars := make([]model.Bar, 0, len(payload.Historical))
	for _, h := range payload.Historical {
		d, err := time.Parse(model.DateLayout, h.Date[:min(len(h.Date), 10)])
		if err != nil {
			return nil, fmt.Errorf("fmp date %q: %w", h.Date, err)
		}
		if !inRange(d, start, end) {
			continue
		}
		bars = append(bars, model.Bar{
			Symbol: sym,
			Date:   d,
			Open:   orDefault(h.Open, math.NaN()),
			High:   orDefault(h.High, math.NaN()),
			Low:    orDefault(h.Low, math.NaN()),
			Close:  orDefault(h.Close, math.NaN()),
			Volume: orDefault(h.Volume, 0),
		})
	}
	sortBars(bars)
	return bars, nil
}

// FetchIntraday needs a paid FMP plan and is not offered.
func (p *FMPProvider) FetchIntraday(_ context.Context, _ model.IntradayQuery) ([]model.IntradayBar, error) {
	return []model.IntradayBar{}, nil
}
