package api

import (
	"time"

	"UyoAI/internal/model"
	"UyoAI/internal/recorder"
)

// DailyRequest selects a symbol and an inclusive date range.
type DailyRequest struct {
	Symbol string `query:"symbol" validate:"required"`
	Start  string `query:"start" validate:"required"`
	End    string `query:"end" validate:"required"`
}

// IndicatorsRequest is a DailyRequest plus the SMA/RSI period.
type IndicatorsRequest struct {
	Symbol string `query:"symbol" validate:"required"`
	Start  string `query:"start" validate:"required"`
	End    string `query:"end" validate:"required"`
	Period int    `query:"period" default:"14" validate:"gte=1,lte=250"`
}

// IntradayRequest selects intraday bars. Start and end are optional RFC 3339
// timestamps.
type IntradayRequest struct {
	Symbol   string `query:"symbol" validate:"required"`
	Interval string `query:"interval" default:"5min" validate:"oneof=1min 2min 5min 15min 30min 60min"`
	Start    string `query:"start"`
	End      string `query:"end"`
}

func (r *IntradayRequest) query() (model.IntradayQuery, []ValidationError) {
	q := model.IntradayQuery{
		Symbol:   model.NormalizeSymbol(r.Symbol),
		Interval: model.Interval(r.Interval),
	}
	for _, f := range []struct {
		name string
		raw  string
		dst  **time.Time
	}{{"start", r.Start, &q.Start}, {"end", r.End, &q.End}} {
		if f.raw == "" {
			continue
		}
		ts, err := time.Parse(time.RFC3339, f.raw)
		if err != nil {
			return q, []ValidationError{{Code: "ERR_TIMESTAMP", Field: f.name, Message: f.name + " must be an RFC 3339 timestamp"}}
		}
		*f.dst = &ts
	}
	if q.Start != nil && q.End != nil && q.End.Before(*q.Start) {
		return q, []ValidationError{{Code: "ERR_RANGE", Field: "end", Message: "end must not be before start"}}
	}
	return q, nil
}

// AcquisitionsRequest pages through the acquisition audit trail.
type AcquisitionsRequest struct {
	Symbol string `query:"symbol"`
	Limit  int    `query:"limit" default:"50" validate:"gte=1,lte=500"`
}

// ExecKPIRequest is the body of POST /exec/kpis; symbol comes from the query.
type ExecKPIRequest struct {
	Symbol string       `query:"symbol" json:"-" validate:"required"`
	Window model.Window `json:"window" validate:"required"`
	Fills  []model.Fill `json:"fills" validate:"required,dive"`
}

// BarRow is one daily bar as served over HTTP. NaN prices are null.
type BarRow struct {
	TS     string   `json:"ts"`
	Open   *float64 `json:"open"`
	High   *float64 `json:"high"`
	Low    *float64 `json:"low"`
	Close  *float64 `json:"close"`
	Volume *float64 `json:"volume"`
}

func toBarRows(bars []model.Bar) []BarRow {
	rows := make([]BarRow, len(bars))
	for i, b := range bars {
		rows[i] = BarRow{
			TS:     b.Date.Format(model.DateLayout),
			Open:   num(b.Open),
			High:   num(b.High),
			Low:    num(b.Low),
			Close:  num(b.Close),
			Volume: num(b.Volume),
		}
	}
	return rows
}

// IntradayRow is one intraday bar as served over HTTP.
type IntradayRow struct {
	TS     time.Time `json:"ts"`
	Open   *float64  `json:"open"`
	High   *float64  `json:"high"`
	Low    *float64  `json:"low"`
	Close  *float64  `json:"close"`
	Volume *float64  `json:"volume"`
}

func toIntradayRows(bars []model.IntradayBar) []IntradayRow {
	rows := make([]IntradayRow, len(bars))
	for i, b := range bars {
		rows[i] = IntradayRow{
			TS:     b.TS.UTC(),
			Open:   num(b.Open),
			High:   num(b.High),
			Low:    num(b.Low),
			Close:  num(b.Close),
			Volume: num(b.Volume),
		}
	}
	return rows
}

type IndicatorsResponse struct {
	Symbol   string   `json:"symbol"`
	Start    string   `json:"start"`
	End      string   `json:"end"`
	Rows     int      `json:"rows"`
	Period   int      `json:"period"`
	Last     *float64 `json:"last"`
	VWAP     *float64 `json:"vwap"`
	TWAP     *float64 `json:"twap"`
	SMA      *float64 `json:"sma"`
	RSI      *float64 `json:"rsi"`
	High     *float64 `json:"high"`
	Low      *float64 `json:"low"`
	Position *float64 `json:"position"`
}

func toIndicatorsResponse(ind *model.DailyIndicators, start, end time.Time) IndicatorsResponse {
	return IndicatorsResponse{
		Symbol:   ind.Symbol,
		Start:    start.Format(model.DateLayout),
		End:      end.Format(model.DateLayout),
		Rows:     ind.Rows,
		Period:   ind.Period,
		Last:     num(ind.Last),
		VWAP:     num(ind.VWAP),
		TWAP:     num(ind.TWAP),
		SMA:      num(ind.SMA),
		RSI:      num(ind.RSI),
		High:     num(ind.High),
		Low:      num(ind.Low),
		Position: num(ind.Position),
	}
}

type AcquisitionRow struct {
	ID           string    `json:"id"`
	Symbol       string    `json:"symbol"`
	Start        string    `json:"start"`
	End          string    `json:"end"`
	CachedRows   int       `json:"cached_rows"`
	Fresh        bool      `json:"fresh"`
	Provider     string    `json:"provider,omitempty"`
	FellBack     bool      `json:"fell_back"`
	FetchedRows  int       `json:"fetched_rows"`
	ReturnedRows int       `json:"returned_rows"`
	Error        string    `json:"error,omitempty"`
	At           time.Time `json:"at"`
}

func toAcquisitionRows(events []recorder.FetchEvent) []AcquisitionRow {
	rows := make([]AcquisitionRow, len(events))
	for i, e := range events {
		rows[i] = AcquisitionRow{
			ID:           e.ID.String(),
			Symbol:       e.Symbol,
			Start:        e.Start.Format(model.DateLayout),
			End:          e.End.Format(model.DateLayout),
			CachedRows:   e.CachedRows,
			Fresh:        e.Fresh,
			Provider:     e.Provider,
			FellBack:     e.FellBack,
			FetchedRows:  e.FetchedRows,
			ReturnedRows: e.ReturnedRows,
			Error:        e.Err,
			At:           e.At.UTC(),
		}
	}
	return rows
}
