package model

import "time"

// Side of an execution fill.
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// Fill is one executed child order.
type Fill struct {
	OrderID  string    `json:"order_id" validate:"required"`
	Symbol   string    `json:"symbol" validate:"required"`
	TS       time.Time `json:"ts" validate:"required"`
	Side     Side      `json:"side" validate:"required,oneof=BUY SELL"`
	Qty      float64   `json:"qty" validate:"gt=0"`
	Price    float64   `json:"price" validate:"gt=0"`
	Strategy *string   `json:"strategy,omitempty"`
	Notes    *string   `json:"notes,omitempty"`
}

// Window is the evaluation interval for execution KPIs.
type Window struct {
	Start time.Time `json:"start" validate:"required"`
	End   time.Time `json:"end" validate:"required"`
}

// ExecKPIs are execution-quality metrics in basis points.
type ExecKPIs struct {
	ISBps            float64 `json:"is_bps"`
	VWAPShortfallBps float64 `json:"vwap_shortfall_bps"`
	TWAPShortfallBps float64 `json:"twap_shortfall_bps"`
}
