package ohlcv

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics records acquisition outcomes. A nil *Metrics records nothing.
type Metrics struct {
	cache    *prometheus.CounterVec
	fetches  *prometheus.CounterVec
	latency  *prometheus.HistogramVec
	upserted prometheus.Counter
}

// NewMetrics registers the acquisition collectors on reg. A nil reg creates
// unregistered collectors.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		cache: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "uyo_ohlcv_cache_lookups_total",
				Help: "Daily cache lookups by result (fresh or stale)",
			},
			[]string{"result"},
		),
		fetches: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "uyo_ohlcv_provider_fetches_total",
				Help: "Upstream daily fetches by provider and outcome (rows, empty, error)",
			},
			[]string{"provider", "outcome"},
		),
		latency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "uyo_ohlcv_provider_fetch_duration_seconds",
				Help:    "Upstream daily fetch duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"provider"},
		),
		upserted: f.NewCounter(
			prometheus.CounterOpts{
				Name: "uyo_ohlcv_rows_upserted_total",
				Help: "Daily rows written to the warehouse",
			},
		),
	}
}

func (m *Metrics) cacheLookup(fresh bool) {
	if m == nil {
		return
	}
	result := "stale"
	if fresh {
		result = "fresh"
	}
	m.cache.WithLabelValues(result).Inc()
}

func (m *Metrics) fetch(provider string, rows int, err error, seconds float64) {
	if m == nil {
		return
	}
	outcome := "rows"
	switch {
	case err != nil:
		outcome = "error"
	case rows == 0:
		outcome = "empty"
	}
	m.fetches.WithLabelValues(provider, outcome).Inc()
	m.latency.WithLabelValues(provider).Observe(seconds)
}

func (m *Metrics) rowsUpserted(n int) {
	if m == nil {
		return
	}
	m.upserted.Add(float64(n))
}
