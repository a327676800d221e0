package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"UyoAI/internal/calculator"
	"UyoAI/internal/collector"
	"UyoAI/internal/model"
	"UyoAI/internal/ohlcv"
	"UyoAI/internal/recorder"
	"UyoAI/internal/warehouse"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

// DailyService is the acquisition capability the HTTP layer needs.
type DailyService interface {
	EnsureDaily(ctx context.Context, symbol string, start, end time.Time) ([]model.Bar, error)
}

// stubKPIs is returned by POST /exec/kpis until execution analytics land.
var stubKPIs = model.ExecKPIs{ISBps: 12.3, VWAPShortfallBps: 9.1, TWAPShortfallBps: 11.0}

// Handler serves the HTTP API.
type Handler struct {
	svc      DailyService
	recorder recorder.Recorder
	log      zerolog.Logger
	// tried in order for intraday bars, which are never cached
	intraday []collector.Provider
	// identical concurrent daily requests share one acquisition
	group singleflight.Group
}

// HandlerOption configures a Handler.
type HandlerOption func(*Handler)

// WithIntradayProviders enables GET /market/ohlcv/intraday. Providers are
// tried in order until one succeeds.
func WithIntradayProviders(ps ...collector.Provider) HandlerOption {
	return func(h *Handler) {
		for _, p := range ps {
			if p != nil {
				h.intraday = append(h.intraday, p)
			}
		}
	}
}

func NewHandler(svc DailyService, rec recorder.Recorder, log zerolog.Logger, opts ...HandlerOption) *Handler {
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	h := &Handler{svc: svc, recorder: rec, log: log}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// RegisterRoutes mounts every route on e.
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/", h.Index)
	e.GET("/health", h.Health)
	e.POST("/exec/kpis", h.ExecKPIs)

	market := e.Group("/market")
	market.GET("/ohlcv/daily", h.DailyOHLCV)
	market.GET("/ohlcv/intraday", h.IntradayOHLCV)
	market.GET("/indicators/daily", h.DailyIndicators)
	market.GET("/acquisitions", h.Acquisitions)
}

func (h *Handler) Index(c echo.Context) error {
	return c.Redirect(http.StatusTemporaryRedirect, "/health")
}

func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// ExecKPIs validates the fills and returns fixed KPI values.
func (h *Handler) ExecKPIs(c echo.Context) error {
	req := &ExecKPIRequest{}
	if err := (&echo.DefaultBinder{}).BindQueryParams(c, req); err != nil {
		return ValidationResponse(c, toValidationErrors(err))
	}
	if errs := ReadAndValidateRequest(c, req); errs != nil {
		return ValidationResponse(c, errs)
	}
	return c.JSON(http.StatusOK, stubKPIs)
}

func (h *Handler) DailyOHLCV(c echo.Context) error {
	req := &DailyRequest{}
	if errs := ReadAndValidateRequest(c, req); errs != nil {
		return ValidationResponse(c, errs)
	}
	start, end, errs := parseRange(req.Start, req.End)
	if errs != nil {
		return ValidationResponse(c, errs)
	}

	bars, err := h.ensure(c, req.Symbol, start, end)
	if err != nil {
		return AppErrorResponse(c, err)
	}
	return c.JSON(http.StatusOK, toBarRows(bars))
}

// IntradayOHLCV passes an intraday query through to the providers.
func (h *Handler) IntradayOHLCV(c echo.Context) error {
	if len(h.intraday) == 0 {
		return AppErrorResponse(c, NewAppError("ERR_NOT_CONFIGURED", "no intraday provider configured", http.StatusNotFound, nil))
	}
	req := &IntradayRequest{}
	if errs := ReadAndValidateRequest(c, req); errs != nil {
		return ValidationResponse(c, errs)
	}
	q, errs := req.query()
	if errs != nil {
		return ValidationResponse(c, errs)
	}

	var errList []error
	for _, p := range h.intraday {
		bars, err := p.FetchIntraday(c.Request().Context(), q)
		if err == nil {
			return c.JSON(http.StatusOK, toIntradayRows(bars))
		}
		h.log.Warn().Err(err).Str("provider", p.Name()).Str("symbol", q.Symbol).Msg("intraday fetch failed")
		errList = append(errList, fmt.Errorf("%s: %w", p.Name(), err))
	}
	return AppErrorResponse(c, NewAppError("ERR_UPSTREAM", "market data providers failed", http.StatusBadGateway, errors.Join(errList...)))
}

func (h *Handler) DailyIndicators(c echo.Context) error {
	req := &IndicatorsRequest{}
	if errs := ReadAndValidateRequest(c, req); errs != nil {
		return ValidationResponse(c, errs)
	}
	start, end, errs := parseRange(req.Start, req.End)
	if errs != nil {
		return ValidationResponse(c, errs)
	}

	bars, err := h.ensure(c, req.Symbol, start, end)
	if err != nil {
		return AppErrorResponse(c, err)
	}
	ind := calculator.Summarize(req.Symbol, bars, req.Period)
	return c.JSON(http.StatusOK, toIndicatorsResponse(ind, start, end))
}

func (h *Handler) Acquisitions(c echo.Context) error {
	req := &AcquisitionsRequest{}
	if errs := ReadAndValidateRequest(c, req); errs != nil {
		return ValidationResponse(c, errs)
	}
	events, err := h.recorder.RecentFetches(c.Request().Context(), model.NormalizeSymbol(req.Symbol), req.Limit)
	if err != nil {
		return AppErrorResponse(c, NewAppError("ERR_RECORDER", "acquisition history unavailable", http.StatusInternalServerError, err))
	}
	return c.JSON(http.StatusOK, toAcquisitionRows(events))
}

func parseRange(start, end string) (time.Time, time.Time, []ValidationError) {
	s, err := ohlcv.ParseDate(start)
	if err != nil {
		return time.Time{}, time.Time{}, []ValidationError{{Code: "ERR_DATE", Field: "start", Message: err.Error()}}
	}
	e, err := ohlcv.ParseDate(end)
	if err != nil {
		return time.Time{}, time.Time{}, []ValidationError{{Code: "ERR_DATE", Field: "end", Message: err.Error()}}
	}
	if e.Before(s) {
		return time.Time{}, time.Time{}, []ValidationError{{Code: "ERR_RANGE", Field: "end", Message: "end must not be before start"}}
	}
	return s, e, nil
}

func (h *Handler) ensure(c echo.Context, symbol string, start, end time.Time) ([]model.Bar, error) {
	key := strings.Join([]string{
		model.NormalizeSymbol(symbol),
		start.Format(model.DateLayout),
		end.Format(model.DateLayout),
	}, "|")
	// detached so one client disconnecting does not fail the others
	ctx := context.WithoutCancel(c.Request().Context())

	v, err, shared := h.group.Do(key, func() (interface{}, error) {
		return h.svc.EnsureDaily(ctx, symbol, start, end)
	})
	if err != nil {
		h.log.Error().Err(err).
			Str("symbol", symbol).
			Str("request_id", c.Response().Header().Get(echo.HeaderXRequestID)).
			Msg("ensure daily failed")
		return nil, classify(err)
	}
	if shared {
		h.log.Debug().Str("key", key).Msg("daily request coalesced")
	}
	return v.([]model.Bar), nil
}

func classify(err error) error {
	var perr *ohlcv.ProviderError
	switch {
	case errors.Is(err, warehouse.ErrUnavailable):
		return NewAppError("ERR_STORE_UNAVAILABLE", "historical store unavailable", http.StatusInternalServerError, err)
	case errors.As(err, &perr):
		return NewAppError("ERR_UPSTREAM", "market data providers failed", http.StatusBadGateway, err)
	case errors.Is(err, ohlcv.ErrInvalidDate):
		return NewAppError("ERR_DATE", err.Error(), http.StatusUnprocessableEntity, err)
	default:
		return NewAppError("ERR_INTERNAL", "daily acquisition failed", http.StatusInternalServerError, err)
	}
}
