package ohlcv

import (
	"context"
	"fmt"
	"time"

	"UyoAI/internal/collector"
	"UyoAI/internal/model"
	"UyoAI/internal/recorder"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Store is the persistence the orchestrator needs.
type Store interface {
	Upsert(ctx context.Context, symbol string, bars []model.Bar) error
	Read(ctx context.Context, symbol string, start, end time.Time) ([]model.Bar, error)
}

// ProviderError is the failure of the last provider tried. Primary holds the
// earlier failure when a fallback was attempted.
type ProviderError struct {
	Provider string
	Err      error
	Primary  error
}

func (e *ProviderError) Error() string {
	if e.Primary != nil {
		return fmt.Sprintf("provider %s: %v (after primary failure: %v)", e.Provider, e.Err, e.Primary)
	}
	return fmt.Sprintf("provider %s: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// Service keeps the daily warehouse filled from upstream providers.
// It holds no per-symbol state and takes no locks; concurrent calls for the
// same range may both fetch, which upsert makes harmless.
type Service struct {
	store     Store
	primary   collector.Provider
	secondary collector.Provider
	recorder  recorder.Recorder
	metrics   *Metrics
	log       zerolog.Logger
	now       func() time.Time
}

// Option configures a Service.
type Option func(*Service)

func WithRecorder(r recorder.Recorder) Option {
	return func(s *Service) { s.recorder = r }
}

func WithMetrics(m *Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithLogger(l zerolog.Logger) Option {
	return func(s *Service) { s.log = l }
}

// NewService builds the orchestrator. secondary may be nil, in which case a
// primary failure propagates directly.
func NewService(store Store, primary, secondary collector.Provider, opts ...Option) *Service {
	s := &Service{
		store:     store,
		primary:   primary,
		secondary: secondary,
		recorder:  recorder.NewNoopRecorder(),
		log:       zerolog.Nop(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// EnsureDaily returns the daily bars for symbol in [start, end].
//
// Cached rows are returned as-is when IsFresh accepts them. Otherwise the
// primary provider is asked, then the secondary if the primary errored. A
// non-empty fetch is upserted and the range re-read from the store; an empty
// fetch returns the cached rows unchanged. A secondary failure is returned
// as a *ProviderError.
func (s *Service) EnsureDaily(ctx context.Context, symbol string, start, end time.Time) ([]model.Bar, error) {
	start, end = model.TruncateDate(start), model.TruncateDate(end)
	evt := &recorder.FetchEvent{
		ID:     uuid.New(),
		Symbol: model.NormalizeSymbol(symbol),
		Start:  start,
		End:    end,
		At:     s.now(),
	}
	logger := s.log.With().
		Str("symbol", evt.Symbol).
		Str("start", start.Format(model.DateLayout)).
		Str("end", end.Format(model.DateLayout)).
		Logger()

	bars, err := s.ensure(ctx, logger, symbol, start, end, evt)
	if err != nil {
		evt.Err = err.Error()
	} else {
		evt.ReturnedRows = len(bars)
	}
	if rerr := s.recorder.RecordFetch(ctx, evt); rerr != nil {
		logger.Warn().Err(rerr).Msg("record acquisition event")
	}
	return bars, err
}

func (s *Service) ensure(ctx context.Context, logger zerolog.Logger, symbol string, start, end time.Time, evt *recorder.FetchEvent) ([]model.Bar, error) {
	existing, err := s.store.Read(ctx, symbol, start, end)
	if err != nil {
		return nil, fmt.Errorf("read cache: %w", err)
	}
	evt.CachedRows = len(existing)

	fresh := IsFresh(existing, start, end)
	s.metrics.cacheLookup(fresh)
	if fresh {
		evt.Fresh = true
		logger.Debug().Int("cached", len(existing)).Msg("cache fresh")
		return existing, nil
	}

	fetched, err := s.fetch(ctx, logger, symbol, start, end, evt)
	if err != nil {
		return nil, err
	}
	evt.FetchedRows = len(fetched)

	if len(fetched) == 0 {
		logger.Info().Int("cached", len(existing)).Str("provider", evt.Provider).Msg("upstream returned no rows, serving cache")
		return existing, nil
	}

	if err := s.store.Upsert(ctx, symbol, fetched); err != nil {
		return nil, fmt.Errorf("store fetched rows: %w", err)
	}
	s.metrics.rowsUpserted(len(fetched))

	out, err := s.store.Read(ctx, symbol, start, end)
	if err != nil {
		return nil, fmt.Errorf("re-read cache: %w", err)
	}
	logger.Info().
		Str("provider", evt.Provider).
		Int("fetched", len(fetched)).
		Int("rows", len(out)).
		Msg("daily bars refreshed")
	return out, nil
}

func (s *Service) fetch(ctx context.Context, logger zerolog.Logger, symbol string, start, end time.Time, evt *recorder.FetchEvent) ([]model.Bar, error) {
	bars, err := s.call(ctx, s.primary, symbol, start, end)
	if err == nil {
		evt.Provider = s.primary.Name()
		return bars, nil
	}
	if s.secondary == nil {
		return nil, &ProviderError{Provider: s.primary.Name(), Err: err}
	}

	logger.Warn().Err(err).
		Str("provider", s.primary.Name()).
		Str("fallback", s.secondary.Name()).
		Msg("primary provider failed, falling back")
	evt.FellBack = true

	bars, serr := s.call(ctx, s.secondary, symbol, start, end)
	if serr != nil {
		return nil, &ProviderError{Provider: s.secondary.Name(), Err: serr, Primary: err}
	}
	evt.Provider = s.secondary.Name()
	return bars, nil
}

func (s *Service) call(ctx context.Context, p collector.Provider, symbol string, start, end time.Time) ([]model.Bar, error) {
	began := time.Now()
	bars, err := p.FetchDaily(ctx, symbol, start, end)
	s.metrics.fetch(p.Name(), len(bars), err, time.Since(began).Seconds())
	return bars, err
}
