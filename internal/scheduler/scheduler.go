package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"UyoAI/internal/model"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// DailyService is the acquisition the warm-up job drives.
type DailyService interface {
	EnsureDaily(ctx context.Context, symbol string, start, end time.Time) ([]model.Bar, error)
}

// Config controls which symbols are warmed and how.
type Config struct {
	Symbols      []string
	LookbackDays int
	Concurrency  int
}

// Scheduler keeps the warehouse warm for a fixed watch list.
type Scheduler struct {
	Cron *cron.Cron
	svc  DailyService
	cfg  Config
	log  zerolog.Logger
	now  func() time.Time

	// base is cancelled by Stop so in-flight warm-ups end promptly.
	base   context.Context
	cancel context.CancelFunc
	// running guards against overlapping warm-ups
	running sync.Mutex
}

// NewScheduler creates a Scheduler. Zero lookback or concurrency fall back to 30 and 1.
func NewScheduler(svc DailyService, cfg Config, log zerolog.Logger) *Scheduler {
	if cfg.LookbackDays <= 0 {
		cfg.LookbackDays = 30
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	base, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		Cron:   cron.New(cron.WithSeconds()),
		svc:    svc,
		cfg:    cfg,
		log:    log.With().Str("component", "scheduler").Logger(),
		now:    time.Now,
		base:   base,
		cancel: cancel,
	}
}

// RegisterAll registers the warm-up job on spec (six fields, seconds first).
func (s *Scheduler) RegisterAll(spec string) error {
	if _, err := s.Cron.AddFunc(spec, s.RunOnce); err != nil {
		return fmt.Errorf("register warmup task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	s.log.Info().Strs("symbols", s.cfg.Symbols).Msg("scheduler started")
}

// Stop cancels running warm-ups and waits for jobs to return or ctx to end.
func (s *Scheduler) Stop(ctx context.Context) {
	s.cancel()
	done := s.Cron.Stop()
	select {
	case <-done.Done():
		s.log.Info().Msg("scheduler stopped")
	case <-ctx.Done():
		s.log.Warn().Msg("scheduler stop timed out")
	}
}

// RunNow warms every symbol immediately. Failures of individual symbols do
// not stop the others; they are joined into the returned error.
func (s *Scheduler) RunNow(ctx context.Context) error {
	if len(s.cfg.Symbols) == 0 {
		return nil
	}
	if !s.running.TryLock() {
		s.log.Warn().Msg("warmup already running, skipped")
		return nil
	}
	defer s.running.Unlock()

	end := model.TruncateDate(s.now())
	start := end.AddDate(0, 0, -s.cfg.LookbackDays)

	var (
		mu   sync.Mutex
		errs []error
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Concurrency)
	for _, symbol := range s.cfg.Symbols {
		g.Go(func() error {
			t0 := time.Now()
			bars, err := s.svc.EnsureDaily(gctx, symbol, start, end)
			if err != nil {
				s.log.Error().Err(err).Str("symbol", symbol).Msg("warmup failed")
				mu.Lock()
				errs = append(errs, fmt.Errorf("%s: %w", symbol, err))
				mu.Unlock()
				return nil
			}
			s.log.Info().
				Str("symbol", symbol).
				Int("rows", len(bars)).
				Dur("took", time.Since(t0)).
				Msg("warmup done")
			return nil
		})
	}
	_ = g.Wait()
	return errors.Join(errs...)
}

// RunOnce runs a warm-up bound to the scheduler's lifetime and logs the outcome.
func (s *Scheduler) RunOnce() {
	s.log.Info().Msg("running warmup task")
	if err := s.RunNow(s.base); err != nil {
		s.log.Warn().Err(err).Msg("warmup finished with errors")
	}
}
