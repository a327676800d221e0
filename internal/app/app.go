// Package app wires configuration into the acquisition service.
package app

import (
	"fmt"

	"UyoAI/internal/collector"
	"UyoAI/internal/config"
	"UyoAI/internal/ohlcv"
	"UyoAI/internal/recorder"
	"UyoAI/internal/warehouse"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

// App is the assembled acquisition stack.
type App struct {
	Primary   collector.Provider
	Secondary collector.Provider
	Store     *warehouse.Store
	Recorder  recorder.Recorder
	Service   *ohlcv.Service
}

// New builds the store, providers, recorder and service from cfg. A recorder
// that cannot be opened is replaced by a no-op one. reg may be nil.
func New(cfg *config.Config, log zerolog.Logger, reg prometheus.Registerer) (*App, error) {
	opts := cfg.ProviderOptions()
	primary, err := collector.New(cfg.Providers.Primary, opts)
	if err != nil {
		return nil, fmt.Errorf("primary provider: %w", err)
	}
	secondary, err := collector.New(cfg.Providers.Secondary, opts)
	if err != nil {
		return nil, fmt.Errorf("secondary provider: %w", err)
	}
	log.Info().
		Str("primary", primary.Name()).
		Str("secondary", secondary.Name()).
		Msg("providers configured")

	var rec recorder.Recorder = recorder.NewNoopRecorder()
	if !cfg.Recorder.Disabled && cfg.Recorder.Path != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Recorder.Path)
		if err != nil {
			log.Warn().Err(err).Msg("init sqlite recorder failed, using noop")
		} else {
			rec = sr
		}
	}

	store := warehouse.New(cfg.Warehouse.Path)
	log.Info().Str("path", store.Path()).Msg("warehouse configured")
	svc := ohlcv.NewService(store, primary, secondary,
		ohlcv.WithRecorder(rec),
		ohlcv.WithMetrics(ohlcv.NewMetrics(reg)),
		ohlcv.WithLogger(log),
	)
	return &App{
		Primary:   primary,
		Secondary: secondary,
		Store:     store,
		Recorder:  rec,
		Service:   svc,
	}, nil
}

// Close releases the recorder.
func (a *App) Close() error {
	return a.Recorder.Close()
}
