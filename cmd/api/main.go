package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"UyoAI/internal/api"
	"UyoAI/internal/app"
	"UyoAI/internal/config"
	"UyoAI/internal/logger"
	"UyoAI/internal/scheduler"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
)

func main() {
	// Load config
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("config validation")
	}

	lg, err := logger.Init(logger.Config{
		Level:         cfg.Log.Level,
		Format:        cfg.Log.Format,
		Dir:           cfg.Log.Dir,
		RotationSize:  cfg.Log.MaxSizeMB,
		RetentionDays: cfg.Log.RetentionDays,
		Service:       "uyo-api",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("init logger")
	}
	lg.Info().Str("config", cfgPath).Msg("UyoAI starting")

	a, err := app.New(cfg, lg, prometheus.DefaultRegisterer)
	if err != nil {
		lg.Fatal().Err(err).Msg("init acquisition service")
	}
	defer a.Close()

	// Init HTTP server
	h := api.NewHandler(a.Service, a.Recorder, lg,
		api.WithIntradayProviders(a.Primary, a.Secondary),
	)
	srv := api.NewServer(h,
		api.WithAddress(cfg.Server.Host, cfg.Server.Port),
		api.WithLogger(lg),
	)
	srv.Start()

	// Init scheduler
	sched := scheduler.NewScheduler(a.Service, scheduler.Config{
		Symbols:      cfg.Warmup.Symbols,
		LookbackDays: cfg.Warmup.LookbackDays,
		Concurrency:  cfg.Warmup.Concurrency,
	}, lg)
	if len(cfg.Warmup.Symbols) > 0 {
		if err := sched.RegisterAll(cfg.Warmup.Cron); err != nil {
			lg.Fatal().Err(err).Msg("register cron tasks")
		}
		sched.Start()

		if cfg.Warmup.RunOnStart {
			lg.Info().Msg("RUN_ON_START enabled, warming cache now")
			go sched.RunOnce()
		}
	}

	lg.Info().Msg("UyoAI is running. Press Ctrl+C to stop.")

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	lg.Info().Msg("shutdown signal received, stopping...")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Stop(ctx); err != nil {
		lg.Error().Err(err).Msg("http server shutdown")
	}
	sched.Stop(ctx)
	lg.Info().Msg("UyoAI stopped")
}
