// Package cmd holds the backfill CLI commands.
package cmd

import (
	"fmt"
	"time"

	"UyoAI/internal/app"
	"UyoAI/internal/config"
	"UyoAI/internal/logger"
	"UyoAI/internal/model"
	"UyoAI/internal/ohlcv"

	"github.com/spf13/cobra"
)

var (
	cfgFile string
	verbose bool
	start   string
	end     string
)

var rootCmd = &cobra.Command{
	Use:   "backfill",
	Short: "Fill and inspect the daily OHLCV warehouse",
	Long: `Fill and inspect the daily OHLCV warehouse.

Commands:
    ensure       SYMBOL...   - make sure daily bars are cached for the range
    indicators   SYMBOL...   - ensure the range, then print indicators
`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "configs/config.yaml", "config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	rootCmd.PersistentFlags().StringVar(&start, "start", "", "first day, YYYY-MM-DD (default 30 days before --end)")
	rootCmd.PersistentFlags().StringVar(&end, "end", "", "last day, YYYY-MM-DD (default today)")

	rootCmd.AddCommand(ensureCmd)
	rootCmd.AddCommand(indicatorsCmd)
}

// setup loads configuration and assembles the acquisition stack.
func setup() (*app.App, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	level := cfg.Log.Level
	if verbose {
		level = "debug"
	}
	lg, err := logger.Init(logger.Config{Level: level, Format: "console", Service: "uyo-backfill"})
	if err != nil {
		return nil, err
	}
	// metrics are not exported from a one-shot command
	return app.New(cfg, lg, nil)
}

// dateRange resolves --start/--end against today.
func dateRange(now time.Time) (time.Time, time.Time, error) {
	e := model.TruncateDate(now)
	if end != "" {
		d, err := ohlcv.ParseDate(end)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("--end: %w", err)
		}
		e = d
	}
	s := e.AddDate(0, 0, -30)
	if start != "" {
		d, err := ohlcv.ParseDate(start)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("--start: %w", err)
		}
		s = d
	}
	if e.Before(s) {
		return time.Time{}, time.Time{}, fmt.Errorf("--end %s is before --start %s", e.Format(model.DateLayout), s.Format(model.DateLayout))
	}
	return s, e, nil
}
