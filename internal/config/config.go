package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"UyoAI/internal/collector"

	"github.com/creasty/defaults"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// EnvFiles are loaded before the YAML file. Variables already present in the
// environment are not overridden.
var EnvFiles = []string{".env", "configs/.env"}

// Config holds all application configuration.
type Config struct {
	Warehouse struct {
		Path string `yaml:"path" default:"data/market.db"`
	} `yaml:"warehouse"`
	Recorder struct {
		Path     string `yaml:"path" default:"data/acquisition.db"`
		Disabled bool   `yaml:"disabled"`
	} `yaml:"recorder"`
	Providers struct {
		Primary         string        `yaml:"primary" default:"yahoo"`
		Secondary       string        `yaml:"secondary" default:"stooq"`
		Timeout         time.Duration `yaml:"timeout" default:"30s"`
		AlphaVantageKey string        `yaml:"alphavantage_api_key"`
		FMPKey          string        `yaml:"fmp_api_key"`
	} `yaml:"providers"`
	Server struct {
		Host            string        `yaml:"host" default:"0.0.0.0"`
		Port            int           `yaml:"port" default:"8000"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s"`
	} `yaml:"server"`
	Log struct {
		Level         string `yaml:"level" default:"info"`
		Format        string `yaml:"format" default:"json"`
		Dir           string `yaml:"dir"`
		MaxSizeMB     int    `yaml:"max_size_mb" default:"100"`
		RetentionDays int    `yaml:"retention_days" default:"30"`
	} `yaml:"log"`
	Warmup struct {
		Cron         string   `yaml:"cron" default:"0 30 22 * * 1-5"`
		Symbols      []string `yaml:"symbols"`
		LookbackDays int      `yaml:"lookback_days" default:"30"`
		Concurrency  int      `yaml:"concurrency" default:"2"`
		RunOnStart   bool     `yaml:"run_on_start"`
	} `yaml:"warmup"`
	Proxy string `yaml:"proxy"`
}

// Load reads .env files, then the YAML file at path, then applies
// environment variable overrides and finally defaults. A missing file is
// not an error.
func Load(path string) (*Config, error) {
	if err := loadEnvFiles(EnvFiles...); err != nil {
		return nil, err
	}

	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if err := defaults.Set(cfg); err != nil {
		return nil, fmt.Errorf("apply defaults: %w", err)
	}
	return cfg, nil
}

func loadEnvFiles(files ...string) error {
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

// Environment variable overrides
func (c *Config) applyEnv() error {
	if v := os.Getenv("WAREHOUSE_PATH"); v != "" {
		c.Warehouse.Path = v
	}
	if v := os.Getenv("RECORDER_PATH"); v != "" {
		c.Recorder.Path = v
	}
	if v := os.Getenv("PROVIDER_PRIMARY"); v != "" {
		c.Providers.Primary = v
	}
	if v := os.Getenv("PROVIDER_SECONDARY"); v != "" {
		c.Providers.Secondary = v
	}
	if v := os.Getenv("PROVIDER_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("PROVIDER_TIMEOUT: %w", err)
		}
		c.Providers.Timeout = d
	}
	if v := os.Getenv("ALPHAVANTAGE_API_KEY"); v != "" {
		c.Providers.AlphaVantageKey = v
	}
	if v := os.Getenv("FMP_API_KEY"); v != "" {
		c.Providers.FMPKey = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		c.Proxy = v
	}
	if v := os.Getenv("API_HOST"); v != "" {
		c.Server.Host = v
	}
	if v := os.Getenv("API_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("API_PORT: %w", err)
		}
		c.Server.Port = port
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		c.Log.Format = v
	}
	if v := os.Getenv("LOG_DIR"); v != "" {
		c.Log.Dir = v
	}
	if v := os.Getenv("WARMUP_CRON"); v != "" {
		c.Warmup.Cron = v
	}
	if v := os.Getenv("WARMUP_SYMBOLS"); v != "" {
		c.Warmup.Symbols = splitList(v)
	}
	if os.Getenv("RUN_ON_START") == "true" {
		c.Warmup.RunOnStart = true
	}
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Validate checks that all required fields are set.
func (c *Config) Validate() error {
	if c.Warehouse.Path == "" {
		return fmt.Errorf("warehouse.path is required")
	}
	names := collector.Names()
	if !slices.Contains(names, strings.ToLower(c.Providers.Primary)) {
		return fmt.Errorf("providers.primary %q is not one of %v", c.Providers.Primary, names)
	}
	if !slices.Contains(names, strings.ToLower(c.Providers.Secondary)) {
		return fmt.Errorf("providers.secondary %q is not one of %v", c.Providers.Secondary, names)
	}
	if strings.EqualFold(c.Providers.Primary, c.Providers.Secondary) {
		return fmt.Errorf("providers.primary and providers.secondary must differ")
	}
	if c.Providers.Timeout <= 0 {
		return fmt.Errorf("providers.timeout must be positive")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be in 1..65535")
	}
	if c.Warmup.LookbackDays <= 0 {
		return fmt.Errorf("warmup.lookback_days must be positive")
	}
	if c.Warmup.Concurrency <= 0 {
		return fmt.Errorf("warmup.concurrency must be positive")
	}
	return nil
}

// ProviderOptions returns the options shared by every provider.
func (c *Config) ProviderOptions() collector.Options {
	return collector.Options{
		Timeout:         c.Providers.Timeout,
		Proxy:           c.Proxy,
		AlphaVantageKey: c.Providers.AlphaVantageKey,
		FMPKey:          c.Providers.FMPKey,
	}
}
