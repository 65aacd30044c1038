// SPDX-License-Identifier: MIT

// Package config loads the daemon configuration from a YAML file with
// HEIRLOOM_* environment overrides.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config is the daemon configuration.
type Config struct {
	Listen          string   `yaml:"listen"`
	DBPath          string   `yaml:"db_path"`
	LogLevel        string   `yaml:"log_level"`
	KeeperSchedule  string   `yaml:"keeper_schedule"` // six-field cron spec, with seconds
	YieldRateBps    int64    `yaml:"yield_rate_bps"`  // annual accrual rate of the yield source
	SupportedTokens []string `yaml:"supported_tokens"`
	RateLimit       int      `yaml:"rate_limit"` // mutating requests per minute per client
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Listen:          ":8484",
		DBPath:          "heirloom.db",
		LogLevel:        "info",
		KeeperSchedule:  "*/30 * * * * *",
		YieldRateBps:    300,
		SupportedTokens: []string{"native", "USDC", "DAI"},
		RateLimit:       60,
	}
}

// Load builds the configuration: defaults, then the YAML file at path (if
// any), then environment overrides. The result is validated.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	applyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v, ok := os.LookupEnv("HEIRLOOM_LISTEN"); ok && v != "" {
		cfg.Listen = v
	}
	if v, ok := os.LookupEnv("HEIRLOOM_DB_PATH"); ok && v != "" {
		cfg.DBPath = v
	}
	if v, ok := os.LookupEnv("HEIRLOOM_LOG_LEVEL"); ok && v != "" {
		cfg.LogLevel = v
	}
	if v, ok := os.LookupEnv("HEIRLOOM_KEEPER_SCHEDULE"); ok && v != "" {
		cfg.KeeperSchedule = v
	}
	if v, ok := os.LookupEnv("HEIRLOOM_YIELD_RATE_BPS"); ok && v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.YieldRateBps = n
		}
	}
	if v, ok := os.LookupEnv("HEIRLOOM_RATE_LIMIT"); ok && v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.RateLimit = n
		}
	}
}

// Validate checks the configuration for obvious mistakes.
func (c Config) Validate() error {
	if c.Listen == "" {
		return fmt.Errorf("listen address must not be empty")
	}
	if c.DBPath == "" {
		return fmt.Errorf("db_path must not be empty")
	}
	if c.KeeperSchedule == "" {
		return fmt.Errorf("keeper_schedule must not be empty")
	}
	if c.YieldRateBps < 0 {
		return fmt.Errorf("yield_rate_bps must not be negative")
	}
	if len(c.SupportedTokens) == 0 {
		return fmt.Errorf("supported_tokens must not be empty")
	}
	if c.RateLimit <= 0 {
		return fmt.Errorf("rate_limit must be positive")
	}
	return nil
}
