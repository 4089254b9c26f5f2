package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
	_ "time/tzdata"

	"gopkg.in/yaml.v3"

	"github.com/caevv/storewatch/internal/scheduler"
)

// Environment variables that override file values.
const (
	EnvSourceDriver = "STOREWATCH_SOURCE_DRIVER"
	EnvSourcePath   = "STOREWATCH_SOURCE_PATH"
	EnvStoreDriver  = "STOREWATCH_STORE_DRIVER"
	EnvStorePath    = "STOREWATCH_STORE_PATH"
	EnvServerAddr   = "STOREWATCH_SERVER_ADDR"
	EnvBaseURL      = "STOREWATCH_BASE_URL"
	EnvWorkers      = "STOREWATCH_WORKERS"
	EnvJobTimeout   = "STOREWATCH_JOB_TIMEOUT"
	EnvLogLevel     = "STOREWATCH_LOG_LEVEL"
	EnvLogFormat    = "STOREWATCH_LOG_FORMAT"
)

// LoadConfig loads and validates a storewatch configuration from a YAML file.
func LoadConfig(path string) (*Config, error) {
	// Read the file
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Parse YAML
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	applyDefaults(&cfg)

	if err := applyEnvOverrides(&cfg, os.LookupEnv); err != nil {
		return nil, err
	}

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// LoadDefault builds a configuration without a file: defaults plus
// environment overrides.
func LoadDefault() (*Config, error) {
	var cfg Config
	applyDefaults(&cfg)

	if err := applyEnvOverrides(&cfg, os.LookupEnv); err != nil {
		return nil, err
	}

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// applyDefaults sets default values for optional fields.
func applyDefaults(cfg *Config) {
	// Source section
	if cfg.Source.Driver == "" {
		cfg.Source.Driver = "csv"
	}
	if cfg.Source.Path == "" {
		if cfg.Source.Driver == "sqlite" {
			cfg.Source.Path = "./storewatch.sqlite"
		} else {
			cfg.Source.Path = "./data"
		}
	}

	// Defaults section
	if cfg.Defaults.Timezone == "" {
		cfg.Defaults.Timezone = "UTC"
	}
	if cfg.Defaults.Workers == 0 {
		cfg.Defaults.Workers = 8
	}

	// Store section
	if cfg.Store.Driver == "" {
		cfg.Store.Driver = "bbolt"
	}
	if cfg.Store.Path == "" {
		switch cfg.Store.Driver {
		case "json":
			cfg.Store.Path = "./.storewatch.json"
		default:
			cfg.Store.Path = "./.storewatch.db"
		}
	}

	// Server section
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8080"
	}

	// Logging section
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stderr"
	}
}

// applyEnvOverrides replaces file values with set environment variables.
func applyEnvOverrides(cfg *Config, lookup func(string) (string, bool)) error {
	str := map[string]*string{
		EnvSourceDriver: &cfg.Source.Driver,
		EnvSourcePath:   &cfg.Source.Path,
		EnvStoreDriver:  &cfg.Store.Driver,
		EnvStorePath:    &cfg.Store.Path,
		EnvServerAddr:   &cfg.Server.Addr,
		EnvBaseURL:      &cfg.Server.BaseURL,
		EnvLogLevel:     &cfg.Logging.Level,
		EnvLogFormat:    &cfg.Logging.Format,
	}
	for key, dst := range str {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}

	if v, ok := lookup(EnvWorkers); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvWorkers, err)
		}
		cfg.Defaults.Workers = n
	}
	if v, ok := lookup(EnvJobTimeout); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvJobTimeout, err)
		}
		cfg.Defaults.JobTimeout = d
	}
	return nil
}

// validate checks the configuration for errors and inconsistencies.
func validate(cfg *Config) error {
	validSources := map[string]bool{
		"csv":    true,
		"sqlite": true,
	}
	if !validSources[cfg.Source.Driver] {
		return fmt.Errorf("invalid source driver: %s (must be 'csv' or 'sqlite')", cfg.Source.Driver)
	}
	if cfg.Source.Path == "" {
		return fmt.Errorf("source.path is required")
	}

	validDrivers := map[string]bool{
		"bbolt":  true,
		"json":   true,
		"memory": true,
	}
	if !validDrivers[cfg.Store.Driver] {
		return fmt.Errorf("invalid store driver: %s (must be 'bbolt', 'json', or 'memory')", cfg.Store.Driver)
	}

	if cfg.Defaults.Workers <= 0 {
		return fmt.Errorf("defaults.workers must be positive")
	}
	if cfg.Defaults.JobTimeout < 0 {
		return fmt.Errorf("defaults.job_timeout must be non-negative")
	}
	if _, err := time.LoadLocation(cfg.Defaults.Timezone); err != nil {
		return fmt.Errorf("invalid defaults.timezone %q: %w", cfg.Defaults.Timezone, err)
	}

	if cfg.Schedule != "" {
		if err := scheduler.ValidateSchedule(cfg.Schedule); err != nil {
			return fmt.Errorf("invalid schedule: %w", err)
		}
	}

	validFormats := map[string]bool{
		"json": true,
		"text": true,
	}
	if !validFormats[cfg.Logging.Format] {
		return fmt.Errorf("invalid logging format: %s (must be 'json' or 'text')", cfg.Logging.Format)
	}

	return nil
}
