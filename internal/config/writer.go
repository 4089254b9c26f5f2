package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// SaveConfig validates cfg and writes it to path as YAML. The file is
// replaced atomically through a temporary file in the same directory.
func SaveConfig(cfg *Config, path string) error {
	if err := validate(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}

// NewDefaultConfig returns a configuration with every default filled in,
// the form written by `storewatch init`.
func NewDefaultConfig() *Config {
	cfg := &Config{
		Source: Source{
			StatusFile:   "store_status.csv",
			HoursFile:    "menu_hours.csv",
			TimezoneFile: "timezones.csv",
		},
	}
	applyDefaults(cfg)
	return cfg
}
