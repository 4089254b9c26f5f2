package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/caevv/storewatch/internal/config"
	"github.com/caevv/storewatch/internal/scheduler"
	"github.com/caevv/storewatch/internal/source"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate storewatch configuration file",
	Long: `Validate the syntax and semantics of a storewatch configuration file.

This command loads and validates the configuration file without starting
anything. It checks for:
  - Valid YAML syntax
  - Known source and store drivers
  - A loadable default timezone
  - A valid schedule expression, if any
  - Presence of the source files or database

Example:
  storewatch validate --config ./storewatch.yaml`,
	RunE: validateConfig,
}

func validateConfig(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")

	logger.Info("validating configuration", "path", configPath)

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		logger.Error("configuration file not found", "path", configPath)
		return fmt.Errorf("configuration file not found: %s", configPath)
	}

	// LoadConfig validates automatically
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		logger.Error("configuration validation failed", "error", err)
		return fmt.Errorf("validation failed: %w", err)
	}

	if err := checkSourcePaths(cfg); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	logger.Info("configuration is valid",
		"path", configPath,
		"source_driver", cfg.Source.Driver,
		"timezone", cfg.Defaults.Timezone,
		"store_driver", cfg.Store.Driver,
		"workers", cfg.Defaults.Workers)

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "\n✓ Configuration is valid: %s\n", configPath)
	fmt.Fprintf(out, "  Source: %s (%s)\n", cfg.Source.Driver, cfg.Source.Path)
	fmt.Fprintf(out, "  Store: %s (%s)\n", cfg.Store.Driver, cfg.Store.Path)
	fmt.Fprintf(out, "  Timezone: %s\n", cfg.Defaults.Timezone)
	if cfg.Schedule != "" {
		next, err := scheduler.NextRun(cfg.Schedule, time.Now())
		if err != nil {
			return fmt.Errorf("validation failed: %w", err)
		}
		fmt.Fprintf(out, "  Schedule: %s (next run %s)\n", cfg.Schedule, next.Format(time.RFC3339))
	}

	return nil
}

// checkSourcePaths verifies the files a report run will read exist.
func checkSourcePaths(cfg *config.Config) error {
	paths := []string{cfg.Source.Path}
	if cfg.Source.Driver == source.DriverCSV {
		files := source.Config{
			Path:         cfg.Source.Path,
			StatusFile:   cfg.Source.StatusFile,
			HoursFile:    cfg.Source.HoursFile,
			TimezoneFile: cfg.Source.TimezoneFile,
		}.Files()
		paths = []string{files.Status}
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			return fmt.Errorf("source %s: %w", cfg.Source.Driver, err)
		}
	}
	return nil
}
