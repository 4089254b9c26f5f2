package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	_ "time/tzdata" // zone database for hosts without one

	"github.com/spf13/cobra"

	"github.com/caevv/storewatch/internal/config"
	"github.com/caevv/storewatch/internal/logging"
)

var (
	// Version information (set via ldflags at build time)
	version   = "dev"
	commit    = "unknown"
	buildTime = "unknown"

	// Global logger
	logger *slog.Logger
)

func main() {
	logger = logging.New("info")
	slog.SetDefault(logger)

	if err := rootCmd.Execute(); err != nil {
		logger.Error("command failed", "error", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "storewatch",
	Short: "Store uptime and downtime reports from status polls",
	Long: `Storewatch estimates how long each store was up and down during its
business hours over the last hour, day and week, extrapolating between
periodic status observations.

Reports are computed asynchronously: trigger one, poll it by ID and
download the CSV once it is Complete.`,
	Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildTime),
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringP("config", "c", "storewatch.yaml", "Path to configuration file")
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		debug, _ := cmd.Flags().GetBool("debug")
		if debug {
			logger = logging.New("debug")
			slog.SetDefault(logger)
			logger.Debug("debug logging enabled")
		}
	}

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(tuiCmd)
	rootCmd.AddCommand(loadCmd)
	rootCmd.AddCommand(inspectCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(initCmd)
}

// loadConfig reads the --config file. A missing file is only an error when
// the flag was set explicitly; otherwise defaults and environment apply.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) && !cmd.Flags().Changed("config") {
		logger.Debug("no configuration file, using defaults", "path", path)
		return config.LoadDefault()
	}

	cfg, err := config.LoadConfig(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

// applyLogging replaces the global logger with one built from cfg.
// The returned func closes a file output.
func applyLogging(cfg config.Logging, debug bool) (func() error, error) {
	level := cfg.Level
	if debug {
		level = "debug"
	}
	l, closer, err := logging.NewFromConfig(cfg.Format, level, cfg.Output)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	logger = l
	slog.SetDefault(l)
	return closer, nil
}

// setupSignalHandler creates a context that cancels on SIGINT or SIGTERM
func setupSignalHandler() context.Context {
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		logger.Info("received shutdown signal", "signal", sig.String())
		cancel()

		// Force exit if second signal received
		sig = <-sigChan
		logger.Warn("received second signal, forcing exit", "signal", sig.String())
		os.Exit(1)
	}()

	return ctx
}
