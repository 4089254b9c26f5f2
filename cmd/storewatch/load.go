package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/caevv/storewatch/internal/source"
)

var loadCmd = &cobra.Command{
	Use:   "load",
	Short: "Import CSV exports into a SQLite source database",
	Long: `Read the status, business-hours and timezone CSV files and replace the
contents of a SQLite database with them. Point source.driver at sqlite
afterwards to report from the database.

Example:
  storewatch load --from ./data --db ./storewatch.sqlite`,
	RunE: runLoad,
}

func init() {
	loadCmd.Flags().String("from", "", "CSV directory, defaults to source.path of a csv config")
	loadCmd.Flags().String("db", "storewatch.sqlite", "SQLite database to write")
}

func runLoad(cmd *cobra.Command, args []string) error {
	from, _ := cmd.Flags().GetString("from")
	db, _ := cmd.Flags().GetString("db")

	srcCfg := source.Config{Driver: source.DriverCSV, Path: from}
	if from == "" {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if cfg.Source.Driver != source.DriverCSV {
			return fmt.Errorf("--from is required when the configured source is %s", cfg.Source.Driver)
		}
		srcCfg = source.Config{
			Driver:       source.DriverCSV,
			Path:         cfg.Source.Path,
			StatusFile:   cfg.Source.StatusFile,
			HoursFile:    cfg.Source.HoursFile,
			TimezoneFile: cfg.Source.TimezoneFile,
		}
	}

	stats, err := importCSV(cmd.Context(), srcCfg, db)
	if err != nil {
		return err
	}

	logger.Info("import complete",
		"db", db,
		"observations", stats.Observations,
		"business_hours", stats.Hours,
		"timezones", stats.Timezones)
	fmt.Fprintf(cmd.OutOrStdout(), "imported %d observations, %d business-hour rows, %d timezones into %s\n",
		stats.Observations, stats.Hours, stats.Timezones, db)
	return nil
}

// importCSV loads the CSV files described by cfg into the database at db.
func importCSV(ctx context.Context, cfg source.Config, db string) (source.ImportStats, error) {
	ds, err := source.LoadFiles(cfg.Files(), logger)
	if err != nil {
		return source.ImportStats{}, err
	}
	if len(ds.Rejected) > 0 {
		logger.Warn("skipped malformed records", "count", len(ds.Rejected))
	}

	sqlite, err := source.OpenSQLite(ctx, db)
	if err != nil {
		return source.ImportStats{}, err
	}
	defer sqlite.Close()

	stats, err := sqlite.Import(ctx, ds)
	if err != nil {
		return source.ImportStats{}, fmt.Errorf("failed to import into %s: %w", db, err)
	}
	return stats, nil
}
