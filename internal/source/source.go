// Package source provides the observation and business-hours data the
// aggregator reads: CSV exports loaded into memory, or a SQLite database.
package source

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/caevv/storewatch/internal/aggregate"
)

// Supported drivers.
const (
	DriverCSV    = "csv"
	DriverSQLite = "sqlite"
)

// Default file names inside a CSV directory.
const (
	DefaultStatusFile   = "store_status.csv"
	DefaultHoursFile    = "menu_hours.csv"
	DefaultTimezoneFile = "timezones.csv"
)

// Source is a complete input dataset for the aggregator.
type Source interface {
	aggregate.ObservationSource
	aggregate.HoursResolver
	Close() error
}

// Config selects and locates a source.
type Config struct {
	Driver string
	// Path is a directory for csv and a database file for sqlite.
	Path         string
	StatusFile   string
	HoursFile    string
	TimezoneFile string
}

// Files returns the CSV file paths, applying the default names.
func (c Config) Files() Files {
	name := func(v, def string) string {
		if v == "" {
			v = def
		}
		if filepath.IsAbs(v) {
			return v
		}
		return filepath.Join(c.Path, v)
	}
	return Files{
		Status:   name(c.StatusFile, DefaultStatusFile),
		Hours:    name(c.HoursFile, DefaultHoursFile),
		Timezone: name(c.TimezoneFile, DefaultTimezoneFile),
	}
}

// Open opens the source described by cfg.
func Open(ctx context.Context, cfg Config, logger *slog.Logger) (Source, error) {
	if logger == nil {
		logger = slog.Default()
	}
	switch cfg.Driver {
	case DriverCSV, "":
		ds, err := LoadFiles(cfg.Files(), logger)
		if err != nil {
			return nil, err
		}
		return ds, nil
	case DriverSQLite:
		db, err := OpenSQLite(ctx, cfg.Path)
		if err != nil {
			return nil, err
		}
		return db, nil
	default:
		return nil, fmt.Errorf("unsupported source driver: %s (supported: csv, sqlite)", cfg.Driver)
	}
}
