package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/caevv/storewatch/internal/aggregate"
	"github.com/caevv/storewatch/internal/config"
	"github.com/caevv/storewatch/internal/jobs"
	"github.com/caevv/storewatch/internal/logging"
	"github.com/caevv/storewatch/internal/metrics"
	"github.com/caevv/storewatch/internal/scheduler"
	"github.com/caevv/storewatch/internal/source"
	"github.com/caevv/storewatch/internal/store"
)

// app is the set of long-lived components every command builds from a
// configuration.
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	source   source.Source
	store    store.Store
	manager  *jobs.Manager
	registry *prometheus.Registry
}

// appOptions adjusts wiring per command.
type appOptions struct {
	// Now pins the evaluation instant for every report.
	Now time.Time
	// StoreDriver overrides cfg.Store.Driver when set.
	StoreDriver string
}

func newApp(ctx context.Context, cfg *config.Config, log *slog.Logger, opts appOptions) (*app, error) {
	loc, err := time.LoadLocation(cfg.Defaults.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid default timezone: %w", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	if err := metrics.Register(reg); err != nil {
		return nil, fmt.Errorf("failed to register metrics: %w", err)
	}

	src, err := source.Open(ctx, source.Config{
		Driver:       cfg.Source.Driver,
		Path:         cfg.Source.Path,
		StatusFile:   cfg.Source.StatusFile,
		HoursFile:    cfg.Source.HoursFile,
		TimezoneFile: cfg.Source.TimezoneFile,
	}, logging.Component(log, "source"))
	if err != nil {
		return nil, fmt.Errorf("failed to open source: %w", err)
	}
	log.Info("source opened", "driver", cfg.Source.Driver, "path", cfg.Source.Path)

	driver := cfg.Store.Driver
	if opts.StoreDriver != "" {
		driver = opts.StoreDriver
	}
	st, err := store.NewStore(driver, cfg.Store.Path)
	if err != nil {
		src.Close()
		return nil, fmt.Errorf("failed to initialize store: %w", err)
	}
	log.Info("store initialized", "driver", driver, "path", cfg.Store.Path)

	agg := aggregate.New(src, src, aggregate.Options{
		Workers:         cfg.Defaults.Workers,
		DefaultLocation: loc,
		Now:             opts.Now,
		Logger:          logging.Component(log, "aggregate"),
	})

	mgr := jobs.New(agg, jobs.Options{
		Store:   st,
		Timeout: cfg.Defaults.JobTimeout,
		Logger:  logging.Component(log, "jobs"),
	})
	if _, err := mgr.Restore(); err != nil {
		log.Warn("failed to restore persisted jobs", "error", err)
	}

	return &app{
		cfg:      cfg,
		logger:   log,
		source:   src,
		store:    st,
		manager:  mgr,
		registry: reg,
	}, nil
}

// scheduler builds the periodic trigger, or returns nil when no schedule is
// configured.
func (a *app) scheduler(ctx context.Context) (*scheduler.Scheduler, error) {
	if a.cfg.Schedule == "" {
		return nil, nil
	}
	sched := scheduler.New(ctx, logging.Component(a.logger, "scheduler"))
	trigger := scheduler.TriggerFunc(func(context.Context) (string, error) {
		return a.manager.Trigger()
	})
	if err := sched.Add("report", a.cfg.Schedule, trigger); err != nil {
		return nil, err
	}
	return sched, nil
}

// close shuts the manager down and releases the store and source.
func (a *app) close(ctx context.Context) error {
	var errs []error
	if err := a.manager.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("job manager: %w", err))
	}
	if err := a.store.Close(); err != nil {
		errs = append(errs, fmt.Errorf("store: %w", err))
	}
	if err := a.source.Close(); err != nil {
		errs = append(errs, fmt.Errorf("source: %w", err))
	}
	return errors.Join(errs...)
}
