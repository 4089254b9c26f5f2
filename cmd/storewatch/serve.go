package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/caevv/storewatch/internal/logging"
	"github.com/caevv/storewatch/internal/server"
)

const shutdownTimeout = 30 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the report API and dashboard",
	Long: `Start the HTTP API for triggering and fetching reports.

Endpoints:
  POST /api/trigger_report     start a report, returns its report_id
  GET  /api/get_report/{id}    Running, Complete with the CSV URL, or Failed
  GET  /api/reports/{id}       download a Complete report as CSV
  GET  /metrics                Prometheus metrics
  GET  /                       HTML dashboard

If the configuration sets a schedule, reports are also triggered
periodically.

Example:
  storewatch serve --config ./storewatch.yaml --addr :8080`,
	RunE: runServer,
}

func init() {
	serveCmd.Flags().StringP("addr", "a", "", "HTTP server address (host:port), overrides server.addr")
}

func runServer(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
		cfg.Server.Addr = addr
	}

	debug, _ := cmd.Flags().GetBool("debug")
	closeLog, err := applyLogging(cfg.Logging, debug)
	if err != nil {
		return err
	}
	defer closeLog()

	logger.Info("starting storewatch in serve mode",
		"addr", cfg.Server.Addr,
		"source_driver", cfg.Source.Driver,
		"store_driver", cfg.Store.Driver,
		"timezone", cfg.Defaults.Timezone)

	ctx := setupSignalHandler()

	a, err := newApp(ctx, cfg, logger, appOptions{})
	if err != nil {
		return err
	}

	sched, err := a.scheduler(ctx)
	if err != nil {
		a.close(context.Background())
		return fmt.Errorf("failed to set up schedule: %w", err)
	}

	opts := server.Options{
		Addr:     cfg.Server.Addr,
		BaseURL:  cfg.Server.BaseURL,
		Jobs:     a.manager,
		Gatherer: a.registry,
		Logger:   logging.Component(logger, "server"),
	}
	if sched != nil {
		opts.Schedules = sched
	}
	srv := server.New(opts)

	g, gCtx := errgroup.WithContext(ctx)

	if sched != nil {
		g.Go(func() error {
			sched.Start()
			<-gCtx.Done()
			return nil
		})
	}

	g.Go(func() error {
		if err := srv.Start(gCtx); err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()
		logger.Info("shutting down gracefully...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if sched != nil {
			if err := sched.Stop(shutdownCtx); err != nil {
				logger.Error("error stopping scheduler", "error", err)
			}
		}
		if err := srv.Stop(shutdownCtx); err != nil {
			logger.Error("error stopping server", "error", err)
		}
		if err := a.close(shutdownCtx); err != nil {
			logger.Error("error releasing resources", "error", err)
		}
		return nil
	})

	logger.Info("storewatch serve mode started",
		"schedule", cfg.Schedule,
		"dashboard_url", fmt.Sprintf("http://localhost%s", cfg.Server.Addr))

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("error during execution", "error", err)
		return err
	}

	logger.Info("storewatch stopped")
	return nil
}
