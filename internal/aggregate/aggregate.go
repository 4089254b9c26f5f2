// Package aggregate runs the uptime engine over every monitored store.
package aggregate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/caevv/storewatch/internal/metrics"
	"github.com/caevv/storewatch/internal/uptime"
)

// ObservationSource supplies status observations. An empty storeID lists the
// observations of every store.
type ObservationSource interface {
	ListObservations(ctx context.Context, storeID string) ([]uptime.Observation, error)
}

// HoursResolver supplies per-store business hours and timezones. A store
// without hours is open around the clock; a store without a timezone uses
// the aggregator's default location.
type HoursResolver interface {
	BusinessHours(ctx context.Context, storeID string) ([]uptime.BusinessHours, error)
	Timezone(ctx context.Context, storeID string) (string, bool, error)
}

// Options tunes an Aggregator.
type Options struct {
	// Workers bounds how many stores are evaluated concurrently.
	// Defaults to GOMAXPROCS.
	Workers int
	// DefaultLocation applies to stores without a usable timezone.
	// Defaults to UTC.
	DefaultLocation *time.Location
	// Now pins the evaluation instant. When zero the latest observation
	// timestamp in the dataset is used.
	Now    time.Time
	Logger *slog.Logger
}

// Result is the outcome of one aggregation run.
type Result struct {
	Rows []uptime.Row
	// Now is the evaluation instant the windows were anchored to.
	Now time.Time
	// Stores counts stores that had at least one observation record.
	Stores int
	// Skipped counts input records rejected as malformed.
	Skipped int
}

// Aggregator evaluates all stores and collects one row per store.
type Aggregator struct {
	observations ObservationSource
	hours        HoursResolver
	opts         Options
	logger       *slog.Logger
}

// New creates an Aggregator reading from the given sources.
func New(observations ObservationSource, hours HoursResolver, opts Options) *Aggregator {
	if opts.Workers <= 0 {
		opts.Workers = runtime.GOMAXPROCS(0)
	}
	if opts.DefaultLocation == nil {
		opts.DefaultLocation = time.UTC
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Aggregator{
		observations: observations,
		hours:        hours,
		opts:         opts,
		logger:       logger,
	}
}

// Run evaluates every store with at least one observation. Rows are ordered
// by ascending store ID. Malformed records are skipped and counted; an error
// is returned only when a source fails or ctx is done.
func (a *Aggregator) Run(ctx context.Context) (Result, error) {
	all, err := a.observations.ListObservations(ctx, "")
	if err != nil {
		return Result{}, fmt.Errorf("list observations: %w", err)
	}

	groups, skipped := groupByStore(all)
	now := a.opts.Now
	if now.IsZero() {
		now = latest(groups)
	}

	storeIDs := make([]string, 0, len(groups))
	for id := range groups {
		storeIDs = append(storeIDs, id)
	}
	sort.Strings(storeIDs)

	a.logger.Info("evaluating stores",
		slog.Int("stores", len(storeIDs)),
		slog.Time("now", now),
		slog.Int("workers", a.opts.Workers))

	results := make([]uptime.Result, len(storeIDs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.opts.Workers)
	for i, id := range storeIDs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res, err := a.evaluate(gctx, id, groups[id], now)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Result{}, err
	}

	out := Result{Now: now, Stores: len(storeIDs), Skipped: len(skipped)}
	for _, err := range skipped {
		a.recordSkip("", err)
	}
	for i, res := range results {
		for _, err := range res.Skipped {
			a.recordSkip(storeIDs[i], err)
		}
		out.Skipped += len(res.Skipped)
		if res.Evaluated {
			out.Rows = append(out.Rows, res.Row)
		}
	}
	metrics.AddStoresEvaluated(len(out.Rows))

	if out.Skipped > 0 {
		a.logger.Warn("skipped malformed records", slog.Int("count", out.Skipped))
	}
	return out, nil
}

func (a *Aggregator) evaluate(ctx context.Context, storeID string, obs []uptime.Observation, now time.Time) (uptime.Result, error) {
	hours, err := a.hours.BusinessHours(ctx, storeID)
	if err != nil {
		return uptime.Result{}, fmt.Errorf("business hours for store %s: %w", storeID, err)
	}
	zone, ok, err := a.hours.Timezone(ctx, storeID)
	if err != nil {
		return uptime.Result{}, fmt.Errorf("timezone for store %s: %w", storeID, err)
	}

	loc := a.opts.DefaultLocation
	var zoneErr error
	if ok && zone != "" {
		if l, err := time.LoadLocation(zone); err == nil {
			loc = l
		} else {
			zoneErr = &uptime.ValidationError{Record: uptime.RecordTimezone, StoreID: storeID,
				Reason: fmt.Sprintf("unknown zone %q", zone)}
		}
	}

	res := uptime.Evaluate(uptime.Input{
		StoreID:      storeID,
		Observations: obs,
		Hours:        hours,
		Location:     loc,
		Now:          now,
	})
	if zoneErr != nil {
		res.Skipped = append(res.Skipped, zoneErr)
	}
	return res, nil
}

func (a *Aggregator) recordSkip(storeID string, err error) {
	record := "unknown"
	var verr *uptime.ValidationError
	if errors.As(err, &verr) {
		record = verr.Record
	}
	metrics.RecordSkipped(record)
	a.logger.Debug("skipping record",
		slog.String("store_id", storeID),
		slog.String("record", record),
		slog.String("error", err.Error()))
}

// groupByStore splits observations per store, keeping their relative order
// so that ties on timestamp resolve to the last record supplied.
func groupByStore(all []uptime.Observation) (map[string][]uptime.Observation, []error) {
	groups := make(map[string][]uptime.Observation)
	var skipped []error
	for _, o := range all {
		if o.StoreID == "" {
			skipped = append(skipped, o.Validate())
			continue
		}
		groups[o.StoreID] = append(groups[o.StoreID], o)
	}
	return groups, skipped
}

// latest returns the greatest valid observation timestamp across all stores.
func latest(groups map[string][]uptime.Observation) time.Time {
	var newest time.Time
	for _, obs := range groups {
		for _, o := range obs {
			if o.Validate() == nil && o.Timestamp.After(newest) {
				newest = o.Timestamp
			}
		}
	}
	return newest
}
