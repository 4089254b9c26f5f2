package jobs

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/caevv/storewatch/internal/aggregate"
	"github.com/caevv/storewatch/internal/metrics"
	"github.com/caevv/storewatch/internal/report"
	"github.com/caevv/storewatch/internal/store"
)

// Runner performs one aggregation. *aggregate.Aggregator satisfies it.
type Runner interface {
	Run(ctx context.Context) (aggregate.Result, error)
}

// RunnerFunc adapts a function to the Runner interface.
type RunnerFunc func(ctx context.Context) (aggregate.Result, error)

// Run calls f(ctx).
func (f RunnerFunc) Run(ctx context.Context) (aggregate.Result, error) {
	return f(ctx)
}

// Options configures a Manager.
type Options struct {
	// Store receives a write-through copy of every job. Optional.
	Store store.Store
	// Timeout bounds a single computation. Zero means no limit.
	Timeout time.Duration
	Logger  *slog.Logger
	// Clock is used for job timestamps. Defaults to time.Now.
	Clock func() time.Time
}

// Manager triggers report computations in the background and answers status
// and fetch requests from the shared registry.
type Manager struct {
	runner   Runner
	registry *Registry
	opts     Options
	logger   *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu     sync.Mutex // guards closed
	closed bool
}

// New creates a Manager that runs runner for every triggered job.
func New(runner Runner, opts Options) *Manager {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{
		runner:   runner,
		registry: NewRegistry(),
		opts:     opts,
		logger:   opts.Logger,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Restore loads previously persisted jobs into the registry. Jobs that a
// previous process left Running can never finish and are marked Failed.
func (m *Manager) Restore() (int, error) {
	if m.opts.Store == nil {
		return 0, nil
	}
	records, err := m.opts.Store.ListJobs(0)
	if err != nil {
		return 0, fmt.Errorf("failed to list persisted jobs: %w", err)
	}

	restored := 0
	for _, rec := range records {
		job, err := fromRecord(rec)
		if err != nil {
			m.logger.Warn("skipping persisted job",
				slog.String("job_id", rec.JobID),
				slog.String("error", err.Error()),
			)
			continue
		}
		if job.State == StateRunning {
			job.State = StateFailed
			job.Error = "interrupted: process stopped before the job finished"
			job.FinishedAt = m.opts.Clock()
			m.persist(job)
		}
		if _, ok := m.registry.add(job); ok {
			restored++
		}
	}

	m.logger.Info("restored persisted jobs", slog.Int("count", restored))
	return restored, nil
}

// Trigger starts a new computation and returns its job ID immediately.
func (m *Manager) Trigger() (string, error) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return "", ErrClosed
	}
	m.wg.Add(1)
	m.mu.Unlock()

	job := Job{
		ID:        uuid.NewString(),
		State:     StateRunning,
		CreatedAt: m.opts.Clock(),
	}
	e, ok := m.registry.add(job)
	if !ok {
		m.wg.Done()
		return "", fmt.Errorf("job ID collision: %s", job.ID)
	}
	m.persist(job)
	metrics.ReportStarted()

	m.logger.Info("report job triggered", slog.String("job_id", job.ID))

	go m.execute(e, job.ID)
	return job.ID, nil
}

type outcome struct {
	result aggregate.Result
	err    error
}

func (m *Manager) execute(e *entry, id string) {
	defer m.wg.Done()

	ctx := m.ctx
	if m.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.opts.Timeout)
		defer cancel()
	}

	results := make(chan outcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				m.logger.Error("report computation panicked",
					slog.String("job_id", id),
					slog.Any("panic", r),
					slog.String("stack", string(debug.Stack())),
				)
				results <- outcome{err: fmt.Errorf("panic: %v", r)}
			}
		}()
		res, err := m.runner.Run(ctx)
		results <- outcome{result: res, err: err}
	}()

	var out outcome
	select {
	case out = <-results:
		if out.err != nil && ctx.Err() != nil {
			out.err = interruption(ctx, m.opts.Timeout)
		}
	case <-ctx.Done():
		out.err = interruption(ctx, m.opts.Timeout)
	}

	var artifact []byte
	if out.err == nil {
		var buf bytes.Buffer
		if err := report.Write(&buf, out.result.Rows); err != nil {
			out.err = fmt.Errorf("failed to render report: %w", err)
		}
		artifact = buf.Bytes()
	}

	finished := m.opts.Clock()
	job, ok := e.finish(func(j *Job) {
		j.FinishedAt = finished
		j.Stats = Stats{
			EvaluatedAt: out.result.Now,
			Stores:      out.result.Stores,
			Skipped:     out.result.Skipped,
		}
		if out.err != nil {
			j.State = StateFailed
			j.Error = out.err.Error()
			return
		}
		j.State = StateComplete
		j.Rows = out.result.Rows
		j.Report = artifact
	})
	if !ok {
		return
	}
	m.persist(job)
	defer e.release()

	if job.State == StateFailed {
		err := &ComputationError{ID: id, Err: out.err}
		m.logger.Error("report job failed",
			slog.String("job_id", id),
			slog.String("error", err.Error()),
			slog.Duration("duration", job.Duration()),
		)
		metrics.ObserveReport(job.Duration(), metrics.OutcomeFailed)
		return
	}
	m.logger.Info("report job completed",
		slog.String("job_id", id),
		slog.Int("rows", len(job.Rows)),
		slog.Int("skipped", job.Stats.Skipped),
		slog.Duration("duration", job.Duration()),
	)
	metrics.ObserveReport(job.Duration(), metrics.OutcomeComplete)
}

func interruption(ctx context.Context, timeout time.Duration) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w after %s", ErrTimeout, timeout)
	}
	return ErrCanceled
}

// Poll returns the current state of a job.
func (m *Manager) Poll(id string) (Status, error) {
	job, err := m.Get(id)
	if err != nil {
		return Status{}, err
	}
	return Status{State: job.State, Error: job.Error}, nil
}

// Fetch returns the report artifact of a Complete job.
func (m *Manager) Fetch(id string) ([]byte, error) {
	job, err := m.Get(id)
	if err != nil {
		return nil, err
	}
	if job.State != StateComplete {
		return nil, &StateError{ID: id, State: job.State}
	}
	return job.Report, nil
}

// Get returns a snapshot of a job.
func (m *Manager) Get(id string) (Job, error) {
	job, ok := m.registry.Get(id)
	if !ok {
		return Job{}, &NotFoundError{ID: id}
	}
	return job, nil
}

// List returns all known jobs, newest first.
func (m *Manager) List() []Job {
	return m.registry.All()
}

// Wait blocks until the job reaches a terminal state or ctx is done.
func (m *Manager) Wait(ctx context.Context, id string) (Job, error) {
	e, ok := m.registry.lookup(id)
	if !ok {
		return Job{}, &NotFoundError{ID: id}
	}
	select {
	case <-e.done:
		return e.snapshot(), nil
	case <-ctx.Done():
		return e.snapshot(), ctx.Err()
	}
}

// Shutdown stops accepting triggers, cancels running computations and waits
// for them to be recorded as Failed. It returns ctx.Err() if ctx expires
// first.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()

	m.logger.Info("stopping job manager")
	m.cancel()

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		m.logger.Info("all report jobs stopped")
		return nil
	case <-ctx.Done():
		m.logger.Warn("shutdown timeout reached, some report jobs may not be recorded")
		return ctx.Err()
	}
}

func (m *Manager) persist(job Job) {
	if m.opts.Store == nil {
		return
	}
	if err := m.opts.Store.SaveJob(toRecord(job)); err != nil {
		m.logger.Warn("failed to persist job",
			slog.String("job_id", job.ID),
			slog.String("error", err.Error()),
		)
	}
}

func toRecord(job Job) *store.JobRecord {
	return &store.JobRecord{
		JobID:       job.ID,
		State:       string(job.State),
		CreatedAt:   job.CreatedAt,
		FinishedAt:  job.FinishedAt,
		Error:       job.Error,
		EvaluatedAt: job.Stats.EvaluatedAt,
		Stores:      job.Stats.Stores,
		Skipped:     job.Stats.Skipped,
		Rows:        job.Rows,
	}
}

func fromRecord(rec *store.JobRecord) (Job, error) {
	job := Job{
		ID:         rec.JobID,
		State:      State(rec.State),
		CreatedAt:  rec.CreatedAt,
		FinishedAt: rec.FinishedAt,
		Error:      rec.Error,
		Rows:       rec.Rows,
		Stats: Stats{
			EvaluatedAt: rec.EvaluatedAt,
			Stores:      rec.Stores,
			Skipped:     rec.Skipped,
		},
	}
	switch job.State {
	case StateRunning, StateFailed:
	case StateComplete:
		var buf bytes.Buffer
		if err := report.Write(&buf, job.Rows); err != nil {
			return Job{}, fmt.Errorf("failed to render report: %w", err)
		}
		job.Report = buf.Bytes()
	default:
		return Job{}, fmt.Errorf("unknown state %q", rec.State)
	}
	return job, nil
}
