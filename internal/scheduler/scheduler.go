// Package scheduler triggers reports periodically from cron expressions.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Scheduler wraps robfig/cron and fires report triggers with context support.
type Scheduler struct {
	cron    *cron.Cron
	ctx     context.Context
	cancel  context.CancelFunc
	logger  *slog.Logger
	entries map[string]*scheduledEntry // name -> entry
	mu      sync.RWMutex
	wg      sync.WaitGroup
}

// scheduledEntry tracks a trigger and its cron entry.
type scheduledEntry struct {
	name      string
	schedule  string
	trigger   Trigger
	entryID   cron.EntryID
	lastRun   time.Time
	nextRun   time.Time
	runCount  int64
	lastJobID string
	lastErr   string
}

// New creates a new Scheduler instance with context support.
// The context is used for graceful shutdown.
func New(ctx context.Context, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}

	schedCtx, cancel := context.WithCancel(ctx)

	// Create cron with custom logger that wraps slog
	cronLogger := &cronSlogAdapter{logger: logger}

	c := cron.New(
		cron.WithLogger(cronLogger),
		cron.WithChain(
			cron.Recover(cronLogger),
			// A slow trigger must not pile up behind itself.
			cron.SkipIfStillRunning(cronLogger),
		),
	)

	return &Scheduler{
		cron:    c,
		ctx:     schedCtx,
		cancel:  cancel,
		logger:  logger,
		entries: make(map[string]*scheduledEntry),
	}
}

// Add registers a trigger under name to fire on the given schedule.
// Returns an error if the name already exists or if the schedule is invalid.
func (s *Scheduler) Add(name, expr string, trigger Trigger) error {
	if trigger == nil {
		return fmt.Errorf("trigger cannot be nil")
	}
	if name == "" {
		return fmt.Errorf("entry name cannot be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.entries[name]; exists {
		return fmt.Errorf("entry %q already exists", name)
	}

	schedule, err := ParseSchedule(expr)
	if err != nil {
		return fmt.Errorf("failed to parse schedule for %q: %w", name, err)
	}

	entryID := s.cron.Schedule(schedule, s.wrap(name, trigger))

	next := schedule.Next(time.Now())
	s.entries[name] = &scheduledEntry{
		name:     name,
		schedule: expr,
		trigger:  trigger,
		entryID:  entryID,
		nextRun:  next,
	}

	s.logger.Info("report schedule added",
		slog.String("name", name),
		slog.String("schedule", expr),
		slog.Time("next_run", next),
	)

	return nil
}

// wrap turns a Trigger into a cron.Job that respects scheduler shutdown.
func (s *Scheduler) wrap(name string, trigger Trigger) cron.FuncJob {
	return func() {
		if s.ctx.Err() != nil {
			return
		}

		s.wg.Add(1)
		defer s.wg.Done()

		started := time.Now()
		jobID, err := trigger.Trigger(s.ctx)

		s.mu.Lock()
		defer s.mu.Unlock()
		se, exists := s.entries[name]
		if !exists {
			return
		}
		se.lastRun = started
		se.runCount++
		se.lastErr = ""
		if err != nil {
			se.lastErr = err.Error()
			s.logger.Error("scheduled report trigger failed",
				slog.String("name", name),
				slog.String("error", err.Error()),
			)
		} else {
			se.lastJobID = jobID
			s.logger.Info("scheduled report triggered",
				slog.String("name", name),
				slog.String("job_id", jobID),
			)
		}
		if entry := s.cron.Entry(se.entryID); entry.ID != 0 {
			se.nextRun = entry.Next
		}
	}
}

// Start begins the scheduler. Triggers fire according to their schedules.
func (s *Scheduler) Start() {
	s.mu.RLock()
	count := len(s.entries)
	s.mu.RUnlock()

	if count == 0 {
		s.logger.Warn("starting scheduler with no entries")
	}

	s.logger.Info("starting scheduler", slog.Int("entry_count", count))
	s.cron.Start()
}

// Stop stops scheduling and waits for in-flight triggers or ctx expiry.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.logger.Info("stopping scheduler")

	s.cancel()
	<-s.cron.Stop().Done()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("scheduler stopped")
		return nil
	case <-ctx.Done():
		s.logger.Warn("shutdown timeout reached, a trigger may still be running")
		return ctx.Err()
	}
}

// Stats returns statistics for a scheduled entry.
func (s *Scheduler) Stats(name string) (EntryStats, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	se, exists := s.entries[name]
	if !exists {
		return EntryStats{}, false
	}
	return s.statsLocked(se), true
}

// List returns statistics for every entry, ordered by name.
func (s *Scheduler) List() []EntryStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]EntryStats, 0, len(s.entries))
	for _, se := range s.entries {
		out = append(out, s.statsLocked(se))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (s *Scheduler) statsLocked(se *scheduledEntry) EntryStats {
	// Get the most up-to-date next run time from cron
	nextRun := se.nextRun
	if entry := s.cron.Entry(se.entryID); entry.ID != 0 && !entry.Next.IsZero() {
		nextRun = entry.Next
	}
	return EntryStats{
		Name:      se.name,
		Schedule:  se.schedule,
		LastRun:   se.lastRun,
		NextRun:   nextRun,
		RunCount:  se.runCount,
		LastJobID: se.lastJobID,
		LastError: se.lastErr,
	}
}

// cronSlogAdapter adapts slog.Logger to cron.Logger interface.
type cronSlogAdapter struct {
	logger *slog.Logger
}

func (a *cronSlogAdapter) Info(msg string, keysAndValues ...interface{}) {
	a.logger.Debug(msg, keysAndValues...)
}

func (a *cronSlogAdapter) Error(err error, msg string, keysAndValues ...interface{}) {
	attrs := make([]any, 0, len(keysAndValues)+1)
	attrs = append(attrs, slog.String("error", err.Error()))
	attrs = append(attrs, keysAndValues...)
	a.logger.Error(msg, attrs...)
}
