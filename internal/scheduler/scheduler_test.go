package scheduler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

// mockTrigger is a test implementation of Trigger.
type mockTrigger struct {
	calls atomic.Int32
	err   error
}

func (m *mockTrigger) Trigger(ctx context.Context) (string, error) {
	n := m.calls.Add(1)
	if m.err != nil {
		return "", m.err
	}
	return fmt.Sprintf("job-%d", n), nil
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func stopScheduler(t *testing.T, sched *Scheduler) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := sched.Stop(ctx); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
}

func TestNewScheduler(t *testing.T) {
	sched := New(context.Background(), nil)
	if sched == nil {
		t.Fatal("New() returned nil")
	}
	if sched.cron == nil {
		t.Error("scheduler cron is nil")
	}
	if sched.entries == nil {
		t.Error("scheduler entries map is nil")
	}
}

func TestScheduler_Add(t *testing.T) {
	tests := []struct {
		name      string
		entry     string
		schedule  string
		trigger   Trigger
		wantErr   bool
		errString string
	}{
		{name: "cron schedule", entry: "cron", schedule: "*/5 * * * *", trigger: &mockTrigger{}},
		{name: "hourly descriptor", entry: "hourly", schedule: "@hourly", trigger: &mockTrigger{}},
		{name: "interval", entry: "interval", schedule: "every 15m", trigger: &mockTrigger{}},
		{name: "empty name", entry: "", schedule: "@hourly", trigger: &mockTrigger{}, wantErr: true, errString: "name cannot be empty"},
		{name: "nil trigger", entry: "nil", schedule: "@hourly", trigger: nil, wantErr: true, errString: "trigger cannot be nil"},
		{name: "invalid schedule", entry: "bad", schedule: "not a schedule", trigger: &mockTrigger{}, wantErr: true, errString: "failed to parse schedule"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sched := New(context.Background(), quietLogger())
			err := sched.Add(tt.entry, tt.schedule, tt.trigger)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Add() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr && !strings.Contains(err.Error(), tt.errString) {
				t.Errorf("Add() error = %q, want it to contain %q", err, tt.errString)
			}
			if !tt.wantErr {
				stats, ok := sched.Stats(tt.entry)
				if !ok {
					t.Fatal("Stats() entry not found after Add")
				}
				if stats.NextRun.IsZero() {
					t.Error("NextRun should be set after Add")
				}
			}
		})
	}
}

func TestScheduler_AddDuplicate(t *testing.T) {
	sched := New(context.Background(), quietLogger())
	if err := sched.Add("reports", "@hourly", &mockTrigger{}); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if err := sched.Add("reports", "@daily", &mockTrigger{}); err == nil {
		t.Error("Add() duplicate name error = nil, want error")
	}
}

func TestScheduler_StartStop(t *testing.T) {
	sched := New(context.Background(), quietLogger())

	trigger := &mockTrigger{}
	if err := sched.Add("reports", "@every 1s", trigger); err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	stats, _ := sched.Stats("reports")
	if stats.RunCount != 0 {
		t.Errorf("initial run count = %d, want 0", stats.RunCount)
	}

	sched.Start()
	time.Sleep(2500 * time.Millisecond)
	stopScheduler(t, sched)

	calls := trigger.calls.Load()
	if calls == 0 {
		t.Fatal("trigger did not fire")
	}

	stats, ok := sched.Stats("reports")
	if !ok {
		t.Fatal("Stats() entry not found")
	}
	if stats.RunCount != int64(calls) {
		t.Errorf("RunCount = %d, want %d", stats.RunCount, calls)
	}
	if stats.LastRun.IsZero() {
		t.Error("LastRun should not be zero")
	}
	if stats.LastJobID != fmt.Sprintf("job-%d", calls) {
		t.Errorf("LastJobID = %q, want job-%d", stats.LastJobID, calls)
	}

	// Nothing fires after Stop.
	time.Sleep(1200 * time.Millisecond)
	if got := trigger.calls.Load(); got != calls {
		t.Errorf("trigger fired %d times after Stop", got-calls)
	}
}

func TestScheduler_TriggerError(t *testing.T) {
	sched := New(context.Background(), quietLogger())

	trigger := &mockTrigger{err: errors.New("job manager is shut down")}
	if err := sched.Add("reports", "@every 1s", trigger); err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	sched.Start()
	time.Sleep(1500 * time.Millisecond)
	stopScheduler(t, sched)

	stats, _ := sched.Stats("reports")
	if stats.RunCount == 0 {
		t.Fatal("trigger did not fire")
	}
	if stats.LastError != "job manager is shut down" {
		t.Errorf("LastError = %q", stats.LastError)
	}
	if stats.LastJobID != "" {
		t.Errorf("LastJobID = %q, want empty", stats.LastJobID)
	}
}

func TestScheduler_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	sched := New(ctx, quietLogger())

	trigger := &mockTrigger{}
	if err := sched.Add("reports", "@every 1s", trigger); err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	cancel()
	sched.Start()
	time.Sleep(1500 * time.Millisecond)
	stopScheduler(t, sched)

	if got := trigger.calls.Load(); got != 0 {
		t.Errorf("trigger fired %d times after parent context was canceled", got)
	}
}

func TestScheduler_List(t *testing.T) {
	sched := New(context.Background(), quietLogger())
	for _, name := range []string{"nightly", "hourly"} {
		if err := sched.Add(name, "@"+name, &mockTrigger{}); err != nil {
			t.Fatalf("Add(%s) error = %v", name, err)
		}
	}

	list := sched.List()
	if len(list) != 2 || list[0].Name != "hourly" || list[1].Name != "nightly" {
		t.Errorf("List() = %+v, want hourly then nightly", list)
	}

	if _, ok := sched.Stats("non-existent"); ok {
		t.Error("Stats() found non-existent entry")
	}
}
