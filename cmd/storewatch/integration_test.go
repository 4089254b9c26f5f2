package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/caevv/storewatch/internal/config"
	"github.com/caevv/storewatch/internal/jobs"
	"github.com/caevv/storewatch/internal/report"
	"github.com/caevv/storewatch/internal/source"
	"github.com/caevv/storewatch/internal/store"
)

func TestMain(m *testing.M) {
	logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	os.Exit(m.Run())
}

// Store a is up until 17:30 and down afterwards; store b only ever reports
// down. Neither has business hours, so both are open around the clock.
const statusCSV = `store_id,status,timestamp_utc
a,active,2023-01-25 12:00:00 UTC
a,inactive,2023-01-25 17:30:00 UTC
b,inactive,2023-01-25 17:00:00 UTC
c,active,not-a-time
`

const wantReport = `store_id,uptime_last_hour_minutes,downtime_last_hour_minutes,uptime_last_day_hours,downtime_last_day_hours,uptime_last_week_hours,downtime_last_week_hours
a,30,30,23.50,0.50,167.50,0.50
b,0,60,0.00,24.00,0.00,168.00
`

var evaluatedAt = time.Date(2023, 1, 25, 18, 0, 0, 0, time.UTC)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, source.DefaultStatusFile), []byte(statusCSV), 0o644); err != nil {
		t.Fatalf("failed to write status file: %v", err)
	}

	cfg := config.NewDefaultConfig()
	cfg.Source.Path = dir
	cfg.Store = config.Store{Driver: store.DriverJSON, Path: filepath.Join(dir, "jobs.json")}
	return cfg
}

func TestIntegration_GenerateFromCSV(t *testing.T) {
	cfg := testConfig(t)

	var buf bytes.Buffer
	job, err := generate(context.Background(), cfg, evaluatedAt, false, &buf)
	if err != nil {
		t.Fatalf("generate() error = %v", err)
	}

	if job.State != jobs.StateComplete {
		t.Fatalf("job state = %s, want Complete", job.State)
	}
	if got := buf.String(); got != wantReport {
		t.Errorf("report =\n%s\nwant\n%s", got, wantReport)
	}
	if !job.Stats.EvaluatedAt.Equal(evaluatedAt) {
		t.Errorf("evaluated at %v, want %v", job.Stats.EvaluatedAt, evaluatedAt)
	}
	if job.Stats.Stores != 2 {
		t.Errorf("stores = %d, want 2", job.Stats.Stores)
	}
	if _, err := os.Stat(cfg.Store.Path); !os.IsNotExist(err) {
		t.Errorf("store file written without --persist: %v", err)
	}
}

func TestIntegration_GeneratePersists(t *testing.T) {
	cfg := testConfig(t)

	job, err := generate(context.Background(), cfg, evaluatedAt, true, io.Discard)
	if err != nil {
		t.Fatalf("generate() error = %v", err)
	}

	st, err := store.NewStore(cfg.Store.Driver, cfg.Store.Path)
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	defer st.Close()

	records, err := st.ListJobs(0)
	if err != nil {
		t.Fatalf("ListJobs() error = %v", err)
	}
	if len(records) != 1 || records[0].JobID != job.ID || records[0].State != string(jobs.StateComplete) {
		t.Fatalf("persisted records = %+v", records)
	}

	out := historyTable(records)
	for _, want := range []string{job.ID, "Complete", "REPORT ID"} {
		if !strings.Contains(out, want) {
			t.Errorf("history table missing %q:\n%s", want, out)
		}
	}
}

func TestIntegration_SQLiteMatchesCSV(t *testing.T) {
	cfg := testConfig(t)
	db := filepath.Join(t.TempDir(), "source.sqlite")

	stats, err := importCSV(context.Background(), source.Config{Driver: source.DriverCSV, Path: cfg.Source.Path}, db)
	if err != nil {
		t.Fatalf("importCSV() error = %v", err)
	}
	if stats.Observations != 3 {
		t.Errorf("imported %d observations, want 3", stats.Observations)
	}

	cfg.Source = config.Source{Driver: source.DriverSQLite, Path: db}
	var buf bytes.Buffer
	if _, err := generate(context.Background(), cfg, evaluatedAt, false, &buf); err != nil {
		t.Fatalf("generate() error = %v", err)
	}
	if got := buf.String(); got != wantReport {
		t.Errorf("sqlite report =\n%s\nwant\n%s", got, wantReport)
	}
}

func TestIntegration_GenerateMissingSource(t *testing.T) {
	cfg := config.NewDefaultConfig()
	cfg.Source.Path = filepath.Join(t.TempDir(), "missing")
	cfg.Store.Driver = store.DriverMemory

	if _, err := generate(context.Background(), cfg, time.Time{}, false, io.Discard); err == nil {
		t.Fatal("expected error for a missing status file")
	}
}

func TestSummarize(t *testing.T) {
	lines, err := report.Read(strings.NewReader(wantReport))
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}

	sum, err := summarize(lines, 1)
	if err != nil {
		t.Fatalf("summarize() error = %v", err)
	}
	if sum.Stores != 2 {
		t.Errorf("stores = %d, want 2", sum.Stores)
	}
	if got := sum.Totals[colDownHour].String(); got != "90" {
		t.Errorf("hour downtime total = %s, want 90", got)
	}
	if got := sum.Totals[colUpWeek].StringFixed(2); got != "167.50" {
		t.Errorf("week uptime total = %s, want 167.50", got)
	}
	if len(sum.Worst) != 1 || sum.Worst[0][colStore] != "b" {
		t.Errorf("worst = %v, want [b]", sum.Worst)
	}

	if _, err := summarize([][]string{{"x", "1", "oops", "0", "0", "0", "0"}}, 1); err == nil {
		t.Error("expected error for a non-numeric cell")
	}
}
