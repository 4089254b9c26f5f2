package source

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/caevv/storewatch/internal/uptime"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

const (
	statusCSV = `store_id,status,timestamp_utc
s1,active,2023-01-25 18:13:22.47922 UTC
s1,inactive,2023-01-25 17:13:22 UTC
s2,up,2023-01-25T10:00:00Z
s2,sideways,2023-01-25T11:00:00Z
s3,active,not-a-time
,active,2023-01-25 18:13:22 UTC
`
	hoursCSV = `store_id,dayOfWeek,start_time_local,end_time_local
s1,2,09:00:00,17:00:00
s1,x,09:00:00,17:00:00
s1,3,25:00:00,17:00:00
s2,0,00:00:00,23:59:59
`
	timezoneCSV = `store_id,timezone_str
s1,America/New_York
`
)

func writeFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatalf("WriteFile(%s) error = %v", name, err)
		}
	}
	return dir
}

func TestParseTimestamp(t *testing.T) {
	want := time.Date(2023, 1, 25, 18, 13, 22, 479220000, time.UTC)
	tests := []struct {
		raw     string
		want    time.Time
		wantErr bool
	}{
		{raw: "2023-01-25 18:13:22.47922 UTC", want: want},
		{raw: "2023-01-25 18:13:22.47922", want: want},
		{raw: "2023-01-25T18:13:22.47922Z", want: want},
		{raw: "2023-01-25T13:13:22.47922-05:00", want: want},
		{raw: "2023-01-25 18:13:22 UTC", want: want.Truncate(time.Second)},
		{raw: "2023-01-25 18:13:22.479220999 UTC", want: want},
		{raw: "yesterday", wantErr: true},
		{raw: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParseTimestamp(tt.raw)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseTimestamp() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && !got.Equal(tt.want) {
				t.Errorf("ParseTimestamp() = %v, want %v", got, tt.want)
			}
			if !tt.wantErr && got.Location() != time.UTC {
				t.Errorf("ParseTimestamp() location = %v, want UTC", got.Location())
			}
		})
	}
}

func TestLoadFiles(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		DefaultStatusFile:   statusCSV,
		DefaultHoursFile:    hoursCSV,
		DefaultTimezoneFile: timezoneCSV,
	})

	ds, err := LoadFiles(Config{Path: dir}.Files(), quietLogger())
	if err != nil {
		t.Fatalf("LoadFiles() error = %v", err)
	}

	if got := len(ds.Observations); got != 3 {
		t.Errorf("observations = %d, want 3", got)
	}
	if ds.Observations[0].Status != uptime.StatusUp || ds.Observations[1].Status != uptime.StatusDown {
		t.Errorf("file order not preserved: %+v", ds.Observations[:2])
	}
	if got := ds.Stores(); got != 2 {
		t.Errorf("Stores() = %d, want 2", got)
	}

	// One bad status, one bad timestamp, one bad day of week, one bad clock.
	if got := len(ds.Rejected); got != 4 {
		t.Errorf("rejected = %d, want 4: %v", got, ds.Rejected)
	}
	for _, err := range ds.Rejected {
		var verr *uptime.ValidationError
		if !errors.As(err, &verr) {
			t.Errorf("rejected error %v is not a ValidationError", err)
		}
	}

	ctx := context.Background()
	hours, err := ds.BusinessHours(ctx, "s1")
	if err != nil {
		t.Fatalf("BusinessHours() error = %v", err)
	}
	if len(hours) != 1 || hours[0].DayOfWeek != 2 || hours[0].Start != 9*time.Hour || hours[0].End != 17*time.Hour {
		t.Errorf("BusinessHours(s1) = %+v", hours)
	}

	zone, ok, err := ds.Timezone(ctx, "s1")
	if err != nil || !ok || zone != "America/New_York" {
		t.Errorf("Timezone(s1) = %q, %v, %v", zone, ok, err)
	}
	if _, ok, _ := ds.Timezone(ctx, "s2"); ok {
		t.Error("Timezone(s2) reported a zone, want none")
	}

	only, err := ds.ListObservations(ctx, "s2")
	if err != nil || len(only) != 1 {
		t.Errorf("ListObservations(s2) = %+v, %v", only, err)
	}
}

func TestLoadFiles_OptionalFiles(t *testing.T) {
	dir := writeFiles(t, map[string]string{DefaultStatusFile: statusCSV})

	ds, err := LoadFiles(Config{Path: dir}.Files(), quietLogger())
	if err != nil {
		t.Fatalf("LoadFiles() error = %v", err)
	}
	if len(ds.Hours) != 0 || len(ds.Timezones) != 0 {
		t.Errorf("expected no hours or zones, got %d and %d", len(ds.Hours), len(ds.Timezones))
	}
}

func TestLoadFiles_Errors(t *testing.T) {
	tests := []struct {
		name  string
		files map[string]string
	}{
		{name: "missing status file", files: map[string]string{DefaultHoursFile: hoursCSV}},
		{name: "missing column", files: map[string]string{DefaultStatusFile: "store_id,status\ns1,active\n"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := writeFiles(t, tt.files)
			if _, err := LoadFiles(Config{Path: dir}.Files(), quietLogger()); err == nil {
				t.Error("LoadFiles() error = nil, want error")
			}
		})
	}
}

func TestLoadFiles_UnparsableRow(t *testing.T) {
	status := `store_id,status,timestamp_utc
s1,active,2023-01-25 18:13:22 UTC
s2,act"ive,2023-01-25 18:14:22 UTC
s3,inactive,2023-01-25 18:15:22 UTC
`
	dir := writeFiles(t, map[string]string{DefaultStatusFile: status})

	ds, err := LoadFiles(Config{Path: dir}.Files(), quietLogger())
	if err != nil {
		t.Fatalf("LoadFiles() error = %v", err)
	}
	var stores []string
	for _, o := range ds.Observations {
		stores = append(stores, o.StoreID)
	}
	if strings.Join(stores, ",") != "s1,s3" {
		t.Errorf("observations for %v, want s1,s3", stores)
	}
	if len(ds.Rejected) != 1 {
		t.Fatalf("rejected = %d, want 1", len(ds.Rejected))
	}
	var verr *uptime.ValidationError
	if !errors.As(ds.Rejected[0], &verr) || verr.Record != uptime.RecordObservation {
		t.Errorf("rejected[0] = %v", ds.Rejected[0])
	}
	if !strings.Contains(ds.Rejected[0].Error(), "line 3") {
		t.Errorf("rejected[0] = %v, want line 3", ds.Rejected[0])
	}
}

func TestReadObservations_ColumnOrder(t *testing.T) {
	ds := NewDataset()
	input := "timestamp_utc,store_id,status\n2023-01-25 18:13:22 UTC,s9,inactive\n"
	if err := ReadObservations(ds, strings.NewReader(input)); err != nil {
		t.Fatalf("ReadObservations() error = %v", err)
	}
	if len(ds.Observations) != 1 || ds.Observations[0].StoreID != "s9" || ds.Observations[0].Status != uptime.StatusDown {
		t.Errorf("observations = %+v", ds.Observations)
	}
}

func TestConfigFiles(t *testing.T) {
	files := Config{Path: "data", StatusFile: "/abs/status.csv", HoursFile: "hours.csv"}.Files()
	if files.Status != "/abs/status.csv" {
		t.Errorf("Status = %s", files.Status)
	}
	if files.Hours != filepath.Join("data", "hours.csv") {
		t.Errorf("Hours = %s", files.Hours)
	}
	if files.Timezone != filepath.Join("data", DefaultTimezoneFile) {
		t.Errorf("Timezone = %s", files.Timezone)
	}
}

func TestOpen_UnknownDriver(t *testing.T) {
	if _, err := Open(context.Background(), Config{Driver: "mongo"}, quietLogger()); err == nil {
		t.Error("Open() error = nil, want error for unknown driver")
	}
}
