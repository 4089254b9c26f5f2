package source

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/caevv/storewatch/internal/uptime"
)

func TestSQLite_ImportAndRead(t *testing.T) {
	ctx := context.Background()
	db, err := OpenSQLite(ctx, filepath.Join(t.TempDir(), "source.db"))
	if err != nil {
		t.Fatalf("OpenSQLite() error = %v", err)
	}
	defer db.Close()

	ts := time.Date(2023, 1, 25, 18, 0, 0, 123000, time.UTC)
	ds := NewDataset()
	ds.AddObservation(uptime.Observation{StoreID: "s1", Timestamp: ts.Add(time.Hour), Status: uptime.StatusUp})
	ds.AddObservation(uptime.Observation{StoreID: "s1", Timestamp: ts, Status: uptime.StatusUp})
	ds.AddObservation(uptime.Observation{StoreID: "s1", Timestamp: ts, Status: uptime.StatusDown})
	ds.AddObservation(uptime.Observation{StoreID: "s2", Timestamp: ts, Status: uptime.StatusDown})
	ds.AddHours(uptime.BusinessHours{StoreID: "s1", DayOfWeek: 2, Start: 9 * time.Hour, End: 17*time.Hour + 30*time.Minute})
	ds.SetTimezone("s1", "Asia/Kolkata")

	stats, err := db.Import(ctx, ds)
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	if stats != (ImportStats{Observations: 4, Hours: 1, Timezones: 1}) {
		t.Errorf("Import() stats = %+v", stats)
	}

	obs, err := db.ListObservations(ctx, "s1")
	if err != nil {
		t.Fatalf("ListObservations() error = %v", err)
	}
	if len(obs) != 3 {
		t.Fatalf("ListObservations(s1) returned %d, want 3", len(obs))
	}
	// Sorted by time; equal timestamps keep insertion order.
	if !obs[0].Timestamp.Equal(ts) || obs[0].Status != uptime.StatusUp || obs[1].Status != uptime.StatusDown {
		t.Errorf("unexpected order: %+v", obs)
	}
	if !obs[2].Timestamp.Equal(ts.Add(time.Hour)) {
		t.Errorf("last observation = %v, want %v", obs[2].Timestamp, ts.Add(time.Hour))
	}

	all, err := db.ListObservations(ctx, "")
	if err != nil || len(all) != 4 {
		t.Errorf("ListObservations(all) = %d, %v, want 4", len(all), err)
	}

	hours, err := db.BusinessHours(ctx, "s1")
	if err != nil {
		t.Fatalf("BusinessHours() error = %v", err)
	}
	if len(hours) != 1 || hours[0] != ds.Hours["s1"][0] {
		t.Errorf("BusinessHours(s1) = %+v, want %+v", hours, ds.Hours["s1"])
	}
	if hours, _ := db.BusinessHours(ctx, "s2"); len(hours) != 0 {
		t.Errorf("BusinessHours(s2) = %+v, want none", hours)
	}

	zone, ok, err := db.Timezone(ctx, "s1")
	if err != nil || !ok || zone != "Asia/Kolkata" {
		t.Errorf("Timezone(s1) = %q, %v, %v", zone, ok, err)
	}
	if _, ok, err := db.Timezone(ctx, "s2"); ok || err != nil {
		t.Errorf("Timezone(s2) = %v, %v, want absent", ok, err)
	}
}

func TestSQLite_ImportReplaces(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "source.db")
	db, err := OpenSQLite(ctx, path)
	if err != nil {
		t.Fatalf("OpenSQLite() error = %v", err)
	}
	defer db.Close()

	first := NewDataset()
	first.AddObservation(uptime.Observation{StoreID: "old", Timestamp: time.Unix(0, 0), Status: uptime.StatusUp})
	if _, err := db.Import(ctx, first); err != nil {
		t.Fatalf("Import() error = %v", err)
	}

	second := NewDataset()
	second.AddObservation(uptime.Observation{StoreID: "new", Timestamp: time.Unix(60, 0), Status: uptime.StatusDown})
	if _, err := db.Import(ctx, second); err != nil {
		t.Fatalf("Import() error = %v", err)
	}

	src, err := Open(ctx, Config{Driver: DriverSQLite, Path: path}, quietLogger())
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer src.Close()
	obs, err := src.ListObservations(ctx, "")
	if err != nil {
		t.Fatalf("ListObservations() error = %v", err)
	}
	if len(obs) != 1 || obs[0].StoreID != "new" {
		t.Errorf("observations after reimport = %+v", obs)
	}
}

func TestOpenSQLite_RequiresPath(t *testing.T) {
	if _, err := OpenSQLite(context.Background(), ""); err == nil {
		t.Error("OpenSQLite(\"\") error = nil, want error")
	}
}
