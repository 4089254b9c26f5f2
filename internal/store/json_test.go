package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func TestNewJSONStore(t *testing.T) {
	store, err := NewJSONStore(filepath.Join(t.TempDir(), "test.json"))
	if err != nil {
		t.Fatalf("NewJSONStore() error = %v", err)
	}
	defer store.Close()

	recs, err := store.ListJobs(0)
	if err != nil {
		t.Fatalf("ListJobs() error = %v", err)
	}
	if len(recs) != 0 {
		t.Errorf("new store has %d records, want 0", len(recs))
	}
}

func TestJSONStore_Persistence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.json")

	store, err := NewJSONStore(path)
	if err != nil {
		t.Fatalf("NewJSONStore() error = %v", err)
	}
	rec := sampleRecord("job-1", time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC))
	if err := store.SaveJob(rec); err != nil {
		t.Fatalf("SaveJob() error = %v", err)
	}

	if _, err := os.Stat(path); err != nil {
		t.Fatalf("JSON file not written: %v", err)
	}

	reloaded, err := NewJSONStore(path)
	if err != nil {
		t.Fatalf("NewJSONStore() reload error = %v", err)
	}
	got, err := reloaded.GetJob("job-1")
	if err != nil {
		t.Fatalf("GetJob() error = %v", err)
	}
	if got.Stores != rec.Stores || len(got.Rows) != 1 {
		t.Errorf("reloaded record = %+v, want %+v", got, rec)
	}
}

func TestJSONStore_GetJobNotFound(t *testing.T) {
	store, err := NewJSONStore(filepath.Join(t.TempDir(), "test.json"))
	if err != nil {
		t.Fatalf("NewJSONStore() error = %v", err)
	}
	if _, err := store.GetJob("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetJob() error = %v, want ErrNotFound", err)
	}
}

func TestJSONStore_ReturnsCopies(t *testing.T) {
	store, err := NewJSONStore(filepath.Join(t.TempDir(), "test.json"))
	if err != nil {
		t.Fatalf("NewJSONStore() error = %v", err)
	}
	rec := sampleRecord("job-1", time.Now())
	if err := store.SaveJob(rec); err != nil {
		t.Fatalf("SaveJob() error = %v", err)
	}

	rec.State = "Failed"
	got, _ := store.GetJob("job-1")
	if got.State != "Complete" {
		t.Errorf("stored State changed to %q through the caller's pointer", got.State)
	}
}

func TestJSONStore_ConcurrentAccess(t *testing.T) {
	store, err := NewJSONStore(filepath.Join(t.TempDir(), "test.json"))
	if err != nil {
		t.Fatalf("NewJSONStore() error = %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("job-%d", i)
			if err := store.SaveJob(sampleRecord(id, time.Now())); err != nil {
				t.Errorf("SaveJob(%s) error = %v", id, err)
			}
			if _, err := store.ListJobs(5); err != nil {
				t.Errorf("ListJobs() error = %v", err)
			}
		}(i)
	}
	wg.Wait()

	recs, err := store.ListJobs(0)
	if err != nil {
		t.Fatalf("ListJobs() error = %v", err)
	}
	if len(recs) != 10 {
		t.Errorf("len(ListJobs()) = %d, want 10", len(recs))
	}
}

func TestNewJSONStore_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := NewJSONStore(path); err == nil {
		t.Error("NewJSONStore() error = nil for corrupt file")
	}
}

func TestNewStore(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		driver  string
		path    string
		wantErr bool
	}{
		{driver: "bbolt", path: filepath.Join(dir, "a.db")},
		{driver: "JSON", path: filepath.Join(dir, "a.json")},
		{driver: "memory"},
		{driver: "bbolt", path: "", wantErr: true},
		{driver: "sqlite", path: filepath.Join(dir, "a.sqlite"), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.driver, func(t *testing.T) {
			st, err := NewStore(tt.driver, tt.path)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewStore(%q) error = %v, wantErr %v", tt.driver, err, tt.wantErr)
			}
			if st != nil {
				st.Close()
			}
		})
	}
}

func TestMemoryStore(t *testing.T) {
	st := NewMemoryStore()
	if err := st.SaveJob(sampleRecord("job-1", time.Now())); err != nil {
		t.Fatalf("SaveJob() error = %v", err)
	}
	if _, err := st.GetJob("job-1"); err != nil {
		t.Errorf("GetJob() error = %v", err)
	}
	if _, err := st.GetJob("job-2"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetJob(missing) error = %v, want ErrNotFound", err)
	}
}
