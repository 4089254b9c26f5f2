package store

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"sync"
)

// JSONStore implements the Store interface using a simple JSON file.
// All records are kept in memory and persisted to disk on each write.
type JSONStore struct {
	path string
	jobs map[string]*JobRecord // indexed by job_id
	mu   sync.RWMutex
}

// jsonPersistence is the on-disk format for the JSON store.
type jsonPersistence struct {
	Jobs []*JobRecord `json:"jobs"`
}

// NewJSONStore creates a new JSON file-backed store at the given path.
func NewJSONStore(path string) (Store, error) {
	s := &JSONStore{
		path: path,
		jobs: make(map[string]*JobRecord),
	}

	if _, err := os.Stat(path); err == nil {
		if err := s.load(); err != nil {
			return nil, fmt.Errorf("load existing data: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("stat file: %w", err)
	}

	return s, nil
}

func (s *JSONStore) load() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return fmt.Errorf("read file: %w", err)
	}

	var persist jsonPersistence
	if err := json.Unmarshal(data, &persist); err != nil {
		return fmt.Errorf("unmarshal json: %w", err)
	}

	for _, rec := range persist.Jobs {
		s.jobs[rec.JobID] = rec
	}
	return nil
}

// save writes every record to the file, sorted by job ID so that the file
// content does not depend on map iteration order.
func (s *JSONStore) save() error {
	recs := make([]*JobRecord, 0, len(s.jobs))
	for _, rec := range s.jobs {
		recs = append(recs, rec)
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].JobID < recs[j].JobID })

	data, err := json.MarshalIndent(jsonPersistence{Jobs: recs}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}

	// Write to temp file first, then rename (atomic on POSIX)
	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o600); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}

// SaveJob persists a job record.
func (s *JSONStore) SaveJob(rec *JobRecord) error {
	if err := validateRecord(rec); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	copied := *rec
	s.jobs[rec.JobID] = &copied
	return s.save()
}

// GetJob retrieves a job record by its ID.
func (s *JSONStore) GetJob(jobID string) (*JobRecord, error) {
	if jobID == "" {
		return nil, fmt.Errorf("job_id is required")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.jobs[jobID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, jobID)
	}
	copied := *rec
	return &copied, nil
}

// ListJobs retrieves the most recent job records.
func (s *JSONStore) ListJobs(limit int) ([]*JobRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	recs := make([]*JobRecord, 0, len(s.jobs))
	for _, rec := range s.jobs {
		copied := *rec
		recs = append(recs, &copied)
	}
	return newestFirst(recs, limit), nil
}

// Close is a no-op: the JSON store holds no open file handles.
func (s *JSONStore) Close() error {
	return nil
}
