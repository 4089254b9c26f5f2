package store

import (
	"fmt"
	"sort"
	"sync"
)

// MemoryStore keeps job records for the lifetime of the process only.
type MemoryStore struct {
	mu   sync.RWMutex
	jobs map[string]JobRecord
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{jobs: make(map[string]JobRecord)}
}

func (s *MemoryStore) SaveJob(rec *JobRecord) error {
	if err := validateRecord(rec); err != nil {
		return err
	}
	s.mu.Lock()
	s.jobs[rec.JobID] = *rec
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) GetJob(jobID string) (*JobRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.jobs[jobID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, jobID)
	}
	return &rec, nil
}

func (s *MemoryStore) ListJobs(limit int) ([]*JobRecord, error) {
	s.mu.RLock()
	recs := make([]*JobRecord, 0, len(s.jobs))
	for _, rec := range s.jobs {
		rec := rec
		recs = append(recs, &rec)
	}
	s.mu.RUnlock()
	return newestFirst(recs, limit), nil
}

func (s *MemoryStore) Close() error { return nil }

// newestFirst sorts by CreatedAt descending, breaking ties on job ID, and
// applies limit when positive.
func newestFirst(recs []*JobRecord, limit int) []*JobRecord {
	sort.Slice(recs, func(i, j int) bool {
		if !recs[i].CreatedAt.Equal(recs[j].CreatedAt) {
			return recs[i].CreatedAt.After(recs[j].CreatedAt)
		}
		return recs[i].JobID < recs[j].JobID
	})
	if limit > 0 && len(recs) > limit {
		recs = recs[:limit]
	}
	return recs
}
