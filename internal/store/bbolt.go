package store

import (
	"encoding/json"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"
)

// jobsBucket holds one JSON-encoded JobRecord per job ID.
const jobsBucket = "jobs"

// BoltStore implements the Store interface using BoltDB.
type BoltStore struct {
	db *bolt.DB
}

// NewBoltStore creates a new BoltDB-backed store at the given path.
func NewBoltStore(path string) (Store, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open boltdb at %s: %w", path, err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists([]byte(jobsBucket)); err != nil {
			return fmt.Errorf("create jobs bucket: %w", err)
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &BoltStore{db: db}, nil
}

// SaveJob persists a job record, replacing any previous version.
func (s *BoltStore) SaveJob(rec *JobRecord) error {
	if err := validateRecord(rec); err != nil {
		return err
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal job: %w", err)
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		if err := tx.Bucket([]byte(jobsBucket)).Put([]byte(rec.JobID), data); err != nil {
			return fmt.Errorf("put job %s: %w", rec.JobID, err)
		}
		return nil
	})
}

// GetJob retrieves a job record by its ID.
func (s *BoltStore) GetJob(jobID string) (*JobRecord, error) {
	if jobID == "" {
		return nil, fmt.Errorf("job_id is required")
	}

	var rec *JobRecord
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket([]byte(jobsBucket)).Get([]byte(jobID))
		if data == nil {
			return fmt.Errorf("%w: %s", ErrNotFound, jobID)
		}

		rec = &JobRecord{}
		if err := json.Unmarshal(data, rec); err != nil {
			return fmt.Errorf("unmarshal job %s: %w", jobID, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return rec, nil
}

// ListJobs retrieves the most recent job records.
func (s *BoltStore) ListJobs(limit int) ([]*JobRecord, error) {
	var recs []*JobRecord

	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(jobsBucket)).ForEach(func(k, v []byte) error {
			rec := &JobRecord{}
			if err := json.Unmarshal(v, rec); err != nil {
				return fmt.Errorf("unmarshal job %s: %w", string(k), err)
			}
			recs = append(recs, rec)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	return newestFirst(recs, limit), nil
}

// Close releases resources held by the store.
func (s *BoltStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
