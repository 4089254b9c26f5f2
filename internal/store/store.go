// Package store persists report job records so that finished reports survive
// a restart.
package store

import (
	"errors"
	"time"

	"github.com/caevv/storewatch/internal/uptime"
)

// ErrNotFound is returned when a job record does not exist.
var ErrNotFound = errors.New("job record not found")

// Store defines the interface for persisting and retrieving report jobs.
type Store interface {
	// SaveJob inserts or replaces a job record.
	SaveJob(rec *JobRecord) error

	// GetJob retrieves a job record by its ID.
	GetJob(jobID string) (*JobRecord, error)

	// ListJobs retrieves the most recent job records, ordered by CreatedAt
	// descending (newest first). A non-positive limit returns all records.
	ListJobs(limit int) ([]*JobRecord, error)

	// Close releases any resources held by the store.
	Close() error
}

// JobRecord is the persisted form of a report job.
type JobRecord struct {
	// JobID is the opaque identifier handed out on trigger.
	JobID string `json:"job_id"`

	// State is one of Running, Complete or Failed.
	State string `json:"state"`

	CreatedAt  time.Time `json:"created_at"`
	FinishedAt time.Time `json:"finished_at,omitempty"`

	// Error holds the failure message of a Failed job.
	Error string `json:"error,omitempty"`

	// EvaluatedAt is the instant the report windows were anchored to.
	EvaluatedAt time.Time `json:"evaluated_at,omitempty"`
	Stores      int       `json:"stores"`
	Skipped     int       `json:"skipped"`

	// Rows is the result of a Complete job.
	Rows []uptime.Row `json:"rows,omitempty"`
}

// Duration returns the time taken by the job, or zero while it is running.
func (r *JobRecord) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.CreatedAt)
}

// IsRunning returns true if the job has not reached a terminal state.
func (r *JobRecord) IsRunning() bool {
	return r.FinishedAt.IsZero()
}

func validateRecord(rec *JobRecord) error {
	if rec == nil {
		return errors.New("job record is nil")
	}
	if rec.JobID == "" {
		return errors.New("job_id is required")
	}
	if rec.State == "" {
		return errors.New("state is required")
	}
	return nil
}
