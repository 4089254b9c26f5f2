// Package jobs owns the asynchronous lifecycle of report computations:
// trigger, background execution, polling and fetching of the finished
// artifact.
package jobs

import (
	"errors"
	"fmt"
	"time"

	"github.com/caevv/storewatch/internal/uptime"
)

// State is the lifecycle state of a job.
type State string

const (
	StateRunning  State = "Running"
	StateComplete State = "Complete"
	StateFailed   State = "Failed"
)

// Terminal reports whether no further transitions can happen.
func (s State) Terminal() bool {
	return s == StateComplete || s == StateFailed
}

// Job is a snapshot of one report computation.
type Job struct {
	ID         string
	State      State
	CreatedAt  time.Time
	FinishedAt time.Time
	// Error is the failure message of a Failed job.
	Error string
	// Rows and Report are set together when the job completes and never
	// change afterwards.
	Rows   []uptime.Row
	Report []byte
	Stats  Stats
}

// Stats describes the aggregation behind a finished job.
type Stats struct {
	// EvaluatedAt is the instant the trailing windows end at.
	EvaluatedAt time.Time
	Stores      int
	Skipped     int
}

// Duration returns how long the job ran, or zero while it is running.
func (j Job) Duration() time.Duration {
	if j.FinishedAt.IsZero() {
		return 0
	}
	return j.FinishedAt.Sub(j.CreatedAt)
}

// Status is the answer to a poll.
type Status struct {
	State State
	Error string
}

var (
	// ErrNotFound matches NotFoundError.
	ErrNotFound = errors.New("job not found")
	// ErrClosed is returned by Trigger after Shutdown.
	ErrClosed = errors.New("job manager is shut down")
	// ErrTimeout marks a computation that exceeded the configured timeout.
	ErrTimeout = errors.New("computation timed out")
	// ErrCanceled marks a computation interrupted by shutdown.
	ErrCanceled = errors.New("computation canceled")
)

// NotFoundError is returned for an unknown job identifier.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("job %s not found", e.ID)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// StateError is returned when fetching the report of a job that is not
// Complete.
type StateError struct {
	ID    string
	State State
}

func (e *StateError) Error() string {
	return fmt.Sprintf("job %s is %s, not %s", e.ID, e.State, StateComplete)
}

// ComputationError is the failure recorded on a Failed job.
type ComputationError struct {
	ID  string
	Err error
}

func (e *ComputationError) Error() string {
	return fmt.Sprintf("job %s failed: %v", e.ID, e.Err)
}

func (e *ComputationError) Unwrap() error {
	return e.Err
}
