package scheduler

import (
	"context"
	"time"
)

// Trigger starts a report run. It should return quickly; the report itself
// is computed elsewhere.
type Trigger interface {
	Trigger(ctx context.Context) (string, error)
}

// TriggerFunc adapts a function to the Trigger interface.
type TriggerFunc func(ctx context.Context) (string, error)

// Trigger calls f(ctx).
func (f TriggerFunc) Trigger(ctx context.Context) (string, error) {
	return f(ctx)
}

// EntryStats reports the activity of one scheduled entry.
type EntryStats struct {
	Name      string    `json:"name"`
	Schedule  string    `json:"schedule"`
	LastRun   time.Time `json:"last_run"`
	NextRun   time.Time `json:"next_run"`
	RunCount  int64     `json:"run_count"`
	LastJobID string    `json:"last_job_id,omitempty"`
	LastError string    `json:"last_error,omitempty"`
}
