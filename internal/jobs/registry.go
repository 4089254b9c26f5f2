package jobs

import (
	"bytes"
	"slices"
	"sort"
	"sync"
)

// entry guards a single job. Readers always see a complete transition because
// state, rows, report and error are written under the same lock.
type entry struct {
	mu   sync.RWMutex
	job  Job
	done chan struct{}
}

func newEntry(job Job) *entry {
	e := &entry{job: job, done: make(chan struct{})}
	if job.State.Terminal() {
		close(e.done)
	}
	return e
}

// snapshot copies the job so callers cannot reach the stored artifact.
func (e *entry) snapshot() Job {
	e.mu.RLock()
	defer e.mu.RUnlock()
	job := e.job
	job.Rows = slices.Clone(job.Rows)
	job.Report = bytes.Clone(job.Report)
	return job
}

// finish applies a terminal transition. It returns false if the job had
// already finished. Waiters are woken by release.
func (e *entry) finish(update func(*Job)) (Job, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.job.State.Terminal() {
		return e.job, false
	}
	update(&e.job)
	return e.job, true
}

func (e *entry) release() {
	close(e.done)
}

// Registry maps job identifiers to jobs. Lookups are lock-free and every job
// carries its own lock, so unrelated jobs never contend.
type Registry struct {
	entries sync.Map // job ID -> *entry
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// add registers job unless the ID is already taken.
func (r *Registry) add(job Job) (*entry, bool) {
	e := newEntry(job)
	actual, loaded := r.entries.LoadOrStore(job.ID, e)
	return actual.(*entry), !loaded
}

func (r *Registry) lookup(id string) (*entry, bool) {
	v, ok := r.entries.Load(id)
	if !ok {
		return nil, false
	}
	return v.(*entry), true
}

// Get returns a snapshot of the job with the given ID.
func (r *Registry) Get(id string) (Job, bool) {
	e, ok := r.lookup(id)
	if !ok {
		return Job{}, false
	}
	return e.snapshot(), true
}

// All returns snapshots of every job, newest first.
func (r *Registry) All() []Job {
	var jobs []Job
	r.entries.Range(func(_, v any) bool {
		jobs = append(jobs, v.(*entry).snapshot())
		return true
	})
	sort.Slice(jobs, func(i, j int) bool {
		if !jobs[i].CreatedAt.Equal(jobs[j].CreatedAt) {
			return jobs[i].CreatedAt.After(jobs[j].CreatedAt)
		}
		return jobs[i].ID < jobs[j].ID
	})
	return jobs
}
