package server

import (
	"net/url"
	"time"

	"github.com/caevv/storewatch/internal/jobs"
)

// reportURL is where a complete job's artifact can be downloaded.
func (s *Server) reportURL(id string) string {
	return s.baseURL + "/api/reports/" + url.PathEscape(id)
}

// summarize converts a job snapshot into its API representation.
func (s *Server) summarize(job jobs.Job) JobSummary {
	summary := JobSummary{
		ID:         job.ID,
		State:      string(job.State),
		CreatedAt:  job.CreatedAt,
		DurationMs: job.Duration().Milliseconds(),
		Stores:     job.Stats.Stores,
		Rows:       len(job.Rows),
		Skipped:    job.Stats.Skipped,
		Error:      job.Error,
	}
	summary.FinishedAt = timePtr(job.FinishedAt)
	summary.EvaluatedAt = timePtr(job.Stats.EvaluatedAt)
	if job.State == jobs.StateComplete {
		summary.ReportURL = s.reportURL(job.ID)
	}
	return summary
}

func timePtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
