package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/caevv/storewatch/internal/jobs"
	"github.com/caevv/storewatch/internal/logging"
	"github.com/caevv/storewatch/internal/report"
)

const (
	version      = "v0.1.0"
	defaultLimit = 100
	maxLimit     = 1000
)

// handleHealth returns the health status of the server
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	running := 0
	for _, job := range s.jobs.List() {
		if job.State == jobs.StateRunning {
			running++
		}
	}

	s.writeJSON(w, r, http.StatusOK, HealthResponse{
		Status:  "ok",
		Version: version,
		Uptime:  s.Uptime(),
		Running: running,
	})
}

// handleTriggerReport starts a report job and returns its ID without waiting.
func (s *Server) handleTriggerReport(w http.ResponseWriter, r *http.Request) {
	id, err := s.jobs.Trigger()
	if err != nil {
		if errors.Is(err, jobs.ErrClosed) {
			s.writeError(w, r, http.StatusServiceUnavailable, "server is shutting down", err)
			return
		}
		s.writeError(w, r, http.StatusInternalServerError, "failed to trigger report", err)
		return
	}

	s.writeJSON(w, r, http.StatusOK, TriggerResponse{ReportID: id})
}

// handleGetReport reports the state of a job. A complete job carries the URL
// of its artifact; a failed job answers 500 with the failure message.
func (s *Server) handleGetReport(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	status, err := s.jobs.Poll(id)
	if err != nil {
		s.writeJobError(w, r, err)
		return
	}

	switch status.State {
	case jobs.StateComplete:
		s.writeJSON(w, r, http.StatusOK, ReportStatusResponse{
			Status:    string(status.State),
			ReportURL: s.reportURL(id),
		})
	case jobs.StateFailed:
		s.writeJSON(w, r, http.StatusInternalServerError, ReportStatusResponse{
			Status: string(status.State),
			Error:  status.Error,
		})
	default:
		s.writeJSON(w, r, http.StatusOK, ReportStatusResponse{Status: string(status.State)})
	}
}

// handleDownloadReport serves the CSV artifact of a complete job.
func (s *Server) handleDownloadReport(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	artifact, err := s.jobs.Fetch(id)
	if err != nil {
		s.writeJobError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", report.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="report-`+id+`.csv"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(artifact)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(artifact); err != nil {
		logging.FromContext(r.Context()).Warn("failed to write report", "job_id", id, "error", err)
	}
}

// handleListJobs returns recent report jobs, newest first.
func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	all := s.jobs.List()
	limit := parseLimitParam(r)
	if len(all) > limit {
		all = all[:limit]
	}

	summaries := make([]JobSummary, len(all))
	for i, job := range all {
		summaries[i] = s.summarize(job)
	}
	s.writeJSON(w, r, http.StatusOK, summaries)
}

// handleGetJob returns a specific report job.
func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	job, err := s.jobs.Get(chi.URLParam(r, "id"))
	if err != nil {
		s.writeJobError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, s.summarize(job))
}

// handleListSchedules returns the periodic report triggers.
func (s *Server) handleListSchedules(w http.ResponseWriter, r *http.Request) {
	if s.schedules == nil {
		s.writeJSON(w, r, http.StatusOK, []any{})
		return
	}
	s.writeJSON(w, r, http.StatusOK, s.schedules.List())
}

// parseLimitParam parses the limit query parameter
func parseLimitParam(r *http.Request) int {
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit <= 0 {
		return defaultLimit
	}
	if limit > maxLimit {
		return maxLimit
	}
	return limit
}

// writeJobError maps job manager errors onto HTTP statuses.
func (s *Server) writeJobError(w http.ResponseWriter, r *http.Request, err error) {
	var stateErr *jobs.StateError
	switch {
	case errors.Is(err, jobs.ErrNotFound):
		s.writeError(w, r, http.StatusNotFound, err.Error(), nil)
	case errors.As(err, &stateErr):
		s.writeError(w, r, http.StatusConflict, err.Error(), nil)
	default:
		s.writeError(w, r, http.StatusInternalServerError, "internal error", err)
	}
}

// writeJSON writes a JSON response
func (s *Server) writeJSON(w http.ResponseWriter, r *http.Request, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		logging.FromContext(r.Context()).Error("failed to encode JSON response", "error", err)
	}
}

// writeError writes a JSON error response
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, status int, message string, err error) {
	response := ErrorResponse{
		Error:   http.StatusText(status),
		Message: message,
		Code:    status,
	}

	if err != nil {
		logging.FromContext(r.Context()).Error("API error", "status", status, "message", message, "error", err)
	}

	s.writeJSON(w, r, status, response)
}
