package server

import "time"

// TriggerResponse is returned by POST /api/trigger_report.
type TriggerResponse struct {
	ReportID string `json:"report_id"`
}

// ReportStatusResponse is returned by GET /api/get_report/{id}.
type ReportStatusResponse struct {
	Status    string `json:"status"`
	ReportURL string `json:"report_url,omitempty"`
	Error     string `json:"error,omitempty"`
}

// JobSummary describes a report job in listings.
type JobSummary struct {
	ID          string     `json:"id"`
	State       string     `json:"state"`
	CreatedAt   time.Time  `json:"created_at"`
	FinishedAt  *time.Time `json:"finished_at,omitempty"`
	DurationMs  int64      `json:"duration_ms"`
	EvaluatedAt *time.Time `json:"evaluated_at,omitempty"`
	Stores      int        `json:"stores"`
	Rows        int        `json:"rows"`
	Skipped     int        `json:"skipped"`
	Error       string     `json:"error,omitempty"`
	ReportURL   string     `json:"report_url,omitempty"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Uptime  string `json:"uptime"`
	Running int    `json:"running_jobs"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Code    int    `json:"code"`
}
