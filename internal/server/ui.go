package server

import (
	"html/template"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/caevv/storewatch/internal/jobs"
	"github.com/caevv/storewatch/internal/logging"
	"github.com/caevv/storewatch/internal/report"
	"github.com/caevv/storewatch/internal/scheduler"
)

// DashboardData holds data for the dashboard template
type DashboardData struct {
	Title     string
	Jobs      []JobSummary
	Schedules []scheduler.EntryStats
	Complete  int
	Failed    int
	Running   int
	Version   string
	Uptime    string
}

// JobDetailData holds data for the job detail template
type JobDetailData struct {
	Title  string
	Job    JobSummary
	Header []string
	Rows   [][]string
}

var (
	dashboardTmpl = template.Must(template.New("dashboard").Funcs(templateFuncs).Parse(pageStyle + dashboardTemplate))
	jobDetailTmpl = template.Must(template.New("jobdetail").Funcs(templateFuncs).Parse(pageStyle + jobDetailTemplate))
)

// handleDashboard serves the main dashboard HTML page
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	data := DashboardData{
		Title:   "storewatch",
		Version: version,
		Uptime:  s.Uptime(),
	}
	for _, job := range s.jobs.List() {
		switch job.State {
		case jobs.StateComplete:
			data.Complete++
		case jobs.StateFailed:
			data.Failed++
		default:
			data.Running++
		}
		if len(data.Jobs) < 50 {
			data.Jobs = append(data.Jobs, s.summarize(job))
		}
	}
	if s.schedules != nil {
		data.Schedules = s.schedules.List()
	}

	s.render(w, r, dashboardTmpl, data)
}

// handleJobDetail serves a job with its report rows
func (s *Server) handleJobDetail(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	job, err := s.jobs.Get(id)
	if err != nil {
		http.Error(w, "Job not found", http.StatusNotFound)
		return
	}

	data := JobDetailData{
		Title:  "Report " + id,
		Job:    s.summarize(job),
		Header: report.Header,
	}
	for _, row := range job.Rows {
		data.Rows = append(data.Rows, report.Fields(row))
	}

	s.render(w, r, jobDetailTmpl, data)
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, tmpl *template.Template, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := tmpl.Execute(w, data); err != nil {
		logging.FromContext(r.Context()).Error("failed to render template", "template", tmpl.Name(), "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

// templateFuncs provides custom template functions
var templateFuncs = template.FuncMap{
	"formatTime": func(t *time.Time) string {
		if t == nil {
			return "N/A"
		}
		return t.Format("2006-01-02 15:04:05")
	},
	"formatDuration": func(ms int64) string {
		return (time.Duration(ms) * time.Millisecond).String()
	},
	"stateBadge": func(state string) template.HTML {
		class := "pill-other"
		switch jobs.State(state) {
		case jobs.StateComplete:
			class = "pill-complete"
		case jobs.StateFailed:
			class = "pill-failed"
		case jobs.StateRunning:
			class = "pill-running"
		}
		return template.HTML(`<span class="pill ` + class + `">` + template.HTMLEscapeString(state) + `</span>`)
	},
	"truncate": func(s string, max int) string {
		if len(s) <= max {
			return s
		}
		return s[:max] + "..."
	},
}

const pageStyle = `{{define "style"}}<style>
    body { margin: 0; font: 14px/1.5 system-ui, sans-serif; background: #f4f6f8; color: #1f2933; }
    header { background: #0f172a; color: #e2e8f0; padding: 16px 0; margin-bottom: 24px; }
    header h1 { margin: 0; font-size: 24px; }
    header small, header a { color: #94a3b8; }
    main, header > div { max-width: 1100px; margin: 0 auto; padding: 0 16px; }
    .tiles { display: flex; gap: 16px; margin-bottom: 24px; }
    .tile, .panel { background: #fff; border: 1px solid #e2e8f0; border-radius: 6px; padding: 16px; }
    .tile { flex: 1; }
    .tile b { display: block; font-size: 28px; }
    .panel { margin-bottom: 24px; }
    .panel h2 { margin: 0 0 12px; font-size: 17px; }
    table { width: 100%; border-collapse: collapse; }
    th, td { text-align: left; padding: 6px 8px; border-bottom: 1px solid #e2e8f0; }
    th { color: #64748b; font-weight: 600; }
    td.num { text-align: right; font-variant-numeric: tabular-nums; }
    .pill { padding: 2px 8px; border-radius: 10px; font-size: 12px; }
    .pill-complete { background: #dcfce7; color: #166534; }
    .pill-failed { background: #fee2e2; color: #991b1b; }
    .pill-running { background: #dbeafe; color: #1e40af; }
    .pill-other { background: #e5e7eb; color: #374151; }
    .muted { color: #64748b; }
    a { color: #0369a1; }
    code { font: 12px monospace; }
</style>{{end}}`

// dashboardTemplate lists recent reports and schedules.
const dashboardTemplate = `<!DOCTYPE html>
<html lang="en">
<head><meta charset="UTF-8"><title>{{.Title}}</title>{{template "style"}}</head>
<body>
<header><div>
  <h1>{{.Title}}</h1>
  <small>version {{.Version}}, up {{.Uptime}}</small>
</div></header>
<main>
  <div class="tiles">
    <div class="tile">Complete<b>{{.Complete}}</b></div>
    <div class="tile">Running<b>{{.Running}}</b></div>
    <div class="tile">Failed<b>{{.Failed}}</b></div>
  </div>
{{if .Schedules}}
  <div class="panel">
    <h2>Schedules</h2>
    <table>
      <tr><th>Name</th><th>Schedule</th><th>Runs</th><th>Next run</th><th>Last error</th></tr>
{{range .Schedules}}      <tr><td>{{.Name}}</td><td><code>{{.Schedule}}</code></td><td class="num">{{.RunCount}}</td><td>{{.NextRun.Format "2006-01-02 15:04:05"}}</td><td>{{.LastError}}</td></tr>
{{end}}    </table>
  </div>
{{end}}
  <div class="panel">
    <h2>Reports ({{len .Jobs}})</h2>
{{if .Jobs}}    <table>
      <tr><th>Report</th><th>State</th><th>Created</th><th>Took</th><th>Stores</th><th>Skipped</th><th></th></tr>
{{range .Jobs}}      <tr>
        <td><a href="/jobs/{{.ID}}"><code>{{truncate .ID 13}}</code></a></td>
        <td>{{stateBadge .State}}</td>
        <td>{{.CreatedAt.Format "2006-01-02 15:04:05"}}</td>
        <td>{{formatDuration .DurationMs}}</td>
        <td class="num">{{.Rows}}</td>
        <td class="num">{{.Skipped}}</td>
        <td>{{if .ReportURL}}<a href="{{.ReportURL}}">csv</a>{{else}}<span class="muted">{{truncate .Error 60}}</span>{{end}}</td>
      </tr>
{{end}}    </table>
{{else}}    <p class="muted">No reports yet</p>
{{end}}  </div>
</main>
</body>
</html>`

// jobDetailTemplate shows one report with its rows.
const jobDetailTemplate = `<!DOCTYPE html>
<html lang="en">
<head><meta charset="UTF-8"><title>{{.Title}}</title>{{template "style"}}</head>
<body>
<header><div>
  <a href="/">&larr; all reports</a>
  <h1>{{.Title}}</h1>
  <small>{{stateBadge .Job.State}} created {{.Job.CreatedAt.Format "2006-01-02 15:04:05"}},
    finished {{formatTime .Job.FinishedAt}}, windows end {{formatTime .Job.EvaluatedAt}}</small>
</div></header>
<main>
{{if .Job.Error}}  <div class="panel"><h2>Error</h2><code>{{.Job.Error}}</code></div>
{{end}}  <div class="panel">
    <h2>Stores ({{len .Rows}})</h2>
{{if .Rows}}    <table>
      <tr>{{range .Header}}<th>{{.}}</th>{{end}}</tr>
{{range .Rows}}      <tr>{{range $i, $v := .}}<td{{if $i}} class="num"{{end}}>{{$v}}</td>{{end}}</tr>
{{end}}    </table>
{{else}}    <p class="muted">No rows</p>
{{end}}  </div>
</main>
</body>
</html>`
