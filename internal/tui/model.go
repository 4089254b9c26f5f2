package tui

import (
	"log/slog"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/caevv/storewatch/internal/jobs"
	"github.com/caevv/storewatch/internal/scheduler"
)

// ViewMode represents the current view in the TUI.
type ViewMode int

const (
	ViewModeList ViewMode = iota
	ViewModeDetail
)

// detailPageSize is the number of store rows shown at once in the detail view.
const detailPageSize = 15

// Jobs is the job manager surface the dashboard drives.
type Jobs interface {
	Trigger() (string, error)
	Get(id string) (jobs.Job, error)
	List() []jobs.Job
}

// Schedules reports periodic triggers. Optional.
type Schedules interface {
	List() []scheduler.EntryStats
}

// Model holds the state for the TUI.
type Model struct {
	jobs      Jobs
	schedules Schedules
	logger    *slog.Logger

	// UI state
	viewMode     ViewMode
	list         []jobs.Job
	selected     int
	detail       jobs.Job
	detailOffset int
	width        int
	height       int
	lastUpdate   time.Time
	quitting     bool
	errorMessage string
	notice       string

	// Stats
	running  int
	complete int
	failed   int
	nextRun  time.Time
}

// New creates a new TUI model.
func New(j Jobs, schedules Schedules, logger *slog.Logger) Model {
	if logger == nil {
		logger = slog.Default()
	}
	return Model{
		jobs:       j,
		schedules:  schedules,
		logger:     logger,
		lastUpdate: time.Now(),
	}
}

// Init initializes the model (required by Bubbletea).
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		tickCmd(),
		tea.EnterAltScreen,
	)
}

// tickMsg is sent on a regular interval to refresh the UI.
type tickMsg time.Time

// tickCmd returns a command that sends a tick message every second.
func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// triggeredMsg reports the outcome of a trigger request.
type triggeredMsg struct {
	id  string
	err error
}

func (m Model) triggerCmd() tea.Cmd {
	return func() tea.Msg {
		id, err := m.jobs.Trigger()
		return triggeredMsg{id: id, err: err}
	}
}

// refreshData loads the latest jobs from the manager.
func (m *Model) refreshData() {
	m.list = m.jobs.List()
	m.running, m.complete, m.failed = 0, 0, 0
	for _, job := range m.list {
		switch job.State {
		case jobs.StateRunning:
			m.running++
		case jobs.StateComplete:
			m.complete++
		case jobs.StateFailed:
			m.failed++
		}
	}
	if m.selected >= len(m.list) {
		m.selected = max(len(m.list)-1, 0)
	}

	m.nextRun = time.Time{}
	if m.schedules != nil {
		for _, entry := range m.schedules.List() {
			if m.nextRun.IsZero() || (!entry.NextRun.IsZero() && entry.NextRun.Before(m.nextRun)) {
				m.nextRun = entry.NextRun
			}
		}
	}

	if m.viewMode == ViewModeDetail {
		if job, err := m.jobs.Get(m.detail.ID); err == nil {
			m.detail = job
		}
	}

	m.lastUpdate = time.Now()
}

// openDetail switches to the detail view for the selected job.
func (m *Model) openDetail() {
	if m.selected >= len(m.list) {
		return
	}
	job, err := m.jobs.Get(m.list[m.selected].ID)
	if err != nil {
		m.errorMessage = err.Error()
		return
	}
	m.detail = job
	m.detailOffset = 0
	m.viewMode = ViewModeDetail
}

// Quitting returns true if the user has requested to quit.
func (m Model) Quitting() bool {
	return m.quitting
}
