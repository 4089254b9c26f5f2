package tui

import (
	"log/slog"

	tea "github.com/charmbracelet/bubbletea"
)

// Update handles incoming messages and updates the model state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tickMsg:
		m.refreshData()
		return m, tickCmd()

	case triggeredMsg:
		if msg.err != nil {
			m.errorMessage = msg.err.Error()
			m.logger.Error("report trigger failed", slog.String("error", msg.err.Error()))
			return m, nil
		}
		m.errorMessage = ""
		m.notice = "triggered report " + msg.id
		m.refreshData()
		return m, nil

	case error:
		m.errorMessage = msg.Error()
		return m, nil
	}

	return m, nil
}

// handleKeyPress processes keyboard input.
func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		m.quitting = true
		return m, tea.Quit

	case "esc":
		if m.viewMode == ViewModeDetail {
			m.viewMode = ViewModeList
		}
		return m, nil

	case "enter":
		if m.viewMode == ViewModeList {
			m.openDetail()
		}
		return m, nil

	case "t":
		return m, m.triggerCmd()

	case "up", "k":
		switch {
		case m.viewMode == ViewModeDetail && m.detailOffset > 0:
			m.detailOffset--
		case m.viewMode == ViewModeList && m.selected > 0:
			m.selected--
		}
		return m, nil

	case "down", "j":
		switch {
		case m.viewMode == ViewModeDetail && m.detailOffset < len(m.detail.Rows)-detailPageSize:
			m.detailOffset++
		case m.viewMode == ViewModeList && m.selected < len(m.list)-1:
			m.selected++
		}
		return m, nil

	case "g":
		if m.viewMode == ViewModeList {
			m.selected = 0
		} else {
			m.detailOffset = 0
		}
		return m, nil

	case "G":
		if m.viewMode == ViewModeList && len(m.list) > 0 {
			m.selected = len(m.list) - 1
		} else if m.viewMode == ViewModeDetail {
			m.detailOffset = max(len(m.detail.Rows)-detailPageSize, 0)
		}
		return m, nil

	case "r":
		m.refreshData()
		return m, nil
	}

	return m, nil
}
