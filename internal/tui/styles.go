// Package tui provides a terminal dashboard over report jobs.
package tui

import (
	"github.com/charmbracelet/lipgloss"
)

var (
	colorAccent = lipgloss.Color("#0EA5E9")
	colorUp     = lipgloss.Color("#10B981")
	colorDown   = lipgloss.Color("#EF4444")
	colorBusy   = lipgloss.Color("#3B82F6")
	colorDim    = lipgloss.Color("#6B7280")
	colorEdge   = lipgloss.Color("#374151")
	colorCursor = lipgloss.Color("#38BDF8")
)

// panel is the rounded box every section sits in.
func panel(padV, padH int) lipgloss.Style {
	return lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(colorEdge).
		Padding(padV, padH)
}

func bold(c lipgloss.Color) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(c).Bold(true)
}

var (
	headerStyle = bold(colorAccent).
			BorderStyle(lipgloss.NormalBorder()).
			BorderBottom(true).
			BorderForeground(colorEdge).
			Padding(0, 1).
			MarginBottom(1)
	titleStyle    = bold(colorAccent).Padding(0, 1)
	subtitleStyle = lipgloss.NewStyle().Foreground(colorDim).Padding(0, 1)

	statusBarStyle = lipgloss.NewStyle().
			Foreground(colorDim).
			Background(lipgloss.Color("#1F2937")).
			Padding(0, 1).
			MarginTop(1)

	panelStyle      = panel(1, 2).MarginBottom(1)
	statsPanelStyle = panel(0, 2).MarginBottom(1)
	rowsPanelStyle  = panel(1, 2)

	rowStyle         = lipgloss.NewStyle().Padding(0, 1)
	selectedRowStyle = bold(colorCursor).Padding(0, 1)

	statusRunningStyle = bold(colorBusy)
	statusSuccessStyle = bold(colorUp)
	statusErrorStyle   = bold(colorDown)
	statusIdleStyle    = lipgloss.NewStyle().Foreground(colorDim)

	keyStyle      = lipgloss.NewStyle().Foreground(colorDim)
	valueStyle    = lipgloss.NewStyle().Bold(true)
	durationStyle = lipgloss.NewStyle().Foreground(colorBusy)
)

const (
	iconRunning = "⟳"
	iconSuccess = "✓"
	iconError   = "✗"
	iconPending = "◌"
	iconArrow   = ">"
)
