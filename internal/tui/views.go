package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/caevv/storewatch/internal/jobs"
	"github.com/caevv/storewatch/internal/report"
)

// View renders the UI.
func (m Model) View() string {
	if m.quitting {
		return "Shutting down...\n"
	}

	if m.viewMode == ViewModeDetail {
		return m.renderDetailView()
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		m.renderHeader("storewatch"),
		m.renderStats(),
		m.renderJobList(),
		m.renderHelpBar("q: quit  │  ↑/↓: navigate  │  enter: details  │  t: trigger  │  r: refresh"),
	)
}

// renderHeader renders the dashboard header.
func (m Model) renderHeader(title string) string {
	subtitle := subtitleStyle.Render(fmt.Sprintf("Last updated: %s", m.lastUpdate.Format("15:04:05")))
	header := lipgloss.JoinHorizontal(lipgloss.Top, titleStyle.Render(title), "  ", subtitle)
	return headerStyle.Render(header)
}

// renderStats renders the statistics bar.
func (m Model) renderStats() string {
	stats := []string{
		fmt.Sprintf("%s %d", keyStyle.Render("Reports:"), len(m.list)),
		fmt.Sprintf("%s %d", keyStyle.Render("Running:"), m.running),
		fmt.Sprintf("%s %d", keyStyle.Render("Complete:"), m.complete),
		fmt.Sprintf("%s %d", keyStyle.Render("Failed:"), m.failed),
	}
	if !m.nextRun.IsZero() {
		stats = append(stats, fmt.Sprintf("%s %s", keyStyle.Render("Next scheduled:"), formatTimeFromNow(m.nextRun)))
	}
	return statsPanelStyle.Render(strings.Join(stats, "  │  "))
}

// renderJobList renders the list of report jobs.
func (m Model) renderJobList() string {
	if len(m.list) == 0 {
		return panelStyle.Render(subtitleStyle.Render("No reports yet, press t to trigger one"))
	}

	rows := []string{
		titleStyle.Render("Reports"),
		"",
		keyStyle.Render(fmt.Sprintf("   %-36s  %-10s  %-8s  %-7s  %-7s  %s",
			"Report ID", "State", "Created", "Time", "Stores", "Skipped")),
		keyStyle.Render(strings.Repeat("─", 90)),
	}
	for i, job := range m.list {
		rows = append(rows, m.renderJobRow(job, i == m.selected))
	}
	return panelStyle.Render(strings.Join(rows, "\n"))
}

// renderJobRow renders a single job row.
func (m Model) renderJobRow(job jobs.Job, selected bool) string {
	cursor := " "
	if selected {
		cursor = iconArrow
	}

	duration := "-"
	if !job.FinishedAt.IsZero() {
		duration = formatDuration(job.Duration())
	}

	row := fmt.Sprintf("%s  %-36s  %s  %-8s  %s  %-7d  %d",
		cursor,
		truncate(job.ID, 36),
		renderState(job.State),
		job.CreatedAt.Format("15:04:05"),
		durationStyle.Render(padRight(duration, 7)),
		len(job.Rows),
		job.Stats.Skipped,
	)

	if selected {
		return selectedRowStyle.Render(row)
	}
	return rowStyle.Render(row)
}

// renderState renders a state with its icon, padded to a fixed width.
func renderState(state jobs.State) string {
	switch state {
	case jobs.StateRunning:
		return statusRunningStyle.Render(iconRunning + " Running ")
	case jobs.StateComplete:
		return statusSuccessStyle.Render(iconSuccess + " Complete")
	case jobs.StateFailed:
		return statusErrorStyle.Render(iconError + " Failed  ")
	default:
		return statusIdleStyle.Render(iconPending + " " + padRight(string(state), 8))
	}
}

// renderHelpBar renders the help/status bar at the bottom.
func (m Model) renderHelpBar(help string) string {
	if m.errorMessage != "" {
		return statusBarStyle.Render(statusErrorStyle.Render("Error: " + m.errorMessage))
	}
	if m.notice != "" {
		help = m.notice + "  │  " + help
	}
	return statusBarStyle.Render(help)
}

// renderDetailView renders a report job with its store rows.
func (m Model) renderDetailView() string {
	job := m.detail
	sections := []string{m.renderHeader("Report " + job.ID)}

	info := []string{
		titleStyle.Render("Summary"),
		"",
		fmt.Sprintf("%s %s", keyStyle.Render("State:"), renderState(job.State)),
		fmt.Sprintf("%s %s", keyStyle.Render("Created:"), valueStyle.Render(job.CreatedAt.Format("2006-01-02 15:04:05"))),
	}
	if !job.FinishedAt.IsZero() {
		info = append(info, fmt.Sprintf("%s %s (%s)", keyStyle.Render("Finished:"),
			valueStyle.Render(job.FinishedAt.Format("2006-01-02 15:04:05")),
			durationStyle.Render(formatDuration(job.Duration()))))
	}
	if !job.Stats.EvaluatedAt.IsZero() {
		info = append(info, fmt.Sprintf("%s %s", keyStyle.Render("Windows end at:"),
			valueStyle.Render(job.Stats.EvaluatedAt.UTC().Format(time.RFC3339))))
	}
	info = append(info, fmt.Sprintf("%s %d stores, %d records skipped", keyStyle.Render("Input:"),
		job.Stats.Stores, job.Stats.Skipped))
	if job.Error != "" {
		info = append(info, keyStyle.Render("Error: ")+statusErrorStyle.Render(truncate(job.Error, 80)))
	}
	sections = append(sections, panelStyle.Render(strings.Join(info, "\n")))

	sections = append(sections, rowsPanelStyle.Render(m.renderRows()))
	sections = append(sections, m.renderHelpBar("esc: back  │  ↑/↓: scroll  │  q: quit  │  r: refresh"))

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// renderRows renders one page of the report table.
func (m Model) renderRows() string {
	rows := m.detail.Rows
	lines := []string{titleStyle.Render(fmt.Sprintf("Stores (%d)", len(rows))), ""}
	if len(rows) == 0 {
		return strings.Join(append(lines, subtitleStyle.Render("No rows")), "\n")
	}

	lines = append(lines, keyStyle.Render(fmt.Sprintf("  %-36s  %12s  %12s  %12s", "Store", "Hour up/dn", "Day up/dn", "Week up/dn")))
	lines = append(lines, keyStyle.Render("  "+strings.Repeat("─", 80)))

	end := min(m.detailOffset+detailPageSize, len(rows))
	for _, row := range rows[m.detailOffset:end] {
		f := report.Fields(row)
		lines = append(lines, fmt.Sprintf("  %-36s  %12s  %12s  %12s",
			truncate(f[0], 36), f[1]+"/"+f[2], f[3]+"/"+f[4], f[5]+"/"+f[6]))
	}
	if len(rows) > detailPageSize {
		lines = append(lines, "", subtitleStyle.Render(fmt.Sprintf("rows %d-%d of %d", m.detailOffset+1, end, len(rows))))
	}
	return strings.Join(lines, "\n")
}

// Helper functions

// formatDuration formats a duration in a human-readable way.
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	if d < time.Hour {
		return fmt.Sprintf("%.1fm", d.Minutes())
	}
	return fmt.Sprintf("%.1fh", d.Hours())
}

// formatTimeFromNow formats a time relative to now.
func formatTimeFromNow(t time.Time) string {
	duration := time.Until(t)

	if duration < 0 {
		return "now"
	}

	if duration < time.Minute {
		return fmt.Sprintf("in %ds", int(duration.Seconds()))
	}
	if duration < time.Hour {
		return fmt.Sprintf("in %dm", int(duration.Minutes()))
	}
	if duration < 24*time.Hour {
		return fmt.Sprintf("in %dh %dm",
			int(duration.Hours()),
			int(duration.Minutes())%60,
		)
	}
	return fmt.Sprintf("in %dd", int(duration.Hours()/24))
}

// truncate truncates a string to a maximum length.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

// padRight pads a string with spaces to reach the desired length.
func padRight(s string, length int) string {
	if len(s) >= length {
		return s
	}
	return s + strings.Repeat(" ", length-len(s))
}
