package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/alexisbeaulieu97/peakflow/internal/tui/components"
)

// View renders the current state of the model.
func (m Model) View() string {
	var sections []string

	sections = append(sections, titleStyle.Render(fmt.Sprintf("peakflow • %s", m.displayTitle())))

	bar := components.NewProgress(m.width).View(m.snapshot.Progress)
	sections = append(sections, sectionStyle.Render("Progress"), bar)

	entries := components.NewCommandList(m.snapshot).Entries()
	if len(entries) > 0 {
		sections = append(sections, sectionStyle.Render("Commands"), renderCommands(entries))
	}

	if batch := m.snapshot.Batch; batch != nil && !batch.Finished {
		line := fmt.Sprintf("%s batch: %d/%d", batch.Kind, batch.CurrentStep, batch.MaxSteps)
		if len(batch.Items) > 0 {
			line += "  processing " + strings.Join(batch.Items, ", ")
		}
		sections = append(sections, batchStyle.Render(line))
	}

	summary := components.NewSummary(components.SummaryData{
		Total:     m.snapshot.TotalCommands(),
		Completed: m.snapshot.CompletedCommandSteps,
		Elapsed:   m.snapshot.Elapsed,
		ETA:       m.snapshot.ETA,
		HasETA:    m.snapshot.HasETA,
		Finished:  m.finished,
		Cancelled: m.cancelled,
		Errors:    m.snapshot.Errors,
	}).View()
	if strings.TrimSpace(summary) != "" {
		sections = append(sections, sectionStyle.Render("Summary"), summaryStyle.Render(summary))
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...) + "\n"
}

func renderCommands(entries []components.CommandEntry) string {
	lines := make([]string, 0, len(entries))
	for _, entry := range entries {
		lines = append(lines, fmt.Sprintf(" %s %d. %s", StatusIcon(entry.Status), entry.Index+1, entry.Name))
	}
	return strings.Join(lines, "\n")
}

func (m Model) displayTitle() string {
	if strings.TrimSpace(m.title) != "" {
		return m.title
	}
	return "workflow"
}

// StatusIcon returns the glyph representing a command status.
func StatusIcon(status string) string {
	switch status {
	case components.StatusDone:
		return successStyle.Render("✓")
	case components.StatusRunning:
		return runningStyle.Render("⏳")
	case components.StatusFailed:
		return failureStyle.Render("✗")
	default:
		return pendingStyle.Render("…")
	}
}
