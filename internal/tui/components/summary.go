package components

import (
	"fmt"
	"strings"
	"time"
)

// SummaryData aggregates what the summary section shows.
type SummaryData struct {
	Total     int
	Completed int
	Elapsed   time.Duration
	ETA       time.Duration
	HasETA    bool
	Finished  bool
	Cancelled bool
	Errors    []string
}

// Summary renders a textual run summary.
type Summary struct {
	data SummaryData
}

// NewSummary creates a new Summary component.
func NewSummary(data SummaryData) Summary {
	return Summary{data: data}
}

// View renders the summary.
func (s Summary) View() string {
	var lines []string
	if s.data.Total > 0 {
		lines = append(lines, fmt.Sprintf("Commands: %d/%d completed", s.data.Completed, s.data.Total))
	}
	if s.data.Elapsed > 0 {
		line := "Elapsed: " + FormatDuration(s.data.Elapsed)
		if s.data.HasETA && !s.data.Finished {
			line += "  Remaining: ~" + FormatDuration(s.data.ETA)
		}
		lines = append(lines, line)
	}

	switch {
	case s.data.Cancelled:
		lines = append(lines, "Display closed; the workflow keeps running")
	case s.data.Finished && len(s.data.Errors) > 0:
		lines = append(lines, "Workflow failed")
	case s.data.Finished:
		lines = append(lines, "Workflow finished successfully")
	}

	if len(s.data.Errors) > 0 {
		lines = append(lines, "Errors:")
		for _, e := range s.data.Errors {
			lines = append(lines, "  ✗ "+e)
		}
	}

	return strings.Join(lines, "\n")
}

// FormatDuration renders d rounded to a tenth of a second.
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	return d.Round(100 * time.Millisecond).String()
}
