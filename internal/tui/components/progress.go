package components

import (
	"fmt"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"
)

// Progress renders overall workflow completion.
type Progress struct {
	bar progress.Model
}

// NewProgress creates a progress component with the given bar width.
func NewProgress(width int) Progress {
	bar := progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage())
	if width <= 0 {
		width = 30
	}
	bar.Width = width
	return Progress{bar: bar}
}

// View renders the bar for a completion fraction in [0, 1].
func (p Progress) View(fraction float64) string {
	fraction = min(max(fraction, 0), 1)
	label := lipgloss.NewStyle().Bold(true).Render(fmt.Sprintf("%3.0f%%", fraction*100))
	return lipgloss.JoinHorizontal(lipgloss.Left, label, " ", p.bar.ViewAs(fraction))
}
