package tui

import (
	tea "github.com/charmbracelet/bubbletea"
)

// Update handles Bubbletea messages and updates model state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		m.refresh()
		if m.finished {
			return m, tea.Quit
		}
		return m, m.tick()
	case tea.WindowSizeMsg:
		if msg.Width > 20 {
			m.width = min(msg.Width-20, 80)
		}
		return m, nil
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.cancelled = true
			return m, tea.Quit
		}
		if msg.String() == "q" {
			m.cancelled = true
			return m, tea.Quit
		}
	}

	return m, nil
}
