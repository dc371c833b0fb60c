package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/alexisbeaulieu97/peakflow/internal/progress"
)

// Drainer delivers queued lifecycle notifications, typically an
// events.Dispatcher.
type Drainer interface {
	DrainAndDeliver() int
}

// Source provides progress snapshots, typically a progress.Tracker.
type Source interface {
	Snapshot() progress.Snapshot
}

// DoneChecker reports whether the submitted workflow finished, typically an
// engine.Runner.
type DoneChecker interface {
	IsDone() bool
}

// DefaultInterval is the refresh period of the display.
const DefaultInterval = 100 * time.Millisecond

type tickMsg time.Time

// Model is the Bubbletea state for the live workflow progress display. Each
// tick drains pending notifications on the UI goroutine and then reads the
// tracker, so observers never run on worker goroutines.
type Model struct {
	title    string
	events   Drainer
	source   Source
	runner   DoneChecker
	interval time.Duration

	snapshot  progress.Snapshot
	finished  bool
	cancelled bool
	width     int
}

// NewModel constructs the display for one workflow run.
func NewModel(title string, events Drainer, source Source, runner DoneChecker) Model {
	return Model{
		title:    title,
		events:   events,
		source:   source,
		runner:   runner,
		interval: DefaultInterval,
		width:    40,
	}
}

// WithInterval returns a copy refreshing at the given period.
func (m Model) WithInterval(d time.Duration) Model {
	if d > 0 {
		m.interval = d
	}
	return m
}

// Init schedules the first refresh.
func (m Model) Init() tea.Cmd {
	return m.tick()
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// Snapshot returns the last progress state the model rendered.
func (m Model) Snapshot() progress.Snapshot {
	return m.snapshot
}

// IsFinished reports whether the workflow finished and every notification
// was delivered.
func (m Model) IsFinished() bool {
	return m.finished
}

// Cancelled reports whether the user closed the display early.
func (m Model) Cancelled() bool {
	return m.cancelled
}

// refresh drains notifications and re-reads progress. The runner is checked
// before draining so that notifications emitted right before completion are
// still delivered in this refresh.
func (m *Model) refresh() {
	done := m.runner == nil || m.runner.IsDone()
	if m.events != nil {
		m.events.DrainAndDeliver()
	}
	if m.source != nil {
		m.snapshot = m.source.Snapshot()
	}
	if done {
		m.finished = true
	}
}
