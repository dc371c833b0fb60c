package components

import (
	"github.com/alexisbeaulieu97/peakflow/internal/progress"
)

// Command states shown in the command list.
const (
	StatusPending = "pending"
	StatusRunning = "running"
	StatusDone    = "done"
	StatusFailed  = "failed"
)

// CommandEntry is one workflow command with its display state.
type CommandEntry struct {
	Index  int
	Name   string
	Status string
}

// CommandList derives per-command states from a tracker snapshot.
type CommandList struct {
	entries []CommandEntry
}

// NewCommandList classifies the snapshot's commands. Commands are completed
// strictly in order, so everything before the first running or pending
// command is done. When the workflow ended with errors the first unfinished
// command is marked failed.
func NewCommandList(snap progress.Snapshot) CommandList {
	running := make(map[int]struct{}, len(snap.RunningCommands))
	for _, c := range snap.RunningCommands {
		running[c.Index] = struct{}{}
	}

	entries := make([]CommandEntry, 0, len(snap.AllCommands))
	failedMarked := false
	for i, name := range snap.AllCommands {
		status := StatusPending
		switch {
		case i < snap.CompletedCommandSteps:
			status = StatusDone
		case hasIndex(running, i):
			status = StatusRunning
		case !snap.Running && len(snap.Errors) > 0 && !failedMarked:
			status = StatusFailed
			failedMarked = true
		}
		entries = append(entries, CommandEntry{Index: i, Name: name, Status: status})
	}
	return CommandList{entries: entries}
}

func hasIndex(set map[int]struct{}, i int) bool {
	_, ok := set[i]
	return ok
}

// Entries returns the ordered command entries.
func (c CommandList) Entries() []CommandEntry {
	clone := make([]CommandEntry, len(c.entries))
	copy(clone, c.entries)
	return clone
}
