// Package progress turns workflow lifecycle notifications into a live view
// of completion, elapsed time, and estimated remaining time.
package progress

import (
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/alexisbeaulieu97/peakflow/internal/domain/workflow"
	"github.com/alexisbeaulieu97/peakflow/internal/events"
)

// RunningCommand identifies a command that has started but not ended.
type RunningCommand struct {
	Index int
	Name  string
}

// Batch describes the entity batch currently being processed.
type Batch struct {
	Kind        workflow.EntityKind
	Items       []string
	CurrentStep int
	MaxSteps    int
	Started     time.Time
	LastStep    time.Time
	// Finished is set once the batch reported its end. A finished batch keeps
	// contributing its final step count until its commands have ended.
	Finished bool
}

// Snapshot is a consistent copy of the tracker state.
type Snapshot struct {
	Running               bool
	AllCommands           []string
	RunningCommands       []RunningCommand
	CompletedCommandSteps int
	Batch                 *Batch
	Started               time.Time
	Elapsed               time.Duration
	LastRunDuration       time.Duration
	Progress              float64
	ETA                   time.Duration
	HasETA                bool
	Errors                []string
}

// TotalCommands returns the number of commands in the observed workflow.
func (s Snapshot) TotalCommands() int { return len(s.AllCommands) }

// Option customizes a Tracker.
type Option func(*Tracker)

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) {
		if now != nil {
			t.now = now
		}
	}
}

// Tracker implements events.Observer and exposes progress reads. It is safe
// to read from any goroutine while notifications are delivered.
type Tracker struct {
	mu sync.RWMutex

	now func() time.Time

	running   bool
	started   time.Time
	all       []string
	active    []RunningCommand
	completed int
	batch     *Batch
	lastRun   time.Duration
	errors    []string
}

// NewTracker creates an idle tracker.
func NewTracker(opts ...Option) *Tracker {
	t := &Tracker{now: time.Now}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

var _ events.Observer = (*Tracker)(nil)

// Reset returns the tracker to its idle state, keeping the last run duration.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.resetLocked()
}

func (t *Tracker) resetLocked() {
	t.running = false
	t.started = time.Time{}
	t.all = nil
	t.active = nil
	t.completed = 0
	t.batch = nil
	t.errors = nil
}

// WorkflowStarted clears the previous state and starts the clock.
func (t *Tracker) WorkflowStarted(commands []string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.resetLocked()
	t.running = true
	t.started = t.now()
	t.all = slices.Clone(commands)
}

// CommandStarted marks a command as running and drops a finished batch.
func (t *Tracker) CommandStarted(index int, name string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.batch != nil && t.batch.Finished {
		t.batch = nil
	}
	t.active = append(t.active, RunningCommand{Index: index, Name: name})
}

// CommandEnded counts a completed command. The batch is released once no
// command of its run is still active.
func (t *Tracker) CommandEnded(index int, name string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.active = slices.DeleteFunc(t.active, func(c RunningCommand) bool {
		return c.Index == index && c.Name == name
	})
	t.completed++
	if len(t.active) == 0 {
		t.batch = nil
	}
}

// BatchStarted begins a batch of size steps.
func (t *Tracker) BatchStarted(kind workflow.EntityKind, size int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.batch = &Batch{Kind: kind, MaxSteps: size, Started: t.now()}
}

// ItemStarted adds name to the in-flight items.
func (t *Tracker) ItemStarted(_ workflow.EntityKind, name string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.batch == nil {
		return
	}
	t.batch.Items = append(t.batch.Items, name)
}

// ItemEnded removes name from the in-flight items and advances the step.
func (t *Tracker) ItemEnded(_ workflow.EntityKind, name string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.batch == nil {
		return
	}
	t.batch.Items = slices.DeleteFunc(t.batch.Items, func(item string) bool { return item == name })
	if t.batch.CurrentStep < t.batch.MaxSteps {
		t.batch.CurrentStep++
	}
	t.batch.LastStep = t.now()
}

// BatchEnded clears in-flight items and freezes the batch at its step count.
func (t *Tracker) BatchEnded(workflow.EntityKind) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.batch == nil {
		return
	}
	t.batch.Items = nil
	t.batch.Finished = true
}

// WorkflowEnded records the run duration and stops the clock.
func (t *Tracker) WorkflowEnded() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.lastRun = t.runningTimeLocked()
	t.batch = nil
	t.running = false
}

// Error records a step failure as "entity, method: message".
func (t *Tracker) Error(event events.ErrorEvent) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.errors = append(t.errors, formatError(event))
}

func formatError(event events.ErrorEvent) string {
	switch {
	case event.Entity != "" && event.Method != "":
		return fmt.Sprintf("%s, %s: %s", event.Entity, event.Method, event.Message)
	case event.Method != "":
		return fmt.Sprintf("%s: %s", event.Method, event.Message)
	}
	return event.Message
}

// IsRunning reports whether a workflow is in progress.
func (t *Tracker) IsRunning() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.running
}

// RunningTime returns the time since the workflow started, or zero when idle.
func (t *Tracker) RunningTime() time.Duration {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.runningTimeLocked()
}

func (t *Tracker) runningTimeLocked() time.Duration {
	if !t.running {
		return 0
	}
	return t.now().Sub(t.started)
}

// ProgressValue returns the completion fraction in [0, 1]. Within one run it
// never decreases.
func (t *Tracker) ProgressValue() float64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.progressLocked()
}

func (t *Tracker) progressLocked() float64 {
	total := len(t.all)
	if total == 0 {
		return 0
	}
	progress := float64(t.completed) / float64(total)
	if t.batch != nil && t.batch.MaxSteps > 0 {
		share := float64(len(t.active)) / float64(total)
		progress += share * float64(t.batch.CurrentStep) / float64(t.batch.MaxSteps)
	}
	return min(max(progress, 0), 1)
}

// EstimatedRemainingTime extrapolates from the pace of the current batch.
// It reports false until at least one item of the batch has ended. The
// projected batch time is reduced by the workflow's running time, so the
// estimate can reach zero before the batch ends. Queued commands add one
// projected batch per active command only while commands are running.
func (t *Tracker) EstimatedRemainingTime() (time.Duration, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.etaLocked()
}

func (t *Tracker) etaLocked() (time.Duration, bool) {
	b := t.batch
	if b == nil || b.CurrentStep == 0 {
		return 0, false
	}

	perStep := b.LastStep.Sub(b.Started) / time.Duration(b.CurrentStep)
	batchTotal := perStep * time.Duration(b.MaxSteps)
	eta := max(batchTotal-t.runningTimeLocked(), 0)

	active := len(t.active)
	remaining := len(t.all) - t.completed - active
	if active > 0 && remaining > 0 {
		eta += batchTotal / time.Duration(active) * time.Duration(remaining)
	}
	return eta, true
}

// AllCommands returns the command names of the current workflow.
func (t *Tracker) AllCommands() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return slices.Clone(t.all)
}

// RunningCommands returns commands that started and have not ended.
func (t *Tracker) RunningCommands() []RunningCommand {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return slices.Clone(t.active)
}

// RunningBatch returns the names of entities in flight.
func (t *Tracker) RunningBatch() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.batch == nil {
		return []string{}
	}
	return append([]string{}, t.batch.Items...)
}

// LastRunDuration returns how long the previous workflow took.
func (t *Tracker) LastRunDuration() time.Duration {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.lastRun
}

// Errors returns the step failures reported during the current run.
func (t *Tracker) Errors() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return slices.Clone(t.errors)
}

// Snapshot returns a consistent copy of all tracker reads.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	defer t.mu.RUnlock()

	snap := Snapshot{
		Running:               t.running,
		AllCommands:           slices.Clone(t.all),
		RunningCommands:       slices.Clone(t.active),
		CompletedCommandSteps: t.completed,
		Started:               t.started,
		Elapsed:               t.runningTimeLocked(),
		LastRunDuration:       t.lastRun,
		Progress:              t.progressLocked(),
		Errors:                slices.Clone(t.errors),
	}
	snap.ETA, snap.HasETA = t.etaLocked()
	if t.batch != nil {
		b := *t.batch
		b.Items = slices.Clone(t.batch.Items)
		snap.Batch = &b
	}
	return snap
}
