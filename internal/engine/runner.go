package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/alexisbeaulieu97/peakflow/internal/domain/workflow"
	"github.com/alexisbeaulieu97/peakflow/internal/events"
	"github.com/alexisbeaulieu97/peakflow/internal/logger"
	"github.com/alexisbeaulieu97/peakflow/internal/ports"
	peakerrors "github.com/alexisbeaulieu97/peakflow/pkg/errors"
)

var (
	// ErrNotDone is returned by TakeResult while a workflow is running.
	ErrNotDone = errors.New("workflow is still running")
	// ErrNoResult is returned by TakeResult when there is nothing to take.
	ErrNoResult = errors.New("no workflow result available")
)

// RunnerOption customizes a Runner.
type RunnerOption func(*Runner)

// WithLogger sets the logger used by the runner and its default processors.
func WithLogger(l *logger.Logger) RunnerOption {
	return func(r *Runner) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithMetrics sets the collector that receives run metrics.
func WithMetrics(m ports.MetricsCollector) RunnerOption {
	return func(r *Runner) {
		if m != nil {
			r.metrics = m
		}
	}
}

// WithProcessor replaces the default processor for one entity kind.
func WithProcessor(kind workflow.EntityKind, p Processor) RunnerOption {
	return func(r *Runner) {
		if p != nil {
			r.processors[kind] = p
		}
	}
}

// Runner executes one workflow at a time on a background goroutine. It works
// on a private copy of the session and hands it back through TakeResult.
type Runner struct {
	observer   events.Observer
	logger     *logger.Logger
	metrics    ports.MetricsCollector
	processors map[workflow.EntityKind]Processor

	busy   atomic.Bool
	result atomic.Pointer[workflow.Session]

	mu           sync.Mutex
	lastDuration time.Duration
	lastErr      error
	runID        string
}

// NewRunner creates an idle runner that reports lifecycle notifications to
// observer, typically an events.Dispatcher.
func NewRunner(observer events.Observer, opts ...RunnerOption) *Runner {
	if observer == nil {
		observer = events.NopObserver{}
	}
	r := &Runner{
		observer:   observer,
		logger:     logger.Nop(),
		metrics:    ports.NopMetrics{},
		processors: make(map[workflow.EntityKind]Processor),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Submit starts wf against a private copy of session. It returns false
// without side effects when a workflow is already in flight. With blocking
// set it returns only after the job finished. The job is detached from ctx
// cancellation but keeps its values.
func (r *Runner) Submit(ctx context.Context, session *workflow.Session, selectors workflow.Selectors, wf workflow.Workflow, blocking bool) bool {
	if ctx == nil {
		ctx = context.Background()
	}
	if !r.busy.CompareAndSwap(false, true) {
		r.logger.Warn("workflow already running; submission rejected")
		r.metrics.IncCounter(ctx, ports.MetricRunsRejected, nil)
		return false
	}

	if stale := r.result.Swap(nil); stale != nil {
		r.logger.Warn("discarding result of previous run that was never taken")
	}

	state := session.Clone()
	if state == nil {
		state = &workflow.Session{}
	}
	job := wf.Clone()
	sel := selectors.Clone()

	runID := ports.NewRunID()
	r.mu.Lock()
	r.runID = runID
	r.lastErr = nil
	r.mu.Unlock()

	jobCtx := ports.WithRunID(context.WithoutCancel(ctx), runID)
	finished := make(chan struct{})
	go func() {
		defer close(finished)
		r.execute(jobCtx, runID, state, sel, job)
	}()

	if blocking {
		<-finished
	}
	return true
}

func (r *Runner) execute(ctx context.Context, runID string, state *workflow.Session, sel workflow.Selectors, wf workflow.Workflow) {
	start := time.Now()
	log := r.logger.WithFields(map[string]any{"run_id": runID, "workflow": wf.Name})
	r.metrics.SetGauge(ctx, ports.MetricActiveRuns, 1, nil)

	r.observer.WorkflowStarted(wf.CommandNames())
	log.WithFields(map[string]any{"commands": len(wf.Commands)}).Info("workflow started")

	runErr := wf.Validate()
	if runErr == nil {
		processors := r.processorsFor(log, wf.Settings.ApplyDefaults())
		for _, run := range BuildRuns(wf.Commands) {
			processor, ok := processors[run.Kind]
			if !ok {
				runErr = peakerrors.NewExecutionError("", "", fmt.Errorf("no processor for %s commands", run.Kind))
				break
			}
			if runErr = runSafely(ctx, processor, run, sel.For(run.Kind), state); runErr != nil {
				break
			}
		}
	}

	status := "success"
	if runErr != nil {
		status = "failure"
		log.Error(runErr, "workflow step failed; remaining commands skipped")
		r.observer.Error(errorEvent(runErr))
	}
	r.observer.WorkflowEnded()

	duration := time.Since(start)
	r.metrics.IncCounter(ctx, ports.MetricRunsTotal, map[string]string{"status": status})
	r.metrics.ObserveHistogram(ctx, ports.MetricRunDuration, duration.Seconds(), nil)
	r.metrics.SetGauge(ctx, ports.MetricActiveRuns, 0, nil)
	log.WithFields(map[string]any{"status": status, "duration_ms": duration.Milliseconds()}).Info("workflow finished")

	r.mu.Lock()
	r.lastDuration = duration
	r.lastErr = runErr
	r.mu.Unlock()

	r.result.Store(state)
	r.busy.Store(false)
}

func (r *Runner) processorsFor(log *logger.Logger, settings workflow.Settings) map[workflow.EntityKind]Processor {
	injections := NewInjectionProcessor(r.observer, log, settings.Parallel)
	segments := NewSegmentProcessor(r.observer, log)
	groups := NewGroupProcessor(r.observer, log)
	for _, p := range []*EntityProcessor{injections, segments, groups} {
		p.Metrics = r.metrics
	}

	processors := map[workflow.EntityKind]Processor{
		workflow.Injection: injections,
		workflow.Segment:   segments,
		workflow.Group:     groups,
	}
	for kind, p := range r.processors {
		processors[kind] = p
	}
	return processors
}

// runSafely converts a processor panic into an execution error.
func runSafely(ctx context.Context, p Processor, run Run, names []string, state *workflow.Session) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = peakerrors.NewExecutionError("", "", fmt.Errorf("panic: %v", rec))
		}
	}()
	return p.Run(ctx, run, names, state)
}

func errorEvent(err error) events.ErrorEvent {
	event := events.ErrorEvent{Message: err.Error()}
	var execErr *peakerrors.ExecutionError
	if errors.As(err, &execErr) {
		event.Entity = execErr.Entity
		event.Method = execErr.Method
		if execErr.Err != nil {
			event.Message = execErr.Err.Error()
		}
	}
	return event
}

// IsDone reports whether no workflow is running. It never blocks.
func (r *Runner) IsDone() bool {
	return !r.busy.Load()
}

// TakeResult moves the processed session into out. The result can be taken
// once per run.
func (r *Runner) TakeResult(out *workflow.Session) error {
	if out == nil {
		return fmt.Errorf("take result: destination is nil")
	}
	if r.busy.Load() {
		return ErrNotDone
	}
	state := r.result.Swap(nil)
	if state == nil {
		return ErrNoResult
	}
	*out = *state
	return nil
}

// LastRunDuration returns the wall time of the most recent completed run.
func (r *Runner) LastRunDuration() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastDuration
}

// Err returns the failure of the most recent run, if any.
func (r *Runner) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastErr
}

// RunID returns the identifier of the most recently accepted submission.
func (r *Runner) RunID() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.runID
}
