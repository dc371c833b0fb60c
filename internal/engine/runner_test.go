package engine

import (
	"context"
	"errors"
	"sort"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/alexisbeaulieu97/peakflow/internal/domain/workflow"
	"github.com/alexisbeaulieu97/peakflow/internal/events"
	"github.com/alexisbeaulieu97/peakflow/internal/ports"
	"github.com/alexisbeaulieu97/peakflow/internal/progress"
	peakerrors "github.com/alexisbeaulieu97/peakflow/pkg/errors"
)

func TestRunnerThreeCommandScenario(t *testing.T) {
	t.Parallel()

	dispatcher := events.NewDispatcher()
	log := &eventLog{}
	tracker := progress.NewTracker()
	dispatcher.Subscribe(log)
	dispatcher.Subscribe(tracker)

	runner := NewRunner(dispatcher)
	wf := workflow.Workflow{
		Commands: []workflow.Command{
			workflow.NewCommand(injectionMethod("load"), nil),
			workflow.NewCommand(injectionMethod("pick"), nil),
			workflow.NewCommand(segmentMethod("calibrate"), nil),
		},
		Settings: workflow.Settings{Parallel: 1},
	}

	original := testSession()
	require.True(t, runner.Submit(context.Background(), original, workflow.Selectors{}, wf, true))
	require.True(t, runner.IsDone())

	require.Positive(t, dispatcher.Pending())
	dispatcher.DrainAndDeliver()

	got := log.Events()
	require.Equal(t, []string{
		"workflow_started [load pick calibrate]",
		"command_started 0 load",
		"command_started 1 pick",
		"batch_started injection 2",
		"item_started injection inj1",
		"item_ended injection inj1",
		"item_started injection inj2",
		"item_ended injection inj2",
		"batch_ended injection",
		"command_ended 0 load",
		"command_ended 1 pick",
		"command_started 2 calibrate",
		"batch_started segment 1",
		"item_started segment seg1",
		"item_ended segment seg1",
		"batch_ended segment",
		"command_ended 2 calibrate",
		"workflow_ended",
	}, got)
	require.InDelta(t, 1.0, tracker.ProgressValue(), 1e-9)
	require.False(t, tracker.IsRunning())

	var result workflow.Session
	require.NoError(t, runner.TakeResult(&result))
	require.Equal(t, []string{"load", "pick"}, trailOf(t, result.Injections[0]))
	require.Equal(t, []string{"calibrate"}, trailOf(t, result.Segments[0]))

	// The caller's session is never touched.
	require.Nil(t, trailOf(t, original.Injections[0]))

	require.ErrorIs(t, runner.TakeResult(&result), ErrNoResult)
	require.NoError(t, runner.Err())
	require.Positive(t, int64(runner.LastRunDuration()))
}

func TestRunnerProgressAfterFirstRun(t *testing.T) {
	t.Parallel()

	tracker := progress.NewTracker()
	gate := make(chan struct{})
	calibrate := segmentMethod("calibrate")
	calibrate.gate = gate

	dispatcher := events.NewDispatcher()
	dispatcher.Subscribe(tracker)
	runner := NewRunner(dispatcher)

	wf := workflow.Workflow{Commands: []workflow.Command{
		workflow.NewCommand(injectionMethod("load"), nil),
		workflow.NewCommand(injectionMethod("pick"), nil),
		workflow.NewCommand(calibrate, nil),
	}}
	require.True(t, runner.Submit(context.Background(), testSession(), workflow.Selectors{}, wf, false))

	// The segment run blocks inside the method, after its item started.
	require.Eventually(t, func() bool {
		dispatcher.DrainAndDeliver()
		batch := tracker.Snapshot().Batch
		return batch != nil && batch.Kind == workflow.Segment && len(batch.Items) == 1
	}, 5*time.Second, time.Millisecond)
	require.InDelta(t, 2.0/3.0, tracker.ProgressValue(), 1e-9)
	require.False(t, runner.IsDone())

	var result workflow.Session
	require.ErrorIs(t, runner.TakeResult(&result), ErrNotDone)

	close(gate)
	waitDone(t, runner)
	dispatcher.DrainAndDeliver()
	require.InDelta(t, 1.0, tracker.ProgressValue(), 1e-9)
	require.NoError(t, runner.TakeResult(&result))
}

func TestRunnerFailureSkipsRemainingRuns(t *testing.T) {
	t.Parallel()

	dispatcher := events.NewDispatcher()
	log := &eventLog{}
	tracker := progress.NewTracker()
	dispatcher.Subscribe(log)
	dispatcher.Subscribe(tracker)

	failing := segmentMethod("calibrate")
	failing.failOn = "seg1"
	last := groupMethod("report")

	runner := NewRunner(dispatcher)
	wf := workflow.Workflow{Commands: []workflow.Command{
		workflow.NewCommand(injectionMethod("load"), nil),
		workflow.NewCommand(failing, nil),
		workflow.NewCommand(last, nil),
	}}
	require.True(t, runner.Submit(context.Background(), testSession(), workflow.Selectors{}, wf, true))
	dispatcher.DrainAndDeliver()

	require.Empty(t, last.Calls())
	got := log.Events()
	require.Contains(t, got, "error seg1 calibrate method failed")
	require.NotContains(t, got, "command_ended 1 calibrate")
	require.NotContains(t, got, "command_started 2 report")
	require.Equal(t, "workflow_ended", got[len(got)-1])

	var execErr *peakerrors.ExecutionError
	require.ErrorAs(t, runner.Err(), &execErr)
	require.Equal(t, "seg1", execErr.Entity)
	require.Equal(t, []string{"seg1, calibrate: method failed"}, tracker.Errors())

	// The run is still marked done and its partial result is available.
	require.True(t, runner.IsDone())
	var result workflow.Session
	require.NoError(t, runner.TakeResult(&result))
	require.Equal(t, []string{"load"}, trailOf(t, result.Injections[0]))
}

func TestRunnerFailureOnMiddleEntity(t *testing.T) {
	t.Parallel()

	dispatcher := events.NewDispatcher()
	log := &eventLog{}
	tracker := progress.NewTracker()
	dispatcher.Subscribe(log)
	dispatcher.Subscribe(tracker)

	pick := injectionMethod("pick")
	pick.failOn = "inj2"
	calibrate := segmentMethod("calibrate")

	session := testSession()
	session.Injections = append(session.Injections, workflow.Entity{Name: "inj3"})

	runner := NewRunner(dispatcher)
	wf := workflow.Workflow{
		Commands: []workflow.Command{
			workflow.NewCommand(pick, nil),
			workflow.NewCommand(calibrate, nil),
		},
		Settings: workflow.Settings{Parallel: 1},
	}
	require.True(t, runner.Submit(context.Background(), session, workflow.Selectors{}, wf, true))
	dispatcher.DrainAndDeliver()

	require.True(t, runner.IsDone())
	require.Equal(t, []string{"inj1", "inj2"}, pick.Calls())
	require.Empty(t, calibrate.Calls())
	require.Equal(t, []string{"inj2, pick: method failed"}, tracker.Errors())

	got := log.Events()
	require.Contains(t, got, "item_ended injection inj1")
	require.NotContains(t, got, "item_ended injection inj2")
	require.NotContains(t, got, "item_started injection inj3")
	require.NotContains(t, got, "command_started 1 calibrate")
	require.NotContains(t, got, "batch_started segment 1")

	var result workflow.Session
	require.NoError(t, runner.TakeResult(&result))
	require.Equal(t, []string{"pick"}, trailOf(t, result.Injections[0]))
	require.Nil(t, trailOf(t, result.Injections[1]))
	require.Nil(t, trailOf(t, result.Injections[2]))
}

func TestRunnerRepeatedSelectorProcessesOnce(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name     string
		parallel int
	}{
		{name: "sequential", parallel: 1},
		{name: "parallel", parallel: 4},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			log := &eventLog{}
			method := injectionMethod("pick")
			runner := NewRunner(log)
			wf := workflow.Workflow{
				Commands: []workflow.Command{workflow.NewCommand(method, nil)},
				Settings: workflow.Settings{Parallel: tc.parallel},
			}
			sel := workflow.Selectors{Injections: []string{"inj1", "inj1", "inj2", "inj1"}}

			require.True(t, runner.Submit(context.Background(), testSession(), sel, wf, true))
			require.NoError(t, runner.Err())

			calls := method.Calls()
			sort.Strings(calls)
			require.Equal(t, []string{"inj1", "inj2"}, calls)
			require.Contains(t, log.Events(), "batch_started injection 2")

			var result workflow.Session
			require.NoError(t, runner.TakeResult(&result))
			require.Equal(t, []string{"pick"}, trailOf(t, result.Injections[0]))
			require.Equal(t, []string{"pick"}, trailOf(t, result.Injections[1]))
		})
	}
}

func TestRunnerSingleFlight(t *testing.T) {
	t.Parallel()

	gate := make(chan struct{})
	slow := injectionMethod("slow")
	slow.gate = gate

	metrics := &countingMetrics{}
	runner := NewRunner(nil, WithMetrics(metrics))
	wf := workflow.Workflow{Commands: []workflow.Command{workflow.NewCommand(slow, nil)}}

	require.True(t, runner.Submit(context.Background(), testSession(), workflow.Selectors{}, wf, false))
	firstID := runner.RunID()
	require.NotEmpty(t, firstID)
	require.False(t, runner.IsDone())

	require.False(t, runner.Submit(context.Background(), testSession(), workflow.Selectors{}, wf, false))
	require.Equal(t, firstID, runner.RunID())
	require.Equal(t, int64(1), metrics.count(ports.MetricRunsRejected))

	close(gate)
	waitDone(t, runner)

	require.True(t, runner.Submit(context.Background(), testSession(), workflow.Selectors{}, wf, true))
	require.NotEqual(t, firstID, runner.RunID())
	require.Equal(t, int64(2), metrics.count(ports.MetricRunsTotal))
}

func TestRunnerConcurrentSubmitAcceptsOne(t *testing.T) {
	t.Parallel()

	gate := make(chan struct{})
	slow := injectionMethod("slow")
	slow.gate = gate
	runner := NewRunner(nil)
	wf := workflow.Workflow{Commands: []workflow.Command{workflow.NewCommand(slow, nil)}}

	var accepted atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if runner.Submit(context.Background(), testSession(), workflow.Selectors{}, wf, false) {
				accepted.Add(1)
			}
		}()
	}
	wg.Wait()
	require.Equal(t, int32(1), accepted.Load())

	close(gate)
	waitDone(t, runner)
}

func TestRunnerSelectorsLimitEntities(t *testing.T) {
	t.Parallel()

	method := injectionMethod("pick")
	runner := NewRunner(nil)
	wf := workflow.Workflow{Commands: []workflow.Command{workflow.NewCommand(method, nil)}}
	sel := workflow.Selectors{Injections: []string{"inj2", "missing"}}

	require.True(t, runner.Submit(context.Background(), testSession(), sel, wf, true))
	require.Equal(t, []string{"inj2"}, method.Calls())
}

func TestRunnerRejectsInvalidWorkflow(t *testing.T) {
	t.Parallel()

	log := &eventLog{}
	runner := NewRunner(log)
	wf := workflow.Workflow{Commands: []workflow.Command{{Kind: workflow.Group}}}

	require.True(t, runner.Submit(context.Background(), testSession(), workflow.Selectors{}, wf, true))
	require.True(t, workflow.HasCode(runner.Err(), workflow.ErrCodeMissing))
	require.Contains(t, log.Events(), "workflow_ended")
}

func TestRunnerCustomProcessorAndPanic(t *testing.T) {
	t.Parallel()

	runner := NewRunner(nil, WithProcessor(workflow.Group, panickingProcessor{}))
	wf := workflow.Workflow{Commands: []workflow.Command{workflow.NewCommand(groupMethod("merge"), nil)}}

	require.True(t, runner.Submit(context.Background(), testSession(), workflow.Selectors{}, wf, true))
	require.ErrorContains(t, runner.Err(), "panic: processor exploded")
}

func TestRunnerDetachesFromCallerCancellation(t *testing.T) {
	t.Parallel()

	gate := make(chan struct{})
	slow := injectionMethod("slow")
	slow.gate = gate
	runner := NewRunner(nil)
	wf := workflow.Workflow{Commands: []workflow.Command{workflow.NewCommand(slow, nil)}}

	ctx, cancel := context.WithCancel(context.Background())
	require.True(t, runner.Submit(ctx, testSession(), workflow.Selectors{}, wf, false))
	cancel()
	close(gate)
	waitDone(t, runner)
	require.NoError(t, runner.Err())
}

func TestRunnerDropsUntakenResult(t *testing.T) {
	t.Parallel()

	runner := NewRunner(nil)
	wf := workflow.Workflow{Commands: []workflow.Command{workflow.NewCommand(injectionMethod("a"), nil)}}
	require.True(t, runner.Submit(context.Background(), testSession(), workflow.Selectors{}, wf, true))

	empty := workflow.Workflow{}
	require.True(t, runner.Submit(context.Background(), testSession(), workflow.Selectors{}, empty, true))

	var result workflow.Session
	require.NoError(t, runner.TakeResult(&result))
	require.Nil(t, trailOf(t, result.Injections[0]))
	require.Error(t, runner.TakeResult(nil))
}

type panickingProcessor struct{}

func (panickingProcessor) Run(context.Context, Run, []string, *workflow.Session) error {
	panic(errors.New("processor exploded"))
}

type countingMetrics struct {
	mu     sync.Mutex
	counts map[string]int64
}

func (m *countingMetrics) IncCounter(_ context.Context, name string, _ map[string]string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.counts == nil {
		m.counts = make(map[string]int64)
	}
	m.counts[name]++
}

func (m *countingMetrics) SetGauge(context.Context, string, float64, map[string]string) {}

func (m *countingMetrics) ObserveHistogram(context.Context, string, float64, map[string]string) {}

func (m *countingMetrics) count(name string) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.counts[name]
}
