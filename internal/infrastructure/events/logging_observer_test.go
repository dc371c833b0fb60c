package events

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/alexisbeaulieu97/peakflow/internal/domain/workflow"
	"github.com/alexisbeaulieu97/peakflow/internal/events"
	"github.com/alexisbeaulieu97/peakflow/internal/logger"
)

func newObserver(t *testing.T, level string) (*LoggingObserver, *bytes.Buffer) {
	t.Helper()
	buf := &bytes.Buffer{}
	log, err := logger.New(logger.Options{Level: level, Writer: buf})
	require.NoError(t, err)
	return NewLoggingObserver(log), buf
}

func entries(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &entry))
		out = append(out, entry)
	}
	return out
}

func TestLoggingObserverWritesStructuredEntries(t *testing.T) {
	t.Parallel()

	observer, buf := newObserver(t, "info")
	observer.WorkflowStarted([]string{"load", "pick"})
	observer.CommandStarted(1, "pick")

	logged := entries(t, buf)
	require.Len(t, logged, 2)
	require.Equal(t, "workflow event", logged[0]["message"])
	require.Equal(t, EventWorkflowStarted, logged[0]["event_type"])
	require.Equal(t, "load,pick", logged[0]["commands"])
	require.Equal(t, "events", logged[0]["component"])
	require.Equal(t, EventCommandStarted, logged[1]["event_type"])
	require.Equal(t, "pick", logged[1]["command"])
}

func TestLoggingObserverItemsAtDebug(t *testing.T) {
	t.Parallel()

	observer, buf := newObserver(t, "info")
	observer.ItemStarted(workflow.Injection, "inj1")
	observer.ItemEnded(workflow.Injection, "inj1")
	require.Empty(t, strings.TrimSpace(buf.String()))

	verbose, vbuf := newObserver(t, "debug")
	verbose.ItemEnded(workflow.Segment, "seg1")
	logged := entries(t, vbuf)
	require.Len(t, logged, 1)
	require.Equal(t, "segment", logged[0]["kind"])
	require.Equal(t, "seg1", logged[0]["entity"])
}

func TestLoggingObserverErrorsAsWarnings(t *testing.T) {
	t.Parallel()

	observer, buf := newObserver(t, "warn")
	observer.WorkflowEnded()
	observer.Error(events.ErrorEvent{Entity: "inj2", Method: "annotate", Message: "boom"})

	logged := entries(t, buf)
	require.Len(t, logged, 1)
	require.Equal(t, "warn", logged[0]["level"])
	require.Equal(t, EventStepFailed, logged[0]["event_type"])
	require.Equal(t, "boom", logged[0]["error"])
}

func TestLoggingObserverThroughDispatcher(t *testing.T) {
	t.Parallel()

	observer, buf := newObserver(t, "info")
	d := events.NewDispatcher()
	d.Subscribe(observer)

	d.BatchStarted(workflow.Group, 3)
	d.BatchEnded(workflow.Group)
	require.Empty(t, buf.String())

	d.DrainAndDeliver()
	require.Len(t, entries(t, buf), 2)
}

func TestNewLoggingObserverNilLogger(t *testing.T) {
	t.Parallel()

	observer := NewLoggingObserver(nil)
	require.NotPanics(t, func() { observer.WorkflowEnded() })
}
