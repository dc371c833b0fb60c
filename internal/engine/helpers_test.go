package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/alexisbeaulieu97/peakflow/internal/domain/workflow"
	"github.com/alexisbeaulieu97/peakflow/internal/events"
	"github.com/alexisbeaulieu97/peakflow/internal/value"
)

// fakeMethod appends its name to the entity's "trail" result and can be told
// to fail or block on specific entities.
type fakeMethod struct {
	name   string
	kind   workflow.EntityKind
	schema workflow.Schema
	failOn string
	panics bool
	gate   chan struct{}

	mu    sync.Mutex
	calls []string
}

func (m *fakeMethod) Name() string { return m.name }
func (m *fakeMethod) Kind() workflow.EntityKind { return m.kind }
func (m *fakeMethod) Schema() workflow.Schema { return m.schema }

func (m *fakeMethod) Execute(_ context.Context, entity *workflow.Entity, params workflow.Parameters, overrides workflow.Overrides) error {
	if m.gate != nil {
		<-m.gate
	}
	m.mu.Lock()
	m.calls = append(m.calls, entity.Name)
	m.mu.Unlock()

	if entity.Name == m.failOn {
		if m.panics {
			panic("exploded")
		}
		return errors.New("method failed")
	}

	trail := []string{}
	if prev, ok := entity.Result("trail"); ok {
		trail, _ = prev.StringList()
	}
	entity.SetResult("trail", value.Of(append(trail, m.name)))

	if v, ok := workflow.Lookup("label", params, overrides); ok {
		entity.SetResult(m.name+".label", v)
	}
	return nil
}

func (m *fakeMethod) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

func injectionMethod(name string) *fakeMethod {
	return &fakeMethod{name: name, kind: workflow.Injection}
}

func segmentMethod(name string) *fakeMethod {
	return &fakeMethod{name: name, kind: workflow.Segment}
}

func groupMethod(name string) *fakeMethod {
	return &fakeMethod{name: name, kind: workflow.Group}
}

// eventLog records every notification as a compact string.
type eventLog struct {
	mu     sync.Mutex
	events []string
}

func (l *eventLog) add(format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, fmt.Sprintf(format, args...))
}

func (l *eventLog) Events() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.events...)
}

func (l *eventLog) WorkflowStarted(commands []string) { l.add("workflow_started %v", commands) }
func (l *eventLog) CommandStarted(i int, name string) { l.add("command_started %d %s", i, name) }
func (l *eventLog) CommandEnded(i int, name string) { l.add("command_ended %d %s", i, name) }
func (l *eventLog) BatchStarted(k workflow.EntityKind, n int) {
	l.add("batch_started %s %d", k, n)
}
func (l *eventLog) ItemStarted(k workflow.EntityKind, name string) {
	l.add("item_started %s %s", k, name)
}
func (l *eventLog) ItemEnded(k workflow.EntityKind, name string) {
	l.add("item_ended %s %s", k, name)
}
func (l *eventLog) BatchEnded(k workflow.EntityKind) { l.add("batch_ended %s", k) }
func (l *eventLog) WorkflowEnded() { l.add("workflow_ended") }
func (l *eventLog) Error(e events.ErrorEvent) {
	l.add("error %s %s %s", e.Entity, e.Method, e.Message)
}

var _ events.Observer = (*eventLog)(nil)

func testSession() *workflow.Session {
	return &workflow.Session{
		Name:       "batch-1",
		Injections: []workflow.Entity{{Name: "inj1"}, {Name: "inj2"}},
		Segments:   []workflow.Entity{{Name: "seg1", Members: []string{"inj1", "inj2"}}},
		Groups:     []workflow.Entity{{Name: "grp1", Members: []string{"inj1"}}},
	}
}

func trailOf(t *testing.T, e workflow.Entity) []string {
	t.Helper()
	v, ok := e.Result("trail")
	if !ok {
		return nil
	}
	trail, ok := v.StringList()
	require.True(t, ok)
	return trail
}

func waitDone(t *testing.T, r *Runner) {
	t.Helper()
	require.Eventually(t, r.IsDone, 5*time.Second, time.Millisecond)
}
