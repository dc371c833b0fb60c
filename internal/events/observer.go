// Package events carries workflow lifecycle notifications from the background
// job to observers running on a consumer goroutine.
package events

import "github.com/alexisbeaulieu97/peakflow/internal/domain/workflow"

// ErrorEvent describes a failed step.
type ErrorEvent struct {
	Entity  string
	Method  string
	Message string
}

// Observer receives workflow lifecycle notifications. Implementations are
// invoked on the goroutine that drains the Dispatcher.
type Observer interface {
	WorkflowStarted(commands []string)
	CommandStarted(index int, name string)
	CommandEnded(index int, name string)
	BatchStarted(kind workflow.EntityKind, size int)
	ItemStarted(kind workflow.EntityKind, name string)
	ItemEnded(kind workflow.EntityKind, name string)
	BatchEnded(kind workflow.EntityKind)
	WorkflowEnded()
	Error(event ErrorEvent)
}

// NopObserver ignores every notification. Embed it to implement a subset.
type NopObserver struct{}

func (NopObserver) WorkflowStarted([]string) {}
func (NopObserver) CommandStarted(int, string) {}
func (NopObserver) CommandEnded(int, string) {}
func (NopObserver) BatchStarted(workflow.EntityKind, int) {}
func (NopObserver) ItemStarted(workflow.EntityKind, string) {}
func (NopObserver) ItemEnded(workflow.EntityKind, string) {}
func (NopObserver) BatchEnded(workflow.EntityKind) {}
func (NopObserver) WorkflowEnded() {}
func (NopObserver) Error(ErrorEvent) {}

var _ Observer = NopObserver{}
