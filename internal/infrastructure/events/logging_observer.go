package events

import (
	"strings"

	"github.com/alexisbeaulieu97/peakflow/internal/domain/workflow"
	"github.com/alexisbeaulieu97/peakflow/internal/events"
	"github.com/alexisbeaulieu97/peakflow/internal/logger"
)

const (
	EventWorkflowStarted = "workflow.started"
	EventWorkflowEnded   = "workflow.ended"
	EventCommandStarted  = "command.started"
	EventCommandEnded    = "command.ended"
	EventBatchStarted    = "batch.started"
	EventItemStarted     = "item.started"
	EventItemEnded       = "item.ended"
	EventBatchEnded      = "batch.ended"
	EventStepFailed      = "step.failed"
)

// LoggingObserver writes each lifecycle notification as a structured log
// entry. Item-level notifications are logged at debug level.
type LoggingObserver struct {
	logger *logger.Logger
}

// NewLoggingObserver creates an observer writing to the supplied logger.
func NewLoggingObserver(log *logger.Logger) *LoggingObserver {
	if log == nil {
		log = logger.Nop()
	}
	return &LoggingObserver{logger: log.With("component", "events")}
}

var _ events.Observer = (*LoggingObserver)(nil)

func (o *LoggingObserver) entry(eventType string, fields map[string]any) *logger.Logger {
	l := o.logger.With("event_type", eventType)
	if len(fields) > 0 {
		l = l.WithFields(fields)
	}
	return l
}

func (o *LoggingObserver) WorkflowStarted(commands []string) {
	o.entry(EventWorkflowStarted, map[string]any{
		"commands": strings.Join(commands, ","),
		"total":    len(commands),
	}).Info("workflow event")
}

func (o *LoggingObserver) CommandStarted(index int, name string) {
	o.entry(EventCommandStarted, map[string]any{"index": index, "command": name}).Info("workflow event")
}

func (o *LoggingObserver) CommandEnded(index int, name string) {
	o.entry(EventCommandEnded, map[string]any{"index": index, "command": name}).Info("workflow event")
}

func (o *LoggingObserver) BatchStarted(kind workflow.EntityKind, size int) {
	o.entry(EventBatchStarted, map[string]any{"kind": kind.String(), "size": size}).Info("workflow event")
}

func (o *LoggingObserver) ItemStarted(kind workflow.EntityKind, name string) {
	o.entry(EventItemStarted, map[string]any{"kind": kind.String(), "entity": name}).Debug("workflow event")
}

func (o *LoggingObserver) ItemEnded(kind workflow.EntityKind, name string) {
	o.entry(EventItemEnded, map[string]any{"kind": kind.String(), "entity": name}).Debug("workflow event")
}

func (o *LoggingObserver) BatchEnded(kind workflow.EntityKind) {
	o.entry(EventBatchEnded, map[string]any{"kind": kind.String()}).Info("workflow event")
}

func (o *LoggingObserver) WorkflowEnded() {
	o.entry(EventWorkflowEnded, nil).Info("workflow event")
}

func (o *LoggingObserver) Error(event events.ErrorEvent) {
	o.entry(EventStepFailed, map[string]any{
		"entity": event.Entity,
		"method": event.Method,
		"error":  event.Message,
	}).Warn("workflow event")
}
