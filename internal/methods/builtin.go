package methods

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/alexisbeaulieu97/peakflow/internal/domain/workflow"
	"github.com/alexisbeaulieu97/peakflow/internal/value"
)

// Builtins returns fresh instances of the bundled methods.
func Builtins() []workflow.Method {
	return []workflow.Method{
		Annotate(),
		Wait(),
		FailOn(),
		SummarizeSegment(),
		SummarizeGroup(),
	}
}

// descriptor holds the identity shared by the bundled methods.
type descriptor struct {
	name   string
	kind   workflow.EntityKind
	schema workflow.Schema
}

func (s descriptor) Name() string              { return s.name }
func (s descriptor) Kind() workflow.EntityKind { return s.kind }
func (s descriptor) Schema() workflow.Schema   { return s.schema }

type annotate struct{ descriptor }

// Annotate stores a value under a result key on each injection.
func Annotate() workflow.Method {
	return annotate{descriptor{
		name: "annotate",
		kind: workflow.Injection,
		schema: workflow.Schema{
			{Name: "key", Type: value.String, Default: value.Of("label"), Description: "result key to write"},
			{Name: "value", Type: value.String, Default: value.Of(""), Description: "value stored under key"},
		},
	}}
}

func (m annotate) Execute(_ context.Context, entity *workflow.Entity, params workflow.Parameters, overrides workflow.Overrides) error {
	key := stringParam("key", params, overrides)
	if key == "" {
		return fmt.Errorf("key must not be empty")
	}
	v, ok := workflow.Lookup("value", params, overrides)
	if !ok {
		v = value.Of("")
	}
	entity.SetResult(key, v.Clone())
	return nil
}

type wait struct{ descriptor }

// Wait sleeps for a fixed time per injection and records how long it took.
func Wait() workflow.Method {
	return wait{descriptor{
		name: "wait",
		kind: workflow.Injection,
		schema: workflow.Schema{
			{Name: "duration_ms", Type: value.Int, Default: value.Of(100), Description: "time spent per injection"},
		},
	}}
}

func (m wait) Execute(ctx context.Context, entity *workflow.Entity, params workflow.Parameters, overrides workflow.Overrides) error {
	ms := 0
	if v, ok := workflow.Lookup("duration_ms", params, overrides); ok {
		ms, _ = v.Int()
	}
	if ms < 0 {
		return fmt.Errorf("duration_ms must not be negative, got %d", ms)
	}

	start := time.Now()
	timer := time.NewTimer(time.Duration(ms) * time.Millisecond)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
		return ctx.Err()
	}
	entity.SetResult("waited_ms", value.Of(time.Since(start).Milliseconds()))
	return nil
}

type failOn struct{ descriptor }

// FailOn fails for the listed injections and marks the others as checked.
func FailOn() workflow.Method {
	return failOn{descriptor{
		name: "fail_on",
		kind: workflow.Injection,
		schema: workflow.Schema{
			{Name: "entities", Type: value.StringList, Default: value.Of([]string{}), Description: "injections that fail"},
			{Name: "message", Type: value.String, Default: value.Of("injection rejected"), Description: "failure message"},
		},
	}}
}

func (m failOn) Execute(_ context.Context, entity *workflow.Entity, params workflow.Parameters, overrides workflow.Overrides) error {
	var targets []string
	if v, ok := workflow.Lookup("entities", params, overrides); ok {
		targets, _ = v.StringList()
	}
	if slices.Contains(targets, entity.Name) {
		return fmt.Errorf("%s", stringParam("message", params, overrides))
	}
	entity.SetResult("checked", value.Of(true))
	return nil
}

type summarize struct{ descriptor }

// SummarizeSegment records the member injections of each segment.
func SummarizeSegment() workflow.Method {
	return summarize{descriptor{name: "summarize_segment", kind: workflow.Segment, schema: summarySchema()}}
}

// SummarizeGroup records the member injections of each group.
func SummarizeGroup() workflow.Method {
	return summarize{descriptor{name: "summarize_group", kind: workflow.Group, schema: summarySchema()}}
}

func summarySchema() workflow.Schema {
	return workflow.Schema{
		{Name: "min_members", Type: value.Int, Default: value.Of(0), Description: "fail when fewer members"},
		{Name: "label", Type: value.String, Default: value.Of(""), Description: "optional label stored with the summary"},
	}
}

func (m summarize) Execute(_ context.Context, entity *workflow.Entity, params workflow.Parameters, overrides workflow.Overrides) error {
	minMembers := 0
	if v, ok := workflow.Lookup("min_members", params, overrides); ok {
		minMembers, _ = v.Int()
	}
	if len(entity.Members) < minMembers {
		return fmt.Errorf("%s %q has %d members, need %d", m.kind, entity.Name, len(entity.Members), minMembers)
	}

	members := slices.Clone(entity.Members)
	slices.Sort(members)
	entity.SetResult("member_count", value.Of(len(members)))
	entity.SetResult("members", value.Of(members))
	if label := stringParam("label", params, overrides); label != "" {
		entity.SetResult("label", value.Of(label))
	}
	return nil
}

func stringParam(name string, params workflow.Parameters, overrides workflow.Overrides) string {
	v, ok := workflow.Lookup(name, params, overrides)
	if !ok {
		return ""
	}
	if s, ok := v.Str(); ok {
		return s
	}
	return v.String()
}
