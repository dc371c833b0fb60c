package engine

import (
	"fmt"
	"strings"

	"github.com/alexisbeaulieu97/peakflow/internal/domain/workflow"
)

// Run is a maximal contiguous group of commands that target the same entity
// kind. Start is the index of the first command in the workflow.
type Run struct {
	Kind      workflow.EntityKind
	Start     int
	Commands  []workflow.Command
	Overrides map[string]workflow.Overrides
}

// Names returns the method names of the run's commands in order.
func (r Run) Names() []string {
	names := make([]string, len(r.Commands))
	for i, cmd := range r.Commands {
		names[i] = cmd.Name()
	}
	return names
}

// BuildRuns splits commands into runs at every change of entity kind. Order
// is preserved and runs are never merged across a boundary. Within a run the
// per-entity overrides are unioned, later commands winning key by key.
func BuildRuns(commands []workflow.Command) []Run {
	var runs []Run
	for i, cmd := range commands {
		if len(runs) == 0 || runs[len(runs)-1].Kind != cmd.Kind {
			runs = append(runs, Run{
				Kind:      cmd.Kind,
				Start:     i,
				Overrides: make(map[string]workflow.Overrides),
			})
		}
		current := &runs[len(runs)-1]
		current.Commands = append(current.Commands, cmd)
		mergeOverrides(current.Overrides, cmd.Overrides)
	}
	return runs
}

func mergeOverrides(dst map[string]workflow.Overrides, src map[string]workflow.Overrides) {
	for entity, overrides := range src {
		merged, ok := dst[entity]
		if !ok {
			merged = make(workflow.Overrides, len(overrides))
			dst[entity] = merged
		}
		for key, v := range overrides {
			merged[key] = v.Clone()
		}
	}
}

// DescribeRuns renders a human readable summary of the runs.
func DescribeRuns(runs []Run) string {
	var b strings.Builder
	for i, run := range runs {
		fmt.Fprintf(&b, "Run %d (%s, %d commands): %s\n", i, run.Kind, len(run.Commands), strings.Join(run.Names(), ", "))
	}
	return b.String()
}
