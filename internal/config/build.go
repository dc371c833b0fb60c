package config

import (
	"fmt"
	"maps"
	"slices"

	"github.com/alexisbeaulieu97/peakflow/internal/domain/workflow"
	"github.com/alexisbeaulieu97/peakflow/internal/value"
	peakerrors "github.com/alexisbeaulieu97/peakflow/pkg/errors"
)

// MethodLookup resolves method names, typically a methods.Registry.
type MethodLookup interface {
	Get(name string) (workflow.Method, error)
}

// LoadWorkflow parses, validates, and builds the workflow at path.
func LoadWorkflow(path string, methods MethodLookup) (workflow.Workflow, error) {
	doc, err := ParseWorkflowFile(path)
	if err != nil {
		return workflow.Workflow{}, err
	}
	return BuildWorkflow(doc, methods)
}

// LoadSession parses, validates, and builds the session at path.
func LoadSession(path string) (*workflow.Session, error) {
	doc, err := ParseSessionFile(path)
	if err != nil {
		return nil, err
	}
	return BuildSession(doc)
}

// BuildWorkflow resolves every command through methods and checks override
// values against the method schema.
func BuildWorkflow(doc *WorkflowFile, methods MethodLookup) (workflow.Workflow, error) {
	if err := ValidateWorkflowFile(doc); err != nil {
		return workflow.Workflow{}, err
	}
	if methods == nil {
		return workflow.Workflow{}, fmt.Errorf("build workflow: method lookup is nil")
	}

	wf := workflow.Workflow{
		Name: doc.Name,
		Selectors: workflow.Selectors{
			Injections: slices.Clone(doc.Selectors.Injections),
			Segments:   slices.Clone(doc.Selectors.Segments),
			Groups:     slices.Clone(doc.Selectors.Groups),
		},
		Settings: workflow.Settings{Parallel: doc.Settings.Parallel},
	}

	for i, spec := range doc.Commands {
		method, err := methods.Get(spec.Method)
		if err != nil {
			return workflow.Workflow{}, peakerrors.NewValidationError(fieldForCommand(i, "method"), fmt.Sprintf("unknown method %q", spec.Method), err)
		}

		if spec.Kind != "" {
			kind, err := workflow.ParseEntityKind(spec.Kind)
			if err != nil {
				return workflow.Workflow{}, peakerrors.NewValidationError(fieldForCommand(i, "kind"), err.Error(), err)
			}
			if kind != method.Kind() {
				return workflow.Workflow{}, peakerrors.NewValidationError(fieldForCommand(i, "kind"),
					fmt.Sprintf("method %q applies to %s, not %s", spec.Method, method.Kind(), kind), nil)
			}
		}

		overrides, err := buildOverrides(i, method.Schema(), spec.Overrides)
		if err != nil {
			return workflow.Workflow{}, err
		}
		wf.Commands = append(wf.Commands, workflow.NewCommand(method, overrides))
	}

	if err := wf.Validate(); err != nil {
		return workflow.Workflow{}, err
	}
	return wf, nil
}

func buildOverrides(index int, schema workflow.Schema, raw map[string]map[string]any) (map[string]workflow.Overrides, error) {
	if len(raw) == 0 {
		return nil, nil
	}

	out := make(map[string]workflow.Overrides, len(raw))
	for _, entity := range slices.Sorted(maps.Keys(raw)) {
		overrides := make(workflow.Overrides, len(raw[entity]))
		for _, name := range slices.Sorted(maps.Keys(raw[entity])) {
			field := fieldForCommand(index, fmt.Sprintf("overrides.%s.%s", entity, name))
			v, err := value.FromAny(raw[entity][name])
			if err != nil {
				return nil, peakerrors.NewValidationError(field, err.Error(), err)
			}
			checked, err := schema.CheckOverride(name, v)
			if err != nil {
				return nil, peakerrors.NewValidationError(field, err.Error(), err)
			}
			overrides[name] = checked
		}
		out[entity] = overrides
	}
	return out, nil
}

// BuildSession converts a session document into the domain session.
func BuildSession(doc *SessionFile) (*workflow.Session, error) {
	if err := ValidateSessionFile(doc); err != nil {
		return nil, err
	}

	session := &workflow.Session{Name: doc.Name}
	var err error
	if session.Injections, err = buildEntities(workflow.Injection, doc.Injections); err != nil {
		return nil, err
	}
	if session.Segments, err = buildEntities(workflow.Segment, doc.Segments); err != nil {
		return nil, err
	}
	if session.Groups, err = buildEntities(workflow.Group, doc.Groups); err != nil {
		return nil, err
	}
	if session.Parameters, err = rawParameters(doc.Parameters); err != nil {
		return nil, err
	}

	if err := session.Validate(); err != nil {
		return nil, err
	}
	return session, nil
}

func buildEntities(kind workflow.EntityKind, specs []EntitySpec) ([]workflow.Entity, error) {
	if len(specs) == 0 {
		return nil, nil
	}
	entities := make([]workflow.Entity, len(specs))
	for i, spec := range specs {
		entity := workflow.Entity{Name: spec.Name, Members: slices.Clone(spec.Members)}
		for _, key := range slices.Sorted(maps.Keys(spec.Results)) {
			v, err := value.FromAny(spec.Results[key])
			if err != nil {
				return nil, peakerrors.NewValidationError(fieldForEntity(plural(kind), i, "results."+key), err.Error(), err)
			}
			entity.SetResult(key, v)
		}
		entities[i] = entity
	}
	return entities, nil
}

// rawParameters flattens decoded parameter values back to text. Strings are
// kept verbatim; everything else is rendered in the form value.Parse reads.
func rawParameters(in map[string]map[string]any) (map[string]map[string]string, error) {
	if len(in) == 0 {
		return nil, nil
	}
	out := make(map[string]map[string]string, len(in))
	for method, params := range in {
		raw := make(map[string]string, len(params))
		for name, x := range params {
			if s, ok := x.(string); ok {
				raw[name] = s
				continue
			}
			v, err := value.FromAny(x)
			if err != nil {
				return nil, peakerrors.NewValidationError(fmt.Sprintf("parameters.%s.%s", method, name), err.Error(), err)
			}
			raw[name] = v.String()
		}
		out[method] = raw
	}
	return out, nil
}
