package workflow

import (
	"context"
	"maps"
	"slices"
	"strings"

	"github.com/alexisbeaulieu97/peakflow/internal/value"
)

// Method is a processing step applicable to one kind of entity. Execute may
// mutate the entity it is given and nothing else.
type Method interface {
	Name() string
	Kind() EntityKind
	Schema() Schema
	Execute(ctx context.Context, entity *Entity, params Parameters, overrides Overrides) error
}

// Parameters are method-wide values resolved against the method's schema.
type Parameters map[string]value.Value

// Overrides are per-entity values that take precedence over Parameters.
type Overrides map[string]value.Value

// Clone deep copies the overrides.
func (o Overrides) Clone() Overrides {
	if o == nil {
		return nil
	}
	out := make(Overrides, len(o))
	for k, v := range o {
		out[k] = v.Clone()
	}
	return out
}

// Lookup returns the override for name if present, otherwise the parameter.
func Lookup(name string, params Parameters, overrides Overrides) (value.Value, bool) {
	if v, ok := overrides[name]; ok && v.IsSet() {
		return v, true
	}
	v, ok := params[name]
	return v, ok && v.IsSet()
}

// ParameterSpec declares one parameter a method accepts.
type ParameterSpec struct {
	Name        string
	Type        value.Kind
	Default     value.Value
	Description string
}

// Schema is the ordered parameter list of a method.
type Schema []ParameterSpec

// Names returns the parameter names in declaration order.
func (s Schema) Names() []string {
	names := make([]string, len(s))
	for i, p := range s {
		names[i] = p.Name
	}
	return names
}

// Resolve combines schema defaults with raw session text. Raw values are
// parsed and widened to the declared type. Names the schema does not declare
// are returned as ignored.
func (s Schema) Resolve(raw map[string]string) (Parameters, []string, error) {
	params := make(Parameters, len(s))
	declared := make(map[string]struct{}, len(s))
	for _, spec := range s {
		declared[spec.Name] = struct{}{}
		params[spec.Name] = spec.Default.Clone()

		text, ok := raw[spec.Name]
		if !ok {
			continue
		}
		resolved, err := resolveRaw(spec, text)
		if err != nil {
			return nil, nil, err
		}
		params[spec.Name] = resolved
	}

	var ignored []string
	for _, name := range slices.Sorted(maps.Keys(raw)) {
		if _, ok := declared[name]; !ok {
			ignored = append(ignored, name)
		}
	}
	return params, ignored, nil
}

// CheckOverride verifies that an override value matches the declared type,
// widening it when allowed.
func (s Schema) CheckOverride(name string, v value.Value) (value.Value, error) {
	for _, spec := range s {
		if spec.Name != name {
			continue
		}
		if spec.Type == value.Unset || v.Kind() == spec.Type {
			return v, nil
		}
		if spec.Type == value.String {
			return value.Of(v.String()), nil
		}
		converted, err := value.Convert(v, spec.Type)
		if err != nil {
			return value.Value{}, newTypeError(name, spec.Type.String(), v.Kind().String(), err)
		}
		return converted, nil
	}
	return value.Value{}, newDomainError(ErrCodeNotFound, "unknown parameter", nil, map[string]any{"parameter": name})
}

func resolveRaw(spec ParameterSpec, text string) (value.Value, error) {
	parsed := value.Parse(text)
	if spec.Type == value.Unset || parsed.Kind() == spec.Type {
		return parsed, nil
	}
	if spec.Type == value.String {
		return value.Of(strings.TrimSpace(text)), nil
	}
	converted, err := value.Convert(parsed, spec.Type)
	if err != nil {
		return value.Value{}, newTypeError(spec.Name, spec.Type.String(), parsed.Kind().String(), err)
	}
	return converted, nil
}
