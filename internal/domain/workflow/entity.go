package workflow

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/alexisbeaulieu97/peakflow/internal/value"
)

// EntityKind identifies the data partition a command targets.
type EntityKind int

const (
	Injection EntityKind = iota
	Segment
	Group
)

// Kinds lists every entity kind in processing order.
var Kinds = []EntityKind{Injection, Segment, Group}

func (k EntityKind) String() string {
	switch k {
	case Injection:
		return "injection"
	case Segment:
		return "segment"
	case Group:
		return "group"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// ParseEntityKind maps names such as "injection" or "Segments" to a kind.
func ParseEntityKind(name string) (EntityKind, error) {
	switch strings.TrimSuffix(strings.ToLower(strings.TrimSpace(name)), "s") {
	case "injection":
		return Injection, nil
	case "segment":
		return Segment, nil
	case "group":
		return Group, nil
	}
	return 0, newValidationError("unknown entity kind", map[string]any{"kind": name})
}

// Entity is one processable unit: a single injection, a sequence segment, or
// a sample group. Members names the injections it spans.
type Entity struct {
	Name    string
	Members []string
	Results map[string]value.Value
}

// SetResult records an output value produced by a method.
func (e *Entity) SetResult(key string, v value.Value) {
	if e.Results == nil {
		e.Results = make(map[string]value.Value)
	}
	e.Results[key] = v
}

// Result returns a previously recorded output value.
func (e *Entity) Result(key string) (value.Value, bool) {
	v, ok := e.Results[key]
	return v, ok
}

// Clone returns a deep copy of the entity.
func (e Entity) Clone() Entity {
	clone := Entity{
		Name:    e.Name,
		Members: slices.Clone(e.Members),
	}
	if e.Results != nil {
		clone.Results = make(map[string]value.Value, len(e.Results))
		for k, v := range e.Results {
			clone.Results[k] = v.Clone()
		}
	}
	return clone
}

// Session is the mutable processing context a workflow operates on. The
// runner owns a private deep copy for the duration of a run.
type Session struct {
	Name       string
	Injections []Entity
	Segments   []Entity
	Groups     []Entity
	// Parameters holds raw per-method parameter text keyed by method name.
	Parameters map[string]map[string]string
}

// Clone returns a deep copy that shares no mutable state with s.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	clone := &Session{
		Name:       s.Name,
		Injections: cloneEntities(s.Injections),
		Segments:   cloneEntities(s.Segments),
		Groups:     cloneEntities(s.Groups),
	}
	if s.Parameters != nil {
		clone.Parameters = make(map[string]map[string]string, len(s.Parameters))
		for method, params := range s.Parameters {
			clone.Parameters[method] = maps.Clone(params)
		}
	}
	return clone
}

// Entities returns the slice holding entities of the given kind.
func (s *Session) Entities(kind EntityKind) []Entity {
	switch kind {
	case Injection:
		return s.Injections
	case Segment:
		return s.Segments
	case Group:
		return s.Groups
	}
	return nil
}

// Select resolves names to entities of the given kind in the order given. An
// empty name list selects every entity. Repeated names select their entity
// once, at the first occurrence. Names without a matching entity are returned
// in missing. The returned pointers alias the session.
func (s *Session) Select(kind EntityKind, names []string) ([]*Entity, []string) {
	entities := s.Entities(kind)
	if len(names) == 0 {
		selected := make([]*Entity, len(entities))
		for i := range entities {
			selected[i] = &entities[i]
		}
		return selected, nil
	}

	index := make(map[string]int, len(entities))
	for i, e := range entities {
		index[e.Name] = i
	}

	selected := make([]*Entity, 0, len(names))
	seen := make(map[string]struct{}, len(names))
	var missing []string
	for _, name := range names {
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}

		i, ok := index[name]
		if !ok {
			missing = append(missing, name)
			continue
		}
		selected = append(selected, &entities[i])
	}
	return selected, missing
}

// Validate checks entity names are present and unique per kind.
func (s *Session) Validate() error {
	for _, kind := range Kinds {
		seen := make(map[string]struct{})
		for _, e := range s.Entities(kind) {
			if e.Name == "" {
				return newMissingFieldError(kind.String() + ".name")
			}
			if _, ok := seen[e.Name]; ok {
				return newDuplicateError(kind, e.Name)
			}
			seen[e.Name] = struct{}{}
		}
	}
	return nil
}

func cloneEntities(in []Entity) []Entity {
	if in == nil {
		return nil
	}
	out := make([]Entity, len(in))
	for i, e := range in {
		out[i] = e.Clone()
	}
	return out
}
