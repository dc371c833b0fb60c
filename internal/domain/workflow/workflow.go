package workflow

import "slices"

// Command pairs a method with its per-entity overrides. Commands are treated
// as immutable once built.
type Command struct {
	Kind      EntityKind
	Method    Method
	Overrides map[string]Overrides
}

// NewCommand builds a command whose kind follows the method.
func NewCommand(method Method, overrides map[string]Overrides) Command {
	return Command{Kind: method.Kind(), Method: method, Overrides: overrides}
}

// Name returns the method name, or an empty string for an incomplete command.
func (c Command) Name() string {
	if c.Method == nil {
		return ""
	}
	return c.Method.Name()
}

// Clone returns a copy with its override maps duplicated. The method is shared.
func (c Command) Clone() Command {
	clone := Command{Kind: c.Kind, Method: c.Method}
	if c.Overrides != nil {
		clone.Overrides = make(map[string]Overrides, len(c.Overrides))
		for entity, o := range c.Overrides {
			clone.Overrides[entity] = o.Clone()
		}
	}
	return clone
}

// Selectors name the entities each kind of command applies to. An empty list
// selects every entity of that kind. Each list is a set; repeated names are
// ignored.
type Selectors struct {
	Injections []string
	Segments   []string
	Groups     []string
}

// For returns the selector list of the given kind.
func (s Selectors) For(kind EntityKind) []string {
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

// Clone returns a copy that shares no slices with s.
func (s Selectors) Clone() Selectors {
	return Selectors{
		Injections: slices.Clone(s.Injections),
		Segments:   slices.Clone(s.Segments),
		Groups:     slices.Clone(s.Groups),
	}
}

// Settings captures execution parameters for a workflow run.
type Settings struct {
	// Parallel bounds the number of injections processed concurrently.
	Parallel int
}

// ApplyDefaults ensures settings remain within supported ranges.
func (s Settings) ApplyDefaults() Settings {
	if s.Parallel <= 0 {
		s.Parallel = 4
	}
	return s
}

// Workflow is an ordered command list with its entity selection.
type Workflow struct {
	Name      string
	Commands  []Command
	Selectors Selectors
	Settings  Settings
}

// Validate ensures every command has a method whose kind matches.
func (w Workflow) Validate() error {
	for i, cmd := range w.Commands {
		if cmd.Method == nil {
			return newMissingFieldError("commands.method").WithContext(map[string]any{"index": i})
		}
		if cmd.Method.Kind() != cmd.Kind {
			return newKindMismatchError(i, cmd.Name(), cmd.Method.Kind(), cmd.Kind)
		}
	}
	return nil
}

// CommandNames lists the command names in order.
func (w Workflow) CommandNames() []string {
	names := make([]string, len(w.Commands))
	for i, cmd := range w.Commands {
		names[i] = cmd.Name()
	}
	return names
}

// Clone returns a deep copy of the workflow.
func (w Workflow) Clone() Workflow {
	commands := make([]Command, len(w.Commands))
	for i, cmd := range w.Commands {
		commands[i] = cmd.Clone()
	}
	return Workflow{
		Name:      w.Name,
		Commands:  commands,
		Selectors: w.Selectors.Clone(),
		Settings:  w.Settings,
	}
}
