package config

// WorkflowFile is the on-disk form of a workflow.
type WorkflowFile struct {
	Version     string        `yaml:"version" toml:"version" validate:"required,semver"`
	Name        string        `yaml:"name" toml:"name" validate:"required,min=1,max=100"`
	Description string        `yaml:"description,omitempty" toml:"description,omitempty"`
	Settings    Settings      `yaml:"settings,omitempty" toml:"settings,omitempty"`
	Selectors   Selectors     `yaml:"selectors,omitempty" toml:"selectors,omitempty"`
	Commands    []CommandSpec `yaml:"commands" toml:"commands" validate:"omitempty,dive"`
}

// Settings holds workflow execution parameters.
type Settings struct {
	Parallel int `yaml:"parallel,omitempty" toml:"parallel,omitempty" validate:"omitempty,min=1,max=64"`
}

// Selectors name the entities each kind of command applies to. Empty lists
// select everything.
type Selectors struct {
	Injections []string `yaml:"injections,omitempty" toml:"injections,omitempty" validate:"omitempty,unique,dive,entity_name"`
	Segments   []string `yaml:"segments,omitempty" toml:"segments,omitempty" validate:"omitempty,unique,dive,entity_name"`
	Groups     []string `yaml:"groups,omitempty" toml:"groups,omitempty" validate:"omitempty,unique,dive,entity_name"`
}

// CommandSpec names a registered method. Kind is optional and, when present,
// must agree with the method. Overrides are keyed by entity name.
type CommandSpec struct {
	Method    string                    `yaml:"method" toml:"method" validate:"required"`
	Kind      string                    `yaml:"kind,omitempty" toml:"kind,omitempty" validate:"omitempty,oneof=injection injections segment segments group groups"`
	Overrides map[string]map[string]any `yaml:"overrides,omitempty" toml:"overrides,omitempty" validate:"omitempty,dive,keys,entity_name,endkeys"`
}

// SessionFile is the on-disk form of a session. It is also the shape the
// processed session is written back in.
type SessionFile struct {
	Name       string                    `yaml:"name" toml:"name" validate:"required,min=1,max=100"`
	Parameters map[string]map[string]any `yaml:"parameters,omitempty" toml:"parameters,omitempty"`
	Injections []EntitySpec              `yaml:"injections,omitempty" toml:"injections,omitempty" validate:"omitempty,dive"`
	Segments   []EntitySpec              `yaml:"segments,omitempty" toml:"segments,omitempty" validate:"omitempty,dive"`
	Groups     []EntitySpec              `yaml:"groups,omitempty" toml:"groups,omitempty" validate:"omitempty,dive"`
}

// EntitySpec describes one injection, segment, or group.
type EntitySpec struct {
	Name    string         `yaml:"name" toml:"name" validate:"required,entity_name"`
	Members []string       `yaml:"members,omitempty" toml:"members,omitempty" validate:"omitempty,dive,entity_name"`
	Results map[string]any `yaml:"results,omitempty" toml:"results,omitempty"`
}
