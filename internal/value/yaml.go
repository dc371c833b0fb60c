package value

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// MarshalYAML emits the plain payload so documents stay human editable.
func (v Value) MarshalYAML() (any, error) {
	return v.Interface(), nil
}

// UnmarshalYAML decodes scalars and flat sequences. Quoted YAML strings stay
// strings; unquoted scalars follow YAML's own typing.
func (v *Value) UnmarshalYAML(node *yaml.Node) error {
	var raw any
	if err := node.Decode(&raw); err != nil {
		return err
	}
	decoded, err := FromAny(raw)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	*v = decoded
	return nil
}
