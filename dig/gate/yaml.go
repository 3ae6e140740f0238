package gate

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// UnmarshalYAML implements spec.md §6's gate schema: a bare string (an
// internal equality/bare-truth gate) or `{ test: STRING, allow?, deny? }`
// (an external gate).
func (g *Gate) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		g.Internal = node.Value
		return nil
	case yaml.MappingNode:
		var raw TestGate
		if err := node.Decode(&raw); err != nil {
			return err
		}
		if raw.Test == "" {
			return fmt.Errorf("gate: object-form gate requires a 'test' field")
		}
		g.External = &raw
		return nil
	default:
		return fmt.Errorf("gate: invalid gate format: expected string or object, got %v", node.Kind)
	}
}

// UnmarshalYAML lets TestGate be decoded via its plain field tags.
func (t *TestGate) UnmarshalYAML(node *yaml.Node) error {
	type rawTestGate struct {
		Test  string `yaml:"test"`
		Allow []int  `yaml:"allow"`
		Deny  []int  `yaml:"deny"`
	}
	var raw rawTestGate
	if err := node.Decode(&raw); err != nil {
		return err
	}
	t.Test = raw.Test
	t.Allow = raw.Allow
	t.Deny = raw.Deny
	return nil
}

// List decodes a `[gate]` YAML sequence field.
type List []Gate
