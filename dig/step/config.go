package step

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/titpetric/atkins-core/dig/gate"
	"github.com/titpetric/atkins-core/dig/vars"
)

// Config decodes one step entry of a task's `presteps:`/`steps:`/
// `poststeps:` list into the concrete Step kind its YAML form names, per
// spec.md §6's "Step schema (discriminated by field presence)".
type Config struct {
	Step Step
}

// rawStepConfig mirrors every field any step kind can carry. Decoding into
// it first lets UnmarshalYAML inspect which discriminant keys are present
// before committing to a concrete step kind -- the same technique
// model/pipeline.go's Step.UnmarshalYAML uses for its single Run/Cmd/Uses
// shape, generalized here across five mutually exclusive step kinds.
type rawStepConfig struct {
	Bash *string `yaml:"bash"`

	Py    *string `yaml:"py"`
	Type  string  `yaml:"type"`
	Conda string  `yaml:"conda"`
	Venv  string  `yaml:"venv"`

	Entry *string   `yaml:"entry"`
	Cmd   yaml.Node `yaml:"cmd"`

	Task string          `yaml:"task"`
	Over yaml.Node       `yaml:"over"`
	Vars yaml.Node       `yaml:"vars"`

	Parallel []rawStepConfig `yaml:"parallel"`

	Env    map[string]string `yaml:"env"`
	Dir    string            `yaml:"dir"`
	If     []gate.Gate       `yaml:"if"`
	Store  string            `yaml:"store"`
	Silent bool              `yaml:"silent"`
}

// UnmarshalYAML implements spec.md §6's step schema: a bare string
// desugars to a shell step; otherwise exactly one of `bash`/`py`/`cmd`/
// `task`/`parallel` must be present, and that field's presence picks the
// step kind. More than one present is an ambiguous-discriminant error --
// the reference implementation's CommandConfigMethods::ensure_not_a_command
// check, generalized from two keys to five.
func (c *Config) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		c.Step = NewShellStep(node.Value)
		return nil
	}
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("step: invalid step format: expected string or object, got %v", node.Kind)
	}

	var raw rawStepConfig
	if err := node.Decode(&raw); err != nil {
		return err
	}

	step, err := raw.build()
	if err != nil {
		return err
	}
	c.Step = step
	return nil
}

func (raw *rawStepConfig) discriminants() []string {
	var present []string
	if raw.Bash != nil {
		present = append(present, "bash")
	}
	if raw.Py != nil {
		present = append(present, "py")
	}
	if raw.Cmd.Kind != 0 {
		present = append(present, "cmd")
	}
	if raw.Task != "" {
		present = append(present, "task")
	}
	if raw.Parallel != nil {
		present = append(present, "parallel")
	}
	return present
}

func (raw *rawStepConfig) build() (Step, error) {
	present := raw.discriminants()
	if len(present) == 0 {
		return nil, fmt.Errorf("step: object has none of bash/py/cmd/task/parallel")
	}
	if len(present) > 1 {
		return nil, fmt.Errorf("step: ambiguous step config: both %q and %q present", present[0], present[1])
	}

	switch present[0] {
	case "bash":
		s := NewShellStep(*raw.Bash)
		s.Env, s.Dir, s.If, s.Store, s.Silent = raw.Env, raw.Dir, raw.If, raw.Store, raw.Silent
		return s, nil

	case "py":
		mode := ModeScript
		if raw.Type == "inline" {
			mode = ModeInline
		}
		s := &InterpreterStep{
			Executable: defaultInterpreter(), Script: *raw.Py, Mode: mode,
			Conda: raw.Conda, Venv: raw.Venv,
			Env: raw.Env, Dir: raw.Dir, If: raw.If, Store: raw.Store, Silent: raw.Silent,
		}
		return s, nil

	case "cmd":
		cmd, err := decodeCommandEntry(&raw.Cmd)
		if err != nil {
			return nil, err
		}
		entry := ""
		if raw.Entry != nil {
			entry = *raw.Entry
		}
		return &ProcessStep{
			Entry: entry, Cmd: cmd,
			Env: raw.Env, Dir: raw.Dir, If: raw.If, Store: raw.Store, Silent: raw.Silent,
		}, nil

	case "task":
		over, err := decodeOverPairs(&raw.Over)
		if err != nil {
			return nil, err
		}
		s := &SubTaskStep{
			Task: raw.Task, Env: raw.Env, Dir: raw.Dir, If: raw.If, Over: over, Silent: raw.Silent,
		}
		if raw.Vars.Kind != 0 {
			rawVars, err := decodeRawVariableMap(&raw.Vars)
			if err != nil {
				return nil, err
			}
			s.Vars, s.HasVars = rawVars, true
		}
		return s, nil

	case "parallel":
		children := make([]Singular, 0, len(raw.Parallel))
		for i := range raw.Parallel {
			child, err := raw.Parallel[i].build()
			if err != nil {
				return nil, fmt.Errorf("step: parallel child %d: %w", i, err)
			}
			if _, nested := child.(*ParallelStep); nested {
				return nil, fmt.Errorf("step: parallel child %d: nested parallel groups are not allowed", i)
			}
			children = append(children, child)
		}
		return &ParallelStep{Children: children}, nil
	}

	return nil, fmt.Errorf("step: unreachable discriminant %q", present[0])
}

// decodeCommandEntry maps a `cmd:` node to none/single/many per spec.md
// §4.F's Generic process step: absent -> None, scalar -> Single, sequence
// -> Many.
func decodeCommandEntry(node *yaml.Node) (CommandEntry, error) {
	if node.Kind == 0 {
		return CommandEntry{None: true}, nil
	}
	switch node.Kind {
	case yaml.ScalarNode:
		return CommandEntry{Single: node.Value}, nil
	case yaml.SequenceNode:
		var many []string
		if err := node.Decode(&many); err != nil {
			return CommandEntry{}, err
		}
		return CommandEntry{Many: many}, nil
	default:
		return CommandEntry{}, fmt.Errorf("step: invalid cmd format: expected string or list, got %v", node.Kind)
	}
}

// decodeOverPairs decodes a `over:` mapping into declaration-ordered pairs,
// since spec.md §4.F's cartesian fan-out pops the *last declared* pair
// first and a plain map[string]string would lose that order.
func decodeOverPairs(node *yaml.Node) ([]OverPair, error) {
	if node.Kind == 0 {
		return nil, nil
	}
	if node.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("step: invalid over format: expected object, got %v", node.Kind)
	}
	pairs := make([]OverPair, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		var source string
		if err := node.Content[i+1].Decode(&source); err != nil {
			return nil, err
		}
		pairs = append(pairs, OverPair{Key: node.Content[i].Value, Source: source})
	}
	return pairs, nil
}

// decodeRawVariableMap decodes a `vars:` mapping into an insertion-ordered
// vars.RawVariableMap, per spec.md §4.B's ordering invariant. A mapping
// value that itself looks like a step config (has a bash/py/cmd key)
// becomes a command-producing raw variable per SPEC_FULL.md §5; otherwise
// it's a JSON-shaped literal with embedded tokens.
func decodeRawVariableMap(node *yaml.Node) (vars.RawVariableMap, error) {
	if node.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("step: invalid vars format: expected object, got %v", node.Kind)
	}
	out := make(vars.RawVariableMap, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		key := node.Content[i].Value
		valueNode := node.Content[i+1]

		rv, err := decodeRawVariable(valueNode)
		if err != nil {
			return nil, err
		}
		out = append(out, vars.RawVariableEntry{Key: key, Value: rv})
	}
	return out, nil
}

func decodeRawVariable(node *yaml.Node) (vars.RawVariable, error) {
	if node.Kind == yaml.MappingNode && looksLikeStepConfig(node) {
		var cfg Config
		if err := cfg.UnmarshalYAML(node); err != nil {
			return vars.RawVariable{}, err
		}
		executable, ok := cfg.Step.(vars.Executable)
		if !ok {
			return vars.RawVariable{}, fmt.Errorf("vars: step config of this kind cannot produce a variable value")
		}
		return vars.RawVariable{Executable: executable}, nil
	}

	var literal any
	if err := node.Decode(&literal); err != nil {
		return vars.RawVariable{}, err
	}
	return vars.RawVariable{Literal: literal}, nil
}

func looksLikeStepConfig(node *yaml.Node) bool {
	for i := 0; i+1 < len(node.Content); i += 2 {
		switch node.Content[i].Value {
		case "bash", "py", "cmd":
			return true
		}
	}
	return false
}
