// Package config implements the configuration document loader (spec.md §6):
// the top-level `version`/`vars`/`env`/`dir`/`tasks` document and the
// per-task schema, grounded on `original_source/src/core/config.rs`'s
// `DigConfig`/`load_yaml`/`get_task`.
package config

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/titpetric/atkins-core/dig/gate"
	"github.com/titpetric/atkins-core/dig/runctx"
	"github.com/titpetric/atkins-core/dig/step"
	"github.com/titpetric/atkins-core/dig/vars"
)

// Task is the Task Configuration (input) of spec.md §3: the schema a
// `tasks.<name>` entry decodes into.
type Task struct {
	Label string

	PreSteps  []step.Step
	Steps     []step.Step
	PostSteps []step.Step

	Inputs  []string
	Outputs []string

	RunIf    []gate.Gate
	CancelIf []gate.Gate

	Vars    vars.RawVariableMap
	HasVars bool

	Env    map[string]string
	Dir    string
	Silent bool

	Forcing runctx.ForcingBehaviour
}

// rawTask mirrors the YAML shape of a task entry before the step lists and
// forcing behaviour string are resolved into their typed forms.
type rawTask struct {
	Label string `yaml:"label"`

	PreSteps  []step.Config `yaml:"presteps"`
	Steps     []step.Config `yaml:"steps"`
	PostSteps []step.Config `yaml:"poststeps"`

	Inputs  []string `yaml:"inputs"`
	Outputs []string `yaml:"outputs"`

	If     []gate.Gate `yaml:"if"`
	Unless []gate.Gate `yaml:"unless"`

	Vars yaml.Node `yaml:"vars"`

	Env     map[string]string `yaml:"env"`
	Dir     string            `yaml:"dir"`
	Silent  bool              `yaml:"silent"`
	Forcing string            `yaml:"forcing"`
}

// UnmarshalYAML decodes a task entry, resolving its step-config list into
// concrete steps and its `forcing` string into a runctx.ForcingBehaviour.
func (t *Task) UnmarshalYAML(node *yaml.Node) error {
	var raw rawTask
	if err := node.Decode(&raw); err != nil {
		return err
	}

	t.Label = raw.Label
	t.PreSteps = stepsOf(raw.PreSteps)
	t.Steps = stepsOf(raw.Steps)
	t.PostSteps = stepsOf(raw.PostSteps)
	t.Inputs = raw.Inputs
	t.Outputs = raw.Outputs
	t.RunIf = raw.If
	t.CancelIf = raw.Unless
	t.Env = raw.Env
	t.Dir = raw.Dir
	t.Silent = raw.Silent

	if raw.Vars.Kind != 0 {
		rawVars, err := decodeRawVariableMap(&raw.Vars)
		if err != nil {
			return err
		}
		t.Vars, t.HasVars = rawVars, true
	}

	behaviour, err := runctx.ParseForcingBehaviour(raw.Forcing)
	if err != nil {
		return err
	}
	t.Forcing = behaviour

	return nil
}

func stepsOf(cfgs []step.Config) []step.Step {
	if cfgs == nil {
		return nil
	}
	out := make([]step.Step, len(cfgs))
	for i, c := range cfgs {
		out[i] = c.Step
	}
	return out
}

// decodeRawVariableMap is config's own copy of dig/step's unexported
// decoder: a task's top-level `vars:` has the same raw-variable-map shape
// as a sub-task step's `vars:`, but step.Config keeps that decoder private
// to its own discriminant-dispatch logic.
func decodeRawVariableMap(node *yaml.Node) (vars.RawVariableMap, error) {
	if node.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("config: invalid vars format: expected object, got %v", node.Kind)
	}
	out := make(vars.RawVariableMap, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		key := node.Content[i].Value
		valueNode := node.Content[i+1]

		if valueNode.Kind == yaml.MappingNode && looksLikeStepConfig(valueNode) {
			var cfg step.Config
			if err := cfg.UnmarshalYAML(valueNode); err != nil {
				return nil, err
			}
			executable, ok := cfg.Step.(vars.Executable)
			if !ok {
				return nil, fmt.Errorf("config: vars.%s: step config of this kind cannot produce a variable value", key)
			}
			out = append(out, vars.RawVariableEntry{Key: key, Value: vars.RawVariable{Executable: executable}})
			continue
		}

		var literal any
		if err := valueNode.Decode(&literal); err != nil {
			return nil, err
		}
		out = append(out, vars.RawVariableEntry{Key: key, Value: vars.RawVariable{Literal: literal}})
	}
	return out, nil
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

// Document is the Configuration document (spec.md §6): version, a
// top-level raw variable map, global env/dir overlays, and the named
// task table.
type Document struct {
	Version string
	Vars    vars.RawVariableMap
	HasVars bool
	Env     map[string]string
	Dir     string
	Tasks   map[string]*Task
}

type rawDocument struct {
	Version string `yaml:"version"`

	Vars yaml.Node `yaml:"vars"`

	Env   map[string]string `yaml:"env"`
	Dir   string            `yaml:"dir"`
	Tasks map[string]*Task  `yaml:"tasks"`
}

// Load parses a configuration document from source, defaulting `version`
// to "1" when absent per spec.md §6.
func Load(source []byte) (*Document, error) {
	var node yaml.Node
	if err := yaml.Unmarshal(source, &node); err != nil {
		return nil, err
	}
	if len(node.Content) == 0 {
		return &Document{Version: "1", Tasks: map[string]*Task{}}, nil
	}
	root := node.Content[0]

	var raw rawDocument
	if err := root.Decode(&raw); err != nil {
		return nil, err
	}

	doc := &Document{
		Version: raw.Version,
		Env:     raw.Env,
		Dir:     raw.Dir,
		Tasks:   raw.Tasks,
	}
	if doc.Version == "" {
		doc.Version = "1"
	}
	if doc.Tasks == nil {
		doc.Tasks = map[string]*Task{}
	}
	if raw.Vars.Kind != 0 {
		rawVars, err := decodeRawVariableMap(&raw.Vars)
		if err != nil {
			return nil, err
		}
		doc.Vars, doc.HasVars = rawVars, true
	}

	return doc, nil
}

// GetTask looks up a task by name, per `DigConfig::get_task`.
func (d *Document) GetTask(name string) (*Task, error) {
	t, ok := d.Tasks[name]
	if !ok {
		return nil, fmt.Errorf("config: unknown task %q", name)
	}
	return t, nil
}
