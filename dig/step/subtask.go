package step

import (
	"context"
	"fmt"

	"github.com/titpetric/atkins-core/dig/exec"
	"github.com/titpetric/atkins-core/dig/gate"
	"github.com/titpetric/atkins-core/dig/runctx"
	"github.com/titpetric/atkins-core/dig/token"
	"github.com/titpetric/atkins-core/dig/vars"
)

// OverPair is one (target_key, source_expression) entry of a sub-task
// step's `over:` map. Order matters: it's the declaration order the
// cartesian fan-out walks in spec.md §4.F's sub-task step step 5.
type OverPair struct {
	Key    string
	Source string
}

// SubTaskStep is the Sub-Task Spawn step: a named task, optional variable
// overrides, env/dir/if/silent overlays, and an optional `over` fan-out.
type SubTaskStep struct {
	Task    string
	Vars    vars.RawVariableMap // nil when `vars:` was absent
	HasVars bool
	Env     map[string]string
	Dir     string
	If      []gate.Gate
	Over    []OverPair
	Silent  bool
}

// StoreKey: sub-task steps never declare `store` (their output is
// sub-task dispatch, not a captured string), matching the reference
// implementation's get_store() default of None.
func (s *SubTaskStep) StoreKey() string { return "" }

func (s *SubTaskStep) Describe() string {
	if len(s.Over) == 0 {
		return "task: " + s.Task
	}
	return fmt.Sprintf("task: %s (over %d keys)", s.Task, len(s.Over))
}

func (s *SubTaskStep) Evaluate(ctx context.Context, index int, env *vars.Environment, rc *runctx.Context, pool *exec.Pool) (Outcome, error) {
	var stacked *vars.Environment
	var err error
	if s.HasVars {
		stacked, err = s.Vars.Stack(env, vars.EmptyLocals, rc, pool)
	} else {
		stacked = env.Stack(vars.CopyLocals)
	}
	if err != nil {
		return Outcome{}, err
	}

	stepRC := rc.Clone()
	if err := stepRC.Update(s.Env, s.Dir, s.Silent, stacked); err != nil {
		return Outcome{}, err
	}

	skip, gateIndex, statement, err := evaluateGates(ctx, s.If, stacked, stepRC, pool)
	if err != nil {
		return Outcome{}, err
	}
	if skip {
		return Outcome{Kind: Skipped, GateIndex: gateIndex, Statement: statement}, nil
	}

	if len(s.Over) == 0 {
		return Outcome{Kind: SubmitTasks, Descriptors: []Descriptor{
			{Task: s.Task, Vars: stacked, Context: stepRC},
		}}, nil
	}

	branches, err := expandOver(s.Over, stacked)
	if err != nil {
		return Outcome{}, err
	}

	descriptors := make([]Descriptor, len(branches))
	for i, b := range branches {
		descriptors[i] = Descriptor{Task: s.Task, Vars: b, Context: stepRC}
	}
	return Outcome{Kind: SubmitTasks, Descriptors: descriptors}, nil
}

// expandOver implements spec.md §4.F's cartesian fan-out: pop the last
// pair, expand its source expression, branch once per resulting element
// (or once, wrapped, for a bare scalar), and recurse on the remaining
// pairs for each branch -- producing the full cartesian product.
func expandOver(pairs []OverPair, env *vars.Environment) ([]*vars.Environment, error) {
	if len(pairs) == 0 {
		return []*vars.Environment{env}, nil
	}

	last := pairs[len(pairs)-1]
	rest := pairs[:len(pairs)-1]

	val, err := token.Expand(last.Source, env)
	if err != nil {
		return nil, err
	}

	var items []any
	switch v := val.(type) {
	case []any:
		items = v
	case map[string]any:
		return nil, fmt.Errorf("subtask: over source %q expanded to an object; expected an array or scalar", last.Source)
	default:
		items = []any{v}
	}

	var branches []*vars.Environment
	for _, item := range items {
		branchEnv := env.Clone()
		branchEnv.Insert(last.Key, item)
		sub, err := expandOver(rest, branchEnv)
		if err != nil {
			return nil, err
		}
		branches = append(branches, sub...)
	}
	return branches, nil
}
