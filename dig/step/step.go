// Package step implements the Step Evaluator (Component F): the
// polymorphic shell/interpreter/generic-process/sub-task/parallel step
// kinds, their common evaluation path, and run-gate/store handling.
package step

import (
	"context"
	"encoding/json"

	"github.com/titpetric/atkins-core/dig/exec"
	"github.com/titpetric/atkins-core/dig/gate"
	"github.com/titpetric/atkins-core/dig/runctx"
	"github.com/titpetric/atkins-core/dig/vars"
)

// OutcomeKind discriminates a step evaluation's result.
type OutcomeKind int

const (
	// Completed means the step ran and produced (possibly empty) output.
	Completed OutcomeKind = iota
	// Skipped means an `if` gate failed before the step ran.
	Skipped
	// SubmitTasks means the step produced sub-task spawn descriptors for
	// the task engine to schedule.
	SubmitTasks
)

// Outcome is a step evaluation's result: exactly one of Completed /
// Skipped / SubmitTasks, per spec.md §4.F.
type Outcome struct {
	Kind OutcomeKind

	// Completed
	Output string

	// Skipped
	GateIndex int
	Statement string

	// SubmitTasks
	Descriptors []Descriptor
}

// Descriptor is a Sub-Task Spawn Descriptor (spec.md §3): a target task
// name plus the frozen variable environment and derived run context it
// should be prepared and evaluated against.
type Descriptor struct {
	Task    string
	Vars    *vars.Environment
	Context *runctx.Context
}

// Step is the common capability every step kind implements.
type Step interface {
	// Evaluate runs the step at the given step index against env/rc,
	// using pool to bound external-process concurrency.
	Evaluate(ctx context.Context, index int, env *vars.Environment, rc *runctx.Context, pool *exec.Pool) (Outcome, error)
	// StoreKey returns the `store:` field, or "" if the step doesn't
	// request result storage.
	StoreKey() string
	// Describe returns a short human-readable label for display (tree
	// listing, `--list`) and for the event log's step IDs and commands; it
	// does not affect how the step runs.
	Describe() string
}

// evaluateGates runs a step's `if` gate list and reports whether the step
// should be skipped, per the common path in spec.md §4.F step 2.
func evaluateGates(ctx context.Context, gates []gate.Gate, env *vars.Environment, rc *runctx.Context, pool *exec.Pool) (skip bool, gateIndex int, statement string, err error) {
	failure, err := gate.Evaluate(ctx, gates, env, rc, pool)
	if err != nil {
		return false, 0, "", err
	}
	if failure != nil {
		return true, failure.Index, failure.Statement, nil
	}
	return false, 0, "", nil
}

// storeOutput implements spec.md §4.F step 4: when storeKey is non-empty,
// parse output as JSON when possible, else keep it as a raw string, and
// insert it into env's local frame -- which, during a task's step loop, is
// the task's own local frame, not a step-private one.
func storeOutput(env *vars.Environment, storeKey, output string) {
	if storeKey == "" {
		return
	}
	var parsed any
	if json.Unmarshal([]byte(output), &parsed) == nil {
		env.Insert(storeKey, parsed)
	} else {
		env.Insert(storeKey, output)
	}
}
