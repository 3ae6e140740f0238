package vars

import (
	"encoding/json"

	"github.com/titpetric/atkins-core/dig/exec"
	"github.com/titpetric/atkins-core/dig/runctx"
	"github.com/titpetric/atkins-core/dig/token"
)

// Executable is implemented by command-producing step configs (dig/step's
// process/shell/interpreter steps) so they can appear as `vars:` entries
// whose value is the captured stdout of a command, per spec.md §3's "Raw
// Variable" and the supplemented feature in SPEC_FULL.md §5.
type Executable interface {
	// Run executes the command against the given environment/context/pool
	// and returns its captured, trimmed stdout.
	Run(env *Environment, ctx *runctx.Context, pool *exec.Pool) (string, error)
}

// RawVariable is either a JSON literal (with embedded tokens) or a
// command-producing step.
type RawVariable struct {
	Literal    any
	Executable Executable
}

// Evaluate resolves a raw variable's value against env. When Executable is
// set, its captured stdout is parsed as JSON when possible, else kept as a
// raw string.
func (r RawVariable) Evaluate(env *Environment, ctx *runctx.Context, pool *exec.Pool) (any, error) {
	if r.Executable != nil {
		out, err := r.Executable.Run(env, ctx, pool)
		if err != nil {
			return nil, err
		}
		var v any
		if json.Unmarshal([]byte(out), &v) == nil {
			return v, nil
		}
		return out, nil
	}
	return token.ExpandValue(r.Literal, env)
}

// RawVariableEntry is one (key-token, raw-value) pair of a RawVariableMap.
type RawVariableEntry struct {
	Key   string
	Value RawVariable
}

// RawVariableMap is an insertion-ordered map of raw variable definitions:
// spec.md §3/§4.B requires entry j to see entries 1..j-1 but never later
// ones, which an ordinary Go map cannot express, hence the explicit slice.
type RawVariableMap []RawVariableEntry

// Stack pushes env per mode, then evaluates raw in insertion order,
// implementing spec.md §4.B's `push_with_raw`:
//   - if the parent frame already has the bare key token and mode is
//     EmptyLocals, inherit the parent's value unchanged;
//   - if mode is CopyLocals the value is already present in the local
//     frame from the copy, so it's skipped;
//   - otherwise expand the key as a token and evaluate the raw value
//     against the partially-built environment, then insert.
func (m RawVariableMap) Stack(env *Environment, mode StackMode, ctx *runctx.Context, pool *exec.Pool) (*Environment, error) {
	out := env.Stack(mode)

	for _, entry := range m {
		if parentVal, ok := out.GetFromParent(entry.Key); ok {
			if mode == EmptyLocals {
				out.Insert(entry.Key, parentVal)
			}
			continue
		}

		key, err := token.ExpandToString(entry.Key, out)
		if err != nil {
			return nil, err
		}
		value, err := entry.Value.Evaluate(out, ctx, pool)
		if err != nil {
			return nil, err
		}
		out.Insert(key, value)
	}

	return out, nil
}
