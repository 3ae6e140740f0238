// Package gate implements the Run-Gate Evaluator (Component E): internal
// equality gates and external `test`-invocation gates, walked in order
// with first-failure-wins semantics.
package gate

import (
	"context"
	"fmt"
	"reflect"
	"strings"

	"github.com/expr-lang/expr"

	"github.com/titpetric/atkins-core/dig/exec"
	"github.com/titpetric/atkins-core/dig/runctx"
	"github.com/titpetric/atkins-core/dig/token"
	"github.com/titpetric/atkins-core/psexec"
)

// Gate is either an internal equality statement or an external `test`
// invocation. Exactly one of Internal/External is set.
type Gate struct {
	// Internal holds the raw, unexpanded `lhs = rhs` (or bare `rhs`)
	// statement text.
	Internal string
	External *TestGate
}

// TestGate is the `{ test: STRING, allow: [...], deny: [...] }` gate form.
// Allow/Deny are accepted for schema compatibility with the original
// configuration format but are not consulted during evaluation -- they
// were dead fields in the reference implementation this is ported from.
type TestGate struct {
	Test string
	Allow []int
	Deny  []int
}

// Failure describes the first gate in a list that failed to pass.
type Failure struct {
	Index     int
	Statement string
}

func (f *Failure) Error() string {
	return fmt.Sprintf("gate %d: %s", f.Index, f.Statement)
}

// Evaluate walks gates in order, stopping at the first that fails. It
// returns a non-nil *Failure (never a generic error) when a gate fails,
// and nil when every gate passes. A malformed gate (an internal statement
// with more than one `=`) is a hard error, not a failure.
func Evaluate(ctx context.Context, gates []Gate, env token.Lookup, rc *runctx.Context, pool *exec.Pool) (*Failure, error) {
	for i, g := range gates {
		pass, statement, err := evaluateOne(ctx, g, env, rc, pool)
		if err != nil {
			return nil, err
		}
		if !pass {
			return &Failure{Index: i, Statement: statement}, nil
		}
	}
	return nil, nil
}

func evaluateOne(ctx context.Context, g Gate, env token.Lookup, rc *runctx.Context, pool *exec.Pool) (pass bool, statement string, err error) {
	if g.External != nil {
		return evaluateExternal(ctx, g.External, env, rc, pool)
	}
	return evaluateInternal(g.Internal, env)
}

// evaluateInternal implements spec.md §4.E's internal gate:
//  1. split at the first `=` (a second `=` is a syntax error)
//  2. expand both sides via the token expander; no `=` defaults lhs=true
//  3. compare as JSON values (strict equality)
//
// As a domain-stack enrichment (SPEC_FULL.md §4), a statement containing
// boolean operators (`&&`, `||`, a leading `!`) that the simple lhs=rhs
// grammar cannot express is instead evaluated as an expr-lang boolean
// expression against the same variable environment.
func evaluateInternal(stmt string, env token.Lookup) (bool, string, error) {
	if looksLikeExpression(stmt) {
		expanded, err := token.ExpandToString(stmt, env)
		if err != nil {
			return false, stmt, err
		}
		ok, err := evalExprLang(expanded, env)
		return ok, expanded, err
	}

	lhsRaw, rhsRaw, hasEq, err := splitOnFirstEquals(stmt)
	if err != nil {
		return false, stmt, err
	}

	var lhs, rhs any
	if hasEq {
		lhs, err = token.Expand(lhsRaw, env)
		if err != nil {
			return false, stmt, err
		}
		rhs, err = token.Expand(rhsRaw, env)
		if err != nil {
			return false, stmt, err
		}
	} else {
		lhs = true
		rhs, err = token.Expand(rhsRaw, env)
		if err != nil {
			return false, stmt, err
		}
	}

	statement := fmt.Sprintf("%v = %v", lhs, rhs)
	return reflect.DeepEqual(lhs, rhs), statement, nil
}

func splitOnFirstEquals(stmt string) (lhs, rhs string, hasEq bool, err error) {
	idx := strings.Index(stmt, "=")
	if idx < 0 {
		return "", stmt, false, nil
	}
	rest := stmt[idx+1:]
	if strings.Contains(rest, "=") {
		return "", "", false, fmt.Errorf("gate: malformed internal gate %q: more than one '='", stmt)
	}
	return strings.TrimSpace(stmt[:idx]), strings.TrimSpace(rest), true, nil
}

func looksLikeExpression(stmt string) bool {
	return strings.Contains(stmt, "&&") || strings.Contains(stmt, "||") || strings.HasPrefix(strings.TrimSpace(stmt), "!")
}

func evalExprLang(expanded string, env token.Lookup) (bool, error) {
	vars := map[string]any{}
	if lookup, ok := env.(interface{ All() map[string]any }); ok {
		vars = lookup.All()
	}

	program, err := expr.Compile(expanded, expr.AllowUndefinedVariables(), expr.AsBool())
	if err != nil {
		return false, fmt.Errorf("gate: invalid expression %q: %w", expanded, err)
	}
	out, err := expr.Run(program, vars)
	if err != nil {
		return false, fmt.Errorf("gate: expression %q failed: %w", expanded, err)
	}
	b, _ := out.(bool)
	return b, nil
}

// evaluateExternal implements spec.md §4.E's external gate: expand the
// statement, then `bash -c "test <expanded>"` under rc's env/dir overlay,
// gated by pool's permit semaphore. Exit 0 = pass.
func evaluateExternal(ctx context.Context, g *TestGate, env token.Lookup, rc *runctx.Context, pool *exec.Pool) (bool, string, error) {
	expanded, err := token.ExpandToString(g.Test, env)
	if err != nil {
		return false, g.Test, err
	}

	var result psexec.Result
	runErr := pool.Run(ctx, func() error {
		executor := psexec.New()
		cmd := executor.ShellCommand(fmt.Sprintf("test %s", expanded))
		if rc != nil {
			cmd.Dir = rc.Dir
			cmd.Env = rc.Environ()
		}
		res := executor.Run(ctx, cmd)
		result = res
		return nil
	})
	if runErr != nil {
		return false, expanded, runErr
	}

	return result.Success(), expanded, nil
}
