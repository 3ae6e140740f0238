package step

import (
	"context"
	"fmt"

	"github.com/titpetric/atkins-core/dig/exec"
	"github.com/titpetric/atkins-core/dig/gate"
	"github.com/titpetric/atkins-core/dig/runctx"
	"github.com/titpetric/atkins-core/dig/vars"
)

// InterpreterMode selects how an interpreter step's script text is
// delivered to the interpreter, per spec.md §4.F.
type InterpreterMode int

const (
	// ModeScript is the default: the script is passed with `-c` only when
	// Inline is also requested; Script mode omits it (kept for schema
	// symmetry with the reference format's inline/script distinction).
	ModeScript InterpreterMode = iota
	ModeInline
)

// InterpreterStep is the `py:` (or other interpreter) step: interpreter,
// script text, execution mode, plus an optional conda/venv environment.
type InterpreterStep struct {
	Executable string // defaults to "python3"
	Script     string
	Mode       InterpreterMode
	Conda      string // non-empty selects the conda execution variant
	Venv       string // non-empty selects the venv execution variant
	Env        map[string]string
	Dir        string
	If         []gate.Gate
	Store      string
	Silent     bool
}

func defaultInterpreter() string { return "python3" }

func NewInterpreterStep(script string) *InterpreterStep {
	return &InterpreterStep{Executable: defaultInterpreter(), Script: script, Mode: ModeScript}
}

func (p *InterpreterStep) StoreKey() string { return p.Store }

func (p *InterpreterStep) Describe() string {
	interp := p.Executable
	if interp == "" {
		interp = defaultInterpreter()
	}
	return interp + ": " + p.Script
}

// process desugars the interpreter step into a ProcessStep, implementing
// the three variants spec.md §4.F names:
//   - plain: entry = "<interp> [-c]", cmd = single(text)
//   - conda: entry = "conda", cmd = many("run","-n",env,interp,["-c"],text)
//   - venv:  entry = "bash -c", cmd = single("source <venv>/bin/activate && <interp> [-c] <text>")
func (p *InterpreterStep) process() *ProcessStep {
	interp := p.Executable
	if interp == "" {
		interp = defaultInterpreter()
	}
	inline := p.Mode == ModeInline

	switch {
	case p.Conda != "":
		many := []string{"run", "-n", p.Conda, interp}
		if inline {
			many = append(many, "-c")
		}
		many = append(many, p.Script)
		return &ProcessStep{
			Entry: "conda", Cmd: CommandEntry{Many: many},
			Env: p.Env, Dir: p.Dir, If: p.If, Store: p.Store, Silent: p.Silent,
		}

	case p.Venv != "":
		cFlag := ""
		if inline {
			cFlag = "-c "
		}
		script := fmt.Sprintf("source %s/bin/activate && %s %s%s", p.Venv, interp, cFlag, p.Script)
		return &ProcessStep{
			Entry: "bash -c", Cmd: CommandEntry{Single: script},
			Env: p.Env, Dir: p.Dir, If: p.If, Store: p.Store, Silent: p.Silent,
		}

	default:
		entry := interp
		if inline {
			entry += " -c"
		}
		return &ProcessStep{
			Entry: entry, Cmd: CommandEntry{Single: p.Script},
			Env: p.Env, Dir: p.Dir, If: p.If, Store: p.Store, Silent: p.Silent,
		}
	}
}

func (p *InterpreterStep) Evaluate(ctx context.Context, index int, env *vars.Environment, rc *runctx.Context, pool *exec.Pool) (Outcome, error) {
	return p.process().Evaluate(ctx, index, env, rc, pool)
}

func (p *InterpreterStep) Run(env *vars.Environment, rc *runctx.Context, pool *exec.Pool) (string, error) {
	return p.process().Run(env, rc, pool)
}
