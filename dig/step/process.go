package step

import (
	"context"
	"fmt"
	"strings"

	"github.com/titpetric/atkins-core/colors"
	"github.com/titpetric/atkins-core/dig/exec"
	"github.com/titpetric/atkins-core/dig/gate"
	"github.com/titpetric/atkins-core/dig/runctx"
	"github.com/titpetric/atkins-core/dig/token"
	"github.com/titpetric/atkins-core/dig/vars"
	"github.com/titpetric/atkins-core/psexec"
)

// CommandEntry is the `cmd:` field of a generic process step: none,
// a single string appended as one argv element, or many strings each
// expanded and appended individually.
type CommandEntry struct {
	None   bool
	Single string
	Many   []string
}

// ProcessStep is the Generic Process step of spec.md §4.F: explicit
// `entry` and `cmd`, with env/dir/if/store/silent overlays. Shell and
// interpreter steps desugar into one of these.
type ProcessStep struct {
	Entry  string
	Cmd    CommandEntry
	Env    map[string]string
	Dir    string
	If     []gate.Gate
	Store  string
	Silent bool
}

func (p *ProcessStep) StoreKey() string { return p.Store }

func (p *ProcessStep) Describe() string {
	switch {
	case p.Cmd.Single != "":
		return p.Entry + " " + p.Cmd.Single
	case len(p.Cmd.Many) > 0:
		return p.Entry + " " + strings.Join(p.Cmd.Many, " ")
	default:
		return p.Entry
	}
}

// Run implements vars.Executable so a ProcessStep can back a
// command-producing raw variable entry.
func (p *ProcessStep) Run(env *vars.Environment, rc *runctx.Context, pool *exec.Pool) (string, error) {
	outcome, err := p.Evaluate(context.Background(), 0, env, rc, pool)
	if err != nil {
		return "", err
	}
	if outcome.Kind != Completed {
		return "", fmt.Errorf("process: command did not result in an output")
	}
	return outcome.Output, nil
}

func (p *ProcessStep) Evaluate(ctx context.Context, index int, env *vars.Environment, rc *runctx.Context, pool *exec.Pool) (Outcome, error) {
	stepRC := rc.Clone()
	if err := stepRC.Update(p.Env, p.Dir, p.Silent, env); err != nil {
		return Outcome{}, err
	}

	skip, gateIndex, statement, err := evaluateGates(ctx, p.If, env, stepRC, pool)
	if err != nil {
		return Outcome{}, err
	}
	if skip {
		return Outcome{Kind: Skipped, GateIndex: gateIndex, Statement: statement}, nil
	}

	name, argv, err := buildCommand(p.Entry, p.Cmd, env)
	if err != nil {
		return Outcome{}, err
	}

	var result psexec.Result
	runErr := pool.Run(ctx, func() error {
		executor := psexec.New()
		cmd := psexec.NewCommand(name, argv...)
		cmd.Dir = stepRC.Dir
		cmd.Env = stepRC.Environ()
		result = executor.Run(ctx, cmd)
		return nil
	})
	if runErr != nil {
		return Outcome{}, runErr
	}

	stdout := strings.TrimSpace(result.Output())
	stderr := strings.TrimSpace(result.ErrorOutput())

	if !stepRC.Silent {
		if stdout != "" {
			fmt.Println(colors.Gray(stdout))
		}
		if stderr != "" {
			fmt.Println(colors.BrightRed(stderr))
		}
	}

	if !result.Success() {
		return Outcome{}, fmt.Errorf("%s", stderr)
	}

	storeOutput(env, p.Store, stdout)
	return Outcome{Kind: Completed, Output: stdout}, nil
}

// buildCommand expands entry into an executable + initial argv (split on
// ASCII spaces), then appends the expanded cmd elements, per spec.md
// §4.F's "Generic process step" steps 1-2.
func buildCommand(entry string, cmd CommandEntry, env *vars.Environment) (name string, argv []string, err error) {
	expandedEntry, err := token.ExpandToString(entry, env)
	if err != nil {
		return "", nil, err
	}
	parts := strings.Split(expandedEntry, " ")
	if len(parts) == 0 || parts[0] == "" {
		return "", nil, fmt.Errorf("process: empty entry")
	}
	name = parts[0]
	argv = append(argv, parts[1:]...)

	switch {
	case cmd.None:
		// nothing to append
	case cmd.Many != nil:
		for _, c := range cmd.Many {
			expanded, err := token.ExpandToString(c, env)
			if err != nil {
				return "", nil, err
			}
			argv = append(argv, expanded)
		}
	default:
		expanded, err := token.ExpandToString(cmd.Single, env)
		if err != nil {
			return "", nil, err
		}
		argv = append(argv, expanded)
	}

	return name, argv, nil
}
