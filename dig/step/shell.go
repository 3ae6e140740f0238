package step

import (
	"context"

	"github.com/titpetric/atkins-core/dig/exec"
	"github.com/titpetric/atkins-core/dig/gate"
	"github.com/titpetric/atkins-core/dig/runctx"
	"github.com/titpetric/atkins-core/dig/vars"
)

func defaultShellExecutable() string { return "bash" }

// ShellStep is the `bash:`/bare-string step: a script run through a shell,
// desugared into a ProcessStep per spec.md §4.F.
type ShellStep struct {
	Executable string // defaults to "bash"
	Script     string
	Env        map[string]string
	Dir        string
	If         []gate.Gate
	Store      string
	Silent     bool
}

// NewShellStep builds a ShellStep from a bare shell-command string, the
// desugaring target of a plain-string step config.
func NewShellStep(command string) *ShellStep {
	return &ShellStep{Executable: defaultShellExecutable(), Script: command}
}

func (s *ShellStep) StoreKey() string { return s.Store }

func (s *ShellStep) Describe() string { return s.Script }

func (s *ShellStep) process() *ProcessStep {
	executable := s.Executable
	if executable == "" {
		executable = defaultShellExecutable()
	}
	return &ProcessStep{
		Entry:  executable + " -c",
		Cmd:    CommandEntry{Single: s.Script},
		Env:    s.Env,
		Dir:    s.Dir,
		If:     s.If,
		Store:  s.Store,
		Silent: s.Silent,
	}
}

func (s *ShellStep) Evaluate(ctx context.Context, index int, env *vars.Environment, rc *runctx.Context, pool *exec.Pool) (Outcome, error) {
	return s.process().Evaluate(ctx, index, env, rc, pool)
}

func (s *ShellStep) Run(env *vars.Environment, rc *runctx.Context, pool *exec.Pool) (string, error) {
	return s.process().Run(env, rc, pool)
}
