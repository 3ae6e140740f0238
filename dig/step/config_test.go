package step_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/titpetric/atkins-core/dig/step"
)

func decode(t *testing.T, doc string) step.Step {
	t.Helper()
	var cfg step.Config
	require.NoError(t, yaml.Unmarshal([]byte(doc), &cfg))
	return cfg.Step
}

func TestConfig_BareStringIsShell(t *testing.T) {
	s, ok := decode(t, `echo hi`).(*step.ShellStep)
	require.True(t, ok)
	assert.Equal(t, "echo hi", s.Script)
}

func TestConfig_Bash(t *testing.T) {
	s, ok := decode(t, `
bash: echo hi
store: out
`).(*step.ShellStep)
	require.True(t, ok)
	assert.Equal(t, "echo hi", s.Script)
	assert.Equal(t, "out", s.Store)
}

func TestConfig_Py(t *testing.T) {
	s, ok := decode(t, `
py: print(1)
type: inline
`).(*step.InterpreterStep)
	require.True(t, ok)
	assert.Equal(t, "print(1)", s.Script)
	assert.Equal(t, step.ModeInline, s.Mode)
}

func TestConfig_PyDefaultsToScriptMode(t *testing.T) {
	s, ok := decode(t, `py: print(1)`).(*step.InterpreterStep)
	require.True(t, ok)
	assert.Equal(t, step.ModeScript, s.Mode)
}

func TestConfig_Cmd(t *testing.T) {
	s, ok := decode(t, `
entry: ls
cmd: [-la]
`).(*step.ProcessStep)
	require.True(t, ok)
	assert.Equal(t, "ls", s.Entry)
	assert.Equal(t, []string{"-la"}, s.Cmd.Many)
}

func TestConfig_CmdSingle(t *testing.T) {
	s, ok := decode(t, `cmd: "-la"`).(*step.ProcessStep)
	require.True(t, ok)
	assert.Equal(t, "-la", s.Cmd.Single)
}

func TestConfig_Task(t *testing.T) {
	s, ok := decode(t, `task: build`).(*step.SubTaskStep)
	require.True(t, ok)
	assert.Equal(t, "build", s.Task)
	assert.False(t, s.HasVars)
}

func TestConfig_TaskWithOverPreservesOrder(t *testing.T) {
	s, ok := decode(t, `
task: build
over:
  n: "{{nums}}"
  c: "{{chars}}"
`).(*step.SubTaskStep)
	require.True(t, ok)
	require.Len(t, s.Over, 2)
	assert.Equal(t, "n", s.Over[0].Key)
	assert.Equal(t, "c", s.Over[1].Key)
}

func TestConfig_TaskWithVars(t *testing.T) {
	s, ok := decode(t, `
task: build
vars:
  a: 1
  b: "{{a}}"
`).(*step.SubTaskStep)
	require.True(t, ok)
	require.True(t, s.HasVars)
	require.Len(t, s.Vars, 2)
	assert.Equal(t, "a", s.Vars[0].Key)
	assert.Equal(t, "b", s.Vars[1].Key)
}

func TestConfig_Parallel(t *testing.T) {
	s, ok := decode(t, `
parallel:
  - bash: echo one
  - bash: echo two
`).(*step.ParallelStep)
	require.True(t, ok)
	require.Len(t, s.Children, 2)
}

func TestConfig_ParallelRejectsNesting(t *testing.T) {
	var cfg step.Config
	err := yaml.Unmarshal([]byte(`
parallel:
  - parallel:
      - bash: echo nope
`), &cfg)
	assert.Error(t, err)
}

func TestConfig_AmbiguousDiscriminantErrors(t *testing.T) {
	var cfg step.Config
	err := yaml.Unmarshal([]byte(`
bash: echo hi
task: build
`), &cfg)
	assert.Error(t, err)
}

func TestConfig_NoDiscriminantErrors(t *testing.T) {
	var cfg step.Config
	err := yaml.Unmarshal([]byte(`
env:
  FOO: bar
`), &cfg)
	assert.Error(t, err)
}
