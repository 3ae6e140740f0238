package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/titpetric/atkins-core/dig/config"
	"github.com/titpetric/atkins-core/dig/runctx"
	"github.com/titpetric/atkins-core/dig/step"
)

func TestLoad_Defaults(t *testing.T) {
	doc, err := config.Load([]byte(`
tasks:
  build:
    steps:
      - echo hi
`))
	require.NoError(t, err)
	assert.Equal(t, "1", doc.Version)
	assert.False(t, doc.HasVars)

	task, err := doc.GetTask("build")
	require.NoError(t, err)
	require.Len(t, task.Steps, 1)
	_, ok := task.Steps[0].(*step.ShellStep)
	assert.True(t, ok)
	assert.Equal(t, runctx.Inherit, task.Forcing)
}

func TestLoad_UnknownTask(t *testing.T) {
	doc, err := config.Load([]byte(`
tasks:
  build:
    steps: [echo hi]
`))
	require.NoError(t, err)
	_, err = doc.GetTask("nope")
	assert.Error(t, err)
}

func TestLoad_TaskSchema(t *testing.T) {
	doc, err := config.Load([]byte(`
version: "2"
vars:
  greeting: hello
env:
  FOO: bar
tasks:
  greet:
    label: "Greet {{name}}"
    presteps:
      - bash: echo pre
    steps:
      - echo hi
    poststeps:
      - bash: echo post
    inputs: ["in.txt"]
    outputs: ["out.txt"]
    if: ["true"]
    unless: ["false"]
    silent: true
    forcing: always
    vars:
      name: world
`))
	require.NoError(t, err)
	assert.Equal(t, "2", doc.Version)
	require.True(t, doc.HasVars)

	task, err := doc.GetTask("greet")
	require.NoError(t, err)
	assert.Equal(t, "Greet {{name}}", task.Label)
	require.Len(t, task.PreSteps, 1)
	require.Len(t, task.Steps, 1)
	require.Len(t, task.PostSteps, 1)
	assert.Equal(t, []string{"in.txt"}, task.Inputs)
	assert.Equal(t, []string{"out.txt"}, task.Outputs)
	require.Len(t, task.RunIf, 1)
	require.Len(t, task.CancelIf, 1)
	assert.True(t, task.Silent)
	assert.Equal(t, runctx.Always, task.Forcing)
	require.True(t, task.HasVars)
	require.Len(t, task.Vars, 1)
	assert.Equal(t, "name", task.Vars[0].Key)
}

func TestLoad_InvalidForcingErrors(t *testing.T) {
	_, err := config.Load([]byte(`
tasks:
  build:
    steps: [echo hi]
    forcing: sometimes
`))
	assert.Error(t, err)
}
