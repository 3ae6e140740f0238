package task_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/titpetric/atkins-core/dig/config"
	"github.com/titpetric/atkins-core/dig/exec"
	"github.com/titpetric/atkins-core/dig/runctx"
	"github.com/titpetric/atkins-core/dig/task"
	"github.com/titpetric/atkins-core/dig/vars"
)

func baseVars(t *testing.T) *vars.Environment {
	t.Helper()
	env := vars.New()
	env.Insert("COUNTRIES", []any{"ITA", "USA", "TRY"})
	env.Insert("NAME", "batman")
	return env
}

func mustLoad(t *testing.T, doc string) *config.Document {
	t.Helper()
	d, err := config.Load([]byte(doc))
	require.NoError(t, err)
	return d
}

func run(t *testing.T, doc *config.Document, taskName string, env *vars.Environment) []string {
	t.Helper()
	cfg, err := doc.GetTask(taskName)
	require.NoError(t, err)

	engine := task.NewEngine(doc, exec.New(2))
	rc := &runctx.Context{Forcing: runctx.NotForced}

	prepared, err := engine.Prepare(context.Background(), cfg, "test", env, vars.EmptyLocals, rc)
	require.NoError(t, err)
	require.Equal(t, task.Runnable, prepared.Outcome)

	outputs, err := engine.Evaluate(context.Background(), prepared, true)
	require.NoError(t, err)
	return outputs
}

func TestTask_Simple(t *testing.T) {
	doc := mustLoad(t, `
tasks:
  prepare_country:
    vars:
      iso3: DEU
    steps:
      - "echo PREPARING: {{iso3}}"
`)
	outputs := run(t, doc, "prepare_country", baseVars(t))
	assert.Equal(t, []string{"PREPARING: DEU"}, outputs)
}

func TestTask_VarsOverrideFromParent(t *testing.T) {
	doc := mustLoad(t, `
tasks:
  prepare_country:
    vars:
      iso3: DEU
    steps:
      - "echo PREPARING: {{iso3}}"
`)
	env := baseVars(t)
	env.Insert("iso3", "MEX")
	outputs := run(t, doc, "prepare_country", env)
	assert.Equal(t, []string{"PREPARING: MEX"}, outputs)
}

func TestTask_WithSubtask(t *testing.T) {
	doc := mustLoad(t, `
tasks:
  prepare_country:
    vars:
      iso3: DEU
    steps:
      - "echo PREPARING: {{iso3}}"
  analyze_country:
    vars:
      iso3: GBR
    silent: true
    steps:
      - task: prepare_country
      - "echo ANALYZING: {{iso3}}"
`)
	outputs := run(t, doc, "analyze_country", baseVars(t))
	assert.Equal(t, []string{"PREPARING: GBR", "ANALYZING: GBR"}, outputs)
}

func TestTask_WithMappedSubtasks(t *testing.T) {
	doc := mustLoad(t, `
tasks:
  prepare_country:
    vars:
      iso3: DEU
    steps:
      - "echo PREPARING: {{iso3}}"
  analyze_country:
    vars:
      iso3: GBR
    silent: true
    steps:
      - task: prepare_country
      - "echo ANALYZING: {{iso3}}"
  analyze_all_countries:
    silent: true
    steps:
      - task: analyze_country
        over:
          iso3: "{{COUNTRIES}}"
`)
	outputs := run(t, doc, "analyze_all_countries", baseVars(t))
	assert.ElementsMatch(t, []string{
		"PREPARING: ITA", "ANALYZING: ITA",
		"PREPARING: USA", "ANALYZING: USA",
		"PREPARING: TRY", "ANALYZING: TRY",
	}, outputs)
	// ITA/USA/TRY branches are independent; within a branch the order is
	// preserved even though the three branches themselves run concurrently.
	require.Len(t, outputs, 6)
}

func TestTask_DirAndEnvOverlay(t *testing.T) {
	doc := mustLoad(t, `
tasks:
  dir_env:
    silent: true
    vars:
      iso3: DEU
    env:
      SOME_ENV: "{{NAME}}"
    dir: "/"
    steps:
      - "echo \"I am the $SOME_ENV\""
      - pwd
`)
	outputs := run(t, doc, "dir_env", baseVars(t))
	assert.Equal(t, []string{"I am the batman", "/"}, outputs)
}

func TestTask_CanceledWhenAllCancelIfPass(t *testing.T) {
	doc := mustLoad(t, `
tasks:
  maybe:
    unless: ["1 = 1"]
    steps: ["echo should not run"]
`)
	cfg, err := doc.GetTask("maybe")
	require.NoError(t, err)

	engine := task.NewEngine(doc, exec.New(1))
	rc := &runctx.Context{Forcing: runctx.NotForced}
	prepared, err := engine.Prepare(context.Background(), cfg, "test", vars.New(), vars.EmptyLocals, rc)
	require.NoError(t, err)
	assert.Equal(t, task.Canceled, prepared.Outcome)

	_, err = engine.Evaluate(context.Background(), prepared, true)
	assert.Error(t, err)
}

func TestTask_SkippedWhenRunIfFails(t *testing.T) {
	doc := mustLoad(t, `
tasks:
  maybe:
    if: ["1 = 2"]
    steps: ["echo should not run"]
`)
	cfg, err := doc.GetTask("maybe")
	require.NoError(t, err)

	engine := task.NewEngine(doc, exec.New(1))
	rc := &runctx.Context{Forcing: runctx.NotForced}
	prepared, err := engine.Prepare(context.Background(), cfg, "test", vars.New(), vars.EmptyLocals, rc)
	require.NoError(t, err)
	assert.Equal(t, task.Skipped, prepared.Outcome)

	outputs, err := engine.Evaluate(context.Background(), prepared, true)
	require.NoError(t, err)
	assert.Nil(t, outputs)
}

func TestTask_ForcedRunsDespiteRunIfFailure(t *testing.T) {
	doc := mustLoad(t, `
tasks:
  maybe:
    if: ["1 = 2"]
    steps: ["echo forced"]
`)
	cfg, err := doc.GetTask("maybe")
	require.NoError(t, err)

	engine := task.NewEngine(doc, exec.New(1))
	rc := &runctx.Context{Forcing: runctx.ForcedAsMainTask}
	prepared, err := engine.Prepare(context.Background(), cfg, "test", vars.New(), vars.EmptyLocals, rc)
	require.NoError(t, err)
	assert.Equal(t, task.Runnable, prepared.Outcome)
}

func TestTask_SuccessVariableRecordsFailure(t *testing.T) {
	doc := mustLoad(t, `
tasks:
  fails:
    steps:
      - "exit 1"
`)
	cfg, err := doc.GetTask("fails")
	require.NoError(t, err)

	engine := task.NewEngine(doc, exec.New(1))
	rc := &runctx.Context{Forcing: runctx.NotForced}
	env := vars.New()
	prepared, err := engine.Prepare(context.Background(), cfg, "test", env, vars.EmptyLocals, rc)
	require.NoError(t, err)

	_, err = engine.Evaluate(context.Background(), prepared, true)
	assert.Error(t, err)

	success, lookupErr := prepared.Env.Get("SUCCESS")
	require.NoError(t, lookupErr)
	assert.Equal(t, false, success)
}
