package gate_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/titpetric/atkins-core/dig/exec"
	"github.com/titpetric/atkins-core/dig/gate"
	"github.com/titpetric/atkins-core/dig/runctx"
	"github.com/titpetric/atkins-core/dig/vars"
)

func TestEvaluate_AllPass(t *testing.T) {
	env := vars.New()
	env.Insert("x", "yes")

	gates := []gate.Gate{{Internal: "{{x}} = yes"}}
	fail, err := gate.Evaluate(context.Background(), gates, env, &runctx.Context{}, exec.New(1))
	require.NoError(t, err)
	assert.Nil(t, fail)
}

func TestEvaluate_FirstFailureWins(t *testing.T) {
	env := vars.New()
	env.Insert("x", "no")

	gates := []gate.Gate{
		{Internal: "{{x}} = yes"},
		{Internal: "true"}, // never reached
	}
	fail, err := gate.Evaluate(context.Background(), gates, env, &runctx.Context{}, exec.New(1))
	require.NoError(t, err)
	require.NotNil(t, fail)
	assert.Equal(t, 0, fail.Index)
}

func TestEvaluate_BareTokenDefaultsLHSTrue(t *testing.T) {
	env := vars.New()
	env.Insert("flag", true)

	gates := []gate.Gate{{Internal: "{{flag}}"}}
	fail, err := gate.Evaluate(context.Background(), gates, env, &runctx.Context{}, exec.New(1))
	require.NoError(t, err)
	assert.Nil(t, fail)
}

func TestEvaluate_MalformedDoubleEquals(t *testing.T) {
	env := vars.New()
	gates := []gate.Gate{{Internal: "a = b = c"}}
	_, err := gate.Evaluate(context.Background(), gates, env, &runctx.Context{}, exec.New(1))
	assert.Error(t, err)
}

func TestEvaluate_ExternalTestGate(t *testing.T) {
	env := vars.New()
	gates := []gate.Gate{{External: &gate.TestGate{Test: "-n \"x\""}}}
	fail, err := gate.Evaluate(context.Background(), gates, env, &runctx.Context{}, exec.New(1))
	require.NoError(t, err)
	assert.Nil(t, fail)
}

func TestEvaluate_ExternalTestGateFails(t *testing.T) {
	env := vars.New()
	gates := []gate.Gate{{External: &gate.TestGate{Test: "-z \"x\""}}}
	fail, err := gate.Evaluate(context.Background(), gates, env, &runctx.Context{}, exec.New(1))
	require.NoError(t, err)
	require.NotNil(t, fail)
	assert.Equal(t, 0, fail.Index)
}
