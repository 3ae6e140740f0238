package token_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/titpetric/atkins-core/dig/token"
)

type mapLookup map[string]any

func (m mapLookup) Get(key string) (any, error) {
	v, ok := m[key]
	if !ok {
		return nil, assertErr(key)
	}
	return v, nil
}

func assertErr(key string) error {
	return &lookupError{key: key}
}

type lookupError struct{ key string }

func (e *lookupError) Error() string { return "unknown key: " + e.key }

func TestExpand_LiteralPassthrough(t *testing.T) {
	env := mapLookup{}
	val, err := token.Expand("hello world", env)
	require.NoError(t, err)
	assert.Equal(t, "hello world", val)
}

func TestExpand_BareTokenPreservesType(t *testing.T) {
	env := mapLookup{"nums": []any{1, 2, 3}}
	val, err := token.Expand("{{nums}}", env)
	require.NoError(t, err)
	assert.Equal(t, []any{1, 2, 3}, val)
}

func TestExpand_BareBoolToken(t *testing.T) {
	env := mapLookup{"flag": true}
	val, err := token.Expand("{{flag}}", env)
	require.NoError(t, err)
	assert.Equal(t, true, val)
}

func TestExpand_CommentIsLiteralEscape(t *testing.T) {
	env := mapLookup{}
	val, err := token.Expand("/*{{key_4}}*/", env)
	require.NoError(t, err)
	assert.Equal(t, "{{key_4}}", val)
}

func TestExpand_ConcatenationStringifiesNonStrings(t *testing.T) {
	env := mapLookup{"who": "world", "count": 3}
	val, err := token.Expand("hello {{who}}, count={{count}}", env)
	require.NoError(t, err)
	assert.Equal(t, "hello world, count=3", val)
}

func TestExpand_InteriorWhitespaceTrimmed(t *testing.T) {
	env := mapLookup{"who": "world"}
	val, err := token.Expand("{{  who  }}", env)
	require.NoError(t, err)
	assert.Equal(t, "world", val)
}

func TestExpand_EmptyStringIsNull(t *testing.T) {
	val, err := token.Expand("", mapLookup{})
	require.NoError(t, err)
	assert.Nil(t, val)
}

func TestExpand_UnknownKeyErrors(t *testing.T) {
	_, err := token.Expand("{{missing}}", mapLookup{})
	require.Error(t, err)
}

func TestExpandValue_RecursesThroughObjects(t *testing.T) {
	env := mapLookup{"fixed_str": "mama"}
	in := map[string]any{
		"nested_key_{{fixed_str}}": "papa loves {{fixed_str}}",
	}
	out, err := token.ExpandValue(in, env)
	require.NoError(t, err)
	m := out.(map[string]any)
	assert.Equal(t, "papa loves mama", m["nested_key_mama"])
}

func TestExpandValue_RecursesThroughArrays(t *testing.T) {
	env := mapLookup{"x": "a"}
	in := []any{"{{x}}", "literal"}
	out, err := token.ExpandValue(in, env)
	require.NoError(t, err)
	assert.Equal(t, []any{"a", "literal"}, out)
}
