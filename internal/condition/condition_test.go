package condition

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvalFilesVariable(t *testing.T) {
	env, err := New(nil)
	require.NoError(t, err)

	ok, err := env.Eval(context.Background(), `size(files) > 0`, []string{"a.go"}, nil)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = env.Eval(context.Background(), `size(files) > 0`, nil, nil)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestEvalExecFunction(t *testing.T) {
	env, err := New(nil)
	require.NoError(t, err)

	ok, err := env.Eval(context.Background(), `exec("true")`, nil, nil)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = env.Eval(context.Background(), `exec("false")`, nil, nil)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestEvalExtraVariable(t *testing.T) {
	env, err := New(map[string]string{"branch": ""})
	require.NoError(t, err)

	ok, err := env.Eval(context.Background(), `branch == "main"`, nil, map[string]string{"branch": "main"})
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestEvalNonBoolResultIsError(t *testing.T) {
	env, err := New(nil)
	require.NoError(t, err)

	_, err = env.Eval(context.Background(), `size(files)`, []string{"a"}, nil)
	assert.Error(t, err)
}

func TestEvalCompileError(t *testing.T) {
	env, err := New(nil)
	require.NoError(t, err)

	_, err = env.Eval(context.Background(), `files ===`, nil, nil)
	assert.Error(t, err)
}

func TestEvalOptionalEmptyExprDefaultsTrue(t *testing.T) {
	env, err := New(nil)
	require.NoError(t, err)

	ok, err := env.EvalOptional(context.Background(), "", nil, nil)
	require.NoError(t, err)
	assert.True(t, ok)
}
