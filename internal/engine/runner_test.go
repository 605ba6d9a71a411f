package engine

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jdx/hk/internal/config"
	"github.com/jdx/hk/internal/gitwt"
	"github.com/jdx/hk/internal/hkctx"
)

func newRunnerTestContext(t *testing.T, hook *config.Hook) *hkctx.Context {
	t.Helper()
	return hkctx.New(hook, config.RunCheck, config.Settings{Jobs: 1}, &gitwt.Worktree{}, nil)
}

func TestRunDirectSuccessCapturesOutput(t *testing.T) {
	step := &config.Step{Name: "echoer", Check: &config.Script{Default: "echo hello"}}
	hook := &config.Hook{Steps: []*config.Step{step}}
	hctx := newRunnerTestContext(t, hook)

	job := &Job{Step: step, Files: nil, RunType: config.RunCheck}
	res := runDirect(context.Background(), hctx, job, config.RunCheck)
	require.NoError(t, res.Err)
	assert.True(t, res.Processed)

	out, ok := hctx.StepOutput("echoer")
	require.True(t, ok)
	assert.Contains(t, out.Stdout, "hello")
}

func TestRunDirectFailureReturnsError(t *testing.T) {
	step := &config.Step{Name: "failer", Check: &config.Script{Default: "exit 1"}}
	hook := &config.Hook{Steps: []*config.Step{step}}
	hctx := newRunnerTestContext(t, hook)

	job := &Job{Step: step, RunType: config.RunCheck}
	res := runDirect(context.Background(), hctx, job, config.RunCheck)
	assert.Error(t, res.Err)
	assert.False(t, res.Processed)
}

func TestRunDirectCheckDiffFailureYieldsCheckListFailedError(t *testing.T) {
	step := &config.Step{Name: "differ", CheckDiff: &config.Script{Default: "echo some-diff; exit 1"}}
	hook := &config.Hook{Steps: []*config.Step{step}}
	hctx := newRunnerTestContext(t, hook)

	job := &Job{Step: step, RunType: config.RunCheck}
	res := runDirect(context.Background(), hctx, job, config.RunCheck)
	require.Error(t, res.Err)
	_, ok := res.Err.(*CheckListFailedError)
	assert.True(t, ok)
}

func TestRunDirectRendersFilesTemplate(t *testing.T) {
	dir := t.TempDir()
	outFile := filepath.Join(dir, "out.txt")
	step := &config.Step{Name: "lister", Check: &config.Script{Default: "echo {{.files}} > " + outFile}}
	hook := &config.Hook{Steps: []*config.Step{step}}
	hctx := newRunnerTestContext(t, hook)

	job := &Job{Step: step, Files: []string{"a.go", "b.go"}, RunType: config.RunCheck}
	res := runDirect(context.Background(), hctx, job, config.RunCheck)
	require.NoError(t, res.Err)

	content, err := os.ReadFile(outFile)
	require.NoError(t, err)
	assert.Contains(t, string(content), "a.go")
	assert.Contains(t, string(content), "b.go")
}

func TestRunDirectEnvRendering(t *testing.T) {
	dir := t.TempDir()
	outFile := filepath.Join(dir, "out.txt")
	step := &config.Step{
		Name:  "enver",
		Check: &config.Script{Default: "echo $MYVAR > " + outFile},
		Env:   map[string]string{"MYVAR": "hello-env"},
	}
	hook := &config.Hook{Steps: []*config.Step{step}}
	hctx := newRunnerTestContext(t, hook)

	job := &Job{Step: step, RunType: config.RunCheck}
	res := runDirect(context.Background(), hctx, job, config.RunCheck)
	require.NoError(t, res.Err)

	content, err := os.ReadFile(outFile)
	require.NoError(t, err)
	assert.Contains(t, string(content), "hello-env")
}

func TestRunDirectStdinPiped(t *testing.T) {
	step := &config.Step{
		Name:  "catter",
		Check: &config.Script{Default: "cat"},
		Stdin: &config.Script{Default: "piped-input"},
	}
	hook := &config.Hook{Steps: []*config.Step{step}}
	hctx := newRunnerTestContext(t, hook)

	job := &Job{Step: step, RunType: config.RunCheck}
	res := runDirect(context.Background(), hctx, job, config.RunCheck)
	require.NoError(t, res.Err)

	out, ok := hctx.StepOutput("catter")
	require.True(t, ok)
	assert.Contains(t, out.Stdout, "piped-input")
}

func TestShellInvocationDefaultsToShOnUnix(t *testing.T) {
	step := &config.Step{}
	name, args := shellInvocation(step, "echo hi")
	assert.Equal(t, "sh", name)
	assert.Equal(t, []string{"-o", "errexit", "-c", "echo hi"}, args)
}

func TestShellInvocationUsesConfiguredShell(t *testing.T) {
	step := &config.Step{Shell: &config.Script{Default: "bash -c"}}
	name, args := shellInvocation(step, "echo hi")
	assert.Equal(t, "bash", name)
	assert.Equal(t, []string{"-c", "echo hi"}, args)
}
