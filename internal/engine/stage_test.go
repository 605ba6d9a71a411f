package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jdx/hk/internal/config"
	"github.com/jdx/hk/internal/gitwt"
	"github.com/jdx/hk/internal/hkctx"
)

func TestRenderStageGlobsLiteralPatternGetsDirPrefix(t *testing.T) {
	step := &config.Step{Dir: "sub"}
	out, err := renderStageGlobs(step, []string{"out.json"})
	require.NoError(t, err)
	assert.Equal(t, []string{"sub/out.json"}, out)
}

func TestRenderStageGlobsDoubleStarAddsRootVariant(t *testing.T) {
	step := &config.Step{Dir: "sub"}
	out, err := renderStageGlobs(step, []string{"**/generated.go"})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"sub/**/generated.go", "sub/generated.go"}, out)
}

func TestRenderStageGlobsDoubleStarWithoutDir(t *testing.T) {
	step := &config.Step{}
	out, err := renderStageGlobs(step, []string{"**/generated.go"})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"**/generated.go", "generated.go"}, out)
}

func TestRenderStageGlobsDropsEmptyAndDirOnlyPatterns(t *testing.T) {
	step := &config.Step{}
	out, err := renderStageGlobs(step, []string{"", "build/", "a.go"})
	require.NoError(t, err)
	assert.Equal(t, []string{"a.go"}, out)
}

func TestIsAnchoredGlobRootPrefixIsNotAnchored(t *testing.T) {
	assert.False(t, isAnchoredGlob("**/foo.go"))
}

func TestIsAnchoredGlobWildcardFirstSegmentIsNotAnchored(t *testing.T) {
	assert.False(t, isAnchoredGlob("*.go"))
}

func TestIsAnchoredGlobLiteralDirPrefixIsAnchored(t *testing.T) {
	assert.True(t, isAnchoredGlob("dir/**"))
	assert.True(t, isAnchoredGlob("dir/*.go"))
	assert.True(t, isAnchoredGlob("dir/sub/*.go"))
}

func TestIsAnchoredGlobNonGlobIsNotAnchored(t *testing.T) {
	assert.False(t, isAnchoredGlob("dir/file.go"))
}

func TestIsGlobLike(t *testing.T) {
	assert.True(t, isGlobLike("*.go"))
	assert.True(t, isGlobLike("a?.go"))
	assert.True(t, isGlobLike("[ab].go"))
	assert.False(t, isGlobLike("a.go"))
}

func TestMatchAnyGlobMatchesDirPrefixedPattern(t *testing.T) {
	matched, err := matchAnyGlob([]string{"sub/*.json"}, []string{"sub/out.json", "other/out.json"})
	require.NoError(t, err)
	assert.Equal(t, []string{"sub/out.json"}, matched)
}

func TestFilterUntrackedOrUnstagedExcludesStagedOnly(t *testing.T) {
	st := &gitwt.Status{
		UntrackedFiles: map[string]bool{"new.go": true},
		UnstagedFiles:  map[string]bool{"dirty.go": true},
	}
	out := filterUntrackedOrUnstaged([]string{"new.go", "dirty.go", "clean_staged.go"}, st)
	assert.ElementsMatch(t, []string{"new.go", "dirty.go"}, out)
}

func TestDedupe(t *testing.T) {
	assert.Equal(t, []string{"a.go"}, dedupe([]string{"a.go", "a.go", ""}))
}

func TestStageStepNoopWithoutWorktree(t *testing.T) {
	hctx := hkctx.New(&config.Hook{}, config.RunFix, config.Settings{Jobs: 1}, nil, nil)
	step := &config.Step{Fix: &config.Script{Default: "fix"}}
	err := stageStep(nil, hctx, step, nil, []string{"a.go"})
	assert.NoError(t, err)
}

func TestStageStepNoopWithoutStageOrFix(t *testing.T) {
	hctx := hkctx.New(&config.Hook{}, config.RunFix, config.Settings{Jobs: 1}, &gitwt.Worktree{}, nil)
	step := &config.Step{Check: &config.Script{Default: "check"}}
	err := stageStep(nil, hctx, step, nil, nil)
	assert.NoError(t, err)
}
