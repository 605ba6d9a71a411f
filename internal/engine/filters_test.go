package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jdx/hk/internal/config"
)

func TestFilterFilesByGlob(t *testing.T) {
	step := &config.Step{Glob: &config.Pattern{Globs: []string{"*.go"}}}
	out, hasFilters := filterFiles(step, []string{"a.go", "b.txt"}, newFileCaches())
	assert.True(t, hasFilters)
	assert.Equal(t, []string{"a.go"}, out)
}

func TestFilterFilesByExclude(t *testing.T) {
	step := &config.Step{Exclude: &config.Pattern{Globs: []string{"*_test.go"}}}
	out, hasFilters := filterFiles(step, []string{"a.go", "a_test.go"}, newFileCaches())
	assert.True(t, hasFilters)
	assert.Equal(t, []string{"a.go"}, out)
}

func TestFilterFilesByDirPrefix(t *testing.T) {
	step := &config.Step{Dir: "sub"}
	out, hasFilters := filterFiles(step, []string{"sub/a.go", "other/b.go"}, newFileCaches())
	assert.True(t, hasFilters)
	assert.Equal(t, []string{"sub/a.go"}, out)
}

func TestFilterFilesNoFiltersConfigured(t *testing.T) {
	step := &config.Step{}
	out, hasFilters := filterFiles(step, []string{"a.go", "b.txt"}, newFileCaches())
	assert.False(t, hasFilters)
	assert.Equal(t, []string{"a.go", "b.txt"}, out)
}

func TestWorkspacesForFilesWalksUp(t *testing.T) {
	exists := func(p string) bool {
		return p == "repo/pkg/go.mod" || p == "repo/go.mod"
	}
	ws := workspacesForFiles([]string{"repo/pkg/sub/a.go", "repo/other/b.go"}, "go.mod", exists)
	require.Equal(t, "repo/pkg", ws["repo/pkg/sub/a.go"])
	require.Equal(t, "repo", ws["repo/other/b.go"])
}

func TestPartitionByWorkspaceLongestFirst(t *testing.T) {
	fileWorkspace := map[string]string{
		"repo/pkg/a.go":  "repo/pkg",
		"repo/other.go":  "repo",
		"repo/pkg/b.go":  "repo/pkg",
	}
	groups := partitionByWorkspace(fileWorkspace)
	assert.ElementsMatch(t, []string{"repo/pkg/a.go", "repo/pkg/b.go"}, groups["repo/pkg"])
	assert.ElementsMatch(t, []string{"repo/other.go"}, groups["repo"])
}
