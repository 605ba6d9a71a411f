package cli

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jdx/hk/internal/config"
	"github.com/jdx/hk/internal/gitwt"
)

func TestExitCodeForNil(t *testing.T) {
	assert.Equal(t, 0, ExitCodeFor(nil))
}

func TestExitCodeForConfigError(t *testing.T) {
	err := configErrorf(errors.New("no hk.yaml"))
	assert.Equal(t, 2, ExitCodeFor(err))
}

func TestExitCodeForWrappedConfigError(t *testing.T) {
	err := configErrorf(errors.New("bad ref"))
	wrapped := errors.New("run failed: " + err.Error())
	assert.Equal(t, 1, ExitCodeFor(wrapped))
}

func TestExitCodeForOtherError(t *testing.T) {
	assert.Equal(t, 1, ExitCodeFor(errors.New("step failed")))
}

func TestSelectedStepsPrefersLintersWhenStepsEmpty(t *testing.T) {
	f := &runFlags{linters: []string{"gofmt"}}
	assert.Equal(t, []string{"gofmt"}, f.selectedSteps())
}

func TestSelectedStepsPrefersStepsWhenLintersEmpty(t *testing.T) {
	f := &runFlags{steps: []string{"vet"}}
	assert.Equal(t, []string{"vet"}, f.selectedSteps())
}

func TestSelectedStepsMergesBoth(t *testing.T) {
	f := &runFlags{linters: []string{"gofmt"}, steps: []string{"vet"}}
	assert.Equal(t, []string{"gofmt", "vet"}, f.selectedSteps())
}

func TestSelectedStepsEmptyWhenNeitherSet(t *testing.T) {
	f := &runFlags{}
	assert.Nil(t, f.selectedSteps())
}

func TestStashMethodMapping(t *testing.T) {
	assert.Equal(t, gitwt.StashGit, stashMethod("git"))
	assert.Equal(t, gitwt.StashPatchFile, stashMethod("patch-file"))
	assert.Equal(t, gitwt.StashNone, stashMethod("none"))
	assert.Equal(t, gitwt.StashGit, stashMethod("unknown"))
}

func TestRestrictStepsFiltersByName(t *testing.T) {
	hook := &config.Hook{
		Name: "pre-commit",
		Steps: []*config.Step{
			{Name: "gofmt"},
			{Name: "govet"},
			{Name: "staticcheck"},
		},
	}
	restricted := restrictSteps(hook, []string{"govet"})
	if assert.Len(t, restricted.Steps, 1) {
		assert.Equal(t, "govet", restricted.Steps[0].Name)
	}
	assert.Equal(t, "pre-commit", restricted.Name)
}

func TestRestrictStepsKeepsOrderForMultipleNames(t *testing.T) {
	hook := &config.Hook{
		Steps: []*config.Step{
			{Name: "a"},
			{Name: "b"},
			{Name: "c"},
		},
	}
	restricted := restrictSteps(hook, []string{"c", "a"})
	var got []string
	for _, s := range restricted.Steps {
		got = append(got, s.Name)
	}
	assert.Equal(t, []string{"a", "c"}, got)
}

func TestRunTypeForHookChecksHistorySensitiveHooks(t *testing.T) {
	assert.Equal(t, config.RunCheck, runTypeForHook("pre-push"))
	assert.Equal(t, config.RunCheck, runTypeForHook("commit-msg"))
	assert.Equal(t, config.RunCheck, runTypeForHook("check"))
}

func TestRunTypeForHookDefaultsToFix(t *testing.T) {
	assert.Equal(t, config.RunFix, runTypeForHook("pre-commit"))
	assert.Equal(t, config.RunFix, runTypeForHook("fix"))
}

func TestConfigPathJoinsRoot(t *testing.T) {
	assert.Equal(t, "/repo/hk.yaml", configPath("/repo"))
}

func TestApplyFlagOverridesJobsAndFailFast(t *testing.T) {
	s := config.Settings{Jobs: 4, FailFast: true}
	applyFlagOverrides(&s, &runFlags{jobs: 8})
	assert.Equal(t, 8, s.Jobs)
	assert.True(t, s.FailFast)

	s = config.Settings{FailFast: true}
	applyFlagOverrides(&s, &runFlags{noFailFast: true})
	assert.False(t, s.FailFast)

	s = config.Settings{FailFast: false}
	applyFlagOverrides(&s, &runFlags{failFast: true})
	assert.True(t, s.FailFast)
}

func TestHasMarkerDetectsInstalledShim(t *testing.T) {
	assert.True(t, hasMarker(hookShimContent))
	assert.False(t, hasMarker("#!/bin/sh\necho custom hook\n"))
}
