package planout

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jdx/hk/internal/config"
	"github.com/jdx/hk/internal/skipreason"
)

func TestBuildMarksSkippedSteps(t *testing.T) {
	steps := []*config.Step{
		{Name: "eslint", Depends: []string{"prelint"}},
		{Name: "prelint"},
	}
	in := Input{
		HookName:  "pre-commit",
		Groups:    [][]string{{"prelint"}, {"eslint"}},
		SkipSteps: map[string]skipreason.Reason{"eslint": {Kind: skipreason.ProfileNotEnabled, Profiles: []string{"slow"}}},
		AllSteps:  steps,
		Now:       time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	plan := Build(in)

	require.Len(t, plan.Steps, 2)
	assert.Equal(t, "skipped", plan.Steps[0].Status)
	assert.Equal(t, "profile_exclude", plan.Steps[0].Reasons[0].Kind)
	assert.Equal(t, "included", plan.Steps[1].Status)
	assert.Equal(t, "2026-01-02T03:04:05Z", plan.GeneratedAt)
}

func TestBuildAssignsParallelGroupIDs(t *testing.T) {
	steps := []*config.Step{{Name: "a"}, {Name: "b"}}
	in := Input{
		HookName: "pre-commit",
		Groups:   [][]string{{"a", "b"}},
		AllSteps: steps,
		Now:      time.Now(),
	}
	plan := Build(in)
	require.Len(t, plan.Steps, 2)
	require.NotNil(t, plan.Steps[0].ParallelGroupID)
	assert.Equal(t, "g0", *plan.Steps[0].ParallelGroupID)
	require.Len(t, plan.Groups, 1)
	assert.Equal(t, []string{"a", "b"}, plan.Groups[0].StepIDs)
}

func TestMarshalProducesValidJSON(t *testing.T) {
	plan := Build(Input{HookName: "pre-commit", AllSteps: nil, Now: time.Now()})
	b, err := Marshal(plan)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"hook": "pre-commit"`)
}

func TestGroupIDFormatsIndex(t *testing.T) {
	assert.Equal(t, "g0", groupID(0))
	assert.Equal(t, "g12", groupID(12))
}
