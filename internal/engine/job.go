// Package engine implements the StepGroup scheduler, step executor, job
// builder and job runner of spec §4.3-§4.6 — the core orchestration that
// turns a parsed Hook plus a file set into executed commands.
package engine

import (
	"github.com/jdx/hk/internal/config"
	"github.com/jdx/hk/internal/skipreason"
)

// Job is one unit of command execution: a step (or a batch/workspace
// slice of it) paired with the files it should process.
type Job struct {
	Step               *config.Step
	Files              []string
	RunType            config.RunType
	CheckFirst         bool
	WorkspaceIndicator string
	SkipReason         *skipreason.Reason

	// ActuallyProcessed is populated after the job runs: the subset of
	// Files genuinely touched (after check-first narrowing), used by
	// post-fix staging (spec §4.7).
	ActuallyProcessed []string
}

// Result is what a job run reports back to the step executor.
type Result struct {
	Job       *Job
	Err       error
	Warned    bool // check-first check phase failed but fix phase runs next
	Processed bool // at least one file was actually processed
}
