package engine

import (
	"os"

	"github.com/jdx/hk/internal/batch"
	"github.com/jdx/hk/internal/config"
	"github.com/jdx/hk/internal/skipreason"
)

// buildStepJobs implements spec §4.5: filters the step's candidate files,
// partitions them into jobs (by workspace, by batch, or as a single
// job), auto-batches for ARG_MAX safety, and computes each job's
// effective check_first.
func buildStepJobs(
	step *config.Step,
	files []string,
	runType config.RunType,
	filesInContention map[string]bool,
	skipSteps map[string]skipreason.Reason,
	profileReason *skipreason.Reason,
	hasCondition bool,
	caches *fileCaches,
	argMax int,
	configuredJobs int,
) []*Job {
	if reason, ok := skipSteps[step.Name]; ok {
		return []*Job{{Step: step, RunType: runType, SkipReason: &reason}}
	}
	if !step.HasCommand(runType) {
		reason := skipreason.Reason{Kind: skipreason.NoCommandForRunType, RunType: runType.String()}
		return []*Job{{Step: step, RunType: runType, SkipReason: &reason}}
	}

	filtered, hasFilters := filterFiles(step, files, caches)
	if len(filtered) == 0 && hasFilters {
		reason := skipreason.Reason{Kind: skipreason.NoFilesToProcess}
		return []*Job{{Step: step, RunType: runType, SkipReason: &reason}}
	}
	if len(filtered) == 0 && !hasFilters {
		filtered = files
	}

	var jobs []*Job
	switch {
	case step.WorkspaceIndicator != "":
		byFile := workspacesForFiles(filtered, step.WorkspaceIndicator, fileExists)
		groups := partitionByWorkspace(byFile)
		for ws, group := range groups {
			jobs = append(jobs, &Job{Step: step, Files: group, RunType: runType, WorkspaceIndicator: ws, CheckFirst: step.CheckFirst})
		}
		if len(jobs) == 0 {
			jobs = append(jobs, &Job{Step: step, Files: filtered, RunType: runType, CheckFirst: step.CheckFirst})
		}
	case step.Batch:
		jobCount := len(filtered)
		if jobCount > 1 {
			chunkSize := jobCount / maxInt(1, configuredJobs)
			if chunkSize < 1 {
				chunkSize = 1
			}
			for i := 0; i < len(filtered); i += chunkSize {
				end := i + chunkSize
				if end > len(filtered) {
					end = len(filtered)
				}
				jobs = append(jobs, &Job{Step: step, Files: filtered[i:end], RunType: runType, CheckFirst: step.CheckFirst})
			}
		} else {
			jobs = append(jobs, &Job{Step: step, Files: filtered, RunType: runType, CheckFirst: step.CheckFirst})
		}
	default:
		jobs = append(jobs, &Job{Step: step, Files: filtered, RunType: runType, CheckFirst: step.CheckFirst})
	}

	if step.Stdin == nil {
		jobs = autoBatchJobs(jobs, argMax)
	}

	if !hasCondition && profileReason != nil {
		for _, j := range jobs {
			r := *profileReason
			j.SkipReason = &r
		}
	}

	if runType == config.RunFix {
		forced := step.CheckFirstEffective(runType)
		for _, j := range jobs {
			switch {
			case forced:
				j.CheckFirst = true
			case step.CheckFirst:
				j.CheckFirst = jobFilesInContention(j.Files, filesInContention)
			default:
				j.CheckFirst = false
			}
		}
	} else {
		for _, j := range jobs {
			j.CheckFirst = false
		}
	}
	return jobs
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func jobFilesInContention(files []string, contention map[string]bool) bool {
	for _, f := range files {
		if contention[f] {
			return true
		}
	}
	return false
}

// autoBatchJobs splits any job whose rendered file-list would exceed the
// ARG_MAX safety margin into multiple smaller jobs (spec §4.8). Batched
// jobs lose workspace_indicator metadata, an accepted limitation (spec
// §4.8 note).
func autoBatchJobs(jobs []*Job, argMax int) []*Job {
	safeLimit := batch.SafeLimit(argMax)
	var out []*Job
	for _, j := range jobs {
		chunks := batch.Split(j.Files, safeLimit)
		if len(chunks) <= 1 {
			out = append(out, j)
			continue
		}
		for _, chunk := range chunks {
			nj := *j
			nj.Files = chunk
			nj.WorkspaceIndicator = ""
			out = append(out, &nj)
		}
	}
	return out
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
