package engine

import (
	"context"
	"fmt"
	"sync"

	"github.com/hashicorp/go-multierror"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/jdx/hk/internal/condition"
	"github.com/jdx/hk/internal/config"
	"github.com/jdx/hk/internal/deptrack"
	"github.com/jdx/hk/internal/hkctx"
	"github.com/jdx/hk/internal/skipreason"
)

// stepGroup is a run of steps that execute concurrently, bounded by
// `exclusive` steps on either side (spec §4.3).
type stepGroup struct {
	steps []*config.Step
}

// groupSteps splits an ordered step list into stepGroups at exclusive
// boundaries: every exclusive step is its own single-step group; runs of
// non-exclusive steps between them form one group each.
func groupSteps(steps []*config.Step) []stepGroup {
	var groups []stepGroup
	var current []*config.Step
	flush := func() {
		if len(current) > 0 {
			groups = append(groups, stepGroup{steps: current})
			current = nil
		}
	}
	for _, s := range steps {
		if s.Exclusive {
			flush()
			groups = append(groups, stepGroup{steps: []*config.Step{s}})
			continue
		}
		current = append(current, s)
	}
	flush()
	return groups
}

// filesInContention computes, for a group, the set of files touched by
// two or more of its steps where at least one of those steps has a fix
// command (spec §4.3: only steps that could mutate a file create
// contention worth forcing check-first over). It is only populated when
// at least one step in the group has check_first configured, since
// nothing consults it otherwise. Steps with stomp set are left out of
// the count.
func filesInContention(group stepGroup, filesByStep map[string][]string) map[string]bool {
	anyCheckFirst := false
	for _, s := range group.steps {
		if s.CheckFirst || s.CheckDiff != nil {
			anyCheckFirst = true
			break
		}
	}
	if !anyCheckFirst {
		return nil
	}

	owners := map[string]int{}
	hasFix := map[string]bool{}
	for _, s := range group.steps {
		if s.Stomp {
			continue
		}
		canFix := s.Fix != nil
		for _, f := range filesByStep[s.Name] {
			owners[f]++
			if canFix {
				hasFix[f] = true
			}
		}
	}
	contention := map[string]bool{}
	for f, n := range owners {
		if n >= 2 && hasFix[f] {
			contention[f] = true
		}
	}
	return contention
}

// GroupStepNames exposes the exclusive-boundary grouping groupSteps
// computes, as plain step-name groups, for callers outside this package
// (the `--plan` renderer) that need the same grouping the scheduler
// itself will use without depending on the unexported stepGroup type.
func GroupStepNames(steps []*config.Step) [][]string {
	var out [][]string
	for _, g := range groupSteps(steps) {
		out = append(out, stepNames(g.steps))
	}
	return out
}

// Run executes every step of hctx.Hook over hctx's current file set,
// honoring exclusive grouping, dependencies, profile filtering and
// step_condition, and returns the aggregated step errors (nil if every
// step succeeded or was skipped).
func Run(ctx context.Context, hctx *hkctx.Context) error {
	_, vars := hctx.ExprContext()
	condEnv, err := condition.New(vars)
	if err != nil {
		return fmt.Errorf("building condition environment: %w", err)
	}

	skipSteps, profileReasons := classifyProfiles(hctx)
	tracker := deptrack.New(stepNames(hctx.Hook.Steps))
	caches := newFileCaches()

	groups := groupSteps(hctx.Hook.Steps)
	var merr *multierror.Error

	for _, group := range groups {
		if hctx.Cancelled() {
			break
		}
		files := hctx.Files()
		filesByStep := map[string][]string{}
		for _, s := range group.steps {
			filtered, _ := filterFiles(s, files, caches)
			filesByStep[s.Name] = filtered
		}
		contention := filesInContention(group, filesByStep)

		var eg errgroup.Group
		for _, step := range group.steps {
			step := step
			eg.Go(func() error {
				defer tracker.MarkDone(step.Name)
				err := runStep(ctx, hctx, condEnv, tracker, step, skipSteps, profileReasons[step.Name], contention, caches)
				if err != nil {
					if hctx.Settings.FailFast {
						hctx.Cancel()
					}
					return err
				}
				return nil
			})
		}
		if err := eg.Wait(); err != nil {
			merr = multierror.Append(merr, err)
			if hctx.Settings.FailFast {
				break
			}
		}
	}
	return merr.ErrorOrNil()
}

// runStep waits for this step's declared dependencies, evaluates
// step_condition once, builds the step's jobs and runs them concurrently
// (spec §4.4).
func runStep(ctx context.Context, hctx *hkctx.Context, condEnv *condition.Env, tracker *deptrack.Tracker, step *config.Step, skipSteps map[string]skipreason.Reason, profileReason *skipreason.Reason, contention map[string]bool, caches *fileCaches) error {
	for _, dep := range step.Depends {
		if err := tracker.WaitFor(ctx, dep); err != nil {
			return fmt.Errorf("%s: waiting for dependency %q: %w", step.Name, dep, err)
		}
	}

	if err := hctx.AcquirePermit(ctx); err != nil {
		return fmt.Errorf("%s: %w", step.Name, err)
	}
	defer hctx.ReleasePermit()

	hasCondition := step.StepCondition != ""
	if hasCondition {
		files, vars := hctx.ExprContext()
		ok, err := condEnv.Eval(ctx, step.StepCondition, files, vars)
		if err != nil {
			return fmt.Errorf("%s: step_condition: %w", step.Name, err)
		}
		if !ok {
			hctx.TrackSkip(step.Name, skipreason.Reason{Kind: skipreason.ConditionFalse})
			return nil
		}
	}

	jobs := buildStepJobs(step, hctx.Files(), hctx.RunType, contention, skipSteps, profileReason, hasCondition || step.JobCondition != "", caches, hctx.Settings.ArgMax, hctx.Settings.Jobs)
	hctx.IncTotalJobs(len(jobs))

	// all_job_files is the union of every job's assigned files, captured
	// before any job mutates job.Files during check-first refiltering
	// (spec §4.7).
	var allJobFiles []string
	for _, j := range jobs {
		allJobFiles = append(allJobFiles, j.Files...)
	}

	var mu sync.Mutex
	var actualJobFiles []string
	anyProcessed := false

	eg, egCtx := errgroup.WithContext(ctx)
	for _, job := range jobs {
		job := job
		eg.Go(func() error {
			res := runJob(egCtx, hctx, condEnv, job)
			hctx.IncCompletedJobs(1)
			if res.Processed {
				mu.Lock()
				anyProcessed = true
				actualJobFiles = append(actualJobFiles, res.Job.ActuallyProcessed...)
				mu.Unlock()
			}
			if res.Err != nil {
				if res.Warned {
					log.Warn().Err(res.Err).Str("step", step.Name).Msg("step reported issues")
				}
				return res.Err
			}
			return nil
		})
	}
	runErr := eg.Wait()

	// Staging happens once per step, strictly after every one of its
	// jobs has finished (spec §4.4 step 6, §4.7, §5's ordering
	// guarantee), regardless of whether a job failed, as long as at
	// least one job actually processed files in Fix mode. Uses ctx (not
	// egCtx, which errgroup may have already canceled) so staging still
	// runs after a sibling job's failure.
	if anyProcessed && hctx.RunType == config.RunFix {
		if err := stageStep(ctx, hctx, step, allJobFiles, actualJobFiles); err != nil {
			log.Warn().Err(err).Str("step", step.Name).Msg("post-fix staging failed")
		}
	}

	return runErr
}

func stepNames(steps []*config.Step) []string {
	names := make([]string, len(steps))
	for i, s := range steps {
		names[i] = s.Name
	}
	return names
}

// classifyProfiles resolves, for every step, whether it is entirely
// skipped (named in Settings.SkipHooks, which holds HK_SKIP_HOOK and
// CLI --skip-step names) or merely profile-gated (an active profile
// forbids it, or none of its required profiles is active). A
// profile-gated step still runs when it has a step_condition or
// job_condition — spec §4.5 step 6's profileReason.
func classifyProfiles(hctx *hkctx.Context) (skipSteps map[string]skipreason.Reason, profileReasons map[string]*skipreason.Reason) {
	skipSteps = map[string]skipreason.Reason{}
	profileReasons = map[string]*skipreason.Reason{}

	for _, name := range hctx.Settings.SkipHooks {
		skipSteps[name] = skipreason.Reason{Kind: skipreason.CliExcluded}
	}

	for _, step := range hctx.Hook.Steps {
		if _, skipped := skipSteps[step.Name]; skipped {
			continue
		}
		for _, disabled := range step.DisabledProfiles() {
			if hctx.Settings.ProfileEnabled(disabled) {
				r := skipreason.Reason{Kind: skipreason.ProfileExplicitlyDisabled, Profile: disabled}
				profileReasons[step.Name] = &r
				break
			}
		}
		if profileReasons[step.Name] != nil {
			continue
		}
		enabled := step.EnabledProfiles()
		if len(enabled) == 0 {
			continue
		}
		anyActive := false
		for _, p := range enabled {
			if hctx.Settings.ProfileEnabled(p) {
				anyActive = true
				break
			}
		}
		if !anyActive {
			r := skipreason.Reason{Kind: skipreason.ProfileNotEnabled, Profiles: enabled}
			profileReasons[step.Name] = &r
		}
	}
	return skipSteps, profileReasons
}
