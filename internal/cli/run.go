package cli

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/jdx/hk/internal/config"
	"github.com/jdx/hk/internal/engine"
	"github.com/jdx/hk/internal/gitwt"
	"github.com/jdx/hk/internal/hkctx"
	"github.com/jdx/hk/internal/planout"
	"github.com/jdx/hk/internal/skipreason"
)

// runHook implements the shared body of `hk check`, `hk fix` and
// `hk run <hook>`: load config, open the worktree, resolve the file set,
// stash isolation (fix only), build a Context, schedule the hook, and
// pop the stash.
func runHook(hookName string, runType config.RunType, f *runFlags) error {
	settings := config.FromEnv()
	applyFlagOverrides(&settings, f)

	wt, err := gitwt.Open(settings.PreferLibgit2)
	if err != nil {
		return configErrorf(err)
	}

	hooks, err := config.Load(configPath(wt.Root()))
	if err != nil {
		return configErrorf(err)
	}
	hook, ok := hooks[hookName]
	if !ok {
		return configErrorf(fmt.Errorf("no hook named %q in hk.yaml", hookName))
	}

	if restrict := f.selectedSteps(); len(restrict) > 0 {
		hook = restrictSteps(hook, restrict)
	}
	for _, name := range f.skipStep {
		settings.SkipHooks = append(settings.SkipHooks, name)
	}

	ctx := context.Background()
	files, err := resolveFiles(ctx, wt, f)
	if err != nil {
		return configErrorf(err)
	}

	if f.plan {
		return printPlan(hook, settings)
	}

	hctx := hkctx.New(hook, runType, settings, wt, files)
	for k, v := range hook.Vars {
		hctx.SetExprVar(k, v)
	}

	if runType == config.RunFix {
		method := stashMethod(f.stash)
		status, err := wt.Status(ctx, nil)
		if err != nil {
			return configErrorf(err)
		}
		if err := wt.CaptureIndex(ctx, files); err != nil {
			return configErrorf(err)
		}
		if err := wt.StashUnstaged(ctx, method, status, files, settings.StashUntracked); err != nil {
			return configErrorf(err)
		}
		defer func() {
			if err := wt.PopStash(ctx); err != nil {
				log.Warn().Err(err).Msg("failed to restore stashed changes")
			}
			if err := wt.RestoreIndex(ctx); err != nil {
				log.Warn().Err(err).Msg("failed to restore index")
			}
		}()
	}

	runErr := engine.Run(ctx, hctx)
	printSummary(hctx)
	return runErr
}

func applyFlagOverrides(s *config.Settings, f *runFlags) {
	if f.jobs > 0 {
		s.Jobs = f.jobs
	}
	if f.failFast {
		s.FailFast = true
	}
	if f.noFailFast {
		s.FailFast = false
	}
}

func configPath(root string) string {
	return root + "/hk.yaml"
}

func restrictSteps(hook *config.Hook, names []string) *config.Hook {
	allow := map[string]bool{}
	for _, n := range names {
		allow[n] = true
	}
	out := &config.Hook{Name: hook.Name, Vars: hook.Vars}
	for _, s := range hook.Steps {
		if allow[s.Name] {
			out.Steps = append(out.Steps, s)
		}
	}
	return out
}

func stashMethod(flag string) gitwt.StashMethod {
	switch flag {
	case "patch-file":
		return gitwt.StashPatchFile
	case "none":
		return gitwt.StashNone
	default:
		return gitwt.StashGit
	}
}

// resolveFiles picks the hook's candidate file set (spec §6.3): --all
// means every tracked file, --from-ref/--to-ref means the files that
// changed in that range, and the default is the files currently staged
// (the set a commit would actually include).
func resolveFiles(ctx context.Context, wt *gitwt.Worktree, f *runFlags) ([]string, error) {
	switch {
	case f.all:
		return wt.AllFiles(ctx, nil)
	case f.fromRef != "" && f.toRef != "":
		return wt.FilesBetweenRefs(ctx, f.fromRef, f.toRef)
	case f.fromRef != "":
		return wt.FilesBetweenRefs(ctx, f.fromRef, "")
	default:
		status, err := wt.Status(ctx, nil)
		if err != nil {
			return nil, err
		}
		files := make([]string, 0, len(status.StagedFiles))
		for p := range status.StagedFiles {
			files = append(files, p)
		}
		sort.Strings(files)
		return files, nil
	}
}

func printPlan(hook *config.Hook, settings config.Settings) error {
	skipSteps := map[string]skipreason.Reason{}
	for _, n := range settings.SkipHooks {
		skipSteps[n] = skipreason.Reason{Kind: skipreason.CliExcluded}
	}
	plan := planout.Build(planout.Input{
		HookName:  hook.Name,
		Profiles:  settings.Profiles,
		Groups:    engine.GroupStepNames(hook.Steps),
		SkipSteps: skipSteps,
		AllSteps:  hook.Steps,
		Now:       time.Now(),
	})
	out, err := planout.Marshal(plan)
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

func printSummary(hctx *hkctx.Context) {
	completed, total := hctx.JobCounts()
	log.Info().Int("completed", completed).Int("total", total).Msg("hook run finished")
	for _, s := range hctx.FixSuggestions() {
		fmt.Println("to fix, run:", strings.TrimSpace(s))
	}
}
