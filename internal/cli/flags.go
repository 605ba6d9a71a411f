package cli

import "github.com/spf13/cobra"

// runFlags holds the shared flags of spec §6.3, common to check/fix/run.
type runFlags struct {
	all      bool
	fromRef  string
	toRef    string
	linters  []string
	steps    []string
	skipStep []string
	failFast bool
	noFailFast bool
	stash    string
	jobs     int
	plan     bool
}

func addSharedFlags(cmd *cobra.Command, f *runFlags) {
	cmd.Flags().BoolVarP(&f.all, "all", "a", false, "run on all tracked files instead of just staged/changed ones")
	cmd.Flags().StringVar(&f.fromRef, "from-ref", "", "start ref for the changed-file range (--to-ref defaults to HEAD)")
	cmd.Flags().StringVar(&f.toRef, "to-ref", "", "end ref for the changed-file range (requires --from-ref)")
	cmd.Flags().StringArrayVar(&f.linters, "linter", nil, "restrict the run to these step names")
	cmd.Flags().StringArrayVar(&f.steps, "step", nil, "restrict the run to these step names (alias of --linter)")
	cmd.Flags().StringArrayVar(&f.skipStep, "skip-step", nil, "exclude these step names from the run")
	cmd.Flags().BoolVar(&f.failFast, "fail-fast", false, "stop scheduling new jobs after the first failure")
	cmd.Flags().BoolVar(&f.noFailFast, "no-fail-fast", false, "keep running every step even after a failure")
	cmd.Flags().StringVar(&f.stash, "stash", "git", "how to isolate unstaged changes during fix: git, patch-file, or none")
	cmd.Flags().IntVar(&f.jobs, "jobs", 0, "job concurrency (default: detected CPU count)")
	cmd.Flags().BoolVar(&f.plan, "plan", false, "print the planned job graph as JSON and exit without running anything")
}

// selectedSteps merges --linter and --step into one restriction list.
func (f *runFlags) selectedSteps() []string {
	if len(f.linters) == 0 {
		return f.steps
	}
	if len(f.steps) == 0 {
		return f.linters
	}
	return append(append([]string{}, f.linters...), f.steps...)
}
