package cli

import (
	"github.com/spf13/cobra"

	"github.com/jdx/hk/internal/config"
)

// Execute builds and runs the hk command tree.
func Execute() error {
	root := &cobra.Command{
		Use:   "hk",
		Short: "a git hook manager for running linters and formatters",
	}

	checkFlags := &runFlags{}
	checkCmd := &cobra.Command{
		Use:     "check",
		Aliases: []string{"c"},
		Short:   "run every step's check command against the candidate files",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHook("check", config.RunCheck, checkFlags)
		},
	}
	addSharedFlags(checkCmd, checkFlags)

	fixFlags := &runFlags{}
	fixCmd := &cobra.Command{
		Use:     "fix",
		Aliases: []string{"f"},
		Short:   "run every step's fix command against the candidate files",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHook("fix", config.RunFix, fixFlags)
		},
	}
	addSharedFlags(fixCmd, fixFlags)

	runFlagsVal := &runFlags{}
	runCmd := &cobra.Command{
		Use:   "run <hook>",
		Short: "run the named hook (as declared in hk.yaml)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHook(args[0], runTypeForHook(args[0]), runFlagsVal)
		},
	}
	addSharedFlags(runCmd, runFlagsVal)

	runHookFlags := &runFlags{}
	runHookCmd := &cobra.Command{
		Use:    "run-hook <hook>",
		Short:  "internal entry point invoked by installed git hook shims",
		Hidden: true,
		Args:   cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHook(args[0], runTypeForHook(args[0]), runHookFlags)
		},
	}
	addSharedFlags(runHookCmd, runHookFlags)

	installCmd := &cobra.Command{
		Use:   "install",
		Short: "install hk as the git hook shim for every hook declared in hk.yaml",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInstall()
		},
	}

	uninstallCmd := &cobra.Command{
		Use:   "uninstall",
		Short: "remove hk's git hook shims",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUninstall()
		},
	}

	root.AddCommand(checkCmd, fixCmd, runCmd, runHookCmd, installCmd, uninstallCmd)
	return root.Execute()
}

// runTypeForHook picks the RunType a git hook shim should use: pre-push
// and commit-msg style hooks only ever check (they can't safely rewrite
// history that's already about to be pushed or committed), everything
// else runs fix.
func runTypeForHook(name string) config.RunType {
	switch name {
	case "pre-push", "commit-msg", "check":
		return config.RunCheck
	default:
		return config.RunFix
	}
}
