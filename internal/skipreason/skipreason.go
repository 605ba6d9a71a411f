// Package skipreason enumerates why a step or job did not run, and how
// that reason should be reported to progress and plan output (spec §4.11,
// §6.4).
package skipreason

import "fmt"

// Kind identifies a skip reason variant.
type Kind int

const (
	ProfileNotEnabled Kind = iota
	ProfileExplicitlyDisabled
	NoCommandForRunType
	NoFilesToProcess
	ConditionFalse
	CliExcluded
	Disabled
)

// Reason is a concrete skip reason instance, carrying the data needed to
// render its message (profile set, run type name, etc).
type Reason struct {
	Kind     Kind
	Profile  string   // ProfileExplicitlyDisabled: the active profile that disables the step
	Profiles []string // ProfileNotEnabled: full required set
	RunType  string   // NoCommandForRunType: "check" or "fix"
}

// ShouldDisplay reports whether this reason is worth surfacing in
// progress output. Routine, expected skips (profile gating, CLI
// filtering) are suppressed by default; surprising ones are shown.
func (r Reason) ShouldDisplay() bool {
	switch r.Kind {
	case ProfileNotEnabled, ProfileExplicitlyDisabled, CliExcluded, Disabled:
		return false
	default:
		return true
	}
}

// Message renders a human-readable explanation of the skip.
func (r Reason) Message() string {
	switch r.Kind {
	case ProfileNotEnabled:
		return fmt.Sprintf("profile(s) not enabled: %v", r.Profiles)
	case ProfileExplicitlyDisabled:
		return fmt.Sprintf("profile %q explicitly disabled", r.Profile)
	case NoCommandForRunType:
		return fmt.Sprintf("no %s command configured", r.RunType)
	case NoFilesToProcess:
		return "no files matched the step's filters"
	case ConditionFalse:
		return "condition evaluated to false"
	case CliExcluded:
		return "excluded by CLI flags"
	case Disabled:
		return "step disabled"
	default:
		return "skipped"
	}
}

// String returns the string name used in plan reason "kind" fields (§6.4).
func (k Kind) String() string {
	switch k {
	case ProfileNotEnabled:
		return "profile_exclude"
	case ProfileExplicitlyDisabled:
		return "profile_exclude"
	case NoCommandForRunType:
		return "filter_no_match"
	case NoFilesToProcess:
		return "changed_files_no_match"
	case ConditionFalse:
		return "condition_false"
	case CliExcluded:
		return "cli_exclude"
	case Disabled:
		return "disabled"
	default:
		return "unknown"
	}
}
