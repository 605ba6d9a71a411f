package config

import (
	"fmt"
	"regexp"
	"strings"
)

// RunType selects which command field of a Step is used.
type RunType int

const (
	RunCheck RunType = iota
	RunFix
)

func (r RunType) String() string {
	if r == RunFix {
		return "fix"
	}
	return "check"
}

// CheckType selects which of the three check-shaped commands is the
// "primary" one for a step (§4.6: "the selected check command is:
// check_diff if present, else check, else check_list_files").
type CheckType int

const (
	CheckPlain CheckType = iota
	CheckListFiles
	CheckDiff
)

// OutputSummary controls which stream(s) of a job's captured output are
// kept for the end-of-run summary.
type OutputSummary string

const (
	OutputStderr   OutputSummary = "stderr"
	OutputStdout   OutputSummary = "stdout"
	OutputCombined OutputSummary = "combined"
	OutputHide     OutputSummary = "hide"
)

// JobFilesSentinel is the special `stage` value meaning "stage exactly
// the files this job processed" (§3 Fix staging, §4.7).
const JobFilesSentinel = "<JOB_FILES>"

// Step is the central entity of a hook: one named linting/formatting
// task with selection, command, execution and scheduling configuration.
type Step struct {
	Name string `yaml:"-"`

	// Selection.
	Glob              *Pattern `yaml:"glob,omitempty"`
	Exclude           *Pattern `yaml:"exclude,omitempty"`
	Types             []string `yaml:"types,omitempty"`
	Dir               string   `yaml:"dir,omitempty"`
	WorkspaceIndicator string  `yaml:"workspace_indicator,omitempty"`
	AllowBinary       bool     `yaml:"allow_binary,omitempty"`
	AllowSymlinks     bool     `yaml:"allow_symlinks,omitempty"`

	// Commands.
	Check          *Script `yaml:"check,omitempty"`
	CheckListFiles *Script `yaml:"check_list_files,omitempty"`
	CheckDiff      *Script `yaml:"check_diff,omitempty"`
	Fix            *Script `yaml:"fix,omitempty"`

	// Execution.
	Shell       *Script           `yaml:"shell,omitempty"`
	Prefix      string            `yaml:"prefix,omitempty"`
	Stdin       *Script           `yaml:"stdin,omitempty"`
	Env         map[string]string `yaml:"env,omitempty"`
	Interactive bool              `yaml:"interactive,omitempty"`
	Exclusive   bool              `yaml:"exclusive,omitempty"`
	Batch       bool              `yaml:"batch,omitempty"`
	CheckFirst  bool              `yaml:"check_first,omitempty"`
	Stomp       bool              `yaml:"stomp,omitempty"`

	// Scheduling.
	Depends       []string `yaml:"depends,omitempty"`
	Profiles      []string `yaml:"profiles,omitempty"`
	StepCondition string   `yaml:"step_condition,omitempty"`
	JobCondition  string   `yaml:"job_condition,omitempty"`

	// Output.
	OutputSummary OutputSummary `yaml:"output_summary,omitempty"`

	// Fix staging.
	Stage []string `yaml:"stage,omitempty"`
}

// Validate enforces the Step invariants of spec.md §3, rejects glob and
// exclude patterns that do not compile, and normalizes derived fields
// (interactive forcing exclusive).
func (s *Step) Validate() error {
	if s.Stdin != nil && s.Interactive {
		return fmt.Errorf("step %q: stdin and interactive are mutually exclusive", s.Name)
	}
	for _, p := range []*Pattern{s.Glob, s.Exclude} {
		if p == nil {
			continue
		}
		if _, err := Compile(*p, func(re string) (interface{ MatchString(string) bool }, error) {
			return regexp.Compile(re)
		}); err != nil {
			return fmt.Errorf("step %q: %w", s.Name, err)
		}
	}
	if s.Interactive {
		s.Exclusive = true
	}
	return nil
}

// HasCommand reports whether the step has at least one command field
// usable for the given run type.
func (s *Step) HasCommand(rt RunType) bool {
	return s.RunCmd(rt) != nil
}

// RunCmd returns the command to run for the given RunType, applying the
// fallback chain: for Check, check_type()'s primary command, falling
// back through check/check_list_files/check_diff in that priority
// order; for Fix, the fix command, falling back to the check command if
// no fix command is declared (a step with only `check` still "runs" in
// fix mode by re-running its check, matching the original's
// `RunType::Fix => self.fix.or_else(|| self.run_cmd(Check(Check)))`).
func (s *Step) RunCmd(rt RunType) *Script {
	switch rt {
	case RunFix:
		if s.Fix != nil {
			return s.Fix
		}
		return s.RunCmd(RunCheck)
	default:
		switch s.CheckType() {
		case CheckDiff:
			if s.CheckDiff != nil {
				return s.CheckDiff
			}
		case CheckListFiles:
			if s.CheckListFiles != nil {
				return s.CheckListFiles
			}
		}
		if s.Check != nil {
			return s.Check
		}
		if s.CheckListFiles != nil {
			return s.CheckListFiles
		}
		if s.CheckDiff != nil {
			return s.CheckDiff
		}
		return nil
	}
}

// CheckType reports which check-shaped command is primary for this step.
func (s *Step) CheckType() CheckType {
	switch {
	case s.CheckDiff != nil:
		return CheckDiff
	case s.Check != nil:
		return CheckPlain
	case s.CheckListFiles != nil:
		return CheckListFiles
	default:
		return CheckPlain
	}
}

// CheckFirstEffective reports whether check-first is unconditionally
// forced for this step at config time, independent of per-job file
// contention (§3 invariant: "If check_diff is present and run mode is
// Fix, the engine always attempts check-first"; the same holds for
// stage=<JOB_FILES> with a check_list_files/check_diff command, since
// the files to stage can only be known by running the check first).
// When this returns false, a plain `check_first: true` flag is still in
// play but is gated per job by files_in_contention (§4.5 step 8) — that
// gating needs each job's file set and so cannot be decided here.
func (s *Step) CheckFirstEffective(rt RunType) bool {
	if rt != RunFix {
		return false
	}
	if len(s.Stage) == 1 && s.Stage[0] == JobFilesSentinel && (s.CheckListFiles != nil || s.CheckDiff != nil) {
		return true
	}
	return s.CheckDiff != nil
}

// EnabledProfiles returns the profiles this step requires to be active
// (entries not prefixed with '!').
func (s *Step) EnabledProfiles() []string {
	var out []string
	for _, p := range s.Profiles {
		if !strings.HasPrefix(p, "!") {
			out = append(out, p)
		}
	}
	return out
}

// DisabledProfiles returns the profiles that forbid this step (entries
// prefixed with '!').
func (s *Step) DisabledProfiles() []string {
	var out []string
	for _, p := range s.Profiles {
		if strings.HasPrefix(p, "!") {
			out = append(out, strings.TrimPrefix(p, "!"))
		}
	}
	return out
}

// Hook is an ordered mapping from step name to Step.
type Hook struct {
	Name  string
	Steps []*Step

	// Vars carries the config's user-provided key/value pairs (spec
	// §6.5), exposed to this hook's conditions and templates.
	Vars map[string]string
}

// Step looks up a step by name.
func (h *Hook) Step(name string) (*Step, bool) {
	for _, s := range h.Steps {
		if s.Name == name {
			return s, true
		}
	}
	return nil, false
}
