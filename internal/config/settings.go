package config

import (
	"os"
	"runtime"
	"strconv"
)

// Settings holds process-wide tunables sourced from environment
// variables (§6.2) and CLI flags, threaded explicitly through
// HookContext rather than held behind package-level mutexes (§9 design
// note: "Global mutable settings... reimplement as an explicit Settings
// record").
type Settings struct {
	Jobs            int
	FailFast        bool
	StashUntracked  bool
	PreferLibgit2   bool
	HideWhenDone    bool
	SkipHooks       []string
	ArgMax          int
	Profiles        []string
	DisabledProfiles []string
}

// FromEnv builds Settings from the environment variables listed in
// spec.md §6.2, defaulting jobs to GOMAXPROCS-equivalent CPU count.
func FromEnv() Settings {
	s := Settings{
		Jobs:           runtime.NumCPU(),
		FailFast:       envBool("HK_FAIL_FAST", false),
		StashUntracked: envBool("HK_STASH_UNTRACKED", false),
		PreferLibgit2:  envBool("HK_LIBGIT2", false),
		HideWhenDone:   envBool("HK_HIDE_WHEN_DONE", false),
		ArgMax:         detectArgMax(),
	}
	if v := os.Getenv("HK_JOBS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			s.Jobs = n
		}
	}
	if v := os.Getenv("HK_SKIP_HOOK"); v != "" {
		s.SkipHooks = splitComma(v)
	}
	return s
}

func envBool(name string, def bool) bool {
	v, ok := os.LookupEnv(name)
	if !ok {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func splitComma(s string) []string {
	var out []string
	start := 0
	for i := 0; i <= len(s); i++ {
		if i == len(s) || s[i] == ',' {
			if i > start {
				out = append(out, s[start:i])
			}
			start = i + 1
		}
	}
	return out
}

// detectArgMax reads the ARG_MAX override, defaulting to a conservative
// 128KiB (Linux's typical MAX_ARG_STRLEN-derived effective limit) when
// unset; overridable per spec.md §6.2.
func detectArgMax() int {
	if v := os.Getenv("ARG_MAX"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return 128 * 1024
}

// ProfileEnabled reports whether the named profile is active.
func (s Settings) ProfileEnabled(name string) bool {
	for _, p := range s.Profiles {
		if p == name {
			return true
		}
	}
	return false
}

// ProfileDisabled reports whether the named profile has been explicitly
// turned off.
func (s Settings) ProfileDisabled(name string) bool {
	for _, p := range s.DisabledProfiles {
		if p == name {
			return true
		}
	}
	return false
}
