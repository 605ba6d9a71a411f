package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the decoded form of the hook configuration file (out of
// scope for schema validation per spec.md §1, but the data model it
// loads into is in scope). Mirrors the shape of the teacher's
// checks/config.go Config/Settings split, generalized from a fixed
// checks catalog to user-declared Hooks.
type Config struct {
	MinVersion     string                `yaml:"min_version,omitempty"`
	Hooks          map[string][]stepYAML `yaml:"hooks"`
	IgnorePatterns []string              `yaml:"ignore_patterns,omitempty"`

	// Vars holds user-provided key/value pairs (spec §6.5) exposed
	// alongside `files` to every step_condition/job_condition and
	// command/env/stdin template in every hook of this config.
	Vars map[string]string `yaml:"vars,omitempty"`
}

// stepYAML is the on-disk shape of a step entry: a single-key mapping
// {name: {...fields...}}, decoded into a name-carrying Step.
type stepYAML map[string]Step

// LoadError aggregates every configuration problem found, rather than
// stopping at the first (spec.md §7.1: "Configuration errors... missing
// command for run type, cycle in dependencies, bad pattern").
type LoadError struct {
	Problems []string
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("configuration error(s):\n  - %s", strings.Join(e.Problems, "\n  - "))
}

func (e *LoadError) add(format string, args ...interface{}) {
	e.Problems = append(e.Problems, fmt.Sprintf(format, args...))
}

// Load decodes a hook configuration file and validates it, returning the
// set of named Hooks. Unlike the teacher's LoadConfig (which returns nil
// on any error and lets the caller fall back to defaults), this returns
// an explicit error so cmd/hk can map it to the exit code 2 contract of
// spec.md §6.1.
func Load(path string) (map[string]*Hook, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %q: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes and validates raw YAML config bytes.
func Parse(data []byte) (map[string]*Hook, error) {
	var raw Config
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	hooks := map[string]*Hook{}
	loadErr := &LoadError{}
	for hookName, stepList := range raw.Hooks {
		hook := &Hook{Name: hookName, Vars: raw.Vars}
		seen := map[string]bool{}
		for _, entry := range stepList {
			for name, step := range entry {
				step := step
				step.Name = name
				if seen[name] {
					loadErr.add("hook %q: duplicate step name %q", hookName, name)
					continue
				}
				seen[name] = true
				if err := step.Validate(); err != nil {
					loadErr.add("hook %q: %s", hookName, err)
					continue
				}
				s := step
				hook.Steps = append(hook.Steps, &s)
			}
		}
		if err := checkCycles(hook); err != nil {
			loadErr.add("hook %q: %s", hookName, err)
		}
		hooks[hookName] = hook
	}

	if len(loadErr.Problems) > 0 {
		return nil, loadErr
	}
	return hooks, nil
}

// checkCycles detects cyclic `depends` edges within a hook (spec.md
// §4.10: "Cyclic dependencies are a configuration error detected at load
// time"). Uses a standard three-color DFS.
func checkCycles(hook *Hook) error {
	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := map[string]int{}
	for _, s := range hook.Steps {
		color[s.Name] = white
	}
	var stack []string
	var visit func(name string) error
	visit = func(name string) error {
		color[name] = gray
		stack = append(stack, name)
		step, ok := hook.Step(name)
		if ok {
			for _, dep := range step.Depends {
				switch color[dep] {
				case white:
					if err := visit(dep); err != nil {
						return err
					}
				case gray:
					cycle := append(append([]string{}, stack...), dep)
					return fmt.Errorf("dependency cycle: %s", strings.Join(cycle, " -> "))
				}
			}
		}
		stack = stack[:len(stack)-1]
		color[name] = black
		return nil
	}
	for _, s := range hook.Steps {
		if color[s.Name] == white {
			if err := visit(s.Name); err != nil {
				return err
			}
		}
	}
	return nil
}
