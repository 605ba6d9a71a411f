// Package config holds the declarative data model a hook run is built
// from: patterns, scripts, steps and hooks. It mirrors pre-commit-go's
// checks/config.go in spirit (YAML-decoded, validated structs) but models
// user-declared steps instead of a fixed catalog of checks.
package config

import (
	"fmt"

	"github.com/gobwas/glob"
	"gopkg.in/yaml.v3"
)

// Pattern is either a single regex or an ordered list of glob patterns.
//
// In YAML it is one of:
//
//	glob: "*.go"                 # single glob
//	glob: ["*.go", "*.mod"]       # ordered globs
//	glob: {regex: "^src/.*\\.go$"} # regex
type Pattern struct {
	Regex string
	Globs []string
}

// IsRegex reports whether the pattern is a regex rather than a glob list.
func (p Pattern) IsRegex() bool {
	return p.Regex != ""
}

// String renders the pattern for template contexts (§6.5 "globs").
func (p Pattern) String() string {
	if p.IsRegex() {
		return p.Regex
	}
	out := ""
	for i, g := range p.Globs {
		if i > 0 {
			out += " "
		}
		out += g
	}
	return out
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (p *Pattern) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		var s string
		if err := value.Decode(&s); err != nil {
			return err
		}
		*p = Pattern{Globs: []string{s}}
		return nil
	case yaml.SequenceNode:
		var globs []string
		if err := value.Decode(&globs); err != nil {
			return err
		}
		*p = Pattern{Globs: globs}
		return nil
	case yaml.MappingNode:
		var m struct {
			Regex string `yaml:"regex"`
		}
		if err := value.Decode(&m); err != nil {
			return err
		}
		if m.Regex == "" {
			return fmt.Errorf("pattern mapping requires a \"regex\" key")
		}
		*p = Pattern{Regex: m.Regex}
		return nil
	default:
		return fmt.Errorf("pattern must be a string, list of strings, or {regex: ...} mapping")
	}
}

// MarshalYAML implements yaml.Marshaler.
func (p Pattern) MarshalYAML() (interface{}, error) {
	if p.IsRegex() {
		return map[string]string{"regex": p.Regex}, nil
	}
	if len(p.Globs) == 1 {
		return p.Globs[0], nil
	}
	return p.Globs, nil
}

// Compiled is a Pattern compiled for repeated matching.
type Compiled struct {
	pattern Pattern
	regex   interface{ MatchString(string) bool }
	globs   []glob.Glob
}

// Compile builds a matcher for the pattern. Glob patterns use
// gobwas/glob (path-separator aware via '/' as the separator rune),
// regex patterns use the standard library via the caller-supplied
// compiler to keep this package free of regexp-specific error types.
func Compile(p Pattern, compileRegex func(string) (interface{ MatchString(string) bool }, error)) (*Compiled, error) {
	if p.IsRegex() {
		re, err := compileRegex(p.Regex)
		if err != nil {
			return nil, fmt.Errorf("invalid regex %q: %w", p.Regex, err)
		}
		return &Compiled{pattern: p, regex: re}, nil
	}
	globs := make([]glob.Glob, 0, len(p.Globs))
	for _, g := range p.Globs {
		compiled, err := glob.Compile(g, '/')
		if err != nil {
			return nil, fmt.Errorf("invalid glob %q: %w", g, err)
		}
		globs = append(globs, compiled)
	}
	return &Compiled{pattern: p, globs: globs}, nil
}

// Match reports whether path matches the compiled pattern.
func (c *Compiled) Match(path string) bool {
	if c.regex != nil {
		return c.regex.MatchString(path)
	}
	for _, g := range c.globs {
		if g.Match(path) {
			return true
		}
	}
	return false
}
