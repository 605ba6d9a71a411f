package config

import (
	"runtime"

	"gopkg.in/yaml.v3"
)

// Script is platform-dispatched command text. In YAML it is either a
// plain string (used on every platform) or a mapping with any of
// linux/macos/windows/other keys, resolved to a single string at
// runtime based on the host OS.
type Script struct {
	Default string
	Linux   string
	Macos   string
	Windows string
	Other   string
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (s *Script) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		var str string
		if err := value.Decode(&str); err != nil {
			return err
		}
		*s = Script{Default: str}
		return nil
	}
	var m struct {
		Linux   string `yaml:"linux"`
		Macos   string `yaml:"macos"`
		Windows string `yaml:"windows"`
		Other   string `yaml:"other"`
	}
	if err := value.Decode(&m); err != nil {
		return err
	}
	*s = Script{Linux: m.Linux, Macos: m.Macos, Windows: m.Windows, Other: m.Other}
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (s Script) MarshalYAML() (interface{}, error) {
	if s.Default != "" {
		return s.Default, nil
	}
	return map[string]string{
		"linux":   s.Linux,
		"macos":   s.Macos,
		"windows": s.Windows,
		"other":   s.Other,
	}, nil
}

// Resolve returns the command text for the given GOOS: Default when it
// is set, otherwise the matching per-OS variant, falling back to Other.
func (s Script) Resolve(goos string) string {
	if s.Default != "" {
		return s.Default
	}
	switch goos {
	case "linux":
		if s.Linux != "" {
			return s.Linux
		}
	case "darwin":
		if s.Macos != "" {
			return s.Macos
		}
	case "windows":
		if s.Windows != "" {
			return s.Windows
		}
	}
	return s.Other
}

// ResolveHost resolves for the current host OS.
func (s Script) ResolveHost() string {
	return s.Resolve(runtime.GOOS)
}

// IsZero reports whether no command text was configured at all.
func (s Script) IsZero() bool {
	return s == Script{}
}
