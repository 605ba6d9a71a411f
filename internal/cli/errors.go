// Package cli wires the hk subcommands (check, fix, run, run-hook,
// install, uninstall) and the --plan flag to internal/config, internal/gitwt,
// internal/hkctx and internal/engine, and maps their outcomes to the
// process exit codes of spec §6.1.
package cli

import "errors"

// ConfigError marks a configuration or environment problem (spec §6.1
// exit code 2): an unreadable hk.yaml, a missing git repository, an
// unknown hook name.
type ConfigError struct {
	Err error
}

func (e *ConfigError) Error() string { return e.Err.Error() }
func (e *ConfigError) Unwrap() error { return e.Err }

func configErrorf(err error) error {
	if err == nil {
		return nil
	}
	return &ConfigError{Err: err}
}

// ExitCodeFor maps an error returned from Execute to a process exit
// code: 0 for nil, 2 for a ConfigError, 1 for anything else (one or
// more steps failed).
func ExitCodeFor(err error) int {
	if err == nil {
		return 0
	}
	var cfgErr *ConfigError
	if errors.As(err, &cfgErr) {
		return 2
	}
	return 1
}
