package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jdx/hk/internal/config"
	"github.com/jdx/hk/internal/gitwt"
)

// hookShimContent is the POSIX shell shim installed at
// .git/hooks/<name>, mirroring the teacher's hookContent template but
// calling back into `hk run-hook` rather than a fixed checks catalog.
const hookShimContent = `#!/bin/sh
# Installed by hk. Do not edit; re-run "hk install" to regenerate.
exec hk run-hook %s "$@"
`

const shimMarker = "# Installed by hk."

// runInstall writes a shim for every hook name declared in hk.yaml into
// .git/hooks, overwriting anything hk itself previously installed but
// refusing to clobber a hook script it didn't write.
func runInstall() error {
	wt, err := gitwt.Open(false)
	if err != nil {
		return configErrorf(err)
	}
	hooks, err := config.Load(configPath(wt.Root()))
	if err != nil {
		return configErrorf(err)
	}

	hooksDir := filepath.Join(wt.Root(), ".git", "hooks")
	if err := os.MkdirAll(hooksDir, 0o755); err != nil {
		return configErrorf(err)
	}

	for name := range hooks {
		path := filepath.Join(hooksDir, name)
		if err := installOne(path, name); err != nil {
			return configErrorf(err)
		}
	}
	return nil
}

func installOne(path, hookName string) error {
	if existing, err := os.ReadFile(path); err == nil {
		if !hasMarker(string(existing)) {
			return fmt.Errorf("refusing to overwrite existing hook %q not installed by hk", path)
		}
	}
	content := fmt.Sprintf(hookShimContent, hookName)
	return os.WriteFile(path, []byte(content), 0o755)
}

func hasMarker(content string) bool {
	return strings.Contains(content, shimMarker)
}

// runUninstall removes every shim hk previously installed, leaving any
// hook script it did not write untouched.
func runUninstall() error {
	wt, err := gitwt.Open(false)
	if err != nil {
		return configErrorf(err)
	}
	hooksDir := filepath.Join(wt.Root(), ".git", "hooks")
	entries, err := os.ReadDir(hooksDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return configErrorf(err)
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		path := filepath.Join(hooksDir, e.Name())
		content, err := os.ReadFile(path)
		if err != nil || !hasMarker(string(content)) {
			continue
		}
		if err := os.Remove(path); err != nil {
			return configErrorf(err)
		}
	}
	return nil
}
