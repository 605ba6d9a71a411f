// Package gitwt implements GitWorktree (spec §4.1): the shared,
// mutex-guarded entry point every step uses to read repository status
// and mutate the worktree (stash, restore, add, reset). The default
// backend shells out to the git binary, in the style of the teacher's
// internal.Capture helper; a read-only fast path backed by go-git/go-git
// serves status()/all_files()/default_branch() when HK_LIBGIT2 is set,
// mirroring the original implementation's optional libgit2 bindings.
package gitwt

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/rs/zerolog/log"
)

// run executes git with args in dir (repo root when dir is ""),
// returning stdout. Non-zero exit is an error carrying stderr.
func run(ctx context.Context, dir string, args ...string) (string, error) {
	log.Debug().Strs("args", args).Str("dir", dir).Msg("git")
	cmd := exec.CommandContext(ctx, "git", args...)
	if dir != "" {
		cmd.Dir = dir
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return stdout.String(), fmt.Errorf("git %s: %w: %s", strings.Join(args, " "), err, strings.TrimSpace(stderr.String()))
	}
	return stdout.String(), nil
}

// runOk executes git and returns its stdout, or "" when git fails,
// without surfacing the error, for call sites that treat failure as
// "nothing to do" (the
// original's `.unwrap_or_default()` pattern around best-effort git reads).
func runOk(ctx context.Context, dir string, args ...string) string {
	out, err := run(ctx, dir, args...)
	if err != nil {
		return ""
	}
	return out
}

func splitNUL(s string) []string {
	var out []string
	for _, part := range strings.Split(s, "\x00") {
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
