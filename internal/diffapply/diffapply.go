// Package diffapply implements the CheckList/Diff narrowing and
// diff-application logic of spec §4.9: given a check command's raw
// output, figure out which of the step's candidate files it actually
// concerns, and optionally apply a unified diff directly to the worktree
// as a fix-staging fast path.
package diffapply

import (
	"bytes"
	"context"
	"os/exec"
	"path/filepath"
	"strings"

	godiff "github.com/sourcegraph/go-diff/diff"
)

// FilterFilesFromCheckList canonicalizes each line of stdout (one path
// per line, as produced by a step's check_list_files command) and
// intersects it with the step's original candidate set. Lines that
// don't correspond to any original path are returned as extras —
// warning material, since the tool claimed to touch a file outside what
// it was asked to process.
func FilterFilesFromCheckList(original []string, stdout string) (matched, extras []string) {
	origSet := make(map[string]string, len(original)) // canonical -> original
	for _, o := range original {
		origSet[canonicalize(o)] = o
	}

	seen := make(map[string]bool)
	for _, line := range strings.Split(stdout, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		c := canonicalize(line)
		if orig, ok := origSet[c]; ok {
			if !seen[orig] {
				seen[orig] = true
				matched = append(matched, orig)
			}
		} else {
			extras = append(extras, line)
		}
	}
	return matched, extras
}

// FilterFilesFromCheckDiff parses stdout as a unified diff and
// intersects the touched file paths with the step's original candidate
// set, returning anything outside that set as extras.
func FilterFilesFromCheckDiff(original []string, stdout string) (matched, extras []string) {
	origSet := make(map[string]string, len(original))
	for _, o := range original {
		origSet[canonicalize(o)] = o
	}

	paths := diffPaths(stdout)
	seen := make(map[string]bool)
	for _, p := range paths {
		c := canonicalize(p)
		if orig, ok := origSet[c]; ok {
			if !seen[orig] {
				seen[orig] = true
				matched = append(matched, orig)
			}
		} else {
			extras = append(extras, p)
		}
	}
	return matched, extras
}

// diffPaths extracts the touched file path from each file section of a
// unified diff, preferring the new-file name (the post-fix path) and
// stripping the a/ b/ prefix pair go-diff's parser leaves in place for
// git-style diffs, plus the /dev/null sentinel for added/removed files.
func diffPaths(stdout string) []string {
	if strings.TrimSpace(stdout) == "" {
		return nil
	}
	files, err := godiff.ParseMultiFileDiff([]byte(stdout))
	if err != nil || len(files) == 0 {
		return nil
	}
	hasA, hasB := false, false
	for _, f := range files {
		hasA = hasA || strings.HasPrefix(f.OrigName, "a/") || f.OrigName == "/dev/null"
		hasB = hasB || strings.HasPrefix(f.NewName, "b/") || f.NewName == "/dev/null"
	}
	gitStyle := hasA && hasB
	var out []string
	for _, f := range files {
		name := f.NewName
		if name == "" || name == "/dev/null" {
			name = f.OrigName
		}
		if name == "" || name == "/dev/null" {
			continue
		}
		out = append(out, stripGitPrefix(name, gitStyle))
	}
	return out
}

// stripGitPrefix removes a leading "a/" or "b/" prefix when gitStyle is
// set, i.e. when both prefix styles are present across a diff's header
// lines (the git convention; a /dev/null side counts toward either),
// leaving bare relative paths for tools that diff without it.
func stripGitPrefix(path string, gitStyle bool) string {
	if gitStyle && (strings.HasPrefix(path, "a/") || strings.HasPrefix(path, "b/")) {
		return path[2:]
	}
	return path
}

func canonicalize(path string) string {
	return filepath.ToSlash(filepath.Clean(path))
}

// stripLevel reports the -p argument to pass to `git apply`: -p1 when
// the diff uses git-style a/ b/ prefixes, else -p0.
func stripLevel(diffText string) string {
	if strings.Contains(diffText, "\n--- a/") || strings.HasPrefix(diffText, "--- a/") ||
		strings.Contains(diffText, "\n+++ b/") || strings.HasPrefix(diffText, "+++ b/") {
		return "-p1"
	}
	return "-p0"
}

// ApplyDiff applies a unified diff to the worktree via `git apply`,
// rooted at dir (the step's configured working directory, or "" for the
// repository root). Returns true only when the diff was non-empty and
// git apply succeeded.
func ApplyDiff(ctx context.Context, dir, diffText string) (bool, error) {
	if strings.TrimSpace(diffText) == "" {
		return false, nil
	}
	cmd := exec.CommandContext(ctx, "git", "apply", stripLevel(diffText), "--whitespace=nowarn", "-")
	if dir != "" {
		cmd.Dir = dir
	}
	cmd.Stdin = bytes.NewReader([]byte(diffText))
	if err := cmd.Run(); err != nil {
		return false, err
	}
	return true, nil
}
