package gitwt

import (
	"context"
	"os"
)

// Status is a snapshot of which paths are staged, unstaged, untracked or
// modified, plus the finer-grained per-kind classifications the stash
// and fix-staging logic need (spec §4.1, §4.7).
type Status struct {
	StagedFiles    map[string]bool
	UnstagedFiles  map[string]bool
	UntrackedFiles map[string]bool
	ModifiedFiles  map[string]bool

	StagedAddedFiles    map[string]bool
	StagedModifiedFiles map[string]bool
	StagedDeletedFiles  map[string]bool
	StagedRenamedFiles  map[string]bool
	StagedCopiedFiles   map[string]bool

	UnstagedModifiedFiles map[string]bool
	UnstagedDeletedFiles  map[string]bool
	UnstagedRenamedFiles  map[string]bool
}

func newStatus() *Status {
	return &Status{
		StagedFiles:           map[string]bool{},
		UnstagedFiles:         map[string]bool{},
		UntrackedFiles:        map[string]bool{},
		ModifiedFiles:         map[string]bool{},
		StagedAddedFiles:      map[string]bool{},
		StagedModifiedFiles:   map[string]bool{},
		StagedDeletedFiles:    map[string]bool{},
		StagedRenamedFiles:    map[string]bool{},
		StagedCopiedFiles:     map[string]bool{},
		UnstagedModifiedFiles: map[string]bool{},
		UnstagedDeletedFiles:  map[string]bool{},
		UnstagedRenamedFiles:  map[string]bool{},
	}
}

func isModifiedCode(c byte) bool {
	switch c {
	case 'M', 'T', 'A', 'R', 'C':
		return true
	default:
		return false
	}
}

// Status refreshes the index and reports the working tree status,
// optionally limited to pathspec. Shells to `git status --porcelain -z`
// and classifies each entry's index/worktree status letters exactly as
// the upstream implementation does, so that staged/unstaged/untracked
// classification survives partially-staged and mixed-state files.
func (w *Worktree) Status(ctx context.Context, pathspec []string) (*Status, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.statusLocked(ctx, pathspec)
}

func (w *Worktree) statusLocked(ctx context.Context, pathspec []string) (*Status, error) {
	runOk(ctx, w.root, "update-index", "-q", "--refresh")

	if w.preferLibgit2 && w.repo != nil && len(pathspec) == 0 {
		if st, err := w.libgit2Status(); err == nil {
			return st, nil
		}
		// Fall through to the shell backend on any libgit2 error — it is
		// the authoritative path and handles every pathspec/edge case.
	}

	args := []string{"status", "--porcelain", "--no-renames", "--untracked-files=all", "-z"}
	if len(pathspec) > 0 {
		args = append(args, "--")
		args = append(args, pathspec...)
	}
	out, err := run(ctx, w.root, args...)
	if err != nil {
		return nil, err
	}

	st := newStatus()
	for _, entry := range splitNUL(out) {
		if len(entry) < 3 {
			continue
		}
		classify(st, entry[3:], entry[0], entry[1], w.exists(entry[3:]))
	}
	return st, nil
}

// classify applies one status entry's index/worktree letters to st,
// shared between the porcelain-parsing shell backend and the go-git
// fast path (whose StatusCode bytes use the same letters).
func classify(st *Status, path string, index, workdir byte, exists bool) {
	if isModifiedCode(index) && workdir != 'D' && exists {
		st.StagedFiles[path] = true
	}
	switch index {
	case 'A':
		st.StagedAddedFiles[path] = true
	case 'M', 'T':
		st.StagedModifiedFiles[path] = true
	case 'D':
		st.StagedDeletedFiles[path] = true
	case 'R':
		st.StagedRenamedFiles[path] = true
	case 'C':
		st.StagedCopiedFiles[path] = true
	}

	if (isModifiedCode(workdir) || workdir == '?') && exists {
		st.UnstagedFiles[path] = true
	}
	if workdir == '?' && exists {
		st.UntrackedFiles[path] = true
	}
	if (isModifiedCode(index) || isModifiedCode(workdir)) && exists {
		st.ModifiedFiles[path] = true
	}
	switch workdir {
	case 'M', 'T':
		st.UnstagedModifiedFiles[path] = true
	case 'D':
		st.UnstagedDeletedFiles[path] = true
	case 'R':
		st.UnstagedRenamedFiles[path] = true
	}
}

// libgit2Status computes status via go-git instead of shelling to git,
// used as the default backend's fast path when HK_LIBGIT2 is set. Only
// serves whole-repository status requests; a pathspec falls back to the
// shell backend, which is the only one that understands git pathspecs.
func (w *Worktree) libgit2Status() (*Status, error) {
	wt, err := w.repo.Worktree()
	if err != nil {
		return nil, err
	}
	gitStatus, err := wt.Status()
	if err != nil {
		return nil, err
	}
	st := newStatus()
	for path, fs := range gitStatus {
		if fs.Staging == ' ' && fs.Worktree == ' ' {
			continue
		}
		classify(st, path, byte(fs.Staging), byte(fs.Worktree), w.exists(path))
	}
	return st, nil
}

func (w *Worktree) exists(relPath string) bool {
	_, err := os.Stat(w.abs(relPath))
	return err == nil
}

func (w *Worktree) abs(relPath string) string {
	if w.root == "" {
		return relPath
	}
	return w.root + string(os.PathSeparator) + relPath
}

// AllFiles lists every path tracked in the index, optionally limited to
// pathspec.
func (w *Worktree) AllFiles(ctx context.Context, pathspec []string) ([]string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.preferLibgit2 && w.repo != nil && len(pathspec) == 0 {
		if files, err := w.libgit2AllFiles(); err == nil {
			return files, nil
		}
	}
	args := []string{"ls-files", "-z"}
	if len(pathspec) > 0 {
		args = append(args, "--")
		args = append(args, pathspec...)
	}
	out, err := run(ctx, w.root, args...)
	if err != nil {
		return nil, err
	}
	return splitNUL(out), nil
}

// libgit2AllFiles lists index entries via go-git's index storer, without
// spawning a `git ls-files` process.
func (w *Worktree) libgit2AllFiles() ([]string, error) {
	idx, err := w.repo.Storer.Index()
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(idx.Entries))
	for _, e := range idx.Entries {
		out = append(out, e.Name)
	}
	return out, nil
}

// FilesBetweenRefs returns the files that differ between the merge base
// of fromRef/toRef and toRef (toRef defaults to HEAD), matching the
// "changed since branch point" semantics hooks use for `--from-ref`.
func (w *Worktree) FilesBetweenRefs(ctx context.Context, fromRef, toRef string) ([]string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if toRef == "" {
		toRef = "HEAD"
	}
	mergeBase, err := run(ctx, w.root, "merge-base", fromRef, toRef)
	if err != nil {
		return nil, err
	}
	mergeBase = trimTrailingNewline(mergeBase)

	out, err := run(ctx, w.root, "diff", "-z", "--name-only", "--diff-filter=ACMRTUXB", mergeBase+".."+toRef)
	if err != nil {
		return nil, err
	}
	return splitNUL(out), nil
}

func trimTrailingNewline(s string) string {
	for len(s) > 0 && (s[len(s)-1] == '\n' || s[len(s)-1] == '\r') {
		s = s[:len(s)-1]
	}
	return s
}

// DefaultBranch determines the repository's default branch: prefer
// origin/HEAD's symbolic target, else a branch matching the current
// branch on origin, else main/master if either exists on origin.
func (w *Worktree) DefaultBranch(ctx context.Context) (string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if symref, err := run(ctx, w.root, "symbolic-ref", "refs/remotes/origin/HEAD"); err == nil {
		target := trimTrailingNewline(symref)
		const prefix = "refs/remotes/"
		if len(target) > len(prefix) && target[:len(prefix)] == prefix {
			return target[len(prefix):], nil
		}
	}

	branch := trimTrailingNewline(runOk(ctx, w.root, "branch", "--show-current"))
	if branch != "" {
		out := runOk(ctx, w.root, "ls-remote", "--heads", "origin", branch)
		if containsRef(out, "refs/heads/"+branch) {
			return branch, nil
		}
	}

	for _, cand := range []string{"main", "master"} {
		out := runOk(ctx, w.root, "ls-remote", "--heads", "origin", cand)
		if containsRef(out, "refs/heads/"+cand) {
			return cand, nil
		}
	}
	return "origin/HEAD", nil
}

func containsRef(lsRemoteOutput, ref string) bool {
	for _, line := range splitLines(lsRemoteOutput) {
		if len(line) >= len(ref) && line[len(line)-len(ref):] == ref {
			return true
		}
	}
	return false
}

func splitLines(s string) []string {
	var out []string
	start := 0
	for i := 0; i <= len(s); i++ {
		if i == len(s) || s[i] == '\n' {
			if i > start {
				out = append(out, s[start:i])
			}
			start = i + 1
		}
	}
	return out
}

// Add stages the given paths.
func (w *Worktree) Add(ctx context.Context, paths []string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	args := append([]string{"add", "--"}, paths...)
	_, err := run(ctx, w.root, args...)
	return err
}

// ResetPaths unstages the given paths (relative to HEAD).
func (w *Worktree) ResetPaths(ctx context.Context, paths []string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	args := append([]string{"reset", "--"}, paths...)
	_, err := run(ctx, w.root, args...)
	return err
}
