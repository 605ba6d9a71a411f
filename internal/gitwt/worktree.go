package gitwt

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/go-git/go-git/v5"
)

// StashMethod selects how stash_unstaged should persist unstaged work
// before a fix run (spec §6.3's `--stash` flag).
type StashMethod int

const (
	StashGit StashMethod = iota
	StashPatchFile
	StashNone
)

type indexEntry struct {
	mode uint32
	oid  string
	path string
}

// Worktree is the shared, mutex-guarded handle every step uses to read
// status and mutate the repository. A single instance is shared across
// an entire hook run (spec §4.1, §5 "shared-resource policy").
type Worktree struct {
	mu   sync.Mutex
	root string

	preferLibgit2 bool
	repo          *git.Repository // read-only fast path only; nil when unused

	stashed    bool
	savedIndex []indexEntry
}

// Open locates the repository root by walking up from the current
// directory looking for .git, and returns a Worktree rooted there.
// preferLibgit2 enables the go-git-backed read path for status/all-files/
// default-branch (HK_LIBGIT2), mirroring the original's optional libgit2
// bindings; the shell backend is otherwise used for everything, since
// go-git does not implement `stash`.
func Open(preferLibgit2 bool) (*Worktree, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("getwd: %w", err)
	}
	root, err := findUp(cwd, ".git")
	if err != nil {
		return nil, fmt.Errorf("failed to find git repository: %w", err)
	}
	if err := os.Chdir(root); err != nil {
		return nil, err
	}

	w := &Worktree{root: root, preferLibgit2: preferLibgit2}
	if preferLibgit2 {
		repo, err := git.PlainOpen(root)
		if err == nil {
			w.repo = repo
		}
	}
	return w, nil
}

func findUp(start, marker string) (string, error) {
	dir := start
	for {
		if _, err := os.Stat(filepath.Join(dir, marker)); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("%s not found above %s", marker, start)
		}
		dir = parent
	}
}

// Root returns the repository root directory.
func (w *Worktree) Root() string {
	return w.root
}
