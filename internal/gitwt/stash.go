package gitwt

import (
	"context"
	"os"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
)

// stashArgs builds the `git stash push` argv, optionally including
// untracked files (HK_STASH_UNTRACKED / spec §6.2).
func (w *Worktree) stashArgs(includeUntracked bool) []string {
	args := []string{"stash", "push", "--keep-index", "-m", "hk"}
	if includeUntracked {
		args = append(args, "--include-untracked")
	}
	return args
}

// StashUnstaged stashes every currently unstaged change (optionally
// narrowed to filesSubset), leaving the index exactly as it was, so that
// fix commands operate only on a clean, staged-equivalent tree (spec
// §4.1). A no-op when method is StashNone, there is no commit yet, or
// nothing is unstaged.
func (w *Worktree) StashUnstaged(ctx context.Context, method StashMethod, status *Status, filesSubset []string, includeUntracked bool) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if method == StashNone {
		return nil
	}
	if _, err := run(ctx, w.root, "rev-parse", "--verify", "HEAD"); err != nil {
		return nil
	}

	toStash := map[string]bool{}

	diffArgs := []string{"diff", "--name-only", "-z", "--no-ext-diff", "--ignore-submodules"}
	if len(filesSubset) > 0 {
		diffArgs = append(diffArgs, "--")
		diffArgs = append(diffArgs, filesSubset...)
	}
	for _, p := range splitNUL(runOk(ctx, w.root, diffArgs...)) {
		if w.exists(p) {
			toStash[p] = true
		}
	}

	lsArgs := []string{"ls-files", "-m", "-z"}
	if len(filesSubset) > 0 {
		lsArgs = append(lsArgs, "--")
		lsArgs = append(lsArgs, filesSubset...)
	}
	for _, p := range splitNUL(runOk(ctx, w.root, lsArgs...)) {
		if w.exists(p) {
			toStash[p] = true
		}
	}

	statusArgs := []string{"status", "--porcelain", "--no-renames", "--untracked-files=all", "-z"}
	if len(filesSubset) > 0 {
		statusArgs = append(statusArgs, "--")
		statusArgs = append(statusArgs, filesSubset...)
	}
	for _, entry := range splitNUL(runOk(ctx, w.root, statusArgs...)) {
		if len(entry) < 3 {
			continue
		}
		workdir := entry[1]
		path := entry[3:]
		if (workdir == 'M' || workdir == 'T' || workdir == 'R') && w.exists(path) {
			toStash[path] = true
		}
	}

	for p := range status.UnstagedFiles {
		toStash[p] = true
	}

	if len(filesSubset) > 0 {
		allow := map[string]bool{}
		for _, p := range filesSubset {
			allow[p] = true
		}
		for p := range toStash {
			if !allow[p] {
				delete(toStash, p)
			}
		}
	}

	if len(toStash) == 0 {
		return nil
	}

	paths := make([]string, 0, len(toStash))
	for p := range toStash {
		paths = append(paths, p)
	}

	stashed, err := w.pushStashLocked(ctx, paths, status, includeUntracked)
	if err != nil {
		return err
	}
	w.stashed = stashed
	return nil
}

// pushStashLocked runs `git stash push --keep-index`, filtering untracked
// paths out of the subset first since git refuses to stash untracked
// paths passed as pathspecs.
func (w *Worktree) pushStashLocked(ctx context.Context, paths []string, status *Status, includeUntracked bool) (bool, error) {
	tracked := make([]string, 0, len(paths))
	for _, p := range paths {
		if !status.UntrackedFiles[p] {
			tracked = append(tracked, p)
		}
	}
	if len(tracked) == 0 {
		return false, nil
	}

	args := w.stashArgs(includeUntracked)
	args = append(args, "--")
	args = append(args, tracked...)
	if _, err := run(ctx, w.root, args...); err != nil {
		return false, err
	}
	return true, nil
}

// CaptureIndex records the (mode, oid, path) triples git currently has
// staged for paths, so RestoreIndex can re-pin them exactly after a
// stash pop that might otherwise leave the index in a slightly different
// state (spec §4.1 step 8).
func (w *Worktree) CaptureIndex(ctx context.Context, paths []string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(paths) == 0 {
		w.savedIndex = []indexEntry{}
		return nil
	}
	args := append([]string{"ls-files", "-s", "-z", "--"}, paths...)
	out, err := run(ctx, w.root, args...)
	if err != nil {
		return err
	}
	var entries []indexEntry
	for _, rec := range splitNUL(out) {
		tab := strings.IndexByte(rec, '\t')
		if tab < 0 {
			continue
		}
		left, path := rec[:tab], rec[tab+1:]
		fields := strings.Fields(left)
		if len(fields) < 2 || fields[1] == "" {
			continue
		}
		mode, err := strconv.ParseUint(fields[0], 8, 32)
		if err != nil {
			mode = 0o100644
		}
		entries = append(entries, indexEntry{mode: uint32(mode), oid: fields[1], path: path})
	}
	w.savedIndex = entries
	return nil
}

// RestoreIndex re-pins every entry captured by CaptureIndex via
// `git update-index --cacheinfo`, then clears the capture.
func (w *Worktree) RestoreIndex(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	entries := w.savedIndex
	w.savedIndex = nil
	for _, e := range entries {
		modeStr := strconv.FormatUint(uint64(e.mode), 8)
		if _, err := run(ctx, w.root, "update-index", "--cacheinfo", modeStr, e.oid, e.path); err != nil {
			return err
		}
	}
	return nil
}

// PopStash applies the stash created by StashUnstaged, resolving any
// conflicts by preferring the stashed (previously-unstaged) content, then
// restores the index exactly as CaptureIndex recorded it. Best-effort
// throughout: every failure, including a failed `git stash apply`
// (which leaves the stash in place), is logged rather than returned, so
// this method always returns nil and never blocks the worktree (spec
// §4.1).
func (w *Worktree) PopStash(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.stashed {
		return nil
	}
	w.stashed = false

	previouslyStaged := w.stagedSetLocked(ctx)

	applyErr := func() error {
		_, err := run(ctx, w.root, "stash", "apply")
		return err
	}()

	statusOut := runOk(ctx, w.root, "status", "--porcelain", "-z", "--no-renames", "--untracked-files=all")
	conflicted := conflictedFilesFromPorcelain(statusOut)

	switch {
	case len(conflicted) > 0:
		for _, f := range conflicted {
			if err := resolveConflictMarkersPreferringTheirs(w.abs(f)); err != nil {
				log.Warn().Err(err).Str("file", f).Msg("failed to resolve conflict markers")
			}
			if previouslyStaged[f] {
				if _, err := run(ctx, w.root, "add", "--", f); err != nil {
					log.Warn().Err(err).Str("file", f).Msg("failed to stage after resolving conflicts")
				}
			}
		}
		if _, err := run(ctx, w.root, "stash", "drop"); err != nil {
			log.Warn().Err(err).Msg("failed to drop stash after conflict resolution")
		}
	case applyErr != nil:
		log.Warn().Err(applyErr).Msg("git stash apply failed; leaving stash intact")
		return nil
	default:
		if _, err := run(ctx, w.root, "stash", "drop"); err != nil {
			log.Warn().Err(err).Msg("failed to drop stash after successful apply")
		}
	}

	stagedAfter := w.stagedSetLocked(ctx)
	var toUnstage []string
	for p := range stagedAfter {
		if !previouslyStaged[p] {
			toUnstage = append(toUnstage, p)
		}
	}
	if len(toUnstage) > 0 {
		args := append([]string{"reset", "--"}, toUnstage...)
		if _, err := run(ctx, w.root, args...); err != nil {
			log.Warn().Err(err).Msg("failed to reset unintended staged files after stash")
		}
	}

	entries := w.savedIndex
	w.savedIndex = nil
	for _, e := range entries {
		modeStr := strconv.FormatUint(uint64(e.mode), 8)
		if _, err := run(ctx, w.root, "update-index", "--cacheinfo", modeStr, e.oid, e.path); err != nil {
			log.Warn().Err(err).Msg("failed to restore exact index entries")
		}
	}
	return nil
}

func (w *Worktree) stagedSetLocked(ctx context.Context) map[string]bool {
	out := runOk(ctx, w.root, "status", "--porcelain", "--no-renames", "--untracked-files=all", "-z")
	set := map[string]bool{}
	for _, entry := range splitNUL(out) {
		if len(entry) < 3 {
			continue
		}
		if isModifiedCode(entry[0]) {
			set[entry[3:]] = true
		}
	}
	return set
}

// conflictedFilesFromPorcelain returns paths whose porcelain status is
// one of the unmerged pairs (UU, AA, AU, UA, DU, UD).
func conflictedFilesFromPorcelain(statusZ string) []string {
	var out []string
	for _, entry := range splitNUL(statusZ) {
		if len(entry) < 3 {
			continue
		}
		x, y, path := entry[0], entry[1], entry[3:]
		unmerged := (x == 'U' && y == 'U') || (x == 'A' && y == 'A') ||
			(x == 'A' && y == 'U') || (x == 'U' && y == 'A') ||
			(x == 'D' && y == 'U') || (x == 'U' && y == 'D')
		if unmerged {
			out = append(out, path)
		}
	}
	return out
}

// resolveConflictMarkersPreferringTheirs rewrites path, keeping the
// "theirs" side (the stash content) of every conflict block and
// discarding "ours", preserving every other line byte-for-byte including
// line endings.
func resolveConflictMarkersPreferringTheirs(path string) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	text := string(content)
	if !strings.Contains(text, "<<<<<<<") || !strings.Contains(text, ">>>>>>>") {
		return nil
	}

	lines := splitInclusive(text, '\n')
	var out strings.Builder
	out.Grow(len(text))
	i := 0
	for i < len(lines) {
		line := lines[i]
		if strings.HasPrefix(line, "<<<<<<<") {
			i++
			for i < len(lines) && !strings.HasPrefix(lines[i], "=======") {
				i++
			}
			if i < len(lines) && strings.HasPrefix(lines[i], "=======") {
				i++
			}
			for i < len(lines) && !strings.HasPrefix(lines[i], ">>>>>>>") {
				out.WriteString(lines[i])
				i++
			}
			if i < len(lines) && strings.HasPrefix(lines[i], ">>>>>>>") {
				i++
			}
		} else {
			out.WriteString(line)
			i++
		}
	}

	return os.WriteFile(path, []byte(out.String()), 0o644)
}

// splitInclusive splits s on sep, keeping sep at the end of each piece
// except possibly the last, mirroring Rust's str::split_inclusive.
func splitInclusive(s string, sep byte) []string {
	var out []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == sep {
			out = append(out, s[start:i+1])
			start = i + 1
		}
	}
	if start < len(s) {
		out = append(out, s[start:])
	}
	return out
}
