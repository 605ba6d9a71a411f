package engine

import (
	"context"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jdx/hk/internal/config"
	"github.com/jdx/hk/internal/gitwt"
	"github.com/jdx/hk/internal/hkctx"
	"github.com/jdx/hk/internal/render"
)

// stageStep implements spec §4.7: once per step, after all of its jobs
// have finished, stage the subset of the working tree that the step's
// `stage` patterns (or the <JOB_FILES> sentinel) say should be
// committed. allJobFiles is the union of every job's assigned files
// before any check-first refiltering; actualJobFiles is the union of
// files each job actually processed after refiltering.
func stageStep(ctx context.Context, hctx *hkctx.Context, step *config.Step, allJobFiles, actualJobFiles []string) error {
	if hctx.Worktree == nil {
		return nil
	}

	effectiveStage := step.Stage
	if len(effectiveStage) == 0 {
		if step.Fix == nil {
			return nil
		}
		effectiveStage = []string{config.JobFilesSentinel}
	}

	if len(effectiveStage) == 1 && effectiveStage[0] == config.JobFilesSentinel {
		return stageExact(ctx, hctx, dedupe(actualJobFiles))
	}
	return stageByPattern(ctx, hctx, step, effectiveStage, allJobFiles)
}

// stageExact stages precisely the given files, skipping any that are
// currently neither untracked nor unstaged (never a path the user
// already had staged themselves).
func stageExact(ctx context.Context, hctx *hkctx.Context, files []string) error {
	if len(files) == 0 {
		return nil
	}
	st, err := hctx.Worktree.Status(ctx, files)
	if err != nil {
		return err
	}
	return addAndRecord(ctx, hctx, filterUntrackedOrUnstaged(files, st))
}

// stageByPattern implements the general case of §4.7: render each stage
// pattern through the template engine, expand a "**/"-stripped
// dir-prefixed variant, drop empty/directory-only patterns, build the
// candidate set from the step's job files plus status-derived paths, and
// keep only the candidates that match a rendered glob and are currently
// untracked or unstaged.
func stageByPattern(ctx context.Context, hctx *hkctx.Context, step *config.Step, patterns, allJobFiles []string) error {
	globs, err := renderStageGlobs(step, patterns)
	if err != nil {
		return err
	}
	if len(globs) == 0 {
		return nil
	}

	st, err := hctx.Worktree.Status(ctx, globs)
	if err != nil {
		return err
	}

	candidates := map[string]bool{}
	for _, f := range allJobFiles {
		candidates[f] = true
	}
	anchored := false
	for _, g := range globs {
		if !isGlobLike(g) {
			if fileExists(g) {
				candidates[g] = true
			}
			continue
		}
		if isAnchoredGlob(g) {
			anchored = true
		}
	}
	if anchored {
		for f := range st.UntrackedFiles {
			candidates[f] = true
		}
		for f := range st.UnstagedFiles {
			candidates[f] = true
		}
	}

	matched, err := matchAnyGlob(globs, sortedKeys(candidates))
	if err != nil {
		return err
	}
	return addAndRecord(ctx, hctx, filterUntrackedOrUnstaged(matched, st))
}

// renderStageGlobs renders every stage pattern through the template
// engine, then (per §4.7 step 2) prefixes the step's dir and, for
// patterns rooted with "**/", also includes a dir-prefixed variant with
// that prefix stripped so root-of-dir files match too. Empty and
// directory-only ("*/") patterns are dropped (step 3).
func renderStageGlobs(step *config.Step, patterns []string) ([]string, error) {
	var out []string
	for _, pattern := range patterns {
		rendered, err := render.Render(pattern, render.Context{})
		if err != nil {
			return nil, err
		}
		out = append(out, prefixDir(step.Dir, rendered))
		if rest, ok := strings.CutPrefix(rendered, "**/"); ok && rest != "" {
			out = append(out, prefixDir(step.Dir, rest))
		}
	}
	var kept []string
	for _, g := range out {
		if g == "" || strings.HasSuffix(g, "/") {
			continue
		}
		kept = append(kept, g)
	}
	return kept, nil
}

func prefixDir(dir, pattern string) string {
	if dir == "" {
		return pattern
	}
	return filepath.ToSlash(filepath.Join(dir, pattern))
}

// isGlobLike reports whether s contains any glob metacharacter.
func isGlobLike(s string) bool {
	return strings.ContainsAny(s, "*?[")
}

// isAnchoredGlob reports whether s is a glob pattern whose first path
// segment is a literal directory name (e.g. "dir/**" or "src/*.go"),
// as opposed to a root-relative "**/"-prefixed pattern or a glob whose
// very first segment is itself a wildcard. Anchored globs may match
// newly-created files outside the step's job file set (generators), so
// staging also considers the worktree's untracked/unstaged files for
// them (§4.7 step 5).
func isAnchoredGlob(s string) bool {
	if strings.HasPrefix(s, "**/") {
		return false
	}
	first := s
	if i := strings.IndexByte(s, '/'); i >= 0 {
		first = s[:i]
	}
	if isGlobLike(first) {
		return false
	}
	return isGlobLike(s)
}

// matchAnyGlob compiles patterns as a glob Pattern and returns every
// candidate that matches at least one of them.
func matchAnyGlob(patterns, candidates []string) ([]string, error) {
	compiled, err := config.Compile(config.Pattern{Globs: patterns}, compileRegex)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, c := range candidates {
		if compiled.Match(c) {
			out = append(out, c)
		}
	}
	return out, nil
}

func sortedKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func filterUntrackedOrUnstaged(candidates []string, st *gitwt.Status) []string {
	var out []string
	for _, c := range candidates {
		if st.UntrackedFiles[c] || st.UnstagedFiles[c] {
			out = append(out, c)
		}
	}
	return out
}

func addAndRecord(ctx context.Context, hctx *hkctx.Context, files []string) error {
	if len(files) == 0 {
		return nil
	}
	if err := hctx.Worktree.Add(ctx, files); err != nil {
		return err
	}
	hctx.AddFiles(files)
	return nil
}

func dedupe(in []string) []string {
	seen := map[string]bool{}
	var out []string
	for _, s := range in {
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
