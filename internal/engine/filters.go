package engine

import (
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/jdx/hk/internal/config"
)

func compileRegex(pattern string) (interface{ MatchString(string) bool }, error) {
	return regexp.Compile(pattern)
}

func compilePattern(p *config.Pattern) (*config.Compiled, error) {
	if p == nil {
		return nil, nil
	}
	return config.Compile(*p, compileRegex)
}

// filterFiles applies dir/glob/exclude/allow_binary/allow_symlinks in
// the order spec §4.5 step 3 specifies. hasFilters reports whether any
// selection filter was actually configured, which callers need to
// decide between NoFilesToProcess and "run on the full set".
func filterFiles(step *config.Step, files []string, caches *fileCaches) (out []string, hasFilters bool) {
	globC, err := compilePattern(step.Glob)
	if err == nil && globC != nil {
		hasFilters = true
	}
	excludeC, err := compilePattern(step.Exclude)
	if err == nil && excludeC != nil {
		hasFilters = true
	}
	if step.Dir != "" {
		hasFilters = true
	}
	if len(step.Types) > 0 {
		hasFilters = true
	}

	dirPrefix := ""
	if step.Dir != "" {
		dirPrefix = filepath.ToSlash(step.Dir) + "/"
	}

	for _, f := range files {
		slashed := filepath.ToSlash(f)
		if dirPrefix != "" && !strings.HasPrefix(slashed, dirPrefix) {
			continue
		}
		if globC != nil && !globC.Match(slashed) {
			continue
		}
		if excludeC != nil && excludeC.Match(slashed) {
			continue
		}
		if !step.AllowBinary && caches.isBinary(f) {
			continue
		}
		if !step.AllowSymlinks && caches.isSymlink(f) {
			continue
		}
		out = append(out, f)
	}
	return out, hasFilters
}

// workspacesForFiles discovers, for every file, the deepest ancestor
// directory containing a workspace_indicator marker, by walking up from
// the file's own directory. Mirrors original_source's
// `workspaces_for_files`.
func workspacesForFiles(files []string, indicator string, exists func(string) bool) map[string]string {
	result := make(map[string]string, len(files))
	cache := map[string]string{}
	for _, f := range files {
		dir := filepath.Dir(f)
		found := ""
		for {
			if ws, ok := cache[dir]; ok {
				found = ws
				break
			}
			if exists(filepath.Join(dir, indicator)) {
				found = dir
				break
			}
			parent := filepath.Dir(dir)
			if parent == dir {
				break
			}
			dir = parent
		}
		for d := filepath.Dir(f); ; {
			cache[d] = found
			if d == dir || d == "." {
				break
			}
			parent := filepath.Dir(d)
			if parent == d {
				break
			}
			d = parent
		}
		if found != "" {
			result[f] = found
		}
	}
	return result
}

// partitionByWorkspace groups files by their deepest-matching workspace,
// sorting workspace keys longest-path-first so deeper/more-specific
// workspaces claim their files before shallower ancestors (spec §4.5
// step 5).
func partitionByWorkspace(fileWorkspace map[string]string) map[string][]string {
	groups := map[string][]string{}
	workspaces := make([]string, 0)
	seen := map[string]bool{}
	for _, ws := range fileWorkspace {
		if !seen[ws] {
			seen[ws] = true
			workspaces = append(workspaces, ws)
		}
	}
	sort.Slice(workspaces, func(i, j int) bool { return len(workspaces[i]) > len(workspaces[j]) })

	assigned := map[string]bool{}
	for _, ws := range workspaces {
		for f, fws := range fileWorkspace {
			if assigned[f] {
				continue
			}
			if fws == ws {
				groups[ws] = append(groups[ws], f)
				assigned[f] = true
			}
		}
	}
	return groups
}
