package gitwt

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConflictedFilesFromPorcelain(t *testing.T) {
	status := "UU a.go\x00AA b.go\x00M  c.go\x00"
	got := conflictedFilesFromPorcelain(status)
	assert.ElementsMatch(t, []string{"a.go", "b.go"}, got)
}

func TestSplitInclusive(t *testing.T) {
	got := splitInclusive("a\nb\nc", '\n')
	assert.Equal(t, []string{"a\n", "b\n", "c"}, got)
}

func TestSplitInclusiveTrailingNewline(t *testing.T) {
	got := splitInclusive("a\nb\n", '\n')
	assert.Equal(t, []string{"a\n", "b\n"}, got)
}

func TestResolveConflictMarkersPreferringTheirs(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "f.txt")
	content := "before\n<<<<<<< ours\nmine\n=======\ntheirs\n>>>>>>> stash\nafter\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	require.NoError(t, resolveConflictMarkersPreferringTheirs(path))

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "before\ntheirs\nafter\n", string(got))
}

func TestResolveConflictMarkersNoConflictIsNoop(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "f.txt")
	content := "plain content\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	require.NoError(t, resolveConflictMarkersPreferringTheirs(path))

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, content, string(got))
}

func TestClassifyModifiedAndUntracked(t *testing.T) {
	st := newStatus()
	classify(st, "staged.go", 'M', ' ', true)
	classify(st, "new.go", '?', '?', true)
	classify(st, "both.go", 'M', 'M', true)

	assert.True(t, st.StagedFiles["staged.go"])
	assert.True(t, st.StagedModifiedFiles["staged.go"])
	assert.True(t, st.UntrackedFiles["new.go"])
	assert.True(t, st.UnstagedFiles["new.go"])
	assert.True(t, st.ModifiedFiles["both.go"])
	assert.True(t, st.UnstagedModifiedFiles["both.go"])
}

func TestClassifyDeletedInWorkdirNotStaged(t *testing.T) {
	st := newStatus()
	// staged modified but deleted in worktree and no longer exists: not staged.
	classify(st, "gone.go", 'M', 'D', false)
	assert.False(t, st.StagedFiles["gone.go"])
}
