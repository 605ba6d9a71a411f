package diffapply

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilterFilesFromCheckList(t *testing.T) {
	original := []string{"a.go", "dir/b.go", "c.go"}
	stdout := "a.go\ndir/b.go\nextra.go\n"

	matched, extras := FilterFilesFromCheckList(original, stdout)
	assert.ElementsMatch(t, []string{"a.go", "dir/b.go"}, matched)
	assert.Equal(t, []string{"extra.go"}, extras)
}

func TestFilterFilesFromCheckListEmpty(t *testing.T) {
	matched, extras := FilterFilesFromCheckList([]string{"a.go"}, "")
	assert.Empty(t, matched)
	assert.Empty(t, extras)
}

const sampleGitDiff = `diff --git a/main.go b/main.go
index 1111111..2222222 100644
--- a/main.go
+++ b/main.go
@@ -1,3 +1,3 @@
-old
+new
 unchanged
`

func TestFilterFilesFromCheckDiffGitStyle(t *testing.T) {
	matched, extras := FilterFilesFromCheckDiff([]string{"main.go", "other.go"}, sampleGitDiff)
	assert.Equal(t, []string{"main.go"}, matched)
	assert.Empty(t, extras)
}

func TestFilterFilesFromCheckDiffExtraFile(t *testing.T) {
	matched, extras := FilterFilesFromCheckDiff([]string{"other.go"}, sampleGitDiff)
	assert.Empty(t, matched)
	assert.Equal(t, []string{"main.go"}, extras)
}

func TestStripLevelDetection(t *testing.T) {
	assert.Equal(t, "-p1", stripLevel(sampleGitDiff))
	assert.Equal(t, "-p0", stripLevel("--- main.go\n+++ main.go\n"))
}

func TestApplyDiffEmptyIsNoop(t *testing.T) {
	applied, err := ApplyDiff(nil, "", "")
	assert.NoError(t, err)
	assert.False(t, applied)
}
