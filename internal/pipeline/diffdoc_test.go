package pipeline

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractDiffFence(t *testing.T) {
	diff := "--- a/main.py\n+++ b/main.py\n@@ -1,1 +1,1 @@\n-old\n+new"

	cases := []struct {
		name  string
		reply string
		want  string
	}{
		{"bash fence", "Here is the diff:\n```bash\n" + diff + "\n```\nDone.", diff},
		{"diff fence", "```diff\n" + diff + "\n```", diff},
		{"unlabeled fence", "```\n" + diff + "\n```", diff},
		{"bare diff", diff, diff},
		{"bare git diff", "diff --git a/x b/x\n" + diff, "diff --git a/x b/x\n" + diff},
		{"no diff at all", "I could not produce a diff for this request.", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ExtractDiffFence(tc.reply))
		})
	}
}

func TestDiffDocumentAppendAndString(t *testing.T) {
	var doc DiffDocument
	assert.True(t, doc.Empty())
	assert.Equal(t, "", doc.String())

	doc.Append("--- a/a.py\n+++ b/a.py\n@@ -1,1 +1,1 @@\n-x\n+y\n")
	doc.Append("   \n")
	doc.Append("--- a/b.py\n+++ b/b.py\n@@ -1,1 +1,1 @@\n-p\n+q")

	assert.False(t, doc.Empty())
	assert.Equal(t, 2, doc.Fragments())
	out := doc.String()
	assert.True(t, strings.HasSuffix(out, "\n"))
	assert.Equal(t, []string{"a.py", "b.py"}, doc.Paths())
}

func TestDiffDocumentPathsIgnoresDevNull(t *testing.T) {
	var doc DiffDocument
	doc.Append("--- a/gone.py\n+++ /dev/null\n@@ -1,1 +0,0 @@\n-bye")
	assert.Empty(t, doc.Paths())
}

func TestNormalizeFragmentRenumbersHunks(t *testing.T) {
	source := "def standup():\n    pass\n\n\ndef sitdown():\n    pass\n"
	// Headers are deliberately wrong; the bodies match the source.
	fragment := "--- a/main.py\n+++ b/main.py\n" +
		"@@ -90,2 +90,2 @@\n def standup():\n-    pass\n+    print('up')\n" +
		"@@ -95,2 +95,3 @@\n def sitdown():\n-    pass\n+    print('down')\n+    return None"

	got, err := NormalizeFragment(fragment, "main.py", source)
	require.NoError(t, err)

	assert.Contains(t, got, "--- a/main.py")
	assert.Contains(t, got, "+++ b/main.py")
	assert.Contains(t, got, "@@ -1,2 +1,2 @@")
	// The second hunk starts at source line 5 and the first hunk did not
	// change the line balance, so old and new starts agree.
	assert.Contains(t, got, "@@ -5,2 +5,3 @@")
}

func TestNormalizeFragmentOffsetsLaterHunks(t *testing.T) {
	source := "a\nb\nc\nd\ne\nf\n"
	fragment := "--- a/f.txt\n+++ b/f.txt\n" +
		"@@ -1,2 +1,3 @@\n a\n+inserted\n b\n" +
		"@@ -5,1 +5,1 @@\n-e\n+E"

	got, err := NormalizeFragment(fragment, "f.txt", source)
	require.NoError(t, err)
	// The first hunk adds one line, shifting the second hunk's new start.
	assert.Contains(t, got, "@@ -5,1 +6,1 @@")
}

func TestNormalizeFragmentToleratesWhitespaceDrift(t *testing.T) {
	source := "def  main():\n    run()\n"
	fragment := "@@ -1,2 +1,2 @@\n def main():\n-    run()\n+    run(verbose=True)"

	got, err := NormalizeFragment(fragment, "main.py", source)
	require.NoError(t, err)
	assert.Contains(t, got, "@@ -1,2 +1,2 @@")
}

func TestNormalizeFragmentCountsLeadingBlankContext(t *testing.T) {
	source := "first\n\nsecond\nthird\n"
	fragment := "--- a/f.txt\n+++ b/f.txt\n" +
		"@@ -9,3 +9,3 @@\n \n second\n-third\n+THIRD"

	got, err := NormalizeFragment(fragment, "f.txt", source)
	require.NoError(t, err)
	// The hunk starts at the blank line (2), not at the first matchable
	// line (3), and its length includes the blank.
	assert.Contains(t, got, "@@ -2,3 +2,3 @@")
}

func TestNormalizeFragmentUnmatchableBlock(t *testing.T) {
	_, err := NormalizeFragment("@@ -1,1 +1,1 @@\n-not present\n+replacement", "x.py", "completely different\n")
	require.Error(t, err)
}
