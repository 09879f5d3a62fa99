package pipeline

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeRepoFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestFlattenWalksInLexicalOrder(t *testing.T) {
	root := t.TempDir()
	writeRepoFile(t, root, "zeta.go", "package zeta\n")
	writeRepoFile(t, root, "alpha.go", "package alpha\n")
	writeRepoFile(t, root, "sub/beta.go", "package beta\n")

	files, err := Flatten(root, FlattenOptions{})
	require.NoError(t, err)

	var paths []string
	for _, f := range files {
		paths = append(paths, f.Path)
	}
	assert.Equal(t, []string{"alpha.go", "sub/beta.go", "zeta.go"}, paths)
}

func TestFlattenSkipsDotEntriesAndBinaries(t *testing.T) {
	root := t.TempDir()
	writeRepoFile(t, root, "main.py", "print('ok')\n")
	writeRepoFile(t, root, ".env", "SECRET=1\n")
	writeRepoFile(t, root, ".git/config", "[core]\n")
	writeRepoFile(t, root, "archive.zip", "not really a zip\n")
	require.NoError(t, os.WriteFile(filepath.Join(root, "blob.bin"), []byte{0x00, 0x01, 0x02}, 0o644))

	files, err := Flatten(root, FlattenOptions{})
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "main.py", files[0].Path)
}

func TestFlattenAppliesIgnoreGlobs(t *testing.T) {
	root := t.TempDir()
	writeRepoFile(t, root, "keep.go", "package keep\n")
	writeRepoFile(t, root, "vendor/dep/dep.go", "package dep\n")
	writeRepoFile(t, root, "vendor/other/other.go", "package other\n")

	files, err := Flatten(root, FlattenOptions{IgnoreGlobs: []string{"vendor/**/*.go"}})
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "keep.go", files[0].Path)
}

func TestFlattenTruncatesLongFiles(t *testing.T) {
	root := t.TempDir()
	writeRepoFile(t, root, "big.txt", strings.Repeat("line\n", 50))

	files, err := Flatten(root, FlattenOptions{MaxFileLines: 10, MaxTotalLines: 100})
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, 10, files[0].Lines)
	assert.Equal(t, strings.Repeat("line\n", 10), files[0].Content)
}

func TestFlattenRejectsOversizedRepository(t *testing.T) {
	root := t.TempDir()
	writeRepoFile(t, root, "a.txt", strings.Repeat("x\n", 30))
	writeRepoFile(t, root, "b.txt", strings.Repeat("y\n", 30))

	_, err := Flatten(root, FlattenOptions{MaxTotalLines: 40})
	var tooLarge *InputTooLargeError
	require.True(t, errors.As(err, &tooLarge))
	assert.Equal(t, 60, tooLarge.Lines)
	assert.Equal(t, 40, tooLarge.Ceiling)
}

func TestFlattenKeepsMultibyteTextSplitAtSniffBoundary(t *testing.T) {
	root := t.TempDir()
	// Place a three-byte rune so the binary sniff cutoff lands inside it.
	content := strings.Repeat("a", 7999) + "世界 follows the cutoff\n"
	writeRepoFile(t, root, "readme.txt", content)

	files, err := Flatten(root, FlattenOptions{MaxTotalLines: 100})
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "readme.txt", files[0].Path)
}

func TestFlattenMissingRoot(t *testing.T) {
	_, err := Flatten(filepath.Join(t.TempDir(), "nope"), FlattenOptions{})
	var accessErr *RepositoryAccessError
	require.True(t, errors.As(err, &accessErr))
}
