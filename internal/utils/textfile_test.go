package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadNonEmptyLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "patterns")
	content := "vendor/**\n\n# comment line\n  node_modules/**  \n\t\n*.lock\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	lines, err := ReadNonEmptyLines(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"vendor/**", "node_modules/**", "*.lock"}, lines)
}

func TestReadNonEmptyLinesMissingFile(t *testing.T) {
	_, err := ReadNonEmptyLines(filepath.Join(t.TempDir(), "absent"))
	assert.Error(t, err)
}

func TestHasGitRepo(t *testing.T) {
	dir := t.TempDir()
	assert.False(t, HasGitRepo(dir))

	require.NoError(t, os.Mkdir(filepath.Join(dir, ".git"), 0o755))
	assert.True(t, HasGitRepo(dir))
}
