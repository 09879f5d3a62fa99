package services

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func initRepoWithCommit(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "main.py"), []byte("print('hi')\n"), 0o644))
	wt, err := repo.Worktree()
	require.NoError(t, err)
	_, err = wt.Add("main.py")
	require.NoError(t, err)
	_, err = wt.Commit("initial", &git.CommitOptions{
		Author: &object.Signature{Name: "tester", Email: "tester@example.com", When: time.Now()},
	})
	require.NoError(t, err)
	return dir
}

func TestGitServiceOpenAndHeadHash(t *testing.T) {
	svc := NewGitService()
	dir := initRepoWithCommit(t)

	repo, err := svc.Open(dir)
	require.NoError(t, err)

	hash, err := svc.HeadHash(repo)
	require.NoError(t, err)
	assert.Len(t, hash, 40)
}

func TestGitServiceCloneValidation(t *testing.T) {
	svc := NewGitService()
	ctx := context.Background()

	_, err := svc.Clone(ctx, "", t.TempDir())
	assert.Error(t, err)
	_, err = svc.Clone(ctx, "https://example.com/repo.git", "")
	assert.Error(t, err)
}

func TestGitServiceCloneMissingSource(t *testing.T) {
	svc := NewGitService()
	_, err := svc.Clone(context.Background(), filepath.Join(t.TempDir(), "missing"), t.TempDir())
	assert.Error(t, err)
}
