package services

import (
	"context"
	"fmt"

	"github.com/go-git/go-git/v5"
)

// GitService handles repository acquisition: the pipeline only ever
// consumes the checked-out directory it produces.
type GitService struct {
	context context.Context
}

func NewGitService() *GitService {
	return &GitService{}
}

func (g *GitService) Startup(ctx context.Context) {
	g.context = ctx
}

// Clone clones a repository from a remote URL into the given local path.
// A shallow clone is enough: the pipeline reads one snapshot of the tree
// and never walks history.
func (g *GitService) Clone(ctx context.Context, url, path string) (*git.Repository, error) {
	if url == "" {
		return nil, fmt.Errorf("clone url cannot be empty")
	}
	if path == "" {
		return nil, fmt.Errorf("clone path cannot be empty")
	}

	repo, err := git.PlainCloneContext(ctx, path, false, &git.CloneOptions{
		URL:   url,
		Depth: 1,
	})
	if err != nil {
		return nil, err
	}
	return repo, nil
}

// Open an existing repo
func (g *GitService) Open(path string) (*git.Repository, error) {
	repo, err := git.PlainOpen(path)
	if err != nil {
		return nil, err
	}
	return repo, nil
}

// HeadHash returns the hash of the checked-out HEAD commit.
func (g *GitService) HeadHash(repo *git.Repository) (string, error) {
	ref, err := repo.Head()
	if err != nil {
		return "", fmt.Errorf("failed to get HEAD: %w", err)
	}
	return ref.Hash().String(), nil
}
