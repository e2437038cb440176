package catalog

import (
	"context"
	"errors"
	"os"
	"path/filepath"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"golang.org/x/sync/singleflight"

	"github.com/sluicelabs/sluice/internal/job"
)

// Syncer keeps the local working copy of the template source tree in sync
// with its upstream: clone when absent, pull otherwise.
//
// The working copy is the one piece of persistent shared state in the
// system, and go-git checkouts assume a single writer. Concurrent Refresh
// calls are therefore collapsed through a singleflight group so overlapping
// requests share one pull instead of tearing the checkout.
type Syncer struct {
	// RemoteURL is the upstream repository.
	RemoteURL string

	// Dir is the local working-copy path.
	Dir string

	// Branch to track; "main" when empty.
	Branch string

	group singleflight.Group
}

// Refresh synchronizes the working copy and returns its path. Failures are
// tagged CATALOG_REFRESH_FAILURE and propagate to the caller; they are never
// swallowed.
func (s *Syncer) Refresh(ctx context.Context) (string, error) {
	path, err, _ := s.group.Do("refresh", func() (any, error) {
		return s.refresh(ctx)
	})
	if err != nil {
		return "", err
	}
	return path.(string), nil
}

func (s *Syncer) refresh(ctx context.Context) (string, error) {
	branch := s.Branch
	if branch == "" {
		branch = "main"
	}
	ref := plumbing.NewBranchReferenceName(branch)

	if _, statErr := os.Stat(filepath.Join(s.Dir, ".git")); statErr == nil {
		repo, err := git.PlainOpen(s.Dir)
		if err != nil {
			return "", job.Errorf(job.KindCatalogRefreshFailure,
				"failed to open template repo at %s: %v", s.Dir, err)
		}
		wt, err := repo.Worktree()
		if err != nil {
			return "", job.Errorf(job.KindCatalogRefreshFailure,
				"failed to open template repo worktree: %v", err)
		}
		err = wt.PullContext(ctx, &git.PullOptions{
			RemoteName:    "origin",
			ReferenceName: ref,
			SingleBranch:  true,
		})
		if err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
			return "", job.Errorf(job.KindCatalogRefreshFailure,
				"failed to pull %s: %v", s.RemoteURL, err)
		}
		return s.Dir, nil
	}

	_, err := git.PlainCloneContext(ctx, s.Dir, false, &git.CloneOptions{
		URL:           s.RemoteURL,
		ReferenceName: ref,
		SingleBranch:  true,
		Depth:         1,
	})
	if err != nil {
		return "", job.Errorf(job.KindCatalogRefreshFailure,
			"failed to clone %s: %v", s.RemoteURL, err)
	}
	return s.Dir, nil
}
