package imagebuilder

import (
	"context"
	"os"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"

	"forgecd.dev/core/model"
)

// cloneInto clones gitURL into destDir on disk, optionally pinned to a
// branch (shallow, depth 1) and/or a specific commit, grounded on
// bx/build/builder.go's fetchGitRepoWithGoGit.
func cloneInto(ctx context.Context, gitURL, branch, commitSHA, destDir string) error {
	if err := os.RemoveAll(destDir); err != nil {
		return model.Wrap(model.KindInternal, "clearing build directory", err)
	}

	opts := &git.CloneOptions{
		URL:        gitURL,
		RemoteName: "origin",
	}
	if branch != "" {
		opts.ReferenceName = plumbing.NewBranchReferenceName(branch)
		opts.SingleBranch = true
		opts.Depth = 1
	}

	repo, err := git.PlainCloneContext(ctx, destDir, false, opts)
	if err != nil {
		return model.Wrap(model.KindRepoUnreachable, "cloning "+gitURL, err)
	}

	if commitSHA != "" {
		w, err := repo.Worktree()
		if err != nil {
			return model.Wrap(model.KindInternal, "opening worktree", err)
		}
		if err := w.Checkout(&git.CheckoutOptions{Hash: plumbing.NewHash(commitSHA), Force: true}); err != nil {
			return model.Wrap(model.KindRepoUnreachable, "checking out commit "+commitSHA, err)
		}
	}
	return nil
}
