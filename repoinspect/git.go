// Package repoinspect implements the Repository Introspection Service
// (C1): listing branches/tags, locating Dockerfiles at a ref, and
// detecting buildable services, all backed by shallow go-git clones the
// way bx/build/builder.go's fetchGitRepoWithGoGit clones a codebase
// before a build.
package repoinspect

import (
	"context"
	"sort"

	"github.com/go-git/go-git/v5"
	gitconfig "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/storage/memory"

	"forgecd.dev/core/model"
)

// shallowClone clones gitURL in-memory (no checkout to disk) with
// Depth: 1 just to read its ref advertisement and tree objects. This is
// far cheaper than imagebuilder's on-disk clone, which a real build
// needs a working tree for. An empty branch clones the remote's default
// HEAD; a non-empty one pins the clone to that branch specifically, for
// scanning a tree at an explicit ref (spec.md §4.1).
func shallowClone(ctx context.Context, gitURL, branch string) (*git.Repository, error) {
	opts := &git.CloneOptions{
		URL:        gitURL,
		RemoteName: "origin",
		Depth:      1,
		Tags:       git.AllTags,
	}
	if branch != "" {
		opts.ReferenceName = plumbing.NewBranchReferenceName(branch)
		opts.SingleBranch = true
	}
	repo, err := git.CloneContext(ctx, memory.NewStorage(), nil, opts)
	if err != nil {
		return nil, model.Wrap(model.KindRepoUnreachable, "cloning "+gitURL, err)
	}
	return repo, nil
}

// listRefs returns every branch and every tag advertised by gitURL's
// remote, without fetching any blob content.
func listRefs(ctx context.Context, gitURL string) (branches, tags []model.RepoRef, err error) {
	remote := git.NewRemote(memory.NewStorage(), &gitconfig.RemoteConfig{
		Name: "origin",
		URLs: []string{gitURL},
	})
	refs, err := remote.ListContext(ctx, &git.ListOptions{})
	if err != nil {
		return nil, nil, model.Wrap(model.KindRepoUnreachable, "listing refs for "+gitURL, err)
	}

	for _, ref := range refs {
		name := ref.Name()
		switch {
		case name.IsBranch():
			branches = append(branches, model.RepoRef{Name: name.Short(), SHA: ref.Hash().String()})
		case name.IsTag():
			tags = append(tags, model.RepoRef{Name: name.Short(), SHA: ref.Hash().String()})
		}
	}
	sort.Slice(branches, func(i, j int) bool { return branches[i].Name < branches[j].Name })
	sort.Slice(tags, func(i, j int) bool { return tags[i].Name < tags[j].Name })
	return branches, tags, nil
}
