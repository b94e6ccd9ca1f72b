package repoinspect

import (
	"context"
	"sync"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"forgecd.dev/core/model"
)

// Inspector is the Repository Introspection Service (C1): it answers
// "what branches/tags/Dockerfiles/services does this repo have" from an
// in-memory cache, refreshing entries in the background once they go
// stale. golang.org/x/sync/singleflight collapses concurrent misses for
// the same git_url into one network round trip, the way a cache
// stampede guard should.
type Inspector struct {
	log *logrus.Entry
	ttl time.Duration

	mu    sync.RWMutex
	cache map[string]*model.RepoInspection

	group singleflight.Group
}

// NewInspector builds an Inspector whose entries are considered stale
// after ttl.
func NewInspector(log *logrus.Entry, ttl time.Duration) *Inspector {
	return &Inspector{
		log:   log,
		ttl:   ttl,
		cache: make(map[string]*model.RepoInspection),
	}
}

// Inspect returns the cached inspection for gitURL, refreshing
// synchronously on a cold cache and in the background on a stale one.
func (i *Inspector) Inspect(ctx context.Context, gitURL string) (*model.RepoInspection, error) {
	i.mu.RLock()
	cached, ok := i.cache[gitURL]
	i.mu.RUnlock()

	if ok && !cached.Stale(i.ttl) {
		return cached, nil
	}
	if ok {
		// Stale but present: serve it immediately and kick off a
		// background refresh, so a caller is never blocked on a slow
		// remote just because its TTL expired.
		go i.refresh(context.Background(), gitURL)
		return cached, nil
	}

	return i.refresh(ctx, gitURL)
}

// refresh coalesces concurrent refreshes for the same gitURL via
// singleflight so N simultaneous cold requests produce one clone.
func (i *Inspector) refresh(ctx context.Context, gitURL string) (*model.RepoInspection, error) {
	v, err, _ := i.group.Do(gitURL, func() (any, error) {
		inspection, err := i.fetch(ctx, gitURL)
		if err != nil {
			return nil, err
		}
		i.mu.Lock()
		i.cache[gitURL] = inspection
		i.mu.Unlock()
		return inspection, nil
	})
	if err != nil {
		if i.log != nil {
			i.log.WithError(err).WithField("git_url", gitURL).Warn("repo inspection refresh failed")
		}
		return nil, err
	}
	return v.(*model.RepoInspection), nil
}

func (i *Inspector) fetch(ctx context.Context, gitURL string) (*model.RepoInspection, error) {
	branches, tags, err := listRefs(ctx, gitURL)
	if err != nil {
		return nil, err
	}

	repo, err := shallowClone(ctx, gitURL, "")
	if err != nil {
		return nil, err
	}
	head, err := repo.Head()
	if err != nil {
		return nil, model.Wrap(model.KindRepoUnreachable, "resolving HEAD for "+gitURL, err)
	}
	commit, err := repo.CommitObject(head.Hash())
	if err != nil {
		return nil, model.Wrap(model.KindRepoUnreachable, "reading HEAD commit for "+gitURL, err)
	}

	dockerfiles, err := findDockerfiles(repo, commit)
	if err != nil {
		return nil, model.Wrap(model.KindInternal, "scanning tree for Dockerfiles", err)
	}

	var services []model.ServiceDefinition
	if len(dockerfiles) > 0 {
		content, err := readFileAt(commit, dockerfiles[0].Path)
		if err == nil {
			services = detectServices(content)
		}
	}

	return &model.RepoInspection{
		GitURL:        gitURL,
		DefaultBranch: head.Name().Short(),
		Branches:      branches,
		Tags:          tags,
		Dockerfiles:   dockerfiles,
		Services:      services,
		FetchedAt:     time.Now(),
	}, nil
}

// Invalidate drops a cached entry, forcing the next Inspect to refresh
// synchronously. Used after a pipeline's webhook fires so the very next
// build sees a freshly-pushed Dockerfile instead of a stale cache hit.
func (i *Inspector) Invalidate(gitURL string) {
	i.mu.Lock()
	delete(i.cache, gitURL)
	i.mu.Unlock()
}

// ScanDockerfiles enumerates every Dockerfile* in gitURL's tree at
// branch (empty meaning the default branch), spec.md §4.1's
// ScanDockerfiles operation. Unlike Inspect, this always clones fresh:
// a caller naming a specific branch wants that branch's tree, not
// whatever HEAD happened to be cached.
func (i *Inspector) ScanDockerfiles(ctx context.Context, gitURL, branch string) ([]model.DockerfileEntry, error) {
	v, err, _ := i.group.Do("scan:"+gitURL+"@"+branch, func() (any, error) {
		repo, err := shallowClone(ctx, gitURL, branch)
		if err != nil {
			return nil, err
		}
		commit, err := i.headCommit(repo)
		if err != nil {
			return nil, err
		}
		return findDockerfiles(repo, commit)
	})
	if err != nil {
		return nil, err
	}
	return v.([]model.DockerfileEntry), nil
}

// AnalyzeServices parses dockerfilePath at branch (empty meaning the
// default branch) in gitURL's tree and reports its detected services,
// spec.md §4.1's AnalyzeServices operation.
func (i *Inspector) AnalyzeServices(ctx context.Context, gitURL, branch, dockerfilePath string) ([]model.ServiceDefinition, error) {
	v, err, _ := i.group.Do("services:"+gitURL+"@"+branch+"/"+dockerfilePath, func() (any, error) {
		repo, err := shallowClone(ctx, gitURL, branch)
		if err != nil {
			return nil, err
		}
		commit, err := i.headCommit(repo)
		if err != nil {
			return nil, err
		}
		content, err := readFileAt(commit, dockerfilePath)
		if err != nil {
			return nil, model.Wrap(model.KindDockerfileMissing, "reading "+dockerfilePath, err)
		}
		return detectServices(content), nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]model.ServiceDefinition), nil
}

func (i *Inspector) headCommit(repo *git.Repository) (*object.Commit, error) {
	head, err := repo.Head()
	if err != nil {
		return nil, model.Wrap(model.KindRepoUnreachable, "resolving HEAD", err)
	}
	commit, err := repo.CommitObject(head.Hash())
	if err != nil {
		return nil, model.Wrap(model.KindRepoUnreachable, "reading HEAD commit", err)
	}
	return commit, nil
}
