package repoinspect

import (
	"testing"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/storage/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newFixtureCommit builds a throwaway in-memory repo with the given
// files committed at HEAD, mirroring the local-repo-fixture style
// bx/build's tests use for exercising tree-walking logic without a
// real remote.
func newFixtureCommit(t *testing.T, files map[string]string) *object.Commit {
	t.Helper()

	fs := memfs.New()
	repo, err := git.Init(memory.NewStorage(), fs)
	require.NoError(t, err)

	wt, err := repo.Worktree()
	require.NoError(t, err)

	for path, content := range files {
		require.NoError(t, util.WriteFile(fs, path, []byte(content), 0644))
		_, err := wt.Add(path)
		require.NoError(t, err)
	}

	hash, err := wt.Commit("fixture commit", &git.CommitOptions{
		Author: &object.Signature{Name: "fixture", Email: "fixture@example.com"},
	})
	require.NoError(t, err)

	commit, err := repo.CommitObject(hash)
	require.NoError(t, err)
	return commit
}

func TestFindDockerfiles_RootFirstThenLexicographic(t *testing.T) {
	commit := newFixtureCommit(t, map[string]string{
		"Dockerfile":             "FROM alpine\n",
		"services/api/Dockerfile": "FROM alpine\n",
		"services/web/Dockerfile.prod": "FROM alpine\n",
		"README.md":              "not a dockerfile\n",
	})

	entries, err := findDockerfiles(nil, commit)
	require.NoError(t, err)

	paths := make([]string, len(entries))
	for i, e := range entries {
		paths[i] = e.Path
	}
	assert.Equal(t, []string{
		"Dockerfile",
		"services/api/Dockerfile",
		"services/web/Dockerfile.prod",
	}, paths)
}

func TestReadFileAt(t *testing.T) {
	commit := newFixtureCommit(t, map[string]string{
		"Dockerfile": "FROM golang:1.22 AS builder\n",
	})

	content, err := readFileAt(commit, "Dockerfile")
	require.NoError(t, err)
	assert.Equal(t, "FROM golang:1.22 AS builder\n", string(content))

	_, err = readFileAt(commit, "missing")
	require.Error(t, err)
}

func TestIsDockerfileName(t *testing.T) {
	assert.True(t, isDockerfileName("Dockerfile"))
	assert.True(t, isDockerfileName("Dockerfile.prod"))
	assert.False(t, isDockerfileName("dockerfile"))
	assert.False(t, isDockerfileName("readme.md"))
}
