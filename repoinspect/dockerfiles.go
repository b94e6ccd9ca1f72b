package repoinspect

import (
	"io"
	"path"
	"sort"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"

	"forgecd.dev/core/model"
)

// findDockerfiles walks the tree at commit and returns every file whose
// base name is "Dockerfile" or starts with "Dockerfile.", ordered with
// the repo-root entry first and the rest lexicographic by path, per
// spec.md §4.1.
func findDockerfiles(repo *git.Repository, commit *object.Commit) ([]model.DockerfileEntry, error) {
	tree, err := commit.Tree()
	if err != nil {
		return nil, err
	}

	var entries []model.DockerfileEntry
	walker := object.NewTreeWalker(tree, true, nil)
	defer walker.Close()

	for {
		name, entry, err := walker.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if entry.Mode.IsFile() && isDockerfileName(path.Base(name)) {
			entries = append(entries, model.DockerfileEntry{Path: name})
		}
	}

	sort.Slice(entries, func(i, j int) bool {
		iRoot := !strings.Contains(entries[i].Path, "/")
		jRoot := !strings.Contains(entries[j].Path, "/")
		if iRoot != jRoot {
			return iRoot
		}
		return entries[i].Path < entries[j].Path
	})
	return entries, nil
}

func isDockerfileName(base string) bool {
	return base == "Dockerfile" || strings.HasPrefix(base, "Dockerfile.")
}

// readFileAt returns the content of path within commit's tree.
func readFileAt(commit *object.Commit, filePath string) ([]byte, error) {
	file, err := commit.File(filePath)
	if err != nil {
		return nil, err
	}
	r, err := file.Reader()
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}
