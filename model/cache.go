package model

import "time"

// RepoRef is one branch or tag name discovered at a git remote.
type RepoRef struct {
	Name string `json:"name"`
	SHA  string `json:"sha"`
}

// DockerfileEntry is one Dockerfile* found in a repo tree at a given
// ref, spec.md §4.1 ("root first, then lexicographic").
type DockerfileEntry struct {
	Path string `json:"path"`
}

// ServiceDefinition is one buildable stage/target detected by scanning a
// Dockerfile's multi-stage layout, spec.md §4.1.
type ServiceDefinition struct {
	Name      string `json:"name"`
	StageName string `json:"stage_name,omitempty"`
}

// RepoInspection is the cached result of introspecting one (git_url,
// ref) pair: its branches, tags, Dockerfiles and detected services.
// Entries are refreshed in the background once FetchedAt+ttl has
// elapsed, per spec.md §4.1's cache semantics.
type RepoInspection struct {
	GitURL        string              `json:"git_url"`
	DefaultBranch string              `json:"default_branch"`
	Branches      []RepoRef           `json:"branches"`
	Tags          []RepoRef           `json:"tags"`
	Dockerfiles   []DockerfileEntry   `json:"dockerfiles"`
	Services      []ServiceDefinition `json:"services,omitempty"`
	FetchedAt     time.Time           `json:"fetched_at"`
}

// Stale reports whether the entry is older than ttl and due for a
// background refresh.
func (r *RepoInspection) Stale(ttl time.Duration) bool {
	return time.Since(r.FetchedAt) > ttl
}
