package trigger

import (
	"strings"

	"forgecd.dev/core/model"
)

// ResolveBranch decides which branch a webhook push should build,
// spec.md §4.6:
//
//   - use_push: build whatever branch the push was against.
//   - filter_match: build the pushed branch only if it matches one of
//     the pipeline's branch_tag_mapping rules (literal or "prefix/*"
//     glob); otherwise the push is ignored (returns ok=false).
//   - use_configured: always build pipeline.branch regardless of what
//     was pushed.
func ResolveBranch(p *model.Pipeline, pushedBranch string) (branch string, ok bool) {
	switch p.WebhookBranchStrategy {
	case model.BranchStrategyUseConfigured:
		return p.Branch, true
	case model.BranchStrategyFilterMatch:
		if matchAnyRule(p.BranchTagMapping, pushedBranch) {
			return pushedBranch, true
		}
		return "", false
	default: // use_push, or unset
		return pushedBranch, true
	}
}

// ResolveTag maps a resolved branch to the image tag a build should
// use, per spec.md §4.6 step 5: rules are tried in declaration order,
// first an exact literal match, then a trailing-glob ("release/*")
// match; no match falls back to the pipeline's default tag.
func ResolveTag(p *model.Pipeline, branch string) string {
	for _, rule := range p.BranchTagMapping {
		if rule.Branch == branch {
			return rule.Tag
		}
	}
	for _, rule := range p.BranchTagMapping {
		if isGlob(rule.Branch) && matchGlob(rule.Branch, branch) {
			return rule.Tag
		}
	}
	return p.Tag
}

func matchAnyRule(rules []model.BranchTagRule, branch string) bool {
	for _, rule := range rules {
		if rule.Branch == branch {
			return true
		}
		if isGlob(rule.Branch) && matchGlob(rule.Branch, branch) {
			return true
		}
	}
	return false
}

func isGlob(pattern string) bool {
	return strings.HasSuffix(pattern, "/*")
}

// matchGlob implements the one glob shape spec.md §4.6 defines:
// "prefix/*" matches any branch name starting with "prefix/".
func matchGlob(pattern, branch string) bool {
	prefix := strings.TrimSuffix(pattern, "*")
	return strings.HasPrefix(branch, prefix) && branch != prefix
}
